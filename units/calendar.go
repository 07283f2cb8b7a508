package units

import (
	"fmt"
	"math"
)

// Calendar identifies the calendar against which reference-time values are
// decoded. The names follow the CF conventions; ParseCalendar accepts the
// conventional aliases ("gregorian", "365_day", "366_day").
type Calendar string

const (
	CalendarStandard           Calendar = "standard"
	CalendarProlepticGregorian Calendar = "proleptic_gregorian"
	CalendarJulian             Calendar = "julian"
	CalendarNoLeap             Calendar = "noleap"
	CalendarAllLeap            Calendar = "all_leap"
	Calendar360Day             Calendar = "360_day"
)

// ParseCalendar resolves a calendar name, folding aliases onto the canonical
// spelling. The empty string resolves to the standard calendar.
func ParseCalendar(name string) (Calendar, error) {
	switch name {
	case "", "standard", "gregorian":
		return CalendarStandard, nil
	case "proleptic_gregorian":
		return CalendarProlepticGregorian, nil
	case "julian":
		return CalendarJulian, nil
	case "noleap", "365_day":
		return CalendarNoLeap, nil
	case "all_leap", "366_day":
		return CalendarAllLeap, nil
	case "360_day":
		return Calendar360Day, nil
	default:
		return "", fmt.Errorf("unknown calendar %q", name)
	}
}

// DateTime is a calendar-agnostic date and time of day. It carries no
// calendar itself; all arithmetic takes the calendar explicitly, because the
// same (year, month, day) names a different instant on different calendars.
//
// Sub-second precision is not represented: decoding rounds to the nearest
// whole second.
type DateTime struct {
	Year   int
	Month  int // 1-12
	Day    int // 1-31
	Hour   int
	Minute int
	Second int
}

func (dt DateTime) String() string {
	if dt.Hour == 0 && dt.Minute == 0 && dt.Second == 0 {
		return fmt.Sprintf("%04d-%02d-%02d", dt.Year, dt.Month, dt.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

var (
	cumDays365 = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	cumDays366 = [12]int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}

	monthLen365 = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	monthLen366 = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
)

// DaysInMonth returns the length of a month on the given calendar.
func DaysInMonth(cal Calendar, year, month int) int {
	switch cal {
	case Calendar360Day:
		return 30
	case CalendarNoLeap:
		return monthLen365[month-1]
	case CalendarAllLeap:
		return monthLen366[month-1]
	default:
		if month == 2 && isLeapYear(cal, year) {
			return 29
		}
		return monthLen365[month-1]
	}
}

func isLeapYear(cal Calendar, year int) bool {
	switch cal {
	case CalendarJulian:
		return floorMod(year, 4) == 0
	case CalendarProlepticGregorian:
		return gregorianLeap(year)
	case CalendarStandard:
		if year < 1583 {
			return floorMod(year, 4) == 0
		}
		return gregorianLeap(year)
	default:
		return false
	}
}

func gregorianLeap(year int) bool {
	return floorMod(year, 4) == 0 && (floorMod(year, 100) != 0 || floorMod(year, 400) == 0)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// gregorianJDN of 1582-10-15, the first day of the Gregorian reform. The
// standard (mixed) calendar switches between the Julian and Gregorian rules
// at this day.
const gregorianReformJDN = 2299161

func gregorianJDN(y, m, d int64) int64 {
	a := floorDiv(14-m, 12)
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + floorDiv(153*mm+2, 5) + 365*yy + floorDiv(yy, 4) - floorDiv(yy, 100) + floorDiv(yy, 400) - 32045
}

func julianJDN(y, m, d int64) int64 {
	a := floorDiv(14-m, 12)
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + floorDiv(153*mm+2, 5) + 365*yy + floorDiv(yy, 4) - 32083
}

func fromGregorianJDN(jdn int64) (y, m, d int) {
	a := jdn + 32044
	b := floorDiv(4*a+3, 146097)
	c := a - floorDiv(146097*b, 4)
	dd := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*dd, 4)
	mm := floorDiv(5*e+2, 153)
	d = int(e - floorDiv(153*mm+2, 5) + 1)
	m = int(mm + 3 - 12*floorDiv(mm, 10))
	y = int(100*b + dd - 4800 + floorDiv(mm, 10))
	return y, m, d
}

func fromJulianJDN(jdn int64) (y, m, d int) {
	c := jdn + 32082
	dd := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*dd, 4)
	mm := floorDiv(5*e+2, 153)
	d = int(e - floorDiv(153*mm+2, 5) + 1)
	m = int(mm + 3 - 12*floorDiv(mm, 10))
	y = int(dd - 4800 + floorDiv(mm, 10))
	return y, m, d
}

// serialDay returns a monotonically increasing day number for a date on the
// given calendar. The zero point differs between calendars; only differences
// of serial days on the same calendar are meaningful.
func serialDay(cal Calendar, year, month, day int) int64 {
	y, m, d := int64(year), int64(month), int64(day)
	switch cal {
	case Calendar360Day:
		return y*360 + (m-1)*30 + (d - 1)
	case CalendarNoLeap:
		return y*365 + int64(cumDays365[month-1]) + (d - 1)
	case CalendarAllLeap:
		return y*366 + int64(cumDays366[month-1]) + (d - 1)
	case CalendarJulian:
		return julianJDN(y, m, d)
	case CalendarProlepticGregorian:
		return gregorianJDN(y, m, d)
	default: // standard: Gregorian from 1582-10-15, Julian before
		if jdn := gregorianJDN(y, m, d); jdn >= gregorianReformJDN {
			return jdn
		}
		return julianJDN(y, m, d)
	}
}

func fromSerialDay(cal Calendar, n int64) (year, month, day int) {
	switch cal {
	case Calendar360Day:
		y := floorDiv(n, 360)
		r := int(n - y*360)
		return int(y), r/30 + 1, r%30 + 1
	case CalendarNoLeap:
		y := floorDiv(n, 365)
		r := int(n - y*365)
		m := 12
		for i := 1; i < 12; i++ {
			if r < cumDays365[i] {
				m = i
				break
			}
		}
		return int(y), m, r - cumDays365[m-1] + 1
	case CalendarAllLeap:
		y := floorDiv(n, 366)
		r := int(n - y*366)
		m := 12
		for i := 1; i < 12; i++ {
			if r < cumDays366[i] {
				m = i
				break
			}
		}
		return int(y), m, r - cumDays366[m-1] + 1
	case CalendarJulian:
		return fromJulianJDN(n)
	case CalendarProlepticGregorian:
		return fromGregorianJDN(n)
	default:
		if n >= gregorianReformJDN {
			return fromGregorianJDN(n)
		}
		return fromJulianJDN(n)
	}
}

func (dt DateTime) secondOfDay() int64 {
	return int64(dt.Hour)*3600 + int64(dt.Minute)*60 + int64(dt.Second)
}

// AddSeconds advances a date-time by a (possibly negative, possibly
// fractional) number of seconds on the given calendar, rounding to the
// nearest whole second.
func (dt DateTime) AddSeconds(cal Calendar, seconds float64) DateTime {
	total := float64(serialDay(cal, dt.Year, dt.Month, dt.Day))*86400 +
		float64(dt.secondOfDay()) + seconds
	total = math.Round(total)
	day := int64(math.Floor(total / 86400))
	tod := int64(total) - day*86400
	y, m, d := fromSerialDay(cal, day)
	return DateTime{
		Year: y, Month: m, Day: d,
		Hour:   int(tod / 3600),
		Minute: int(tod % 3600 / 60),
		Second: int(tod % 60),
	}
}

// AddMonths advances a date-time by whole calendar months, clamping the day
// of month to the length of the target month.
func (dt DateTime) AddMonths(cal Calendar, months int) DateTime {
	total := dt.Year*12 + (dt.Month - 1) + months
	y := int(floorDiv(int64(total), 12))
	m := floorMod(total, 12) + 1
	d := dt.Day
	if n := DaysInMonth(cal, y, m); d > n {
		d = n
	}
	return DateTime{Year: y, Month: m, Day: d, Hour: dt.Hour, Minute: dt.Minute, Second: dt.Second}
}

// SecondsBetween returns the signed number of seconds from a to b on the
// given calendar.
func SecondsBetween(cal Calendar, a, b DateTime) float64 {
	days := serialDay(cal, b.Year, b.Month, b.Day) - serialDay(cal, a.Year, a.Month, a.Day)
	return float64(days)*86400 + float64(b.secondOfDay()-a.secondOfDay())
}
