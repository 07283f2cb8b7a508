package construct

import (
	"fmt"
	"math"

	"github.com/geomodel/cf-toolbox-go/units"
)

// ConvertReferenceTime re-expresses a reference-time construct in different
// reference-time units. An undefined target means day-resolution units with
// the same origin and calendar as the source.
//
// When the source units count months or years and the matching calendar
// flag is set, each value is reinterpreted as that many actual calendar
// months or years from the origin rather than a fixed fraction of the
// astronomical year. A non-negative offset resolves to the end of the
// implied interval and a negative offset to its start, so 1 in "months
// since 2000-01-01" lands on 2000-02-01 and -1 on 1999-12-01. Fractional
// calendar durations are truncated toward zero.
//
// The conversion is element-wise; calendar month and year arithmetic is
// not an affine map over the numbers.
func (c *Construct) ConvertReferenceTime(target units.Units, calendarMonths, calendarYears bool) (*Construct, error) {
	if c.data == nil {
		return nil, fmt.Errorf("cannot convert the reference time of %s: %w",
			c.Identity("construct"), ErrNoData)
	}
	u := c.Units()
	if !u.IsReftime() {
		return nil, fmt.Errorf("%q are not reference-time units: %w", u, ErrIncompatibleUnits)
	}

	if !target.IsDefined() {
		var err error
		target, err = u.DaysSinceOrigin()
		if err != nil {
			return nil, err
		}
	}
	if !target.IsReftime() {
		return nil, fmt.Errorf("cannot convert %q to non-reference-time units %q: %w",
			u, target, ErrIncompatibleUnits)
	}
	if target.Calendar() != u.Calendar() {
		return nil, fmt.Errorf("cannot convert between calendars %q and %q: %w",
			u.Calendar(), target.Calendar(), ErrIncompatibleUnits)
	}

	out := c.Copy()
	arr, _ := out.Data()

	monthsPer := 0
	switch {
	case u.IsCalendarMonths() && calendarMonths:
		monthsPer = 1
	case u.IsCalendarYears() && calendarYears:
		monthsPer = 12
	}

	if monthsPer == 0 {
		cv, err := u.ConversionTo(target)
		if err != nil {
			return nil, err
		}
		for i := 0; i < arr.Size(); i++ {
			if v, masked := arr.Item(i); !masked {
				arr.SetItem(i, cv.Apply(v))
			}
		}
		arr.OverrideUnits(target)
		return out, nil
	}

	origin, _ := u.Origin()
	cal := u.Calendar()
	for i := 0; i < arr.Size(); i++ {
		v, masked := arr.Item(i)
		if masked {
			continue
		}
		dt := origin.AddMonths(cal, int(math.Trunc(v))*monthsPer)
		enc, err := target.Encode(dt)
		if err != nil {
			return nil, err
		}
		arr.SetItem(i, enc)
	}
	arr.OverrideUnits(target)
	return out, nil
}
