// Package construct implements the metadata layer of the data model: named,
// unit-carrying constructs over an array delegate, with identity resolution,
// tolerance-based equality, unit-aware operation dispatch and reference-time
// conversion.
package construct

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

// Kind is the concrete construct type. Comparing constructs of different
// kinds fails unless the comparison explicitly requests coercion.
type Kind string

const (
	KindField               Kind = "field"
	KindDimensionCoordinate Kind = "dimension_coordinate"
	KindAuxiliaryCoordinate Kind = "auxiliary_coordinate"
	KindCellMeasure         Kind = "cell_measure"
	KindDomainAncillary     Kind = "domain_ancillary"
	KindFieldAncillary      Kind = "field_ancillary"
)

// HasIdentity is the capability of deriving canonical names from metadata.
type HasIdentity interface {
	Identity(def string) string
	Identities() []string
}

// HasData is the capability of owning an array delegate.
type HasData interface {
	Data() (*data.Array, bool)
}

var (
	_ HasIdentity = (*Construct)(nil)
	_ HasData     = (*Construct)(nil)
)

// Construct is a named, unit-carrying, optionally masked array entity. It
// holds a property map, an optional array delegate, special attributes used
// only by equivalence checks, an id attribute, a storage variable name and
// the four coordinate-axis-type flags.
//
// When data is present the construct's units live on the data; the local
// units field is a cache used only while no data is attached.
type Construct struct {
	kind       Kind
	properties map[string]any
	special    map[string]any
	data       *data.Array
	units      units.Units
	id         string
	ncvar      string
	x, y, z, t bool
}

// New creates an empty construct of the given kind.
func New(kind Kind) *Construct {
	return &Construct{
		kind:       kind,
		properties: map[string]any{},
		special:    map[string]any{},
	}
}

// Kind returns the concrete construct type.
func (c *Construct) Kind() Kind { return c.kind }

// Property returns a property value and whether it is set.
func (c *Construct) Property(name string) (any, bool) {
	v, ok := c.properties[name]
	return v, ok
}

// SetProperty sets a property.
func (c *Construct) SetProperty(name string, value any) {
	c.properties[name] = value
}

// DelProperty removes a property.
func (c *Construct) DelProperty(name string) {
	delete(c.properties, name)
}

// Properties returns a copy of the property map.
func (c *Construct) Properties() map[string]any {
	out := make(map[string]any, len(c.properties))
	for k, v := range c.properties {
		out[k] = v
	}
	return out
}

// SpecialAttribute returns a special attribute and whether it is set.
// Special attributes participate only in equivalence checks, never in
// identity resolution or equality.
func (c *Construct) SpecialAttribute(name string) (any, bool) {
	v, ok := c.special[name]
	return v, ok
}

// SetSpecialAttribute sets a special attribute.
func (c *Construct) SetSpecialAttribute(name string, value any) {
	c.special[name] = value
}

// ID returns the id attribute ("" when unset).
func (c *Construct) ID() string { return c.id }

// SetID sets the id attribute.
func (c *Construct) SetID(id string) { c.id = id }

// NCVar returns the storage variable name ("" when unset).
func (c *Construct) NCVar() string { return c.ncvar }

// SetNCVar sets the storage variable name.
func (c *Construct) SetNCVar(name string) { c.ncvar = name }

// AxisType reports whether the named coordinate-axis-type flag ("X", "Y",
// "Z" or "T") is set.
func (c *Construct) AxisType(axis string) bool {
	switch axis {
	case "X":
		return c.x
	case "Y":
		return c.y
	case "Z":
		return c.z
	case "T":
		return c.t
	}
	return false
}

// SetAxisType sets or clears a coordinate-axis-type flag.
func (c *Construct) SetAxisType(axis string, on bool) error {
	switch axis {
	case "X":
		c.x = on
	case "Y":
		c.y = on
	case "Z":
		c.z = on
	case "T":
		c.t = on
	default:
		return fmt.Errorf("unknown axis type %q", axis)
	}
	return nil
}

// Data returns the array delegate and whether one is attached.
func (c *Construct) Data() (*data.Array, bool) {
	return c.data, c.data != nil
}

// HasArray reports whether the construct owns data.
func (c *Construct) HasArray() bool { return c.data != nil }

// SetData attaches an array delegate. The construct's units follow the
// data's tag from this point; the previous local units cache is discarded.
func (c *Construct) SetData(a *data.Array) {
	c.data = a
	c.units = units.Units{}
}

// DelData detaches and returns the data, caching its units locally so the
// construct keeps its recorded units.
func (c *Construct) DelData() *data.Array {
	a := c.data
	if a != nil {
		c.units = a.Units()
	}
	c.data = nil
	return a
}

// Units returns the construct's units: the data's tag when data is present,
// the local cache otherwise.
func (c *Construct) Units() units.Units {
	if c.data != nil {
		return c.data.Units()
	}
	return c.units
}

// SetUnits converts the construct into the given units. Attached data
// values are converted; the new units must be equivalent to the current
// ones when any are recorded.
func (c *Construct) SetUnits(u units.Units) error {
	if c.data != nil {
		return c.data.SetUnits(u)
	}
	if c.units.IsDefined() {
		if _, err := c.units.ConversionTo(u); err != nil {
			return err
		}
	}
	c.units = u
	return nil
}

// OverrideUnits replaces the recorded units without converting any values,
// deliberately decoupling the recorded units from the numbers. This and
// OverrideCalendar are the only sanctioned ways to break that coupling.
func (c *Construct) OverrideUnits(u units.Units) {
	if c.data != nil {
		c.data.OverrideUnits(u)
		return
	}
	c.units = u
}

// OverrideCalendar reinterprets reference-time units under a different
// calendar, leaving the numbers untouched.
func (c *Construct) OverrideCalendar(calendar string) error {
	u := c.Units()
	if !u.IsReftime() {
		return fmt.Errorf("cannot override the calendar of %q: %w", u, ErrIncompatibleUnits)
	}
	nu, err := units.ParseWithCalendar(u.String(), calendar)
	if err != nil {
		return err
	}
	c.OverrideUnits(nu)
	return nil
}

// Copy returns an independent deep copy.
func (c *Construct) Copy() *Construct {
	out := &Construct{
		kind:       c.kind,
		properties: make(map[string]any, len(c.properties)),
		special:    make(map[string]any, len(c.special)),
		units:      c.units,
		id:         c.id,
		ncvar:      c.ncvar,
		x:          c.x, y: c.y, z: c.z, t: c.t,
	}
	for k, v := range c.properties {
		out.properties[k] = copyValue(v)
	}
	for k, v := range c.special {
		out.special[k] = copyValue(v)
	}
	if c.data != nil {
		out.data = c.data.Copy()
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []float64:
		return append([]float64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// Equivalent reports whether two constructs describe the same quantity:
// the same canonical identity, the same special attributes, and data that
// agrees within tolerance after unit conversion. Unlike Equals it accepts
// different but convertible units.
func (c *Construct) Equivalent(other *Construct, rtol, atol float64) bool {
	if c == other {
		return true
	}
	if other == nil {
		return false
	}
	if c.Identity("") != other.Identity("") {
		return false
	}
	if len(c.special) != len(other.special) {
		return false
	}
	for k, v := range c.special {
		ov, ok := other.special[k]
		if !ok || !valueEqual(v, ov, false) {
			return false
		}
	}
	if (c.data == nil) != (other.data == nil) {
		return false
	}
	if c.data == nil {
		return c.Units().Equivalent(other.Units())
	}
	ok, err := c.data.Allclose(other.data, defTol(rtol), defTol(atol))
	return err == nil && ok
}

// MatchByIdentity reports whether any of the given identities names this
// construct. No arguments matches everything.
func (c *Construct) MatchByIdentity(identities ...string) bool {
	if len(identities) == 0 {
		return true
	}
	all := c.Identities()
	for _, want := range identities {
		for _, have := range all {
			if want == have {
				return true
			}
		}
	}
	return false
}

// MatchByUnits reports whether the construct's units match the given ones,
// exactly or up to dimensional equivalence.
func (c *Construct) MatchByUnits(u units.Units, exact bool) bool {
	if exact {
		return c.Units().Equals(u)
	}
	return c.Units().Equivalent(u)
}

// MatchByNaxes reports whether the construct's data has one of the given
// numbers of axes. A construct without data never matches.
func (c *Construct) MatchByNaxes(naxes ...int) bool {
	if c.data == nil {
		return false
	}
	if len(naxes) == 0 {
		return true
	}
	for _, n := range naxes {
		if c.data.Ndim() == n {
			return true
		}
	}
	return false
}

// MatchByProperty reports whether the named property is set to the given
// value.
func (c *Construct) MatchByProperty(name string, value any) bool {
	v, ok := c.properties[name]
	return ok && valueEqual(v, value, false)
}

func (c *Construct) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s: %s", c.kind, c.Identity("unknown"))
	if c.data != nil {
		fmt.Fprintf(&b, "%v", c.data.Shape())
	}
	if u := c.Units(); u.IsDefined() {
		fmt.Fprintf(&b, " %s", u)
	}
	b.WriteByte('>')
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
