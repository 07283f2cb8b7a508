package construct

import "fmt"

// Fallback properties probed by Identity, in priority order.
var identityFallbacks = []string{"cf_role", "axis", "long_name"}

// Identity derives the canonical name of the construct. The probe order is
// fixed, first match wins:
//
//	1. the standard_name property
//	2. the id attribute, as "id%<value>"
//	3. cf_role, axis and long_name, as "<property>=<value>"
//	4. the storage variable name, as "ncvar%<name>"
//	5. the first set coordinate-axis-type flag, as "X", "Y", "Z" or "T"
//	6. the caller-supplied default
func (c *Construct) Identity(def string) string {
	return c.identity(def, false, false)
}

// IdentityStrict is Identity restricted to the standard_name property and
// the id attribute.
func (c *Construct) IdentityStrict(def string) string {
	return c.identity(def, true, false)
}

// IdentityNCOnly is Identity restricted to the storage variable name.
func (c *Construct) IdentityNCOnly(def string) string {
	return c.identity(def, false, true)
}

func (c *Construct) identity(def string, strict, ncOnly bool) string {
	if ncOnly {
		if c.ncvar != "" {
			return "ncvar%" + c.ncvar
		}
		return def
	}
	if v, ok := c.properties["standard_name"]; ok {
		return fmt.Sprint(v)
	}
	if c.id != "" {
		return "id%" + c.id
	}
	if strict {
		return def
	}
	for _, name := range identityFallbacks {
		if v, ok := c.properties[name]; ok {
			return fmt.Sprintf("%s=%v", name, v)
		}
	}
	if c.ncvar != "" {
		return "ncvar%" + c.ncvar
	}
	for _, axis := range []string{"X", "Y", "Z", "T"} {
		if c.AxisType(axis) {
			return axis
		}
	}
	return def
}

// Identities collects every applicable identity form: the bare standard
// name, the id attribute, every property as "name=value", the storage
// variable name, and any set axis-type flags last. The order is for
// display; matching treats the forms as a set.
func (c *Construct) Identities() []string {
	var out []string
	if v, ok := c.properties["standard_name"]; ok {
		out = append(out, fmt.Sprint(v))
	}
	if c.id != "" {
		out = append(out, "id%"+c.id)
	}
	for _, name := range sortedKeys(c.properties) {
		out = append(out, fmt.Sprintf("%s=%v", name, c.properties[name]))
	}
	if c.ncvar != "" {
		out = append(out, "ncvar%"+c.ncvar)
	}
	for _, axis := range []string{"X", "Y", "Z", "T"} {
		if c.AxisType(axis) {
			out = append(out, axis)
		}
	}
	return out
}
