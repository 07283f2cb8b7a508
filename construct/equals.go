package construct

import (
	"fmt"
	"io"
)

// Default numeric tolerances for equality, the double-precision machine
// epsilon. A zero tolerance field in Equality means "use the default";
// comparisons needing an exact match should compare the encoded values
// directly.
const (
	DefaultRTol = 2.220446049250313e-16
	DefaultATol = 2.220446049250313e-16
)

func defTol(v float64) float64 {
	if v == 0 {
		return DefaultRTol
	}
	return v
}

// Equality carries the options of a comparison. The zero value compares
// strictly with the default tolerances and no diagnostics. There is no
// ambient tolerance state; every call site gets exactly what it passes.
type Equality struct {
	// RTol and ATol bound the acceptable deviation of numeric data:
	// |x-y| <= ATol + RTol*|y|. Zero means the package default.
	RTol float64
	ATol float64

	// IgnoreFillValue excludes the _FillValue and missing_value
	// properties from the comparison.
	IgnoreFillValue bool

	// IgnoreProperties names further properties to exclude.
	IgnoreProperties []string

	// IgnoreCompression compares only the uncompressed values, accepting
	// operands read from different compression schemes.
	IgnoreCompression bool

	// IgnoreDataType accepts numerically equal values of different
	// declared data types.
	IgnoreDataType bool

	// IgnoreType coerces the other operand to the receiver's kind
	// instead of failing on a kind mismatch. The coercion is one-way:
	// the receiver's kind always wins.
	IgnoreType bool

	// Unordered matches collection elements by identity bucket instead
	// of by position.
	Unordered bool

	// Verbose receives a diagnostic naming the first mismatch. Nil means
	// silent.
	Verbose io.Writer
}

func (e Equality) rtol() float64 { return defTol(e.RTol) }
func (e Equality) atol() float64 { return defTol(e.ATol) }

func (e Equality) report(format string, args ...any) {
	if e.Verbose != nil {
		fmt.Fprintf(e.Verbose, format+"\n", args...)
	}
}

// Properties never compared. The conventions marker describes the file the
// construct came from, not the construct.
var exemptProperties = map[string]bool{"Conventions": true}

var fillValueProperties = []string{"_FillValue", "missing_value"}

func (e Equality) skipProperty(name string) bool {
	if exemptProperties[name] {
		return true
	}
	if e.IgnoreFillValue {
		for _, p := range fillValueProperties {
			if name == p {
				return true
			}
		}
	}
	for _, p := range e.IgnoreProperties {
		if name == p {
			return true
		}
	}
	return false
}

// Equals reports whether two constructs are equal under the given options.
// Ordinary mismatches return false, with a diagnostic naming the mismatch
// kind when a Verbose writer is set; Equals never returns an error.
func (c *Construct) Equals(other *Construct, opt Equality) bool {
	if c == other {
		return true
	}
	if other == nil {
		opt.report("%s: compared against nil", c.Identity("construct"))
		return false
	}

	if c.kind != other.kind && !opt.IgnoreType {
		opt.report("%s: different construct types: %s != %s",
			c.Identity("construct"), c.kind, other.kind)
		return false
	}

	if !c.equalProperties(other, opt) {
		return false
	}
	return c.equalData(other, opt)
}

func (c *Construct) equalProperties(other *Construct, opt Equality) bool {
	name := c.Identity("construct")

	for _, key := range sortedKeys(c.properties) {
		if opt.skipProperty(key) {
			continue
		}
		ov, ok := other.properties[key]
		if !ok {
			opt.report("%s: different properties: %q is not set on the other operand", name, key)
			return false
		}
		if !valueEqual(c.properties[key], ov, opt.IgnoreDataType) {
			opt.report("%s: different %q property values: %v != %v",
				name, key, c.properties[key], ov)
			return false
		}
	}
	for _, key := range sortedKeys(other.properties) {
		if opt.skipProperty(key) {
			continue
		}
		if _, ok := c.properties[key]; !ok {
			opt.report("%s: different properties: %q is only set on the other operand", name, key)
			return false
		}
	}
	return true
}

func (c *Construct) equalData(other *Construct, opt Equality) bool {
	name := c.Identity("construct")

	if (c.data == nil) != (other.data == nil) {
		opt.report("%s: different data: only one operand has data", name)
		return false
	}
	if c.data == nil {
		return true
	}

	if !opt.IgnoreCompression && c.data.Compression() != other.data.Compression() {
		opt.report("%s: different compression types: %q != %q",
			name, c.data.Compression(), other.data.Compression())
		return false
	}
	if !opt.IgnoreDataType && c.data.Dtype() != other.data.Dtype() {
		opt.report("%s: different data types: %s != %s",
			name, c.data.Dtype(), other.data.Dtype())
		return false
	}
	if !c.data.SameShape(other.data) {
		opt.report("%s: different data shapes: %v != %v",
			name, c.data.Shape(), other.data.Shape())
		return false
	}
	if !c.data.Units().Equivalent(other.data.Units()) {
		opt.report("%s: different units: %q != %q",
			name, c.data.Units(), other.data.Units())
		return false
	}

	ok, err := c.data.Allclose(other.data, opt.rtol(), opt.atol())
	if err != nil {
		opt.report("%s: different units: %v", name, err)
		return false
	}
	if !ok {
		opt.report("%s: different data values", name)
		return false
	}
	return true
}

// valueEqual compares two property values. Scalars compare by value and,
// unless ignoreDataType, by concrete type; vector values compare
// element-wise and by length.
func valueEqual(a, b any, ignoreDataType bool) bool {
	switch av := a.(type) {
	case []float64:
		bv, ok := b.([]float64)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []int:
		bv, ok := b.([]int)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i], ignoreDataType) {
				return false
			}
		}
		return true
	}

	if ignoreDataType {
		if af, aok := toFloat(a); aok {
			if bf, bok := toFloat(b); bok {
				return af == bf
			}
			return false
		}
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
