// Package data provides the in-memory array delegate consumed by the
// construct layer: a dense, masked, units-tagged array of float64 values
// with element-wise operations, reductions and tolerance comparison.
//
// It is deliberately small. There is no chunking, no lazy evaluation, and
// broadcasting is limited to scalar-against-array; a production array
// engine can replace it behind the same methods.
package data

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/geomodel/cf-toolbox-go/units"
)

// ErrShapeMismatch reports an operation across incompatible array shapes.
var ErrShapeMismatch = errors.New("shape mismatch")

// Dtype is the declared data type of an array. Values are stored as
// float64 regardless; the declared type participates in equality checks and
// constrains bitwise operations.
type Dtype string

const (
	Float64 Dtype = "float64"
	Int64   Dtype = "int64"
	Bool    Dtype = "bool"
)

// Array is a dense masked array tagged with units. The zero value is not
// usable; construct arrays with New or NewScalar.
type Array struct {
	shape       []int
	values      []float64
	mask        []bool
	dtype       Dtype
	units       units.Units
	compression string
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// New creates an array over the given values. The values slice is copied.
// A nil shape means a 1-d array of len(values).
func New(values []float64, shape []int, u units.Units) (*Array, error) {
	if shape == nil {
		shape = []int{len(values)}
	}
	if size(shape) != len(values) {
		return nil, fmt.Errorf("%d values do not fill shape %v: %w", len(values), shape, ErrShapeMismatch)
	}
	a := &Array{
		shape:  append([]int(nil), shape...),
		values: append([]float64(nil), values...),
		mask:   make([]bool, len(values)),
		dtype:  Float64,
		units:  u,
	}
	return a, nil
}

// MustNew is New that panics on error, for statically known shapes.
func MustNew(values []float64, shape []int, u units.Units) *Array {
	a, err := New(values, shape, u)
	if err != nil {
		panic(err)
	}
	return a
}

// NewScalar creates a 0-d array holding a single value.
func NewScalar(v float64, u units.Units) *Array {
	return &Array{
		shape:  []int{},
		values: []float64{v},
		mask:   []bool{false},
		dtype:  Float64,
		units:  u,
	}
}

// Copy returns an independent deep copy.
func (a *Array) Copy() *Array {
	return &Array{
		shape:       append([]int(nil), a.shape...),
		values:      append([]float64(nil), a.values...),
		mask:        append([]bool(nil), a.mask...),
		dtype:       a.dtype,
		units:       a.units,
		compression: a.compression,
	}
}

// Shape returns the array shape. The returned slice must not be modified.
func (a *Array) Shape() []int { return a.shape }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.values) }

// Ndim returns the number of axes.
func (a *Array) Ndim() int { return len(a.shape) }

// SameShape reports whether two arrays have identical shapes.
func (a *Array) SameShape(b *Array) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}

// Dtype returns the declared data type.
func (a *Array) Dtype() Dtype { return a.dtype }

// SetDtype declares the data type without touching values.
func (a *Array) SetDtype(dt Dtype) { a.dtype = dt }

// Units returns the units tag.
func (a *Array) Units() units.Units { return a.units }

// SetUnits converts the array values into the given units. The new units
// must be equivalent to the current ones.
func (a *Array) SetUnits(u units.Units) error {
	cv, err := a.units.ConversionTo(u)
	if err != nil {
		return err
	}
	if !cv.Identity() {
		for i, v := range a.values {
			if !a.mask[i] {
				a.values[i] = cv.Apply(v)
			}
		}
	}
	a.units = u
	return nil
}

// OverrideUnits replaces the units tag without converting values,
// deliberately decoupling the recorded units from the stored numbers.
func (a *Array) OverrideUnits(u units.Units) { a.units = u }

// Compression returns the compression-type marker ("" when uncompressed).
func (a *Array) Compression() string { return a.compression }

// SetCompression records the compression type the array was read from.
func (a *Array) SetCompression(kind string) { a.compression = kind }

// Item returns the i-th element in flat order and whether it is masked.
func (a *Array) Item(i int) (float64, bool) {
	return a.values[i], a.mask[i]
}

// SetItem assigns the i-th element in flat order and clears its mask.
func (a *Array) SetItem(i int, v float64) {
	a.values[i] = v
	a.mask[i] = false
}

// SetMasked masks the i-th element in flat order.
func (a *Array) SetMasked(i int) { a.mask[i] = true }

// MaskEqual reports whether two arrays mask exactly the same positions.
func (a *Array) MaskEqual(b *Array) bool {
	if len(a.mask) != len(b.mask) {
		return false
	}
	for i := range a.mask {
		if a.mask[i] != b.mask[i] {
			return false
		}
	}
	return true
}

// CountUnmasked returns the number of unmasked elements.
func (a *Array) CountUnmasked() int {
	n := 0
	for _, m := range a.mask {
		if !m {
			n++
		}
	}
	return n
}

// Allclose reports whether every unmasked element of b, converted into the
// units of a, satisfies |x-y| <= atol + rtol*|y| against the corresponding
// element of a. The masks must agree position-wise; masked pairs compare
// equal without consulting the numbers.
func (a *Array) Allclose(b *Array, rtol, atol float64) (bool, error) {
	if !a.SameShape(b) {
		return false, nil
	}
	cv, err := b.units.ConversionTo(a.units)
	if err != nil {
		return false, err
	}
	for i := range a.values {
		if a.mask[i] != b.mask[i] {
			return false, nil
		}
		if a.mask[i] {
			continue
		}
		y := cv.Apply(b.values[i])
		if math.Abs(a.values[i]-y) > atol+rtol*math.Abs(y) {
			return false, nil
		}
	}
	return true, nil
}

// Datetimes decodes a reference-time array into date-times, one per
// element; masked elements yield the zero DateTime.
func (a *Array) Datetimes() ([]units.DateTime, error) {
	out := make([]units.DateTime, len(a.values))
	for i, v := range a.values {
		if a.mask[i] {
			continue
		}
		dt, err := a.units.Decode(v)
		if err != nil {
			return nil, err
		}
		out[i] = dt
	}
	return out, nil
}

// DatetimeComponent extracts a date-time field ("year", "month", "day",
// "hour", "minute" or "second") from a reference-time array, producing a
// dimensionless integer array with the same shape and mask.
func (a *Array) DatetimeComponent(name string) (*Array, error) {
	dts, err := a.Datetimes()
	if err != nil {
		return nil, err
	}
	out := a.Copy()
	out.units = units.Dimensionless()
	out.dtype = Int64
	out.compression = ""
	for i, dt := range dts {
		if a.mask[i] {
			continue
		}
		var v int
		switch name {
		case "year":
			v = dt.Year
		case "month":
			v = dt.Month
		case "day":
			v = dt.Day
		case "hour":
			v = dt.Hour
		case "minute":
			v = dt.Minute
		case "second":
			v = dt.Second
		default:
			return nil, fmt.Errorf("unknown date-time component %q", name)
		}
		out.values[i] = float64(v)
	}
	return out, nil
}

// Concatenate joins arrays along the given axis. All shapes must agree away
// from the axis, and every array's units must be convertible to the first
// array's units.
func Concatenate(axis int, arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, errors.New("nothing to concatenate")
	}
	first := arrays[0]
	if axis < 0 || axis >= first.Ndim() {
		return nil, fmt.Errorf("axis %d out of range for %d-d array", axis, first.Ndim())
	}

	outShape := append([]int(nil), first.shape...)
	for _, b := range arrays[1:] {
		if b.Ndim() != first.Ndim() {
			return nil, fmt.Errorf("cannot concatenate %d-d with %d-d array: %w",
				first.Ndim(), b.Ndim(), ErrShapeMismatch)
		}
		for i := range b.shape {
			if i != axis && b.shape[i] != first.shape[i] {
				return nil, fmt.Errorf("cannot concatenate shapes %v and %v along axis %d: %w",
					first.shape, b.shape, axis, ErrShapeMismatch)
			}
		}
		outShape[axis] += b.shape[axis]
	}

	out := &Array{
		shape:       outShape,
		values:      make([]float64, size(outShape)),
		mask:        make([]bool, size(outShape)),
		dtype:       first.dtype,
		units:       first.units,
		compression: "",
	}

	outer := 1
	for i := 0; i < axis; i++ {
		outer *= outShape[i]
	}
	inner := 1
	for i := axis + 1; i < len(outShape); i++ {
		inner *= outShape[i]
	}

	offset := 0
	for _, b := range arrays {
		cv, err := b.units.ConversionTo(first.units)
		if err != nil {
			return nil, err
		}
		block := b.shape[axis] * inner
		for o := 0; o < outer; o++ {
			dst := o*outShape[axis]*inner + offset*inner
			src := o * block
			for k := 0; k < block; k++ {
				out.mask[dst+k] = b.mask[src+k]
				if !b.mask[src+k] {
					out.values[dst+k] = cv.Apply(b.values[src+k])
				}
			}
		}
		offset += b.shape[axis]
	}
	return out, nil
}

func (a *Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a.values {
		if i > 0 {
			b.WriteString(", ")
		}
		if i == 8 && len(a.values) > 9 {
			fmt.Fprintf(&b, "..., ")
			last := len(a.values) - 1
			if a.mask[last] {
				b.WriteString("--")
			} else {
				fmt.Fprintf(&b, "%v", a.values[last])
			}
			break
		}
		if a.mask[i] {
			b.WriteString("--")
		} else {
			fmt.Fprintf(&b, "%v", v)
		}
	}
	b.WriteByte(']')
	if a.units.IsDefined() {
		fmt.Fprintf(&b, " %s", a.units)
	}
	return b.String()
}
