package data

import (
	"fmt"
	"math"

	"github.com/geomodel/cf-toolbox-go/units"
)

// Op names an element-wise binary operation.
type Op string

const (
	OpAdd      Op = "add"
	OpSub      Op = "sub"
	OpMul      Op = "mul"
	OpDiv      Op = "div"
	OpFloorDiv Op = "floordiv"
	OpPow      Op = "pow"
	OpMod      Op = "mod"
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpXor      Op = "xor"
	OpLShift   Op = "lshift"
	OpRShift   Op = "rshift"
	OpLT       Op = "lt"
	OpLE       Op = "le"
	OpGT       Op = "gt"
	OpGE       Op = "ge"
	OpEQ       Op = "eq"
	OpNE       Op = "ne"
)

type opClass int

const (
	classAdditive opClass = iota
	classMultiplicative
	classPower
	classBitwise
	classComparison
)

func classify(op Op) (opClass, error) {
	switch op {
	case OpAdd, OpSub, OpMod:
		return classAdditive, nil
	case OpMul, OpDiv, OpFloorDiv:
		return classMultiplicative, nil
	case OpPow:
		return classPower, nil
	case OpAnd, OpOr, OpXor, OpLShift, OpRShift:
		return classBitwise, nil
	case OpLT, OpLE, OpGT, OpGE, OpEQ, OpNE:
		return classComparison, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", op)
	}
}

func dimensionlessOK(u units.Units) bool {
	return !u.IsDefined() || u.IsDimensionless()
}

// BinaryOp applies an element-wise binary operation between a and b. The
// operand must have the same shape as the receiver or be a single element.
// Additive and comparison operations convert the operand into the
// receiver's units; multiplicative operations combine the units; power and
// bitwise operations require dimensionless operands. Comparison results are
// dimensionless Bool arrays. When inplace is true the receiver's storage is
// mutated and returned; otherwise a new array is produced.
func (a *Array) BinaryOp(op Op, b *Array, inplace bool) (*Array, error) {
	class, err := classify(op)
	if err != nil {
		return nil, err
	}
	if b.Size() != 1 && !a.SameShape(b) {
		return nil, fmt.Errorf("cannot apply %q to shapes %v and %v: %w",
			op, a.shape, b.shape, ErrShapeMismatch)
	}

	cv := units.Converter{Scale: 1}
	outUnits := a.units
	outDtype := a.dtype

	switch class {
	case classAdditive, classComparison:
		// An operand with no recorded units takes the receiver's.
		if a.units.IsDefined() && b.units.IsDefined() {
			cv, err = b.units.ConversionTo(a.units)
			if err != nil {
				return nil, err
			}
		}
		if class == classComparison {
			outUnits = units.Dimensionless()
			outDtype = Bool
		}
	case classMultiplicative:
		if op == OpMul {
			outUnits = a.units.Multiply(b.units)
		} else {
			outUnits = a.units.Divide(b.units)
		}
		if op == OpDiv {
			outDtype = Float64
		}
	case classPower:
		if !dimensionlessOK(b.units) {
			return nil, fmt.Errorf("exponent has units %q: %w", b.units, units.ErrIncompatibleUnits)
		}
		if b.Size() != 1 {
			return nil, fmt.Errorf("cannot raise to an array power: %w", ErrShapeMismatch)
		}
		exp := b.values[0]
		if exp == math.Trunc(exp) {
			outUnits = a.units.Pow(int(exp))
		} else if !dimensionlessOK(a.units) {
			return nil, fmt.Errorf("cannot raise %q to a fractional power: %w",
				a.units, units.ErrIncompatibleUnits)
		}
	case classBitwise:
		if !dimensionlessOK(a.units) || !dimensionlessOK(b.units) {
			return nil, fmt.Errorf("bitwise %q requires dimensionless operands, got %q and %q: %w",
				op, a.units, b.units, units.ErrIncompatibleUnits)
		}
		outDtype = Int64
	}

	out := a
	if !inplace {
		out = a.Copy()
	}

	for i := range a.values {
		j := i
		if b.Size() == 1 {
			j = 0
		}
		if a.mask[i] || b.mask[j] {
			out.mask[i] = true
			continue
		}
		out.mask[i] = false
		out.values[i] = apply(op, a.values[i], cv.Apply(b.values[j]))
	}
	out.units = outUnits
	out.dtype = outDtype
	out.compression = ""
	return out, nil
}

func apply(op Op, x, y float64) float64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	case OpFloorDiv:
		return math.Floor(x / y)
	case OpPow:
		return math.Pow(x, y)
	case OpMod:
		return math.Mod(x, y)
	case OpAnd:
		return float64(int64(x) & int64(y))
	case OpOr:
		return float64(int64(x) | int64(y))
	case OpXor:
		return float64(int64(x) ^ int64(y))
	case OpLShift:
		return float64(int64(x) << uint(y))
	case OpRShift:
		return float64(int64(x) >> uint(y))
	case OpLT:
		return boolVal(x < y)
	case OpLE:
		return boolVal(x <= y)
	case OpGT:
		return boolVal(x > y)
	case OpGE:
		return boolVal(x >= y)
	case OpEQ:
		return boolVal(x == y)
	case OpNE:
		return boolVal(x != y)
	}
	return math.NaN()
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// UnaryOp names an element-wise unary operation.
type UnaryOp string

const (
	OpAbs    UnaryOp = "abs"
	OpNeg    UnaryOp = "neg"
	OpInvert UnaryOp = "invert"
	OpPos    UnaryOp = "pos"
)

// UnaryOp applies an element-wise unary operation, producing a new array.
func (a *Array) UnaryOp(op UnaryOp) (*Array, error) {
	if op == OpInvert && a.dtype != Int64 && a.dtype != Bool {
		return nil, fmt.Errorf("cannot invert %s data", a.dtype)
	}
	out := a.Copy()
	for i, v := range a.values {
		if a.mask[i] {
			continue
		}
		switch op {
		case OpAbs:
			out.values[i] = math.Abs(v)
		case OpNeg:
			out.values[i] = -v
		case OpInvert:
			out.values[i] = float64(^int64(v))
		case OpPos:
			// identity
		default:
			return nil, fmt.Errorf("unknown operation %q", op)
		}
	}
	return out, nil
}

// Reduce collapses the whole array to a scalar with the named canonical
// reduction method. Weights, when given, must have one weight per element
// and are honoured by the weighted methods; ddof is the delta degrees of
// freedom for standard_deviation and variance. Reducing an array with no
// unmasked elements yields a masked scalar.
func (a *Array) Reduce(method string, weights []float64, ddof int) (*Array, error) {
	if weights != nil && len(weights) != a.Size() {
		return nil, fmt.Errorf("%d weights for %d elements: %w", len(weights), a.Size(), ErrShapeMismatch)
	}

	var xs, ws []float64
	for i, v := range a.values {
		if a.mask[i] {
			continue
		}
		xs = append(xs, v)
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		ws = append(ws, w)
	}
	n := len(xs)

	outUnits := a.units
	switch method {
	case "sample_size", "sum_of_weights", "sum_of_weights2":
		outUnits = units.Dimensionless()
	case "variance":
		outUnits = a.units.Pow(2)
	}

	if n == 0 {
		out := NewScalar(0, outUnits)
		out.SetMasked(0)
		return out, nil
	}
	if (method == "standard_deviation" || method == "variance") && n < 2 {
		return nil, fmt.Errorf("sample size %d below the minimum of 2 for %s", n, method)
	}

	var v float64
	switch method {
	case "maximum":
		v = xs[0]
		for _, x := range xs {
			v = math.Max(v, x)
		}
	case "minimum":
		v = xs[0]
		for _, x := range xs {
			v = math.Min(v, x)
		}
	case "range", "mid_range":
		lo, hi := xs[0], xs[0]
		for _, x := range xs {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		if method == "range" {
			v = hi - lo
		} else {
			v = (hi + lo) / 2
		}
	case "sum":
		for i, x := range xs {
			v += ws[i] * x
		}
	case "mean":
		v = weightedMean(xs, ws)
	case "sample_size":
		v = float64(n)
	case "sum_of_weights":
		for _, w := range ws {
			v += w
		}
	case "sum_of_weights2":
		for _, w := range ws {
			v += w * w
		}
	case "variance", "standard_deviation":
		mean := weightedMean(xs, ws)
		var sw, acc float64
		for i, x := range xs {
			acc += ws[i] * (x - mean) * (x - mean)
			sw += ws[i]
		}
		den := sw - float64(ddof)
		if den <= 0 {
			return nil, fmt.Errorf("non-positive degrees of freedom for %s (sum of weights %v, ddof %d)",
				method, sw, ddof)
		}
		v = acc / den
		if method == "standard_deviation" {
			v = math.Sqrt(v)
		}
	default:
		return nil, fmt.Errorf("unknown reduction method %q", method)
	}

	out := NewScalar(v, outUnits)
	if method == "sample_size" {
		out.SetDtype(Int64)
	}
	return out, nil
}

func weightedMean(xs, ws []float64) float64 {
	var sw, acc float64
	for i, x := range xs {
		acc += ws[i] * x
		sw += ws[i]
	}
	return acc / sw
}
