package construct

import (
	"fmt"

	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

// Operand is the closed set of right-hand sides accepted by the operation
// dispatcher: a bare number, a bare array, or another construct (of which
// only the data participates; its metadata is ignored).
type Operand interface {
	operandData() (*data.Array, error)
}

// Scalar is a plain numeric operand, optionally unit-tagged.
type Scalar struct {
	Value float64
	Units units.Units
}

func (s Scalar) operandData() (*data.Array, error) {
	return data.NewScalar(s.Value, s.Units), nil
}

// ArrayOperand wraps a bare array delegate as an operand.
type ArrayOperand struct {
	Array *data.Array
}

func (a ArrayOperand) operandData() (*data.Array, error) {
	if a.Array == nil {
		return nil, fmt.Errorf("nil array operand: %w", ErrNoData)
	}
	return a.Array, nil
}

func (c *Construct) operandData() (*data.Array, error) {
	if c.data == nil {
		return nil, fmt.Errorf("operand %s: %w", c.Identity("construct"), ErrNoData)
	}
	return c.data, nil
}

// BinaryOperation applies a binary operation between the construct's data
// and an operand. When inplace is true the receiver's data is mutated and
// the receiver itself is returned; otherwise the receiver is untouched and
// a deep copy carries the result. The result keeps the receiver's property
// map; only the data, and whatever units and data type the operation
// produces, change.
func (c *Construct) BinaryOperation(op data.Op, operand Operand, inplace bool) (*Construct, error) {
	if c.data == nil {
		return nil, fmt.Errorf("cannot apply %q to %s: %w", op, c.Identity("construct"), ErrNoData)
	}
	b, err := operand.operandData()
	if err != nil {
		return nil, err
	}
	if inplace {
		if _, err := c.data.BinaryOp(op, b, true); err != nil {
			return nil, err
		}
		return c, nil
	}
	out := c.Copy()
	res, err := c.data.BinaryOp(op, b, false)
	if err != nil {
		return nil, err
	}
	out.data = res
	return out, nil
}

// UnaryOperation applies a unary operation, always producing a copy.
func (c *Construct) UnaryOperation(op data.UnaryOp) (*Construct, error) {
	if c.data == nil {
		return nil, fmt.Errorf("cannot apply %q to %s: %w", op, c.Identity("construct"), ErrNoData)
	}
	out := c.Copy()
	res, err := c.data.UnaryOp(op)
	if err != nil {
		return nil, err
	}
	out.data = res
	return out, nil
}

// Copy-producing operator forms.

func (c *Construct) Add(o Operand) (*Construct, error)      { return c.BinaryOperation(data.OpAdd, o, false) }
func (c *Construct) Subtract(o Operand) (*Construct, error) { return c.BinaryOperation(data.OpSub, o, false) }
func (c *Construct) Multiply(o Operand) (*Construct, error) { return c.BinaryOperation(data.OpMul, o, false) }
func (c *Construct) Divide(o Operand) (*Construct, error)   { return c.BinaryOperation(data.OpDiv, o, false) }
func (c *Construct) FloorDivide(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpFloorDiv, o, false)
}
func (c *Construct) Power(o Operand) (*Construct, error) { return c.BinaryOperation(data.OpPow, o, false) }
func (c *Construct) Mod(o Operand) (*Construct, error)   { return c.BinaryOperation(data.OpMod, o, false) }
func (c *Construct) BitwiseAnd(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpAnd, o, false)
}
func (c *Construct) BitwiseOr(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpOr, o, false)
}
func (c *Construct) BitwiseXor(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpXor, o, false)
}
func (c *Construct) ShiftLeft(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpLShift, o, false)
}
func (c *Construct) ShiftRight(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpRShift, o, false)
}
func (c *Construct) LessThan(o Operand) (*Construct, error) { return c.BinaryOperation(data.OpLT, o, false) }
func (c *Construct) LessEqual(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpLE, o, false)
}
func (c *Construct) GreaterThan(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpGT, o, false)
}
func (c *Construct) GreaterEqual(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpGE, o, false)
}
func (c *Construct) EqualTo(o Operand) (*Construct, error)  { return c.BinaryOperation(data.OpEQ, o, false) }
func (c *Construct) NotEqualTo(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpNE, o, false)
}

// In-place operator forms. Each mutates the receiver's data and returns the
// receiver itself.

func (c *Construct) AddInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpAdd, o, true)
}
func (c *Construct) SubtractInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpSub, o, true)
}
func (c *Construct) MultiplyInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpMul, o, true)
}
func (c *Construct) DivideInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpDiv, o, true)
}
func (c *Construct) FloorDivideInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpFloorDiv, o, true)
}
func (c *Construct) PowerInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpPow, o, true)
}
func (c *Construct) ModInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpMod, o, true)
}
func (c *Construct) BitwiseAndInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpAnd, o, true)
}
func (c *Construct) BitwiseOrInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpOr, o, true)
}
func (c *Construct) BitwiseXorInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpXor, o, true)
}
func (c *Construct) ShiftLeftInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpLShift, o, true)
}
func (c *Construct) ShiftRightInPlace(o Operand) (*Construct, error) {
	return c.BinaryOperation(data.OpRShift, o, true)
}

// Unary operator forms.

func (c *Construct) Abs() (*Construct, error)      { return c.UnaryOperation(data.OpAbs) }
func (c *Construct) Negate() (*Construct, error)   { return c.UnaryOperation(data.OpNeg) }
func (c *Construct) Invert() (*Construct, error)   { return c.UnaryOperation(data.OpInvert) }
func (c *Construct) Positive() (*Construct, error) { return c.UnaryOperation(data.OpPos) }

// ymdhms extracts one date-time field of a reference-time construct into a
// new construct. The result is a calendar component, not a physical
// quantity: its standard name is cleared, its long name records the field,
// and its units are dimensionless.
func (c *Construct) ymdhms(field string) (*Construct, error) {
	if c.data == nil {
		return nil, fmt.Errorf("cannot take the %s of %s: %w", field, c.Identity("construct"), ErrNoData)
	}
	res, err := c.data.DatetimeComponent(field)
	if err != nil {
		return nil, err
	}
	out := c.Copy()
	out.data = res
	out.DelProperty("standard_name")
	out.SetProperty("long_name", field)
	return out, nil
}

// Year extracts the year of each date-time in a reference-time construct.
func (c *Construct) Year() (*Construct, error) { return c.ymdhms("year") }

// Month extracts the month of year.
func (c *Construct) Month() (*Construct, error) { return c.ymdhms("month") }

// Day extracts the day of month.
func (c *Construct) Day() (*Construct, error) { return c.ymdhms("day") }

// Hour extracts the hour of day.
func (c *Construct) Hour() (*Construct, error) { return c.ymdhms("hour") }

// Minute extracts the minute of hour.
func (c *Construct) Minute() (*Construct, error) { return c.ymdhms("minute") }

// Second extracts the second of minute.
func (c *Construct) Second() (*Construct, error) { return c.ymdhms("second") }
