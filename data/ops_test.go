package data_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

func TestBinaryOp(t *testing.T) {
	tests := []struct {
		name      string
		a, b      *data.Array
		op        data.Op
		want      []float64
		wantUnits units.Units
		wantDtype data.Dtype
	}{
		{
			name:      "add converts operand units",
			a:         data.MustNew([]float64{1, 2}, nil, units.MustParse("km")),
			b:         data.MustNew([]float64{1000, 1000}, nil, units.MustParse("m")),
			op:        data.OpAdd,
			want:      []float64{2, 3},
			wantUnits: units.MustParse("km"),
			wantDtype: data.Float64,
		},
		{
			name:      "subtract scalar broadcast",
			a:         data.MustNew([]float64{10, 20, 30}, nil, units.MustParse("K")),
			b:         data.NewScalar(5, units.MustParse("K")),
			op:        data.OpSub,
			want:      []float64{5, 15, 25},
			wantUnits: units.MustParse("K"),
			wantDtype: data.Float64,
		},
		{
			name:      "unitless operand takes receiver units",
			a:         data.MustNew([]float64{1, 2}, nil, units.MustParse("K")),
			b:         data.NewScalar(0, units.Units{}),
			op:        data.OpAdd,
			want:      []float64{1, 2},
			wantUnits: units.MustParse("K"),
			wantDtype: data.Float64,
		},
		{
			name:      "multiply combines units",
			a:         data.MustNew([]float64{2, 3}, nil, units.MustParse("m")),
			b:         data.MustNew([]float64{4, 5}, nil, units.MustParse("s")),
			op:        data.OpMul,
			want:      []float64{8, 15},
			wantUnits: units.MustParse("m s"),
			wantDtype: data.Float64,
		},
		{
			name:      "divide combines units",
			a:         data.MustNew([]float64{8, 9}, nil, units.MustParse("m")),
			b:         data.NewScalar(2, units.MustParse("s")),
			op:        data.OpDiv,
			want:      []float64{4, 4.5},
			wantUnits: units.MustParse("m s-1"),
			wantDtype: data.Float64,
		},
		{
			name:      "power squares units",
			a:         data.MustNew([]float64{3}, nil, units.MustParse("m")),
			b:         data.NewScalar(2, units.Units{}),
			op:        data.OpPow,
			want:      []float64{9},
			wantUnits: units.MustParse("m2"),
			wantDtype: data.Float64,
		},
		{
			name:      "comparison yields dimensionless bool",
			a:         data.MustNew([]float64{1, 5}, nil, units.MustParse("km")),
			b:         data.MustNew([]float64{2000, 2000}, nil, units.MustParse("m")),
			op:        data.OpLT,
			want:      []float64{1, 0},
			wantUnits: units.Dimensionless(),
			wantDtype: data.Bool,
		},
		{
			name:      "floor division",
			a:         data.MustNew([]float64{7}, nil, units.MustParse("1")),
			b:         data.NewScalar(2, units.MustParse("1")),
			op:        data.OpFloorDiv,
			want:      []float64{3},
			wantUnits: units.Dimensionless(),
			wantDtype: data.Float64,
		},
		{
			name:      "bitwise and",
			a:         data.MustNew([]float64{6, 3}, nil, units.MustParse("1")),
			b:         data.NewScalar(5, units.MustParse("1")),
			op:        data.OpAnd,
			want:      []float64{4, 1},
			wantUnits: units.Dimensionless(),
			wantDtype: data.Int64,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.BinaryOp(tt.op, tt.b, false)
			if err != nil {
				t.Fatalf("BinaryOp: %v", err)
			}
			if diff := cmp.Diff(tt.want, values(t, got)); diff != "" {
				t.Fatalf("values mismatch (-want +got):\n%s", diff)
			}
			if !got.Units().Equivalent(tt.wantUnits) {
				t.Errorf("units = %q, want equivalent to %q", got.Units(), tt.wantUnits)
			}
			if got.Dtype() != tt.wantDtype {
				t.Errorf("dtype = %s, want %s", got.Dtype(), tt.wantDtype)
			}
		})
	}
}

func TestBinaryOpErrors(t *testing.T) {
	t.Run("incompatible units", func(t *testing.T) {
		a := data.MustNew([]float64{1}, nil, units.MustParse("m"))
		b := data.MustNew([]float64{1}, nil, units.MustParse("s"))
		if _, err := a.BinaryOp(data.OpAdd, b, false); !errors.Is(err, units.ErrIncompatibleUnits) {
			t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
		}
	})

	t.Run("shape mismatch", func(t *testing.T) {
		a := data.MustNew([]float64{1, 2}, nil, units.MustParse("m"))
		b := data.MustNew([]float64{1, 2, 3}, nil, units.MustParse("m"))
		if _, err := a.BinaryOp(data.OpAdd, b, false); !errors.Is(err, data.ErrShapeMismatch) {
			t.Fatalf("expected ErrShapeMismatch, got %v", err)
		}
	})

	t.Run("dimensioned exponent", func(t *testing.T) {
		a := data.MustNew([]float64{1}, nil, units.MustParse("m"))
		b := data.NewScalar(2, units.MustParse("s"))
		if _, err := a.BinaryOp(data.OpPow, b, false); !errors.Is(err, units.ErrIncompatibleUnits) {
			t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
		}
	})

	t.Run("dimensioned bitwise", func(t *testing.T) {
		a := data.MustNew([]float64{1}, nil, units.MustParse("m"))
		b := data.NewScalar(1, units.MustParse("m"))
		if _, err := a.BinaryOp(data.OpAnd, b, false); !errors.Is(err, units.ErrIncompatibleUnits) {
			t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
		}
	})
}

func TestBinaryOpMaskPropagation(t *testing.T) {
	u := units.MustParse("K")
	a := data.MustNew([]float64{1, 2, 3}, nil, u)
	b := data.MustNew([]float64{10, 20, 30}, nil, u)
	a.SetMasked(0)
	b.SetMasked(2)

	got, err := a.BinaryOp(data.OpAdd, b, false)
	if err != nil {
		t.Fatalf("BinaryOp: %v", err)
	}
	if _, masked := got.Item(0); !masked {
		t.Error("position 0 should be masked")
	}
	if v, masked := got.Item(1); masked || v != 22 {
		t.Errorf("position 1 = %v (masked=%v), want 22", v, masked)
	}
	if _, masked := got.Item(2); !masked {
		t.Error("position 2 should be masked")
	}
}

func TestBinaryOpInplace(t *testing.T) {
	u := units.MustParse("K")
	a := data.MustNew([]float64{1, 2}, nil, u)
	b := data.NewScalar(1, u)

	got, err := a.BinaryOp(data.OpAdd, b, true)
	if err != nil {
		t.Fatalf("BinaryOp: %v", err)
	}
	if got != a {
		t.Error("in-place result should be the receiver")
	}
	if diff := cmp.Diff([]float64{2, 3}, values(t, a)); diff != "" {
		t.Fatalf("receiver values mismatch (-want +got):\n%s", diff)
	}

	// Copy-producing form leaves the receiver untouched.
	out, err := a.BinaryOp(data.OpAdd, b, false)
	if err != nil {
		t.Fatalf("BinaryOp: %v", err)
	}
	if out == a {
		t.Error("copy-producing result should not be the receiver")
	}
	if diff := cmp.Diff([]float64{2, 3}, values(t, a)); diff != "" {
		t.Fatalf("receiver mutated (-want +got):\n%s", diff)
	}
}

func TestUnaryOp(t *testing.T) {
	u := units.MustParse("K")
	a := data.MustNew([]float64{-1, 2}, nil, u)

	got, err := a.UnaryOp(data.OpAbs)
	if err != nil {
		t.Fatalf("UnaryOp: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2}, values(t, got)); diff != "" {
		t.Fatalf("abs mismatch (-want +got):\n%s", diff)
	}

	got, err = a.UnaryOp(data.OpNeg)
	if err != nil {
		t.Fatalf("UnaryOp: %v", err)
	}
	if diff := cmp.Diff([]float64{1, -2}, values(t, got)); diff != "" {
		t.Fatalf("neg mismatch (-want +got):\n%s", diff)
	}

	if _, err := a.UnaryOp(data.OpInvert); err == nil {
		t.Fatal("invert of float data should fail")
	}
}

func TestReduce(t *testing.T) {
	u := units.MustParse("m")
	tests := []struct {
		name    string
		values  []float64
		weights []float64
		method  string
		ddof    int
		want    float64
	}{
		{name: "mean", values: []float64{1, 2, 3}, method: "mean", want: 2},
		{name: "weighted mean", values: []float64{1, 3}, weights: []float64{1, 3}, method: "mean", want: 2.5},
		{name: "maximum", values: []float64{1, 5, 3}, method: "maximum", want: 5},
		{name: "minimum", values: []float64{4, 1, 3}, method: "minimum", want: 1},
		{name: "range", values: []float64{1, 5}, method: "range", want: 4},
		{name: "mid_range", values: []float64{1, 5}, method: "mid_range", want: 3},
		{name: "sum", values: []float64{1, 2, 3}, method: "sum", want: 6},
		{name: "sample_size", values: []float64{1, 2, 3}, method: "sample_size", want: 3},
		{name: "sum_of_weights", values: []float64{1, 2}, weights: []float64{2, 3}, method: "sum_of_weights", want: 5},
		{name: "sum_of_weights2", values: []float64{1, 2}, weights: []float64{2, 3}, method: "sum_of_weights2", want: 13},
		{name: "variance", values: []float64{1, 2, 3}, method: "variance", ddof: 1, want: 1},
		{name: "standard_deviation", values: []float64{1, 2, 3}, method: "standard_deviation", ddof: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := data.MustNew(tt.values, nil, u)
			got, err := a.Reduce(tt.method, tt.weights, tt.ddof)
			if err != nil {
				t.Fatalf("Reduce: %v", err)
			}
			v, masked := got.Item(0)
			if masked {
				t.Fatal("result unexpectedly masked")
			}
			if math.Abs(v-tt.want) > 1e-12 {
				t.Fatalf("Reduce(%s) = %v, want %v", tt.method, v, tt.want)
			}
		})
	}
}

func TestReduceUnitsAndMasks(t *testing.T) {
	u := units.MustParse("m")

	t.Run("variance squares units", func(t *testing.T) {
		a := data.MustNew([]float64{1, 2, 3}, nil, u)
		got, err := a.Reduce("variance", nil, 0)
		if err != nil {
			t.Fatalf("Reduce: %v", err)
		}
		if !got.Units().Equivalent(units.MustParse("m2")) {
			t.Errorf("units = %q, want equivalent to m2", got.Units())
		}
	})

	t.Run("sample_size is a dimensionless count", func(t *testing.T) {
		a := data.MustNew([]float64{1, 2, 3}, nil, u)
		a.SetMasked(1)
		got, err := a.Reduce("sample_size", nil, 0)
		if err != nil {
			t.Fatalf("Reduce: %v", err)
		}
		if v, _ := got.Item(0); v != 2 {
			t.Errorf("sample_size = %v, want 2", v)
		}
		if !got.Units().IsDimensionless() {
			t.Errorf("units = %q, want dimensionless", got.Units())
		}
		if got.Dtype() != data.Int64 {
			t.Errorf("dtype = %s, want int64", got.Dtype())
		}
	})

	t.Run("masked positions are skipped", func(t *testing.T) {
		a := data.MustNew([]float64{1, 100, 3}, nil, u)
		a.SetMasked(1)
		got, err := a.Reduce("mean", nil, 0)
		if err != nil {
			t.Fatalf("Reduce: %v", err)
		}
		if v, _ := got.Item(0); v != 2 {
			t.Errorf("mean = %v, want 2", v)
		}
	})

	t.Run("all masked yields masked scalar", func(t *testing.T) {
		a := data.MustNew([]float64{1}, nil, u)
		a.SetMasked(0)
		got, err := a.Reduce("mean", nil, 0)
		if err != nil {
			t.Fatalf("Reduce: %v", err)
		}
		if _, masked := got.Item(0); !masked {
			t.Error("result should be masked")
		}
	})

	t.Run("standard_deviation needs two samples", func(t *testing.T) {
		a := data.MustNew([]float64{1}, nil, u)
		if _, err := a.Reduce("standard_deviation", nil, 0); err == nil {
			t.Fatal("expected minimum sample size error")
		}
	})
}
