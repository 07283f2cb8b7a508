package construct_test

import (
	"errors"
	"testing"

	"github.com/geomodel/cf-toolbox-go/construct"
	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

func TestAdditiveIdentity(t *testing.T) {
	f := newField(t, "air_temperature", []float64{1, 2, 3}, "K")

	got, err := f.Add(construct.Scalar{Value: 0})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !got.Equals(f, construct.Equality{}) {
		t.Fatal("f + 0 should equal f")
	}
}

func TestAddThenSubtract(t *testing.T) {
	f := newField(t, "distance", []float64{1, 2}, "km")
	g := newField(t, "distance", []float64{500, 500}, "m")

	sum, err := f.Add(g)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	back, err := sum.Subtract(g)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if !back.Equals(f, construct.Equality{RTol: 1e-12, ATol: 1e-12}) {
		t.Fatal("(f + g) - g should equal f within tolerance")
	}
}

func TestInPlaceReturnsReceiver(t *testing.T) {
	f := newField(t, "air_temperature", []float64{1, 2}, "K")
	g := newField(t, "air_temperature", []float64{1, 1}, "K")

	got, err := f.AddInPlace(g)
	if err != nil {
		t.Fatalf("AddInPlace: %v", err)
	}
	if got != f {
		t.Error("in-place result should be the same instance")
	}
	arr, _ := f.Data()
	if v, _ := arr.Item(0); v != 2 {
		t.Errorf("receiver data = %v, want 2", v)
	}

	out, err := f.Add(g)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if out == f {
		t.Error("copy-producing result should be a different instance")
	}
	if v, _ := arr.Item(0); v != 2 {
		t.Errorf("receiver mutated by copy-producing operator: %v", v)
	}
}

func TestBinaryOperationErrors(t *testing.T) {
	t.Run("incompatible units", func(t *testing.T) {
		f := newField(t, "distance", []float64{1}, "km")
		g := newField(t, "duration", []float64{1}, "s")
		if _, err := f.Add(g); !errors.Is(err, construct.ErrIncompatibleUnits) {
			t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
		}
	})

	t.Run("no data on receiver", func(t *testing.T) {
		f := construct.New(construct.KindField)
		if _, err := f.Add(construct.Scalar{Value: 1}); !errors.Is(err, construct.ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("no data on construct operand", func(t *testing.T) {
		f := newField(t, "distance", []float64{1}, "km")
		g := construct.New(construct.KindField)
		if _, err := f.Add(g); !errors.Is(err, construct.ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
	})
}

func TestOperandMetadataIgnored(t *testing.T) {
	f := newField(t, "air_temperature", []float64{1, 2}, "K")
	g := newField(t, "something_else", []float64{1, 1}, "K")
	g.SetProperty("history", "should not propagate")

	got, err := f.Add(g)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got.Identity("") != "air_temperature" {
		t.Errorf("result identity = %q, want the receiver's", got.Identity(""))
	}
	if _, ok := got.Property("history"); ok {
		t.Error("operand properties must not propagate")
	}
}

func TestComparisonResult(t *testing.T) {
	f := newField(t, "distance", []float64{1, 5}, "km")
	g := newField(t, "distance", []float64{2000, 2000}, "m")

	got, err := f.LessThan(g)
	if err != nil {
		t.Fatalf("LessThan: %v", err)
	}
	arr, _ := got.Data()
	if arr.Dtype() != data.Bool {
		t.Errorf("dtype = %s, want bool", arr.Dtype())
	}
	if !arr.Units().IsDimensionless() {
		t.Errorf("units = %q, want dimensionless", arr.Units())
	}
	if v, _ := arr.Item(0); v != 1 {
		t.Errorf("1 km < 2000 m should hold, got %v", v)
	}
	if v, _ := arr.Item(1); v != 0 {
		t.Errorf("5 km < 2000 m should not hold, got %v", v)
	}
}

func TestUnaryOperations(t *testing.T) {
	f := newField(t, "anomaly", []float64{-1, 2}, "K")

	got, err := f.Abs()
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	arr, _ := got.Data()
	if v, _ := arr.Item(0); v != 1 {
		t.Errorf("abs = %v, want 1", v)
	}

	got, err = f.Negate()
	if err != nil {
		t.Fatalf("Negate: %v", err)
	}
	arr, _ = got.Data()
	if v, _ := arr.Item(1); v != -2 {
		t.Errorf("neg = %v, want -2", v)
	}

	empty := construct.New(construct.KindField)
	if _, err := empty.Abs(); !errors.Is(err, construct.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestYMDhms(t *testing.T) {
	c := construct.New(construct.KindDimensionCoordinate)
	c.SetProperty("standard_name", "time")
	c.SetData(data.MustNew([]float64{0, 31}, nil, units.MustParse("days since 2000-01-01")))

	got, err := c.Month()
	if err != nil {
		t.Fatalf("Month: %v", err)
	}

	arr, _ := got.Data()
	if v, _ := arr.Item(0); v != 1 {
		t.Errorf("month[0] = %v, want 1", v)
	}
	if v, _ := arr.Item(1); v != 2 {
		t.Errorf("month[1] = %v, want 2", v)
	}

	if _, ok := got.Property("standard_name"); ok {
		t.Error("the standard name must be cleared")
	}
	if v, _ := got.Property("long_name"); v != "month" {
		t.Errorf("long_name = %v, want month", v)
	}
	if !got.Units().IsDimensionless() {
		t.Errorf("units = %q, want dimensionless", got.Units())
	}

	// The receiver is untouched.
	if got := c.Identity(""); got != "time" {
		t.Errorf("receiver identity = %q, want time", got)
	}

	year, err := c.Year()
	if err != nil {
		t.Fatalf("Year: %v", err)
	}
	arr, _ = year.Data()
	if v, _ := arr.Item(1); v != 2000 {
		t.Errorf("year[1] = %v, want 2000", v)
	}
}
