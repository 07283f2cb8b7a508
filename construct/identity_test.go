package construct_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/geomodel/cf-toolbox-go/construct"
	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

// newField builds a field construct with a standard name and data.
func newField(t *testing.T, name string, values []float64, unitSpec string) *construct.Construct {
	t.Helper()
	c := construct.New(construct.KindField)
	if name != "" {
		c.SetProperty("standard_name", name)
	}
	c.SetData(data.MustNew(values, nil, units.MustParse(unitSpec)))
	return c
}

func TestIdentityProbeOrder(t *testing.T) {
	c := construct.New(construct.KindField)
	c.SetProperty("standard_name", "air_temperature")
	c.SetProperty("long_name", "Air Temperature")

	if got := c.Identity(""); got != "air_temperature" {
		t.Fatalf("Identity = %q, want air_temperature", got)
	}

	c.DelProperty("standard_name")
	if got := c.Identity(""); got != "long_name=Air Temperature" {
		t.Fatalf("Identity = %q, want long_name=Air Temperature", got)
	}

	// The id attribute outranks the fallback properties.
	c.SetID("tas")
	if got := c.Identity(""); got != "id%tas" {
		t.Fatalf("Identity = %q, want id%%tas", got)
	}

	// But not the standard name.
	c.SetProperty("standard_name", "air_temperature")
	if got := c.Identity(""); got != "air_temperature" {
		t.Fatalf("Identity = %q, want air_temperature", got)
	}
}

func TestIdentityFallbacks(t *testing.T) {
	t.Run("cf_role before axis", func(t *testing.T) {
		c := construct.New(construct.KindAuxiliaryCoordinate)
		c.SetProperty("cf_role", "timeseries_id")
		c.SetProperty("axis", "X")
		if got := c.Identity(""); got != "cf_role=timeseries_id" {
			t.Fatalf("Identity = %q, want cf_role=timeseries_id", got)
		}
	})

	t.Run("ncvar", func(t *testing.T) {
		c := construct.New(construct.KindField)
		c.SetNCVar("tas")
		if got := c.Identity(""); got != "ncvar%tas" {
			t.Fatalf("Identity = %q, want ncvar%%tas", got)
		}
	})

	t.Run("axis flag", func(t *testing.T) {
		c := construct.New(construct.KindDimensionCoordinate)
		if err := c.SetAxisType("T", true); err != nil {
			t.Fatalf("SetAxisType: %v", err)
		}
		if got := c.Identity(""); got != "T" {
			t.Fatalf("Identity = %q, want T", got)
		}
	})

	t.Run("default", func(t *testing.T) {
		c := construct.New(construct.KindField)
		if got := c.Identity("fallback"); got != "fallback" {
			t.Fatalf("Identity = %q, want fallback", got)
		}
	})
}

func TestIdentityStrict(t *testing.T) {
	c := construct.New(construct.KindField)
	c.SetProperty("long_name", "Air Temperature")
	c.SetNCVar("tas")

	if got := c.IdentityStrict("none"); got != "none" {
		t.Fatalf("IdentityStrict = %q, want none", got)
	}

	c.SetID("temp")
	if got := c.IdentityStrict("none"); got != "id%temp" {
		t.Fatalf("IdentityStrict = %q, want id%%temp", got)
	}

	c.SetProperty("standard_name", "air_temperature")
	if got := c.IdentityStrict("none"); got != "air_temperature" {
		t.Fatalf("IdentityStrict = %q, want air_temperature", got)
	}
}

func TestIdentityNCOnly(t *testing.T) {
	c := construct.New(construct.KindField)
	c.SetProperty("standard_name", "air_temperature")

	if got := c.IdentityNCOnly("none"); got != "none" {
		t.Fatalf("IdentityNCOnly = %q, want none", got)
	}

	c.SetNCVar("tas")
	if got := c.IdentityNCOnly("none"); got != "ncvar%tas" {
		t.Fatalf("IdentityNCOnly = %q, want ncvar%%tas", got)
	}
}

func TestIdentities(t *testing.T) {
	c := construct.New(construct.KindField)
	c.SetProperty("standard_name", "air_temperature")
	c.SetProperty("long_name", "Air Temperature")
	c.SetProperty("foo", "bar")
	c.SetNCVar("tas")
	if err := c.SetAxisType("T", true); err != nil {
		t.Fatalf("SetAxisType: %v", err)
	}

	want := []string{
		"air_temperature",
		"foo=bar",
		"long_name=Air Temperature",
		"standard_name=air_temperature",
		"ncvar%tas",
		"T",
	}
	if diff := cmp.Diff(want, c.Identities()); diff != "" {
		t.Fatalf("Identities mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchByIdentity(t *testing.T) {
	c := construct.New(construct.KindField)
	c.SetProperty("standard_name", "air_temperature")
	c.SetProperty("long_name", "Air Temperature")

	if !c.MatchByIdentity() {
		t.Error("no arguments should match everything")
	}
	if !c.MatchByIdentity("air_temperature") {
		t.Error("standard name should match")
	}
	if !c.MatchByIdentity("long_name=Air Temperature") {
		t.Error("property form should match")
	}
	if c.MatchByIdentity("sea_surface_temperature") {
		t.Error("unrelated identity should not match")
	}
}
