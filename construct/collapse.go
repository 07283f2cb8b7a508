package construct

import "fmt"

// collapseMethods maps user-facing reduction names onto the canonical
// delegate method names.
var collapseMethods = map[string]string{
	"mean":               "mean",
	"avg":                "mean",
	"average":            "mean",
	"max":                "maximum",
	"maximum":            "maximum",
	"min":                "minimum",
	"minimum":            "minimum",
	"mid_range":          "mid_range",
	"range":              "range",
	"standard_deviation": "standard_deviation",
	"sd":                 "standard_deviation",
	"sum":                "sum",
	"variance":           "variance",
	"var":                "variance",
	"sample_size":        "sample_size",
	"sum_of_weights":     "sum_of_weights",
	"sum_of_weights2":    "sum_of_weights2",
}

// collapseCellMethods maps canonical method names onto the cell-method
// vocabulary. Reductions with no cell-method equivalent map to "none".
var collapseCellMethods = map[string]string{
	"mean":               "mean",
	"maximum":            "maximum",
	"minimum":            "minimum",
	"mid_range":          "mid_range",
	"range":              "range",
	"standard_deviation": "standard_deviation",
	"sum":                "sum",
	"variance":           "variance",
	"sample_size":        "none",
	"sum_of_weights":     "none",
	"sum_of_weights2":    "none",
}

// collapseMinSize names the methods needing more than one sample.
var collapseMinSize = map[string]int{
	"standard_deviation": 2,
	"variance":           2,
}

// collapseWeighted names the methods that honour weights.
var collapseWeighted = map[string]bool{
	"mean":               true,
	"standard_deviation": true,
	"variance":           true,
	"sum":                true,
	"sum_of_weights":     true,
	"sum_of_weights2":    true,
}

// collapseDDOF names the methods that honour a degrees-of-freedom
// adjustment.
var collapseDDOF = map[string]bool{
	"standard_deviation": true,
	"variance":           true,
}

// CanonicalCollapseMethod resolves a user-facing reduction name ("avg",
// "sd", ...) onto its canonical method name.
func CanonicalCollapseMethod(name string) (string, bool) {
	m, ok := collapseMethods[name]
	return m, ok
}

// CollapseCellMethod returns the cell-method vocabulary entry of a
// canonical method name; "none" for reductions without one.
func CollapseCellMethod(canonical string) (string, bool) {
	m, ok := collapseCellMethods[canonical]
	return m, ok
}

// CollapseMinSampleSize returns the minimum number of unmasked samples the
// canonical method needs.
func CollapseMinSampleSize(canonical string) int {
	if n, ok := collapseMinSize[canonical]; ok {
		return n
	}
	return 1
}

// CollapseAcceptsWeights reports whether the canonical method honours
// weights.
func CollapseAcceptsWeights(canonical string) bool {
	return collapseWeighted[canonical]
}

// CollapseAcceptsDDOF reports whether the canonical method honours a
// degrees-of-freedom adjustment.
func CollapseAcceptsDDOF(canonical string) bool {
	return collapseDDOF[canonical]
}

// Collapse reduces the construct's data to a scalar with the named
// reduction. The method accepts any of the user-facing spellings; weights
// and ddof are rejected for methods that do not honour them. The result
// records the applied cell method when the vocabulary has one.
func (c *Construct) Collapse(method string, weights []float64, ddof int) (*Construct, error) {
	canonical, ok := CanonicalCollapseMethod(method)
	if !ok {
		return nil, fmt.Errorf("unknown collapse method %q", method)
	}
	if c.data == nil {
		return nil, fmt.Errorf("cannot collapse %s: %w", c.Identity("construct"), ErrNoData)
	}
	if weights != nil && !CollapseAcceptsWeights(canonical) {
		return nil, fmt.Errorf("%s does not accept weights", canonical)
	}
	if ddof != 0 && !CollapseAcceptsDDOF(canonical) {
		return nil, fmt.Errorf("%s does not accept a ddof adjustment", canonical)
	}

	res, err := c.data.Reduce(canonical, weights, ddof)
	if err != nil {
		return nil, err
	}
	out := c.Copy()
	out.data = res
	if cm, _ := CollapseCellMethod(canonical); cm != "none" {
		out.SetProperty("cell_methods", fmt.Sprintf("%s: %s", c.Identity("area"), cm))
	}
	return out, nil
}
