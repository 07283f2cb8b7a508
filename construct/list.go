package construct

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

// List is an ordered collection of constructs. Membership, counting and
// removal are defined by construct equality, not pointer identity.
type List []*Construct

// Append adds constructs to the end of the list.
func (l *List) Append(items ...*Construct) {
	*l = append(*l, items...)
}

// Copy returns a deep copy of the list and its elements.
func (l List) Copy() List {
	out := make(List, len(l))
	for i, c := range l {
		out[i] = c.Copy()
	}
	return out
}

// Contains reports whether the list holds an element equal to c.
func (l List) Contains(c *Construct, opt Equality) bool {
	return l.IndexOf(c, opt) >= 0
}

// Count returns the number of elements equal to c.
func (l List) Count(c *Construct, opt Equality) int {
	n := 0
	for _, e := range l {
		if e.Equals(c, opt) {
			n++
		}
	}
	return n
}

// IndexOf returns the index of the first element equal to c, or -1.
func (l List) IndexOf(c *Construct, opt Equality) int {
	for i, e := range l {
		if e.Equals(c, opt) {
			return i
		}
	}
	return -1
}

// Remove deletes the first element equal to c, reporting whether one was
// found.
func (l *List) Remove(c *Construct, opt Equality) bool {
	i := l.IndexOf(c, opt)
	if i < 0 {
		return false
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return true
}

// Sort orders the list by canonical identity, in place.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Identity("") < l[j].Identity("")
	})
}

// Equals reports whether two lists are equal under the given options. The
// lengths must match. In ordered mode (the default, always used for
// single-element lists) elements compare positionally. In unordered mode
// elements are bucketed by canonical identity; the bucket keys and sizes
// must agree, and within each bucket every element must claim some
// not-yet-claimed equal element from the other side. The bucket matching
// is greedy first-fit, not an optimal assignment: buckets holding several
// equally-identified but pairwise-unequal elements can mis-report
// depending on order.
func (l List) Equals(other List, opt Equality) bool {
	if len(l) != len(other) {
		opt.report("different collection lengths: %d != %d", len(l), len(other))
		return false
	}

	if !opt.Unordered || len(l) == 1 {
		for i, c := range l {
			if !c.Equals(other[i], opt) {
				opt.report("unequal elements at position %d", i)
				return false
			}
		}
		return true
	}

	mine := bucketByIdentity(l)
	theirs := bucketByIdentity(other)
	if err := checkPartition(mine, theirs); err != nil {
		opt.report("%v", err)
		return false
	}
	for key, bucket := range mine {
		pool := theirs[key]
		for _, c := range bucket {
			matched := false
			for i, cand := range pool {
				if c.Equals(cand, Equality{
					RTol:              opt.RTol,
					ATol:              opt.ATol,
					IgnoreFillValue:   opt.IgnoreFillValue,
					IgnoreProperties:  opt.IgnoreProperties,
					IgnoreCompression: opt.IgnoreCompression,
					IgnoreDataType:    opt.IgnoreDataType,
					IgnoreType:        opt.IgnoreType,
				}) {
					pool = append(pool[:i], pool[i+1:]...)
					matched = true
					break
				}
			}
			if !matched {
				opt.report("no match for %q in the other collection", key)
				return false
			}
		}
		theirs[key] = pool
	}
	return true
}

// checkPartition verifies that two identity bucketings have the same keys
// with the same multiplicities.
func checkPartition(mine, theirs map[string]List) error {
	for key, bucket := range mine {
		pool, ok := theirs[key]
		if !ok {
			return fmt.Errorf("identity %q is missing from the other collection: %w",
				key, ErrIdentityPartition)
		}
		if len(bucket) != len(pool) {
			return fmt.Errorf("%d x %q != %d x %q: %w",
				len(bucket), key, len(pool), key, ErrIdentityPartition)
		}
	}
	for key := range theirs {
		if _, ok := mine[key]; !ok {
			return fmt.Errorf("identity %q is only in the other collection: %w",
				key, ErrIdentityPartition)
		}
	}
	return nil
}

func bucketByIdentity(l List) map[string]List {
	out := map[string]List{}
	for _, c := range l {
		key := c.Identity("")
		out[key] = append(out[key], c)
	}
	return out
}

// FilterByIdentity returns the elements matching any of the identities.
func (l List) FilterByIdentity(identities ...string) List {
	var out List
	for _, c := range l {
		if c.MatchByIdentity(identities...) {
			out = append(out, c)
		}
	}
	return out
}

// FilterByIdentityRegexp returns the elements with at least one identity
// form fully matching the pattern.
func (l List) FilterByIdentityRegexp(pattern string) (List, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}
	var out List
	for _, c := range l {
		for _, id := range c.Identities() {
			if re.MatchString(id) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// FilterByUnits returns the elements whose units match u.
func (l List) FilterByUnits(u units.Units, exact bool) List {
	var out List
	for _, c := range l {
		if c.MatchByUnits(u, exact) {
			out = append(out, c)
		}
	}
	return out
}

// FilterByNaxes returns the elements whose data has one of the given
// numbers of axes.
func (l List) FilterByNaxes(naxes ...int) List {
	var out List
	for _, c := range l {
		if c.MatchByNaxes(naxes...) {
			out = append(out, c)
		}
	}
	return out
}

// FilterByProperty returns the elements with the named property set to the
// given value.
func (l List) FilterByProperty(name string, value any) List {
	var out List
	for _, c := range l {
		if c.MatchByProperty(name, value) {
			out = append(out, c)
		}
	}
	return out
}

// Concatenate joins the data of every element along the given axis into a
// single construct carrying the first element's metadata.
func (l List) Concatenate(axis int) (*Construct, error) {
	if len(l) == 0 {
		return nil, ErrNoData
	}
	arrays := make([]*data.Array, len(l))
	for i, c := range l {
		a, ok := c.Data()
		if !ok {
			return nil, ErrNoData
		}
		arrays[i] = a
	}
	joined, err := data.Concatenate(axis, arrays...)
	if err != nil {
		return nil, err
	}
	out := l[0].Copy()
	out.SetData(joined)
	return out, nil
}
