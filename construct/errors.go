package construct

import (
	"errors"

	"github.com/geomodel/cf-toolbox-go/data"
	"github.com/geomodel/cf-toolbox-go/units"
)

// Error kinds returned by the construct layer. Callers discriminate with
// errors.Is; the wrapped messages carry the operands involved.
var (
	// ErrNoData reports an operation that needs array data invoked on a
	// construct without any.
	ErrNoData = errors.New("construct has no data")

	// ErrTypeMismatch reports a comparison against an incompatible
	// construct kind when coercion was not requested.
	ErrTypeMismatch = errors.New("construct type mismatch")

	// ErrIdentityPartition reports unordered collection comparison where
	// the two sides partition into different identity buckets.
	ErrIdentityPartition = errors.New("identity partition mismatch")

	// ErrIncompatibleUnits and ErrShapeMismatch are the collaborator
	// kinds surfaced through this package unchanged.
	ErrIncompatibleUnits = units.ErrIncompatibleUnits
	ErrShapeMismatch     = data.ErrShapeMismatch
)
