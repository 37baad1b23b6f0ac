/*
Package errs defines the kinds of errors returned across skope-rules.

Every error returned by the library that is caused by its inputs wraps
one of the kinds below, so callers can test for them with errors.Is:

	if errors.Is(err, errs.NotFitted) { ... }
*/
package errs

// Kind represents a category of error
type Kind string

const (
	// InvalidParameter is the kind of errors caused by malformed
	// hyperparameters or training inputs, such as a sampling fraction
	// outside (0, 1] or labels other than -1 and +1.
	InvalidParameter = Kind("invalid parameter")
	// InvalidTreeStructure is the kind of errors caused by trees that
	// do not satisfy the node invariants: out-of-range feature or child
	// indexes, cycles or a feature name arity that does not match the
	// number of features the tree was grown on.
	InvalidTreeStructure = Kind("invalid tree structure")
	// NotFitted is the kind of errors returned when scoring is attempted
	// before a rule list is available.
	NotFitted = Kind("model not fitted")
	// ShapeMismatch is the kind of errors caused by feature matrixes
	// whose column or row count does not match what is expected.
	ShapeMismatch = Kind("shape mismatch")
	// DegenerateInput is the kind of errors caused by datasets that
	// leave the training or holdout partition empty.
	DegenerateInput = Kind("degenerate input")
	// NotFound is the kind of errors returned when a stored rule set
	// does not exist.
	NotFound = Kind("not found")
)

func (k Kind) Error() string {
	return string(k)
}
