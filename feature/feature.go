/*
Package feature handles the names of the columns of feature matrixes.

Rules refer to features by their column index, and use feature names
only to be readable. When no names are provided, names are synthesized
from the positional index of each column.
*/
package feature

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/datajms/skope-rules/errs"
)

/*
Names takes a number of features n and returns a slice of n names,
each being the string representation of the feature's column index.
*/
func Names(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

/*
Resolve takes a slice of feature names and a number of features n and
returns the names to use for those n features: the given names if not
empty, or positional names otherwise. If names are given, but their
number does not match n, an InvalidTreeStructure error is returned.
*/
func Resolve(names []string, n int) ([]string, error) {
	if len(names) == 0 {
		return Names(n), nil
	}
	if len(names) != n {
		return nil, errors.Wrapf(errs.InvalidTreeStructure, "got %d feature names for %d features", len(names), n)
	}
	return names, nil
}

/*
Index takes a slice of feature names and returns a map from each name to
its position in the slice. It returns an InvalidParameter error if a name
is empty or appears more than once.
*/
func Index(names []string) (map[string]int, error) {
	result := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return nil, errors.Wrapf(errs.InvalidParameter, "feature %d has an empty name", i)
		}
		if j, ok := result[n]; ok {
			return nil, errors.Wrapf(errs.InvalidParameter, "feature name %q used for features %d and %d", n, j, i)
		}
		result[n] = i
	}
	return result, nil
}
