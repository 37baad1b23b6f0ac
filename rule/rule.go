/*
Package rule extracts conjunctive decision rules from trees, evaluates
them on feature matrixes and ranks them by their precision on
labelled samples.

A rule is a conjunction of comparisons of a feature with a threshold,
such as

	age <= 30 and amount > 1000

and it is satisfied by a sample when every one of its comparisons is.
*/
package rule

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/errs"
)

// Operator is the operator of a comparison
type Operator int

const (
	// LessOrEqual compares with <=
	LessOrEqual Operator = iota
	// Greater compares with >
	Greater
)

func (o Operator) String() string {
	switch o {
	case LessOrEqual:
		return "<="
	case Greater:
		return ">"
	}
	return "?"
}

// ParseOperator takes the string representation of an operator
// and returns the operator, or an error if it is unknown.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "<=":
		return LessOrEqual, nil
	case ">":
		return Greater, nil
	}
	return 0, errors.Wrapf(errs.InvalidParameter, "unknown operator %q", s)
}

/*
Comparison represents the comparison of the value of the feature at column
Feature, named Name, with a threshold. NaN values never satisfy
a comparison.
*/
type Comparison struct {
	Feature   int
	Name      string
	Op        Operator
	Threshold float64
}

// Holds returns whether the given value satisfies the comparison
func (c Comparison) Holds(v float64) bool {
	switch c.Op {
	case LessOrEqual:
		return v <= c.Threshold
	case Greater:
		return v > c.Threshold
	}
	return false
}

func (c Comparison) String() string {
	name := c.Name
	if name == "" {
		name = strconv.Itoa(c.Feature)
	}
	return name + " " + c.Op.String() + " " + strconv.FormatFloat(c.Threshold, 'g', -1, 64)
}

/*
Rule is a conjunction of comparisons. Rules must not be modified once
created, as they may be shared by several ranked lists. The empty rule
is always satisfied.
*/
type Rule []Comparison

func (r Rule) String() string {
	if len(r) == 0 {
		return "true"
	}
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = c.String()
	}
	return strings.Join(parts, " and ")
}

// Satisfies returns whether the given row of feature values satisfies
// every comparison of the rule. Comparisons on features beyond the length
// of the row are not satisfied.
func (r Rule) Satisfies(row []float64) bool {
	for _, c := range r {
		if c.Feature < 0 || c.Feature >= len(row) || !c.Holds(row[c.Feature]) {
			return false
		}
	}
	return true
}

/*
Matches takes a feature matrix and returns the ascending indexes of its
rows that satisfy the rule. Comparisons are evaluated one column at a time,
each narrowing the rows that satisfied the previous ones.
A ShapeMismatch error is returned if the rule compares a feature the
matrix does not have.
*/
func (r Rule) Matches(x mat.Matrix) ([]int, error) {
	rows, cols := x.Dims()
	err := r.check(cols)
	if err != nil {
		return nil, err
	}
	matches := make([]int, rows)
	for i := range matches {
		matches[i] = i
	}
	for _, c := range r {
		kept := matches[:0]
		for _, i := range matches {
			if c.Holds(x.At(i, c.Feature)) {
				kept = append(kept, i)
			}
		}
		matches = kept
		if len(matches) == 0 {
			break
		}
	}
	return matches, nil
}

func (r Rule) check(cols int) error {
	for _, c := range r {
		if c.Feature < 0 || c.Feature >= cols {
			return errors.Wrapf(errs.ShapeMismatch, "rule %q compares feature %d of a matrix with %d columns", r, c.Feature, cols)
		}
	}
	return nil
}

/*
Weighted is a rule together with its weight, the fraction of fraud
samples among the Matches labelled samples that satisfy it.
*/
type Weighted struct {
	Rule
	Weight  float64
	Matches int
}

// Ranked is a list of weighted rules sorted by descending weight
type Ranked []Weighted

// Top returns the first n rules of the list, or all of them if the
// list has fewer than n rules. It returns none if n is not positive.
func (rs Ranked) Top(n int) Ranked {
	if n <= 0 {
		return Ranked{}
	}
	if n > len(rs) {
		n = len(rs)
	}
	return rs[:n]
}
