package rule

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/errs"
)

// Option configures the ranking of rules
type Option func(*ranker)

type ranker struct {
	jobs int
}

// Jobs sets the maximum number of rules weighed concurrently.
// Values lower than 1 weigh one rule at a time.
func Jobs(n int) Option {
	return func(r *ranker) {
		r.jobs = n
	}
}

/*
Rank takes a list of rules, a feature matrix and its labels and returns
the rules weighed on the matrix, sorted by descending weight. Rules with
the same weight keep their relative order.

The weight of a rule is its precision: the fraction of rows with label -1
among the rows of the matrix that satisfy the rule. Rules satisfied by no
row get a weight of 0 and are kept.

A ShapeMismatch error is returned if the number of labels does not match
the number of rows or a rule compares a feature the matrix does not have,
and an InvalidParameter error if a label is neither -1 nor 1.
*/
func Rank(ctx context.Context, rules []Rule, x mat.Matrix, y []int, opts ...Option) (Ranked, error) {
	r := &ranker{jobs: 1}
	for _, opt := range opts {
		opt(r)
	}
	if r.jobs < 1 {
		r.jobs = 1
	}
	rows, _ := x.Dims()
	if len(y) != rows {
		return nil, errors.Wrapf(errs.ShapeMismatch, "%d labels for %d rows", len(y), rows)
	}
	err := dataset.CheckLabels(y)
	if err != nil {
		return nil, err
	}

	ranked := make(Ranked, len(rules))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i := range rules {
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return err
			}
			w, err := weigh(rules[i], x, y)
			if err != nil {
				return errors.Wrapf(err, "weighing rule %d", i)
			}
			ranked[i] = w
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Weight > ranked[b].Weight
	})
	return ranked, nil
}

/*
Weigh takes a rule, a feature matrix and its labels and returns the rule
with its precision on the matrix, subject to the same errors as Rank.
*/
func Weigh(rule Rule, x mat.Matrix, y []int) (Weighted, error) {
	rows, _ := x.Dims()
	if len(y) != rows {
		return Weighted{}, errors.Wrapf(errs.ShapeMismatch, "%d labels for %d rows", len(y), rows)
	}
	err := dataset.CheckLabels(y)
	if err != nil {
		return Weighted{}, err
	}
	return weigh(rule, x, y)
}

func weigh(rule Rule, x mat.Matrix, y []int) (Weighted, error) {
	matches, err := rule.Matches(x)
	if err != nil {
		return Weighted{}, err
	}
	w := Weighted{Rule: rule, Matches: len(matches)}
	if len(matches) == 0 {
		return w, nil
	}
	var fraud int
	for _, i := range matches {
		if y[i] == dataset.Fraud {
			fraud++
		}
	}
	w.Weight = float64(fraud) / float64(len(matches))
	return w, nil
}
