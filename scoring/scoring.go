/*
Package scoring computes anomaly scores and labels of records from a ranked
rule list.

The score of a record is the negated sum of the weights of the selected
rules it satisfies, so lower scores are more anomalous. A record that
satisfies no selected rule scores InlierScore.
*/
package scoring

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/rule"
)

// InlierScore is the score of records that satisfy no selected rule
const InlierScore = 0.0

/*
DecisionFunction takes a feature matrix, a ranked rule list and a number
of rules topN and returns the score of every row of the matrix computed
with the first topN rules of the list. If topN is greater than the length
of the list, every rule is used, and if it is not positive, none is.
*/
func DecisionFunction(x mat.Matrix, ranked rule.Ranked, topN int) ([]float64, error) {
	rows, _ := x.Dims()
	sums := make([]float64, rows)
	for i, w := range ranked.Top(topN) {
		matches, err := w.Rule.Matches(x)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating rule %d", i)
		}
		for _, r := range matches {
			sums[r] += w.Weight
		}
	}
	scores := make([]float64, rows)
	for i, s := range sums {
		scores[i] = InlierScore - s
	}
	return scores, nil
}

/*
Predict takes a feature matrix, a ranked rule list and a number of rules
topN and returns the label of every row of the matrix: dataset.Normal if its
score is InlierScore, dataset.Fraud otherwise.
*/
func Predict(x mat.Matrix, ranked rule.Ranked, topN int) ([]int, error) {
	scores, err := DecisionFunction(x, ranked, topN)
	if err != nil {
		return nil, err
	}
	return Labels(scores), nil
}

// Labels takes a slice of scores and returns the label for each of them
func Labels(scores []float64) []int {
	labels := make([]int, len(scores))
	for i, s := range scores {
		labels[i] = Label(s)
	}
	return labels
}

// Label returns the label corresponding to a score
func Label(score float64) int {
	if score == InlierScore {
		return dataset.Normal
	}
	return dataset.Fraud
}

/*
Engine scores records of NumFeatures features with the first TopN rules of
a ranked rule list.
*/
type Engine struct {
	Rules       rule.Ranked
	TopN        int
	NumFeatures int
}

// DecisionFunction returns the scores of the rows of the given matrix, or a
// ShapeMismatch error if its number of columns is not NumFeatures.
func (e *Engine) DecisionFunction(x mat.Matrix) ([]float64, error) {
	err := e.check(x)
	if err != nil {
		return nil, err
	}
	return DecisionFunction(x, e.Rules, e.TopN)
}

// Predict returns the labels of the rows of the given matrix, or a
// ShapeMismatch error if its number of columns is not NumFeatures.
func (e *Engine) Predict(x mat.Matrix) ([]int, error) {
	err := e.check(x)
	if err != nil {
		return nil, err
	}
	return Predict(x, e.Rules, e.TopN)
}

// Score returns the score of a single record, or a ShapeMismatch error
// if it does not have NumFeatures values.
func (e *Engine) Score(values []float64) (float64, error) {
	if len(values) != e.NumFeatures {
		return 0, errors.Wrapf(errs.ShapeMismatch, "record has %d features, expected %d", len(values), e.NumFeatures)
	}
	var sum float64
	for _, w := range e.Rules.Top(e.TopN) {
		if w.Rule.Satisfies(values) {
			sum += w.Weight
		}
	}
	return InlierScore - sum, nil
}

// Selected returns the rules used to score records
func (e *Engine) Selected() rule.Ranked {
	return e.Rules.Top(e.TopN)
}

func (e *Engine) check(x mat.Matrix) error {
	_, cols := x.Dims()
	if cols != e.NumFeatures {
		return errors.Wrapf(errs.ShapeMismatch, "matrix has %d columns, expected %d", cols, e.NumFeatures)
	}
	return nil
}
