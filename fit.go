package skoperules

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/feature"
	"github.com/datajms/skope-rules/pot"
	"github.com/datajms/skope-rules/rule"
	"github.com/datajms/skope-rules/scoring"
	"github.com/datajms/skope-rules/tree"
)

/*
Fit takes a context, a feature matrix and its labels and learns the rules
of the model from them:
  - the rows are shuffled and the first HoldoutFraction of them set apart
    to rank the rules,
  - NEstimators trees are grown, each on MaxSamples rows drawn from the
    rest of them,
  - the rules of every tree are extracted, in tree order, and ranked by
    their precision on the holdout rows.

The new rules replace those of any previous fit only once they are all
ranked, and only if no error happens. Samples left out of every tree are
not used to rank the rules.

The error returned wraps ShapeMismatch if the number of labels, or feature
names, does not match the matrix, InvalidParameter if labels are not -1 or 1
or a value is not finite, and DegenerateInput if the holdout or the
training partition would be empty. Fit also returns the context error if
the context is cancelled before the fit is done.
*/
func (m *Model) Fit(ctx context.Context, x mat.Matrix, y []int) error {
	start := time.Now()
	s, err := m.fit(ctx, x, y)
	if err != nil {
		m.metrics.FitFailed()
		return err
	}
	m.snapshot.Store(s)
	m.metrics.ObserveFit(time.Since(start), len(s.engine.Rules), len(s.engine.Selected()))
	m.log.WithFields(logrus.Fields{
		"estimators": len(s.estimators),
		"rules":      len(s.engine.Rules),
		"selected":   len(s.engine.Selected()),
		"elapsed":    time.Since(start),
	}).Debug("fitted")
	return nil
}

func (m *Model) fit(ctx context.Context, x mat.Matrix, y []int) (*snapshot, error) {
	train, err := m.checkInput(x, y)
	if err != nil {
		return nil, err
	}
	features := train.Features
	p := m.params
	rows, cols := x.Dims()
	rnd := rand.New(rand.NewSource(p.Seed))

	perm := rnd.Perm(rows)
	nHoldout := int(math.Floor(float64(rows) * p.HoldoutFraction))
	if nHoldout == 0 {
		return nil, errors.Wrapf(errs.DegenerateInput, "holdout fraction %v of %d samples leaves no holdout samples", p.HoldoutFraction, rows)
	}
	if nHoldout == rows {
		return nil, errors.Wrapf(errs.DegenerateInput, "holdout fraction %v of %d samples leaves no training samples", p.HoldoutFraction, rows)
	}
	holdout, training := perm[:nHoldout], perm[nHoldout:]
	m.log.WithFields(logrus.Fields{"holdout": len(holdout), "training": len(training)}).Debug("split samples")

	nSamples, clamped := p.MaxSamples.Resolve(len(training))
	if clamped {
		m.log.Warnf("max_samples %v is greater than the %d training samples, using %d", p.MaxSamples, len(training), nSamples)
	}
	newPot := m.newPot
	if newPot == nil {
		maxFeatures, _ := p.MaxFeatures.Resolve(cols)
		minSplit := max(2, p.MinSamplesSplit.Ceil(nSamples))
		newPot = func(seed int64) pot.Pot {
			return pot.New(pot.MaxDepth(p.MaxDepth), pot.MinSamplesSplit(minSplit), pot.MaxFeatures(maxFeatures), pot.Seed(seed))
		}
	}

	// seeds are drawn upfront so trees do not depend on the order they are grown in
	seeds := make([]int64, p.NEstimators)
	for i := range seeds {
		seeds[i] = rnd.Int63()
	}
	estimators := make([]*tree.Tree, p.NEstimators)
	rules := make([][]rule.Rule, p.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Jobs)
	for i := range estimators {
		g.Go(func() error {
			sample := draw(rand.New(rand.NewSource(seeds[i])), training, nSamples, p.Bootstrap)
			t, err := newPot(seeds[i]).Grow(gctx, train.X, train.Y, sample)
			if err != nil {
				return errors.Wrapf(err, "growing tree %d", i)
			}
			rules[i], err = rule.Extract(t, features)
			if err != nil {
				return errors.Wrapf(err, "extracting rules of tree %d", i)
			}
			estimators[i] = t
			m.log.WithFields(logrus.Fields{"tree": i, "samples": len(sample), "rules": len(rules[i])}).Debug("grew tree")
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return nil, err
	}

	var all []rule.Rule
	for _, rs := range rules {
		all = append(all, rs...)
	}
	held, err := train.Subset(holdout)
	if err != nil {
		return nil, err
	}
	ranked, err := rule.Rank(ctx, all, held.X, held.Y, rule.Jobs(p.Jobs))
	if err != nil {
		return nil, errors.Wrap(err, "ranking rules")
	}
	m.log.WithFields(logrus.Fields{"rules": len(ranked), "holdout": len(holdout)}).Debug("ranked rules")
	return &snapshot{
		engine:     &scoring.Engine{Rules: ranked, TopN: p.TopN, NumFeatures: cols},
		features:   features,
		estimators: estimators,
	}, nil
}

// checkInput validates the training input and returns it as a dataset
// named after the feature names to use
func (m *Model) checkInput(x mat.Matrix, y []int) (*dataset.Dataset, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.Wrapf(errs.DegenerateInput, "cannot fit on a %dx%d matrix", rows, cols)
	}
	if len(y) != rows {
		return nil, errors.Wrapf(errs.ShapeMismatch, "%d labels for %d rows", len(y), rows)
	}
	if len(m.params.FeatureNames) > 0 && len(m.params.FeatureNames) != cols {
		return nil, errors.Wrapf(errs.ShapeMismatch, "%d feature names for %d columns", len(m.params.FeatureNames), cols)
	}
	err := dataset.CheckLabels(y)
	if err != nil {
		return nil, err
	}
	features, err := feature.Resolve(m.params.FeatureNames, cols)
	if err != nil {
		return nil, err
	}
	d := &dataset.Dataset{X: mat.DenseCopyOf(x), Y: y, Features: features}
	return d, d.CheckFinite()
}

// draw returns n of the given rows, drawn with replacement if bootstrap
// is set and without it otherwise
func draw(rnd *rand.Rand, rows []int, n int, bootstrap bool) []int {
	sample := make([]int, n)
	if bootstrap {
		for i := range sample {
			sample[i] = rows[rnd.Intn(len(rows))]
		}
		return sample
	}
	for i, j := range rnd.Perm(len(rows))[:n] {
		sample[i] = rows[j]
	}
	return sample
}
