/*
Package skoperules learns interpretable fraud detection rules.

A Model grows an ensemble of decision trees on a training partition of
labelled samples, turns every root-to-leaf path of every tree into a
conjunctive rule, ranks the rules by their precision on a holdout
partition and scores records with the best ranked rules: the score of a
record is the negated sum of the weights of the selected rules it
satisfies, and records that satisfy none of them are labelled as normal.

Labels follow the fraud convention: -1 for fraud and +1 for normal samples.
*/
package skoperules

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/metrics"
	"github.com/datajms/skope-rules/pot"
	"github.com/datajms/skope-rules/rule"
	rulejson "github.com/datajms/skope-rules/rule/json"
	"github.com/datajms/skope-rules/scoring"
	"github.com/datajms/skope-rules/tree"
)

var log = logrus.WithField("component", "skoperules")

/*
Model is a rule-based fraud detector. It is safe for concurrent use: scoring
calls made while a fit is running use the rules of the previous fit until the
new ones are published as a whole.
*/
type Model struct {
	params   Params
	newPot   func(seed int64) pot.Pot
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	snapshot atomic.Pointer[snapshot]
}

// snapshot holds the outcome of a fit, and is never modified once published
type snapshot struct {
	engine     *scoring.Engine
	features   []string
	estimators []*tree.Tree
}

// Option configures a Model
type Option func(*Model)

// WithPot makes the model grow trees with the pots returned by the given
// function for the seed of each tree, instead of pots configured after
// the tree growing parameters of the model.
func WithPot(newPot func(seed int64) pot.Pot) Option {
	return func(m *Model) {
		m.newPot = newPot
	}
}

// WithLogger makes the model log onto the given logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Model) {
		m.log = l
	}
}

// WithMetrics makes the model record its fits and scores on the given metrics
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) {
		m.metrics = mt
	}
}

// New takes hyperparameters and options and returns an unfitted Model,
// or an InvalidParameter error if the hyperparameters are not valid.
func New(params Params, opts ...Option) (*Model, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}
	m := &Model{params: params.withDefaults(), log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Params returns the hyperparameters of the model, with defaults applied
func (m *Model) Params() Params {
	return m.params
}

// Fitted returns whether the model has rules to score records with
func (m *Model) Fitted() bool {
	return m.snapshot.Load() != nil
}

func (m *Model) current() (*snapshot, error) {
	s := m.snapshot.Load()
	if s == nil {
		return nil, errors.WithStack(errs.NotFitted)
	}
	return s, nil
}

/*
DecisionFunction takes a feature matrix and returns the score of each of its
rows. Lower scores are more anomalous, and InlierScore is the score of records
that satisfy no selected rule. A NotFitted error is returned if the model has
no rules yet, and a ShapeMismatch one if the matrix does not have a column for
each feature.
*/
func (m *Model) DecisionFunction(x mat.Matrix) ([]float64, error) {
	s, err := m.current()
	if err != nil {
		return nil, err
	}
	scores, err := s.engine.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	m.observeScores(scores)
	return scores, nil
}

/*
Predict takes a feature matrix and returns the label of each of its rows:
1 for records that satisfy no selected rule and -1 for the rest. It
returns the same errors as DecisionFunction.
*/
func (m *Model) Predict(x mat.Matrix) ([]int, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	return scoring.Labels(scores), nil
}

func (m *Model) observeScores(scores []float64) {
	if m.metrics == nil {
		return
	}
	var outliers int
	for _, s := range scores {
		if scoring.Label(s) == dataset.Fraud {
			outliers++
		}
	}
	m.metrics.ObserveScores(len(scores), outliers)
}

// Rules returns every ranked rule of the model, best first. The
// returned rules must not be modified.
func (m *Model) Rules() (rule.Ranked, error) {
	s, err := m.current()
	if err != nil {
		return nil, err
	}
	return s.engine.Rules, nil
}

// Selected returns the ranked rules the model scores records with
func (m *Model) Selected() (rule.Ranked, error) {
	s, err := m.current()
	if err != nil {
		return nil, err
	}
	return s.engine.Selected(), nil
}

// Estimators returns the trees grown by the last fit, which is none
// if the rules of the model were loaded from a rule set.
func (m *Model) Estimators() ([]*tree.Tree, error) {
	s, err := m.current()
	if err != nil {
		return nil, err
	}
	return s.estimators, nil
}

// Features returns the names of the features of the records the model scores
func (m *Model) Features() ([]string, error) {
	s, err := m.current()
	if err != nil {
		return nil, err
	}
	return s.features, nil
}

// RuleSet returns the ranked rules of the model in a serializable form
func (m *Model) RuleSet() (*rulejson.RuleSet, error) {
	s, err := m.current()
	if err != nil {
		return nil, err
	}
	return &rulejson.RuleSet{Features: s.features, Rules: s.engine.Rules, TopN: s.engine.TopN}, nil
}

/*
Load takes a rule set and makes the model score records with it, replacing
the rules of any previous fit. The first TopN rules of the rule set are
selected, or the first TopN of the hyperparameters of the model when the
rule set does not say. An InvalidParameter error is returned if the rule
set is not valid.
*/
func (m *Model) Load(rs *rulejson.RuleSet) error {
	if rs == nil {
		return errors.Wrap(errs.InvalidParameter, "nil rule set")
	}
	err := rs.Validate()
	if err != nil {
		return err
	}
	topN := rs.TopN
	if topN == 0 {
		topN = m.params.TopN
	}
	m.snapshot.Store(&snapshot{
		engine:   &scoring.Engine{Rules: rs.Rules, TopN: topN, NumFeatures: rs.NumFeatures()},
		features: rs.Features,
	})
	m.log.WithFields(logrus.Fields{"rules": len(rs.Rules), "selected": topN}).Debug("loaded rule set")
	return nil
}
