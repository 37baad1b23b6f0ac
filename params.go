package skoperules

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/feature"
)

// Quantity is either an absolute count or a fraction of a total
type Quantity struct {
	count    int
	fraction float64
}

// Count returns a Quantity of exactly k, or of the total if it is lower
func Count(k int) Quantity {
	return Quantity{count: k}
}

// Fraction returns a Quantity of the fraction f of the total
func Fraction(f float64) Quantity {
	return Quantity{fraction: f}
}

// IsZero returns whether the quantity is unset
func (q Quantity) IsZero() bool {
	return q.count == 0 && q.fraction == 0
}

// Resolve takes a total and returns the quantity of it, which is at least
// 1, and whether a count had to be clamped to the total.
func (q Quantity) Resolve(total int) (int, bool) {
	if q.count > 0 {
		if q.count > total {
			return total, true
		}
		return q.count, false
	}
	n := int(q.fraction * float64(total))
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n, false
}

// Ceil takes a total and returns the count, or the fraction of the total
// rounded up.
func (q Quantity) Ceil(total int) int {
	if q.count > 0 {
		return q.count
	}
	return int(math.Ceil(q.fraction * float64(total)))
}

func (q Quantity) validate(name string) error {
	if q.count < 0 || (q.count == 0 && !(q.fraction > 0 && q.fraction <= 1)) {
		return errors.Wrapf(errs.InvalidParameter, "%s must be a count of at least 1 or a fraction in (0, 1], got %v", name, q)
	}
	return nil
}

func (q Quantity) String() string {
	if q.count != 0 {
		return strconv.Itoa(q.count)
	}
	return strconv.FormatFloat(q.fraction, 'f', -1, 64)
}

// UnmarshalYAML reads integers as counts and numbers with a decimal
// point or an exponent as fractions, so 1 is one sample and 1.0 all of them.
func (q *Quantity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	err := unmarshal(&s)
	if err != nil {
		return err
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing fraction %q: %v", s, err)
		}
		*q = Fraction(f)
		return nil
	}
	k, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing count %q: %v", s, err)
	}
	*q = Count(k)
	return nil
}

// MarshalYAML writes the quantity so that UnmarshalYAML reads it back
func (q Quantity) MarshalYAML() (interface{}, error) {
	if q.count != 0 {
		return q.count, nil
	}
	s := q.String()
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

/*
Params holds the hyperparameters of a model.

Zero values are replaced by their default when the model is created:
  - NEstimators: 1
  - TopN: NEstimators
  - HoldoutFraction: 0.1
  - MaxSamples: Fraction(1.0)
  - MaxFeatures: Fraction(1.0)
  - MinSamplesSplit: Count(2)
  - Jobs: 1

A MaxDepth of 0 grows trees without depth limit, and empty FeatureNames
name features after their column index.
*/
type Params struct {
	// NEstimators is the number of trees to grow
	NEstimators int `yaml:"n_estimators"`
	// TopN is the number of best ranked rules used for scoring
	TopN int `yaml:"top_n"`
	// FeatureNames are used to make rules readable
	FeatureNames []string `yaml:"feature_names"`
	// HoldoutFraction is the fraction of the samples set apart to rank
	// the rules, which must be in (0, 1)
	HoldoutFraction float64 `yaml:"holdout_fraction"`
	// MaxSamples is the number of training samples drawn for each tree
	MaxSamples Quantity `yaml:"max_samples"`
	// Bootstrap draws the samples for each tree with replacement
	Bootstrap bool `yaml:"bootstrap"`
	// MaxFeatures is the number of features examined on each split
	MaxFeatures Quantity `yaml:"max_features"`
	// MaxDepth limits the depth of the trees
	MaxDepth int `yaml:"max_depth"`
	// MinSamplesSplit is the minimum number of samples to split a node,
	// as a count or as a fraction of the samples of each tree
	MinSamplesSplit Quantity `yaml:"min_samples_split"`
	// Seed makes fitting reproducible
	Seed int64 `yaml:"seed"`
	// Jobs is the number of trees grown and rules ranked concurrently
	Jobs int `yaml:"jobs"`
}

// DefaultParams returns the default hyperparameters
func DefaultParams() Params {
	return Params{}.withDefaults()
}

func (p Params) withDefaults() Params {
	if p.NEstimators == 0 {
		p.NEstimators = 1
	}
	if p.TopN == 0 {
		p.TopN = p.NEstimators
	}
	if p.HoldoutFraction == 0 {
		p.HoldoutFraction = 0.1
	}
	if p.MaxSamples.IsZero() {
		p.MaxSamples = Fraction(1.0)
	}
	if p.MaxFeatures.IsZero() {
		p.MaxFeatures = Fraction(1.0)
	}
	if p.MinSamplesSplit.IsZero() {
		p.MinSamplesSplit = Count(2)
	}
	if p.Jobs == 0 {
		p.Jobs = 1
	}
	return p
}

// Validate returns an InvalidParameter error if any of the
// hyperparameters, once defaulted, is out of its domain.
func (p Params) Validate() error {
	p = p.withDefaults()
	if p.NEstimators < 1 {
		return errors.Wrapf(errs.InvalidParameter, "n_estimators must be at least 1, got %d", p.NEstimators)
	}
	if p.TopN < 1 {
		return errors.Wrapf(errs.InvalidParameter, "top_n must be at least 1, got %d", p.TopN)
	}
	if math.IsNaN(p.HoldoutFraction) || p.HoldoutFraction <= 0 || p.HoldoutFraction >= 1 {
		return errors.Wrapf(errs.InvalidParameter, "holdout_fraction must be in (0, 1), got %v", p.HoldoutFraction)
	}
	err := p.MaxSamples.validate("max_samples")
	if err != nil {
		return err
	}
	err = p.MaxFeatures.validate("max_features")
	if err != nil {
		return err
	}
	if p.MaxDepth < 0 {
		return errors.Wrapf(errs.InvalidParameter, "max_depth must not be negative, got %d", p.MaxDepth)
	}
	err = p.MinSamplesSplit.validate("min_samples_split")
	if err != nil {
		return err
	}
	if p.MinSamplesSplit.count == 1 {
		return errors.Wrap(errs.InvalidParameter, "min_samples_split must be a count of at least 2, got 1")
	}
	if p.Jobs < 1 {
		return errors.Wrapf(errs.InvalidParameter, "jobs must be at least 1, got %d", p.Jobs)
	}
	if len(p.FeatureNames) > 0 {
		_, err = feature.Index(p.FeatureNames)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadParams takes YAML-encoded hyperparameters and returns them, with
// defaults for the missing ones, or an error if they cannot be decoded
// or are invalid.
func ReadParams(b []byte) (Params, error) {
	var p Params
	err := yaml.UnmarshalStrict(b, &p)
	if err != nil {
		return Params{}, fmt.Errorf("decoding params: %v", err)
	}
	err = p.Validate()
	if err != nil {
		return Params{}, err
	}
	return p.withDefaults(), nil
}

// ReadParamsFromFile reads the YAML-encoded hyperparameters in the
// file at the given path
func ReadParamsFromFile(filepath string) (Params, error) {
	b, err := os.ReadFile(filepath)
	if err != nil {
		return Params{}, fmt.Errorf("reading params file %s: %v", filepath, err)
	}
	return ReadParams(b)
}
