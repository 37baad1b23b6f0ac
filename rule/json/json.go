/*
Package json serializes ranked rule lists in JSON format.
*/
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/feature"
	"github.com/datajms/skope-rules/rule"
)

/*
RuleSet is a ranked rule list together with the names of the features
of the samples it applies to, which is all that is needed to score
samples with it.
*/
type RuleSet struct {
	Features []string
	Rules    rule.Ranked
	// TopN is the number of rules, from the first one, used to score
	// samples. When 0 it is left for the reader of the rule set to decide.
	TopN int
}

// NumFeatures returns the number of features of the samples
// the rule set applies to
func (rs *RuleSet) NumFeatures() int {
	return len(rs.Features)
}

// Validate returns an InvalidParameter error if the rule set has no
// features, or duplicate ones, if any of its rules compares a feature
// it does not have, has a weight outside [0, 1] or outweighs the rule
// ranked before it.
func (rs *RuleSet) Validate() error {
	if len(rs.Features) == 0 {
		return errors.Wrap(errs.InvalidParameter, "rule set has no features")
	}
	_, err := feature.Index(rs.Features)
	if err != nil {
		return err
	}
	if rs.TopN < 0 {
		return errors.Wrapf(errs.InvalidParameter, "rule set selects %d rules", rs.TopN)
	}
	for i, w := range rs.Rules {
		if math.IsNaN(w.Weight) || w.Weight < 0 || w.Weight > 1 {
			return errors.Wrapf(errs.InvalidParameter, "rule %d has weight %v out of [0, 1]", i, w.Weight)
		}
		if i > 0 && w.Weight > rs.Rules[i-1].Weight {
			return errors.Wrapf(errs.InvalidParameter, "rule %d with weight %v is ranked after a rule with weight %v", i, w.Weight, rs.Rules[i-1].Weight)
		}
		for _, c := range w.Rule {
			if c.Feature < 0 || c.Feature >= len(rs.Features) {
				return errors.Wrapf(errs.InvalidParameter, "rule %d compares feature %d of %d", i, c.Feature, len(rs.Features))
			}
		}
	}
	return nil
}

type jsonRuleSet struct {
	Features []string        `json:"features"`
	TopN     int             `json:"topN,omitempty"`
	Rules    []*jsonWeighted `json:"rules"`
}

type jsonWeighted struct {
	Rule        string            `json:"rule"`
	Comparisons []*jsonComparison `json:"comparisons"`
	Weight      float64           `json:"weight"`
	Matches     int               `json:"matches"`
}

type jsonComparison struct {
	Feature   int     `json:"feature"`
	Name      string  `json:"name,omitempty"`
	Op        string  `json:"op"`
	Threshold float64 `json:"threshold"`
}

/*
Write takes an io.Writer and a rule set and serializes the rule set as JSON
onto the io.Writer. The rule set is serialized as an object with a
"features" array with the feature names, a "topN" number with the rules
used for scoring and a "rules" array with the ranked rules. Each rule is
an object with its readable form in the "rule" field, its comparisons in
the "comparisons" field and its "weight" and "matches".
*/
func Write(w io.Writer, rs *RuleSet) error {
	err := rs.Validate()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	err = enc.Encode(newJSONRuleSet(rs))
	if err != nil {
		return fmt.Errorf("serializing rule set as JSON: %v", err)
	}
	return nil
}

/*
Read takes an io.Reader and attempts to JSON-decode a rule set as written
by Write from it. The readable form of the rules is ignored, their
comparisons being the source of truth. The rules are kept in the order they
were read in.
*/
func Read(r io.Reader) (*RuleSet, error) {
	jrs := &jsonRuleSet{}
	err := json.NewDecoder(r).Decode(jrs)
	if err != nil {
		return nil, fmt.Errorf("decoding json rule set: %v", err)
	}
	return jrs.ruleSet()
}

func newJSONRuleSet(rs *RuleSet) *jsonRuleSet {
	jrs := &jsonRuleSet{Features: rs.Features, TopN: rs.TopN, Rules: make([]*jsonWeighted, len(rs.Rules))}
	for i, w := range rs.Rules {
		jw := &jsonWeighted{
			Rule:        w.Rule.String(),
			Comparisons: make([]*jsonComparison, len(w.Rule)),
			Weight:      w.Weight,
			Matches:     w.Matches,
		}
		for j, c := range w.Rule {
			jw.Comparisons[j] = &jsonComparison{c.Feature, c.Name, c.Op.String(), c.Threshold}
		}
		jrs.Rules[i] = jw
	}
	return jrs
}

func (jrs *jsonRuleSet) ruleSet() (*RuleSet, error) {
	rs := &RuleSet{Features: jrs.Features, TopN: jrs.TopN, Rules: make(rule.Ranked, len(jrs.Rules))}
	for i, jw := range jrs.Rules {
		if jw == nil {
			return nil, fmt.Errorf("rule %d is null", i)
		}
		r := make(rule.Rule, len(jw.Comparisons))
		for j, jc := range jw.Comparisons {
			if jc == nil {
				return nil, fmt.Errorf("comparison %d of rule %d is null", j, i)
			}
			op, err := rule.ParseOperator(jc.Op)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %d", i)
			}
			r[j] = rule.Comparison{Feature: jc.Feature, Name: jc.Name, Op: op, Threshold: jc.Threshold}
			if r[j].Name == "" && jc.Feature >= 0 && jc.Feature < len(jrs.Features) {
				r[j].Name = jrs.Features[jc.Feature]
			}
		}
		rs.Rules[i] = rule.Weighted{Rule: r, Weight: jw.Weight, Matches: jw.Matches}
	}
	err := rs.Validate()
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Marshal returns the JSON encoding of the given rule set as written by Write
func Marshal(rs *RuleSet) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := Write(buf, rs)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a rule set from the given JSON encoding
func Unmarshal(b []byte) (*RuleSet, error) {
	return Read(bytes.NewReader(b))
}
