/*
Package storetest checks that implementations of store.Store behave
as expected.
*/
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datajms/skope-rules/rule"
	rulejson "github.com/datajms/skope-rules/rule/json"
	"github.com/datajms/skope-rules/store"
)

// RuleSet returns a rule set for stores to save
func RuleSet() *rulejson.RuleSet {
	return &rulejson.RuleSet{
		Features: []string{"age", "amount"},
		TopN:     1,
		Rules: rule.Ranked{
			{Rule: rule.Rule{{Feature: 0, Name: "age", Op: rule.LessOrEqual, Threshold: 30}}, Weight: 0.8, Matches: 10},
			{Rule: rule.Rule{{Feature: 1, Name: "amount", Op: rule.Greater, Threshold: 1000}}, Weight: 0.5, Matches: 4},
		},
	}
}

// Run saves, loads, replaces and deletes rule sets on the given store,
// which must not have a rule set named after the test
func Run(t *testing.T, s store.Store) {
	ctx := context.Background()
	name := t.Name()

	_, err := s.Load(ctx, name)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	rs := RuleSet()
	require.NoError(t, s.Save(ctx, name, rs))
	loaded, err := s.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, rs, loaded)

	rs.Rules = rs.Rules[:1]
	require.NoError(t, s.Save(ctx, name, rs))
	loaded, err = s.Load(ctx, name)
	require.NoError(t, err)
	assert.Len(t, loaded.Rules, 1)

	require.NoError(t, s.Delete(ctx, name))
	_, err = s.Load(ctx, name)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	assert.NoError(t, s.Delete(ctx, name))

	assert.Error(t, s.Save(ctx, name, &rulejson.RuleSet{}))
}
