package rule

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/tree"
)

func split(feature int, threshold float64, left, right int) tree.Node {
	return tree.Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
}

// age <= 30 ? leaf : (amount <= 1000 ? leaf : leaf)
func sampleTree(t *testing.T) *tree.Tree {
	tr, err := tree.New([]tree.Node{
		split(0, 30, 1, 2),
		tree.NewLeaf(),
		split(1, 1000, 3, 4),
		tree.NewLeaf(),
		tree.NewLeaf(),
	}, 2)
	require.NoError(t, err)
	return tr
}

func sampleMatrix() *mat.Dense {
	return mat.NewDense(6, 2, []float64{
		25, 5000,
		30, 10,
		31, 1000,
		45, 1001,
		60, 2500,
		math.NaN(), 2000,
	})
}

func TestExtract(t *testing.T) {
	rules, err := Extract(sampleTree(t), []string{"age", "amount"})
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "age <= 30", rules[0].String())
	assert.Equal(t, "age > 30 and amount <= 1000", rules[1].String())
	assert.Equal(t, "age > 30 and amount > 1000", rules[2].String())
	assert.Equal(t, Rule{
		{Feature: 0, Name: "age", Op: Greater, Threshold: 30},
		{Feature: 1, Name: "amount", Op: Greater, Threshold: 1000},
	}, rules[2])
}

func TestExtract_PositionalNames(t *testing.T) {
	rules, err := Extract(sampleTree(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "0 > 30 and 1 <= 1000", rules[1].String())
}

func TestExtract_RootLeaf(t *testing.T) {
	tr, err := tree.New([]tree.Node{tree.NewLeaf()}, 2)
	require.NoError(t, err)
	rules, err := Extract(tr, nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Empty(t, rules[0])
	assert.Equal(t, "true", rules[0].String())

	matches, err := rules[0].Matches(sampleMatrix())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, matches)
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract(sampleTree(t), []string{"age"})
	assert.True(t, errors.Is(err, errs.InvalidTreeStructure))

	broken := &tree.Tree{Nodes: []tree.Node{split(5, 0, 1, 2), tree.NewLeaf(), tree.NewLeaf()}, NumFeatures: 2}
	_, err = Extract(broken, nil)
	assert.True(t, errors.Is(err, errs.InvalidTreeStructure))
}

func TestExtract_PartitionsRows(t *testing.T) {
	x := sampleMatrix()
	rules, err := Extract(sampleTree(t), nil)
	require.NoError(t, err)
	seen := map[int]int{}
	for _, r := range rules {
		matches, err := r.Matches(x)
		require.NoError(t, err)
		for _, i := range matches {
			seen[i]++
		}
	}
	// the NaN row reaches no leaf
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1, 4: 1}, seen)
}

func TestMatches(t *testing.T) {
	x := sampleMatrix()
	r := Rule{
		{Feature: 0, Op: Greater, Threshold: 30},
		{Feature: 1, Op: Greater, Threshold: 1000},
	}
	matches, err := r.Matches(x)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, matches)

	for i := 0; i < 6; i++ {
		assert.Equal(t, contains(matches, i), r.Satisfies(mat.Row(nil, i, x)), "row %d", i)
	}

	_, err = Rule{{Feature: 2, Op: Greater}}.Matches(x)
	assert.True(t, errors.Is(err, errs.ShapeMismatch))
}

func TestNaNNeverSatisfies(t *testing.T) {
	nan := math.NaN()
	assert.False(t, Comparison{Op: LessOrEqual, Threshold: 0}.Holds(nan))
	assert.False(t, Comparison{Op: Greater, Threshold: 0}.Holds(nan))
	assert.False(t, Rule{{Op: LessOrEqual, Threshold: math.Inf(1)}}.Satisfies([]float64{nan}))
	assert.True(t, Rule{}.Satisfies([]float64{nan}))
}

func TestParseOperator(t *testing.T) {
	for _, op := range []Operator{LessOrEqual, Greater} {
		parsed, err := ParseOperator(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
	_, err := ParseOperator("<")
	assert.True(t, errors.Is(err, errs.InvalidParameter))
}

func TestRank(t *testing.T) {
	x := sampleMatrix()
	y := []int{-1, 1, 1, -1, -1, -1}
	rules := []Rule{
		{{Feature: 0, Op: LessOrEqual, Threshold: 30}},
		{{Feature: 1, Op: Greater, Threshold: 1000}},
		{{Feature: 0, Op: Greater, Threshold: 100}},
		{{Feature: 0, Op: Greater, Threshold: 30}},
	}
	ranked, err := Rank(context.Background(), rules, x, y, Jobs(3))
	require.NoError(t, err)
	require.Len(t, ranked, 4)
	// amount > 1000 matches 0, 3, 4, 5, all fraud
	assert.Equal(t, rules[1], ranked[0].Rule)
	assert.Equal(t, 1.0, ranked[0].Weight)
	assert.Equal(t, 4, ranked[0].Matches)
	// age > 30 matches 2, 3, 4
	assert.Equal(t, rules[3], ranked[1].Rule)
	assert.InDelta(t, 2.0/3.0, ranked[1].Weight, 1e-12)
	// age <= 30 matches 0, 1 and age > 100 matches nothing
	assert.Equal(t, rules[0], ranked[2].Rule)
	assert.Equal(t, 0.5, ranked[2].Weight)
	assert.Equal(t, rules[2], ranked[3].Rule)
	assert.Equal(t, 0.0, ranked[3].Weight)
	assert.Equal(t, 0, ranked[3].Matches)
}

func TestRank_StableTies(t *testing.T) {
	x := sampleMatrix()
	y := []int{-1, -1, -1, -1, -1, -1}
	rules := []Rule{
		{{Feature: 0, Op: Greater, Threshold: 40}},
		{{Feature: 0, Op: LessOrEqual, Threshold: 40}},
		{},
	}
	ranked, err := Rank(context.Background(), rules, x, y)
	require.NoError(t, err)
	for i, w := range ranked {
		assert.Equal(t, rules[i], w.Rule)
	}
}

func TestRank_Deterministic(t *testing.T) {
	x := sampleMatrix()
	y := []int{-1, 1, 1, -1, 1, -1}
	rules, err := Extract(sampleTree(t), nil)
	require.NoError(t, err)
	first, err := Rank(context.Background(), rules, x, y, Jobs(1))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Rank(context.Background(), rules, x, y, Jobs(4))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRank_SingleRule(t *testing.T) {
	x := sampleMatrix()
	y := []int{-1, 1, 1, -1, 1, -1}
	r := Rule{{Feature: 1, Op: Greater, Threshold: 1000}}
	direct, err := Weigh(r, x, y)
	require.NoError(t, err)
	ranked, err := Rank(context.Background(), []Rule{r}, x, y)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, direct, ranked[0])
	assert.Equal(t, 0.75, direct.Weight)
}

func TestRank_Errors(t *testing.T) {
	x := sampleMatrix()
	rules := []Rule{{{Feature: 0, Op: Greater, Threshold: 30}}}
	ctx := context.Background()

	_, err := Rank(ctx, rules, x, []int{1, 1})
	assert.True(t, errors.Is(err, errs.ShapeMismatch))

	_, err = Rank(ctx, rules, x, []int{1, 1, 0, 1, 1, 1})
	assert.True(t, errors.Is(err, errs.InvalidParameter))

	_, err = Rank(ctx, []Rule{{{Feature: 4}}}, x, []int{1, 1, 1, 1, 1, 1})
	assert.True(t, errors.Is(err, errs.ShapeMismatch))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Rank(cancelled, rules, x, []int{1, 1, 1, 1, 1, 1})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRankedTop(t *testing.T) {
	rs := Ranked{{Weight: 0.9}, {Weight: 0.5}}
	assert.Len(t, rs.Top(5), 2)
	assert.Len(t, rs.Top(1), 1)
	assert.Empty(t, rs.Top(0))
}

func contains(s []int, v int) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
