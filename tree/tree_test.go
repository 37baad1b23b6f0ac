package tree

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datajms/skope-rules/errs"
)

func split(feature int, threshold float64, left, right int) Node {
	return Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
}

// age <= 30 ? leaf : (amount <= 1000 ? leaf : leaf)
func sampleTree(t *testing.T) *Tree {
	tr, err := New([]Node{
		split(0, 30, 1, 2),
		NewLeaf(),
		split(1, 1000, 3, 4),
		NewLeaf(),
		NewLeaf(),
	}, 2)
	require.NoError(t, err)
	return tr
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		nodes []Node
		nf    int
	}{
		{"Empty", nil, 2},
		{"NoFeatures", []Node{NewLeaf()}, 0},
		{"FeatureOutOfRange", []Node{split(2, 0, 1, 2), NewLeaf(), NewLeaf()}, 2},
		{"NegativeFeature", []Node{split(-1, 0, 1, 2), NewLeaf(), NewLeaf()}, 2},
		{"ChildOutOfRange", []Node{split(0, 0, 1, 3), NewLeaf(), NewLeaf()}, 2},
		{"MissingChild", []Node{split(0, 0, 1, NoChild), NewLeaf()}, 2},
		{"Cycle", []Node{split(0, 0, 1, 0), NewLeaf()}, 2},
		{"SharedChild", []Node{split(0, 0, 1, 1), NewLeaf()}, 2},
		{"LeafWithChildren", []Node{{Feature: Undefined, Left: 1, Right: NoChild}, NewLeaf()}, 2},
		{"Unreachable", []Node{NewLeaf(), NewLeaf()}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.nodes, tc.nf)
			assert.True(t, errors.Is(err, errs.InvalidTreeStructure), "got %v", err)
		})
	}
	var nilTree *Tree
	assert.True(t, errors.Is(nilTree.Validate(), errs.InvalidTreeStructure))
}

func TestLeavesAndDepth(t *testing.T) {
	tr := sampleTree(t)
	assert.Equal(t, []int{1, 3, 4}, tr.Leaves())
	assert.Equal(t, 2, tr.Depth())

	single, err := New([]Node{NewLeaf()}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, single.Leaves())
	assert.Equal(t, 0, single.Depth())
}

func TestApply(t *testing.T) {
	tr := sampleTree(t)
	cases := []struct {
		values []float64
		leaf   int
		ok     bool
	}{
		{[]float64{30, 5000}, 1, true},
		{[]float64{31, 1000}, 3, true},
		{[]float64{31, 1000.5}, 4, true},
		{[]float64{math.NaN(), 0}, NoChild, false},
		{[]float64{40, math.NaN()}, NoChild, false},
		{[]float64{20, math.NaN()}, 1, true},
		{[]float64{40}, NoChild, false},
		{nil, NoChild, false},
		{[]float64{20}, 1, true},
	}
	for _, tc := range cases {
		leaf, ok := tr.Apply(tc.values)
		assert.Equal(t, tc.leaf, leaf, "%v", tc.values)
		assert.Equal(t, tc.ok, ok, "%v", tc.values)
	}
}

func TestTraverse(t *testing.T) {
	tr := sampleTree(t)
	var order, depths []int
	require.NoError(t, tr.Traverse(func(i, d int, _ *Node) error {
		order = append(order, i)
		depths = append(depths, d)
		return nil
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, []int{0, 1, 1, 2, 2}, depths)

	stop := errors.New("stop")
	visits := 0
	err := tr.Traverse(func(i, _ int, _ *Node) error {
		visits++
		if i == 2 {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 3, visits)
}

func TestString(t *testing.T) {
	s := sampleTree(t).String()
	assert.Contains(t, s, "[0]")
	assert.Contains(t, s, "{ 0 <= 30 }")
	assert.Contains(t, s, "|__[4]")
}
