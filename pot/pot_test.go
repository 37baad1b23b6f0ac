package pot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/errs"
)

// age, amount
func fraudMatrix() (*mat.Dense, []int) {
	x := mat.NewDense(8, 2, []float64{
		25, 5000,
		28, 4000,
		22, 3000,
		45, 100,
		50, 200,
		35, 150,
		60, 5000,
		40, 80,
	})
	y := []int{-1, -1, -1, 1, 1, 1, 1, 1}
	return x, y
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestGrow_SeparatesClasses(t *testing.T) {
	x, y := fraudMatrix()
	tr, err := New().Grow(context.Background(), x, y, allRows(8))
	require.NoError(t, err)
	require.NoError(t, tr.Validate())

	for i := 0; i < 8; i++ {
		leaf, ok := tr.Apply(mat.Row(nil, i, x))
		require.True(t, ok)
		n := tr.Nodes[leaf]
		assert.Equal(t, 0.0, n.Impurity, "row %d", i)
		if y[i] == -1 {
			assert.Equal(t, 1.0, n.Value, "row %d", i)
		} else {
			assert.Equal(t, 0.0, n.Value, "row %d", i)
		}
	}

	root := tr.Nodes[0]
	assert.Equal(t, 8, root.Samples)
	assert.InDelta(t, 3.0/8.0, root.Value, 1e-12)
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 31.5, root.Threshold)
}

func TestGrow_MaxDepth(t *testing.T) {
	x, y := fraudMatrix()
	tr, err := New(MaxDepth(1)).Grow(context.Background(), x, y, allRows(8))
	require.NoError(t, err)
	assert.LessOrEqual(t, tr.Depth(), 1)
}

func TestGrow_MinSamplesSplit(t *testing.T) {
	x, y := fraudMatrix()
	tr, err := New(MinSamplesSplit(9)).Grow(context.Background(), x, y, allRows(8))
	require.NoError(t, err)
	assert.Len(t, tr.Nodes, 1)
	assert.True(t, tr.Nodes[0].Leaf())
}

func TestGrow_PureNodeIsLeaf(t *testing.T) {
	x, y := fraudMatrix()
	tr, err := New().Grow(context.Background(), x, y, []int{3, 4, 5})
	require.NoError(t, err)
	assert.Len(t, tr.Nodes, 1)
	assert.Equal(t, 0.0, tr.Nodes[0].Value)
}

func TestGrow_ConstantFeatures(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	tr, err := New().Grow(context.Background(), x, []int{-1, 1, -1, 1}, allRows(4))
	require.NoError(t, err)
	assert.Len(t, tr.Nodes, 1)
	assert.Equal(t, 0.5, tr.Nodes[0].Value)
	assert.Equal(t, 0.5, tr.Nodes[0].Impurity)
}

func TestGrow_RepeatedRows(t *testing.T) {
	x, y := fraudMatrix()
	tr, err := New().Grow(context.Background(), x, y, []int{0, 0, 0, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, 5, tr.Nodes[0].Samples)
	assert.InDelta(t, 0.6, tr.Nodes[0].Value, 1e-12)
	assert.Len(t, tr.Leaves(), 2)
}

func TestGrow_Deterministic(t *testing.T) {
	x, y := fraudMatrix()
	p := New(MaxFeatures(1), Seed(7))
	first, err := p.Grow(context.Background(), x, y, allRows(8))
	require.NoError(t, err)
	second, err := p.Grow(context.Background(), x, y, allRows(8))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGrow_Errors(t *testing.T) {
	x, y := fraudMatrix()
	ctx := context.Background()

	_, err := New().Grow(ctx, x, y[:3], allRows(8))
	assert.True(t, errors.Is(err, errs.ShapeMismatch))

	_, err = New().Grow(ctx, x, y, nil)
	assert.True(t, errors.Is(err, errs.DegenerateInput))

	_, err = New().Grow(ctx, x, y, []int{0, 8})
	assert.True(t, errors.Is(err, errs.ShapeMismatch))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = New().Grow(cancelled, x, y, allRows(8))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBestSplit_Midpoint(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 4, 8})
	s := bestSplit(x, []int{-1, -1, 1, 1}, allRows(4), []int{0}, 0.5)
	require.NotNil(t, s)
	assert.Equal(t, 3.0, s.threshold)
	assert.Equal(t, []int{0, 1}, s.left)
	assert.Equal(t, []int{2, 3}, s.right)
	assert.Equal(t, 0.0, s.impurity)
}

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, gini(0, 0))
	assert.Equal(t, 0.0, gini(4, 4))
	assert.Equal(t, 0.5, gini(2, 4))
	assert.InDelta(t, 0.375, gini(1, 4), 1e-12)
}
