/*
Package pot grows binary decision trees from labelled feature matrixes.

The trees are classification trees (CART) that separate fraud samples
(label -1) from normal samples (label +1) minimizing the Gini impurity,
with samples whose split feature value is lower or equal to the split
threshold going to the left child.
*/
package pot

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/tree"
)

/*
Pot represents the context in which a tree is grown.

Its Grow method takes a feature matrix, its labels and the indexes of the
rows of the matrix to grow the tree with (which may be repeated) and
returns a tree that predicts the labels.
*/
type Pot interface {
	Grow(ctx context.Context, x mat.Matrix, y []int, rows []int) (*tree.Tree, error)
}

/*
Option configures a Pot
*/
type Option func(*pot)

type pot struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	seed            int64
}

/*
New takes a list of options and returns a Pot that grows trees with them.
Unless configured otherwise, trees are grown until every leaf is pure or
has less than 2 samples, and every feature is examined on every split.
*/
func New(opts ...Option) Pot {
	p := &pot{minSamplesSplit: 2}
	for _, opt := range opts {
		opt(p)
	}
	if p.minSamplesSplit < 2 {
		p.minSamplesSplit = 2
	}
	return p
}

// MaxDepth limits the depth of grown trees. A value of 0 or less
// grows trees without depth limit.
func MaxDepth(d int) Option {
	return func(p *pot) {
		p.maxDepth = d
	}
}

// MinSamplesSplit sets the minimum number of samples a node must
// have to be split.
func MinSamplesSplit(n int) Option {
	return func(p *pot) {
		p.minSamplesSplit = n
	}
}

// MaxFeatures limits the number of randomly drawn features examined
// to split each node. A value of 0 or less examines every feature.
func MaxFeatures(k int) Option {
	return func(p *pot) {
		p.maxFeatures = k
	}
}

// Seed sets the seed for the random choice of features to examine
// on each split.
func Seed(s int64) Option {
	return func(p *pot) {
		p.seed = s
	}
}

type grower struct {
	*pot
	x           mat.Matrix
	y           []int
	numFeatures int
	rnd         *rand.Rand
	nodes       []tree.Node
}

func (p *pot) Grow(ctx context.Context, x mat.Matrix, y []int, rows []int) (*tree.Tree, error) {
	r, c := x.Dims()
	if len(y) != r {
		return nil, errors.Wrapf(errs.ShapeMismatch, "%d labels for %d rows", len(y), r)
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(errs.DegenerateInput, "cannot grow a tree without samples")
	}
	for _, i := range rows {
		if i < 0 || i >= r {
			return nil, errors.Wrapf(errs.ShapeMismatch, "row %d out of range [0, %d)", i, r)
		}
	}
	g := &grower{
		pot:         p,
		x:           x,
		y:           y,
		numFeatures: c,
		rnd:         rand.New(rand.NewSource(p.seed)),
	}
	_, err := g.develop(ctx, rows, 0)
	if err != nil {
		return nil, err
	}
	return tree.New(g.nodes, c)
}

// develop appends the node for the given rows, and then the nodes of its
// subtrees, returning the index of the node
func (g *grower) develop(ctx context.Context, rows []int, depth int) (int, error) {
	err := ctx.Err()
	if err != nil {
		return tree.NoChild, err
	}
	index := len(g.nodes)
	n := tree.NewLeaf()
	fraud := countFraud(g.y, rows)
	n.Samples = len(rows)
	n.Impurity = gini(fraud, len(rows))
	n.Value = float64(fraud) / float64(len(rows))
	g.nodes = append(g.nodes, n)
	if n.Impurity == 0.0 || len(rows) < g.minSamplesSplit || (g.maxDepth > 0 && depth >= g.maxDepth) {
		return index, nil
	}
	s := bestSplit(g.x, g.y, rows, g.candidateFeatures(), n.Impurity)
	if s == nil {
		return index, nil
	}
	left, err := g.develop(ctx, s.left, depth+1)
	if err != nil {
		return tree.NoChild, err
	}
	right, err := g.develop(ctx, s.right, depth+1)
	if err != nil {
		return tree.NoChild, err
	}
	g.nodes[index].Feature = s.feature
	g.nodes[index].Threshold = s.threshold
	g.nodes[index].Left = left
	g.nodes[index].Right = right
	return index, nil
}

func (g *grower) candidateFeatures() []int {
	if g.maxFeatures <= 0 || g.maxFeatures >= g.numFeatures {
		features := make([]int, g.numFeatures)
		for i := range features {
			features[i] = i
		}
		return features
	}
	return g.rnd.Perm(g.numFeatures)[:g.maxFeatures]
}
