/*
Package tree defines the binary decision trees from which rules are extracted.

A Tree stores its nodes in a slice, with the root at index 0 and every
internal node referring to its children by their index in the slice.
*/
package tree

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/datajms/skope-rules/errs"
)

// Tree represents a binary decision tree grown on
// samples with NumFeatures features.
type Tree struct {
	Nodes       []Node
	NumFeatures int
}

// New takes a slice of nodes and the number of features
// of the samples the tree was grown on and returns a Tree,
// or an InvalidTreeStructure error if the nodes do not
// make a valid tree.
func New(nodes []Node, numFeatures int) (*Tree, error) {
	t := &Tree{Nodes: nodes, NumFeatures: numFeatures}
	err := t.Validate()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Validate returns an InvalidTreeStructure error unless:
//   - the tree has at least one node,
//   - leaves, and only leaves, have the Undefined feature
//     and NoChild children,
//   - every internal node splits on a feature in
//     [0, NumFeatures) and has two children in range,
//   - every node is reachable from the root exactly once.
func (t *Tree) Validate() error {
	if t == nil || len(t.Nodes) == 0 {
		return errors.Wrap(errs.InvalidTreeStructure, "tree has no nodes")
	}
	if t.NumFeatures < 1 {
		return errors.Wrapf(errs.InvalidTreeStructure, "tree grown on %d features", t.NumFeatures)
	}
	visited := make([]bool, len(t.Nodes))
	stack := []int{0}
	count := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			return errors.Wrapf(errs.InvalidTreeStructure, "node %d is reachable more than once", i)
		}
		visited[i] = true
		count++
		n := &t.Nodes[i]
		if n.Leaf() {
			if n.Left != NoChild || n.Right != NoChild {
				return errors.Wrapf(errs.InvalidTreeStructure, "leaf node %d has children", i)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= t.NumFeatures {
			return errors.Wrapf(errs.InvalidTreeStructure, "node %d splits on feature %d out of range [0, %d)", i, n.Feature, t.NumFeatures)
		}
		for _, c := range []int{n.Right, n.Left} {
			if c < 0 || c >= len(t.Nodes) {
				return errors.Wrapf(errs.InvalidTreeStructure, "node %d has child %d out of range [0, %d)", i, c, len(t.Nodes))
			}
			stack = append(stack, c)
		}
	}
	if count != len(t.Nodes) {
		return errors.Wrapf(errs.InvalidTreeStructure, "%d nodes are not reachable from the root", len(t.Nodes)-count)
	}
	return nil
}

// Leaves returns the indexes of the leaves of the tree
// in depth-first, left-first order.
func (t *Tree) Leaves() []int {
	var leaves []int
	t.Traverse(func(i, _ int, n *Node) error {
		if n.Leaf() {
			leaves = append(leaves, i)
		}
		return nil
	})
	return leaves
}

// Depth returns the number of edges in the longest path
// from the root to a leaf.
func (t *Tree) Depth() int {
	var depth int
	t.Traverse(func(_, d int, _ *Node) error {
		if d > depth {
			depth = d
		}
		return nil
	})
	return depth
}

// Apply takes the feature values of a sample and returns
// the index of the leaf the sample reaches and true, or
// NoChild and false if the sample cannot reach a leaf
// because of a NaN value on a split feature or because
// it has no value for a split feature.
func (t *Tree) Apply(values []float64) (int, bool) {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf() {
			return i, true
		}
		if n.Feature >= len(values) {
			return NoChild, false
		}
		v := values[n.Feature]
		switch {
		case v <= n.Threshold:
			i = n.Left
		case v > n.Threshold:
			i = n.Right
		default:
			return NoChild, false
		}
	}
}

// Traverse takes an error-returning function and goes
// through the tree depth-first, visiting a node before
// its left subtree and its left subtree before its
// right subtree, calling the function with the index,
// depth and node for every visited node. If the call
// returns an error the traversing is aborted and the
// error is returned.
func (t *Tree) Traverse(f func(index, depth int, n *Node) error) error {
	return t.traverse(0, 0, f)
}

func (t *Tree) traverse(i, depth int, f func(int, int, *Node) error) error {
	n := &t.Nodes[i]
	err := f(i, depth, n)
	if err != nil {
		return err
	}
	if n.Leaf() {
		return nil
	}
	err = t.traverse(n.Left, depth+1, f)
	if err != nil {
		return err
	}
	return t.traverse(n.Right, depth+1, f)
}

func (t *Tree) String() string {
	return t.subtreeString(0)
}

func (t *Tree) subtreeString(i int) string {
	n := &t.Nodes[i]
	result := fmt.Sprintf("[%d]\n", i)
	result = fmt.Sprintf("%s{ samples=%d fraud=%.3f }\n", result, n.Samples, n.Value)
	if n.Leaf() {
		return fmt.Sprintf("%s \n", result)
	}
	result = fmt.Sprintf("%s{ %d <= %v }\n|\n", result, n.Feature, n.Threshold)
	for c, child := range []int{n.Left, n.Right} {
		for j, line := range strings.Split(t.subtreeString(child), "\n") {
			if len(line) > 0 {
				if j == 0 {
					result = fmt.Sprintf("%s|__%s\n", result, line)
				} else {
					if c == 1 {
						result = fmt.Sprintf("%s   %s\n", result, line)
					} else {
						result = fmt.Sprintf("%s|  %s\n", result, line)
					}
				}
			}
		}
	}
	return result
}
