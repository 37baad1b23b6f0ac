package tree

const (
	// Undefined is the feature index of leaf nodes
	Undefined = -2
	// NoChild is the child index of leaf nodes
	NoChild = -1
)

/*
Node is a node of the tree
*/
type Node struct {
	// The index of the feature whose value decides which child a sample
	// goes to, or Undefined for leaves.
	Feature int
	// Samples with a feature value lower or equal to the threshold go to
	// the left child, samples with a greater value go to the right child.
	Threshold float64
	// The indexes of the children nodes in the tree, NoChild for leaves.
	Left, Right int
	// The number of training samples that reached the node.
	Samples int
	// The Gini impurity of the training samples that reached the node.
	Impurity float64
	// The fraction of fraud samples among the training samples that
	// reached the node.
	Value float64
}

/*
Leaf returns whether the node is a leaf
*/
func (n *Node) Leaf() bool {
	return n.Feature == Undefined
}

/*
NewLeaf returns a leaf node
*/
func NewLeaf() Node {
	return Node{Feature: Undefined, Left: NoChild, Right: NoChild}
}
