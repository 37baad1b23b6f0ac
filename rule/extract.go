package rule

import (
	"github.com/datajms/skope-rules/feature"
	"github.com/datajms/skope-rules/tree"
)

/*
Extract takes a tree and the names of its features and returns one rule
per leaf of the tree, in depth-first left-first order, each holding the
comparisons along the path from the root to the leaf. Going to the left
child of a node adds a feature <= threshold comparison, going to the right
one a feature > threshold comparison.

If names is empty feature columns are named after their index, otherwise
it must have a name for every feature of the tree. A tree whose root is a
leaf yields a single empty rule. An InvalidTreeStructure error is returned
if the tree is not valid or the number of names does not match.
*/
func Extract(t *tree.Tree, names []string) ([]Rule, error) {
	err := t.Validate()
	if err != nil {
		return nil, err
	}
	names, err = feature.Resolve(names, t.NumFeatures)
	if err != nil {
		return nil, err
	}
	var rules []Rule
	var walk func(i int, path Rule)
	walk = func(i int, path Rule) {
		n := &t.Nodes[i]
		if n.Leaf() {
			r := make(Rule, len(path))
			copy(r, path)
			rules = append(rules, r)
			return
		}
		c := Comparison{Feature: n.Feature, Name: names[n.Feature], Threshold: n.Threshold}
		c.Op = LessOrEqual
		walk(n.Left, append(path, c))
		c.Op = Greater
		walk(n.Right, append(path, c))
	}
	walk(0, make(Rule, 0, t.Depth()))
	return rules, nil
}
