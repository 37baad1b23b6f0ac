/*
Package json serializes trees in JSON format.
*/
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/datajms/skope-rules/tree"
)

type jsonTree struct {
	NumFeatures int         `json:"numFeatures"`
	Nodes       []*jsonNode `json:"nodes"`
}

type jsonNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Samples   int     `json:"samples,omitempty"`
	Impurity  float64 `json:"impurity,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

/*
WriteJSONTree takes an io.Writer and a tree and serializes the
tree as JSON onto the io.Writer.
A tree is serialized as a JSON object with the following fields:
  - "numFeatures": the number of features of the samples the tree
    was grown on
  - "nodes": an array with the nodes of the tree, the root first, each
    an object with "feature", "threshold", "left" and "right" fields
    plus the "samples", "impurity" and "value" training statistics.

Leaves have a feature of -2 and left and right children of -1.
An error is returned if the tree cannot be serialized or written
onto the io.Writer.
*/
func WriteJSONTree(w io.Writer, t *tree.Tree) error {
	err := json.NewEncoder(w).Encode(newJSONTree(t))
	if err != nil {
		return fmt.Errorf("serializing tree as JSON: %v", err)
	}
	return nil
}

/*
WriteJSONTrees takes an io.Writer and a slice of trees and serializes
them as a JSON array of trees onto the io.Writer.
*/
func WriteJSONTrees(w io.Writer, ts []*tree.Tree) error {
	jts := make([]*jsonTree, len(ts))
	for i, t := range ts {
		jts[i] = newJSONTree(t)
	}
	err := json.NewEncoder(w).Encode(jts)
	if err != nil {
		return fmt.Errorf("serializing trees as JSON: %v", err)
	}
	return nil
}

/*
ReadJSONTree takes an io.Reader and attempts to JSON-decode a
tree as serialized by WriteJSONTree from it. It returns the read
tree or an error, which will wrap errs.InvalidTreeStructure if
the read nodes do not make a valid tree.
*/
func ReadJSONTree(r io.Reader) (*tree.Tree, error) {
	jt := &jsonTree{}
	err := json.NewDecoder(r).Decode(jt)
	if err != nil {
		return nil, fmt.Errorf("decoding json tree: %v", err)
	}
	return jt.tree()
}

/*
ReadJSONTrees takes an io.Reader and attempts to JSON-decode an
array of trees as serialized by WriteJSONTrees from it.
*/
func ReadJSONTrees(r io.Reader) ([]*tree.Tree, error) {
	var jts []*jsonTree
	err := json.NewDecoder(r).Decode(&jts)
	if err != nil {
		return nil, fmt.Errorf("decoding json trees: %v", err)
	}
	result := make([]*tree.Tree, len(jts))
	for i, jt := range jts {
		result[i], err = jt.tree()
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return result, nil
}

func newJSONTree(t *tree.Tree) *jsonTree {
	jt := &jsonTree{NumFeatures: t.NumFeatures, Nodes: make([]*jsonNode, len(t.Nodes))}
	for i, n := range t.Nodes {
		jt.Nodes[i] = &jsonNode{n.Feature, n.Threshold, n.Left, n.Right, n.Samples, n.Impurity, n.Value}
	}
	return jt
}

func (jt *jsonTree) tree() (*tree.Tree, error) {
	nodes := make([]tree.Node, len(jt.Nodes))
	for i, jn := range jt.Nodes {
		if jn == nil {
			return nil, fmt.Errorf("node %d is null", i)
		}
		nodes[i] = tree.Node{
			Feature:   jn.Feature,
			Threshold: jn.Threshold,
			Left:      jn.Left,
			Right:     jn.Right,
			Samples:   jn.Samples,
			Impurity:  jn.Impurity,
			Value:     jn.Value,
		}
	}
	return tree.New(nodes, jt.NumFeatures)
}
