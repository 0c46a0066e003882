package tree

import (
	"fmt"
	"math"
)

// EdgeSpec describes an edge by parent and child labels.
type EdgeSpec struct {
	Parent string
	Child  string
	Length float64
}

// FromEdges builds a tree from explicit (parent, child, length)
// triples. Exactly one node without a parent (the root) is allowed,
// all the nodes have to be reachable from it and there should be no
// cycles.
func FromEdges(specs []EdgeSpec) (*Tree, error) {
	if len(specs) == 0 {
		return nil, ErrEmpty
	}
	nodes := make(map[string]*Node)
	// labels in the order of appearance for deterministic ids
	labels := make([]string, 0, len(specs)+1)
	get := func(label string) *Node {
		node, ok := nodes[label]
		if !ok {
			node = NewNode(nil, -1)
			node.Name = label
			nodes[label] = node
			labels = append(labels, label)
		}
		return node
	}

	hasParent := make(map[string]bool, len(specs))
	for _, e := range specs {
		if e.Parent == e.Child {
			return nil, fmt.Errorf("%w: self loop at %s", ErrCycle, e.Child)
		}
		if hasParent[e.Child] {
			return nil, fmt.Errorf("%w: %s", ErrMultipleParents, e.Child)
		}
		hasParent[e.Child] = true
		parent, child := get(e.Parent), get(e.Child)
		child.BranchLength = e.Length
		parent.AddChild(child)
	}

	var roots []string
	for _, label := range labels {
		if !hasParent[label] {
			roots = append(roots, label)
		}
	}
	switch {
	case len(roots) == 0:
		return nil, fmt.Errorf("%w: no root", ErrCycle)
	case len(roots) > 1:
		return nil, fmt.Errorf("%w: %v", ErrMultipleRoots, roots)
	}

	// Every node has at most one parent, so a node unreachable from
	// the root lies on a cycle.
	root := nodes[roots[0]]
	visited := make(map[*Node]bool, len(nodes))
	stack := []*Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited[node] = true
		stack = append(stack, node.childNodes...)
	}
	if len(visited) != len(nodes) {
		var missing []string
		for _, label := range labels {
			if !visited[nodes[label]] {
				missing = append(missing, label)
			}
		}
		return nil, fmt.Errorf("%w: %w: %v", ErrDisconnected, ErrCycle, missing)
	}

	tree := &Tree{Node: root}
	tree.renumber()
	return tree, nil
}

// Validate checks the tree structure: parent/child links are
// consistent, nodes are visited once, branch lengths are finite and
// non-negative, leaves have unique names.
func (tree *Tree) Validate() error {
	if tree == nil || tree.Node == nil {
		return ErrEmpty
	}
	if tree.Parent != nil {
		return fmt.Errorf("%w: root has a parent", ErrMultipleRoots)
	}
	seen := make(map[*Node]bool)
	names := make(map[string]bool)
	stack := []*Node{tree.Node}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[node] {
			return fmt.Errorf("%w: node %s visited twice", ErrCycle, node.LongString())
		}
		seen[node] = true
		if node != tree.Node {
			if l := node.BranchLength; l < 0 || math.IsNaN(l) || math.IsInf(l, 0) {
				return fmt.Errorf("%w: %v at %s", ErrBranchLength, l, node.LongString())
			}
		}
		if node.IsTerminal() {
			if node.Name == "" {
				return fmt.Errorf("%w: unnamed leaf %d", ErrLeafName, node.Id)
			}
			if names[node.Name] {
				return fmt.Errorf("%w: duplicate leaf %s", ErrLeafName, node.Name)
			}
			names[node.Name] = true
		}
		for _, child := range node.childNodes {
			if child.Parent != node {
				return fmt.Errorf("%w: inconsistent parent of %s", ErrMultipleParents, child.LongString())
			}
			stack = append(stack, child)
		}
	}
	return nil
}
