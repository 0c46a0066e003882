// Package tree implements rooted phylogenetic trees: Newick parsing,
// construction from explicit edge lists, traversal and structural
// validation.
package tree

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrNewick is returned for malformed Newick strings.
	ErrNewick = errors.New("tree: malformed newick")
	// ErrEmpty is returned for a tree without edges.
	ErrEmpty = errors.New("tree: empty tree")
	// ErrMultipleRoots is returned when more than one node has no
	// parent.
	ErrMultipleRoots = errors.New("tree: multiple roots")
	// ErrMultipleParents is returned when a node has more than one
	// incoming edge.
	ErrMultipleParents = errors.New("tree: node with multiple parents")
	// ErrCycle is returned when the edges contain a cycle.
	ErrCycle = errors.New("tree: cycle")
	// ErrDisconnected is returned when some nodes cannot be reached
	// from the root.
	ErrDisconnected = errors.New("tree: disconnected nodes")
	// ErrBranchLength is returned for negative or non-finite branch
	// lengths.
	ErrBranchLength = errors.New("tree: invalid branch length")
	// ErrLeafName is returned for unnamed or duplicate leaves.
	ErrLeafName = errors.New("tree: invalid leaf name")
)

type mode int

const (
	normal mode = iota
	length
)

// Tree is a rooted tree, the embedded node is the root.
type Tree struct {
	*Node
	nNodes int
	nodes  []*Node
	edges  []Edge
}

// Edge is a directed branch from parent to child.
type Edge struct {
	Parent *Node
	Child  *Node
	Length float64
}

// ClearCache clears cached node and edge lists. It has to be called
// after the tree is modified.
func (tree *Tree) ClearCache() {
	tree.nNodes = 0
	tree.nodes = nil
	tree.edges = nil
}

// NNodes returns the number of nodes.
func (tree *Tree) NNodes() int {
	if tree.nNodes == 0 {
		tree.nNodes = tree.NSubNodes()
	}
	return tree.nNodes
}

// Nodes returns nodes indexed by node id.
func (tree *Tree) Nodes() []*Node {
	if tree.nodes == nil {
		tree.nodes = make([]*Node, tree.NNodes())
		for node := range tree.Walker(nil) {
			tree.nodes[node.Id] = node
		}
	}
	return tree.nodes
}

// Terminals returns a channel with all the leaves.
func (tree *Tree) Terminals() <-chan *Node {
	return tree.Walker(func(n *Node) bool {
		return n.IsTerminal()
	})
}

// Leaves returns leaves ordered by leaf id.
func (tree *Tree) Leaves() []*Node {
	leaves := make([]*Node, 0, tree.NNodes())
	for node := range tree.Terminals() {
		leaves = append(leaves, node)
	}
	for _, node := range leaves {
		if node.LeafId < 0 || node.LeafId >= len(leaves) {
			return leaves
		}
	}
	res := make([]*Node, len(leaves))
	for _, node := range leaves {
		res[node.LeafId] = node
	}
	return res
}

// NLeaves returns the number of leaves.
func (tree *Tree) NLeaves() (i int) {
	for range tree.Terminals() {
		i++
	}
	return
}

// Walker returns a channel with all the nodes (pre-order) for which
// filter returns true (all if filter is nil).
func (tree *Tree) Walker(filter func(*Node) bool) <-chan *Node {
	ch := make(chan *Node, tree.NNodes())
	tree.Walk(ch, filter)
	close(ch)
	return ch
}

// Edges returns all the edges in pre-order, i.e. every edge comes
// after the edge leading to its parent.
func (tree *Tree) Edges() []Edge {
	if tree.edges == nil {
		tree.edges = make([]Edge, 0, tree.NNodes()-1)
		for node := range tree.Walker(nil) {
			if node.Parent != nil {
				tree.edges = append(tree.edges, Edge{
					Parent: node.Parent,
					Child:  node,
					Length: node.BranchLength,
				})
			}
		}
	}
	return tree.edges
}

// Node is a tree node.
type Node struct {
	Name         string
	BranchLength float64
	Parent       *Node
	childNodes   []*Node
	Id           int
	LeafId       int
}

// NewNode creates a node without children.
func NewNode(parent *Node, nodeId int) (node *Node) {
	node = &Node{Parent: parent, Id: nodeId, LeafId: -1}
	return
}

// AddChild adds a child node.
func (node *Node) AddChild(subNode *Node) {
	subNode.Parent = node
	node.childNodes = append(node.childNodes, subNode)
}

// String returns the subtree in Newick format.
func (node *Node) String() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s:%0.6f", node.Name, node.BranchLength)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.String()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	s += ")" + node.Name
	if node.IsRoot() {
		return s + ";"
	}
	return s + fmt.Sprintf(":%0.6f", node.BranchLength)
}

// LongString returns a human readable node description.
func (node *Node) LongString() (s string) {
	s = "<"
	if node.Parent == nil {
		s += "root, "
	}
	if node.Name != "" {
		s += "name=" + node.Name + ", "
	}
	s += fmt.Sprintf("Id=%v, BranchLength=%v", node.Id, node.BranchLength)
	if node.IsTerminal() {
		s += fmt.Sprintf(", LeafId=%v", node.LeafId)
	}
	s += ">"
	return
}

// FullString returns an indented description of the subtree.
func (node *Node) FullString() string {
	return strings.TrimSpace(node.prefixString(""))
}

func (node *Node) prefixString(prefix string) (s string) {
	s = prefix + node.LongString() + "\n"
	for _, node := range node.childNodes {
		s += node.prefixString(prefix + "    ")
	}
	return
}

// ChildNodes returns the children.
func (node *Node) ChildNodes() []*Node {
	return node.childNodes
}

// Walk sends the subtree nodes to ch in pre-order.
func (node *Node) Walk(ch chan *Node, filter func(*Node) bool) {
	if filter == nil || filter(node) {
		ch <- node
	}
	for _, node := range node.childNodes {
		node.Walk(ch, filter)
	}
}

// NSubNodes returns the number of nodes in the subtree.
func (node *Node) NSubNodes() (size int) {
	for _, node := range node.childNodes {
		size += node.NSubNodes()
	}
	return size + 1
}

func (node *Node) IsRoot() bool {
	return node.Parent == nil
}

func (node *Node) IsTerminal() bool {
	return len(node.childNodes) == 0
}

// IsSpecial returns true for the Newick control characters.
func IsSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', ';', ',':
		return true
	}
	return false
}

// NewickSplit is a bufio.SplitFunc for Newick tokens.
func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if IsSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Scan until space or special character.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || IsSpecial(r) {
			return i, data[start:i], nil
		}
	}
	// If we're at EOF, we have a final, non-empty, non-terminated word. Return it.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return 0, nil, nil
}

// ParseNewick parses a rooted tree in Newick format. Node ids are
// assigned in pre-order, leaf ids in the order of appearance.
func ParseNewick(rd io.Reader) (tree *Tree, err error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(NewickSplit)

	nodeId := 0
	node := NewNode(nil, nodeId)
	tree = &Tree{Node: node}
	nodeId++

	m := normal
	closed := false

	for scanner.Scan() {
		text := scanner.Text()
		switch text {
		case "(":
			subNode := NewNode(nil, nodeId)
			nodeId++
			node.AddChild(subNode)
			node = subNode
		case ",":
			if node.Parent == nil {
				return nil, fmt.Errorf("%w: top level comma mismatch", ErrNewick)
			}
			subNode := NewNode(nil, nodeId)
			nodeId++
			node.Parent.AddChild(subNode)
			node = subNode
		case ")":
			if node.Parent == nil {
				return nil, fmt.Errorf("%w: brackets mismatch", ErrNewick)
			}
			node = node.Parent
		case ":":
			m = length
		case ";":
			closed = true
		default:
			switch m {
			case length:
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrNewick, err)
				}
				node.BranchLength = l
				m = normal
			default:
				node.Name = text
			}
		}
		if closed {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if node != tree.Node {
		return nil, fmt.Errorf("%w: unclosed bracket", ErrNewick)
	}

	tree.renumber()
	return tree, nil
}

// renumber assigns node ids in pre-order and leaf ids in the leaf
// order.
func (tree *Tree) renumber() {
	tree.ClearCache()
	id, leafId := 0, 0
	for node := range tree.Walker(nil) {
		node.Id = id
		id++
		node.LeafId = -1
		if node.IsTerminal() {
			node.LeafId = leafId
			leafId++
		}
	}
}
