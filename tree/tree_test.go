package tree

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

const (
	tree1 = "((rat:2,mouse:2):1,(horse:3,(cow:2,pig:2):1):3);"
	tree2 = "((a:1,b:2)ab:3,c:1)root:0;"
)

func TestParseNewick(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree1))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	if t.NNodes() != 9 || t.NLeaves() != 5 {
		tst.Error("Wrong number of nodes/leaves:", t.NNodes(), t.NLeaves())
	}
	names := []string{"rat", "mouse", "horse", "cow", "pig"}
	for i, leaf := range t.Leaves() {
		if leaf.Name != names[i] || leaf.LeafId != i {
			tst.Errorf("Leaf %d is %s", i, leaf.LongString())
		}
	}
	for i, node := range t.Nodes() {
		if node.Id != i {
			tst.Error("Node id mismatch", node.LongString())
		}
	}
	if err := t.Validate(); err != nil {
		tst.Error("Valid tree rejected:", err)
	}
	tst.Log(t.FullString())
}

func TestNewickString(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree2))
	if err != nil {
		tst.Fatal(err)
	}
	exp := "((a:1.000000,b:2.000000)ab:3.000000,c:1.000000)root;"
	if t.String() != exp {
		tst.Errorf("Wrong tree string. Expected:\n%v\ngot\n%v", exp, t)
	}
}

func TestParseNewickErrors(tst *testing.T) {
	for _, s := range []string{"(a,b));", "((a,b);", "a,b;", "(a:x,b);"} {
		if _, err := ParseNewick(bytes.NewBufferString(s)); !errors.Is(err, ErrNewick) {
			tst.Errorf("Expected ErrNewick for %q, got %v", s, err)
		}
	}
}

func TestEdgesOrder(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree1))
	if err != nil {
		tst.Fatal(err)
	}
	edges := t.Edges()
	if len(edges) != t.NNodes()-1 {
		tst.Fatal("Wrong number of edges", len(edges))
	}
	seen := map[*Node]bool{t.Node: true}
	for _, e := range edges {
		if !seen[e.Parent] {
			tst.Error("Edge visited before its parent:", e.Child.LongString())
		}
		if e.Length != e.Child.BranchLength {
			tst.Error("Wrong edge length", e.Length)
		}
		seen[e.Child] = true
	}
}

func TestFromEdges(tst *testing.T) {
	t, err := FromEdges([]EdgeSpec{
		{"root", "x", 1},
		{"x", "rat", 2},
		{"x", "mouse", 2},
		{"root", "horse", 3},
	})
	if err != nil {
		tst.Fatal(err)
	}
	if t.Name != "root" || t.NLeaves() != 3 || len(t.Edges()) != 4 {
		tst.Error("Wrong tree:", t.FullString())
	}
	if err := t.Validate(); err != nil {
		tst.Error(err)
	}
}

func TestFromEdgesErrors(tst *testing.T) {
	cases := []struct {
		edges []EdgeSpec
		err   error
	}{
		{nil, ErrEmpty},
		{[]EdgeSpec{{"r", "a", 1}, {"s", "b", 1}}, ErrMultipleRoots},
		{[]EdgeSpec{{"r", "a", 1}, {"r", "b", 1}, {"b", "a", 1}}, ErrMultipleParents},
		{[]EdgeSpec{{"a", "b", 1}, {"b", "a", 1}}, ErrCycle},
		{[]EdgeSpec{{"r", "a", 1}, {"x", "y", 1}, {"y", "x", 1}}, ErrDisconnected},
		{[]EdgeSpec{{"a", "a", 1}}, ErrCycle},
	}
	for i, c := range cases {
		if _, err := FromEdges(c.edges); !errors.Is(err, c.err) {
			tst.Errorf("Case %d: expected %v, got %v", i, c.err, err)
		}
	}
}

func TestValidate(tst *testing.T) {
	t, _ := ParseNewick(bytes.NewBufferString("(a:1,b:-1);"))
	if err := t.Validate(); !errors.Is(err, ErrBranchLength) {
		tst.Error("Expected ErrBranchLength, got", err)
	}
	t, _ = ParseNewick(bytes.NewBufferString("(a:1,a:1);"))
	if err := t.Validate(); !errors.Is(err, ErrLeafName) {
		tst.Error("Expected ErrLeafName, got", err)
	}
	t, _ = ParseNewick(bytes.NewBufferString("(a:1,:1);"))
	if err := t.Validate(); !errors.Is(err, ErrLeafName) {
		tst.Error("Expected ErrLeafName for unnamed leaf, got", err)
	}

	t, _ = ParseNewick(bytes.NewBufferString(tree1))
	t.Nodes()[3].BranchLength = math.NaN()
	if err := t.Validate(); !errors.Is(err, ErrBranchLength) {
		tst.Error("Expected ErrBranchLength for NaN, got", err)
	}

	// child pointing back to the root
	t, _ = ParseNewick(bytes.NewBufferString("(a:1,b:1);"))
	leaf := t.ChildNodes()[0]
	leaf.childNodes = append(leaf.childNodes, t.Node)
	if err := t.Validate(); err == nil {
		tst.Error("Cyclic tree accepted")
	}
}
