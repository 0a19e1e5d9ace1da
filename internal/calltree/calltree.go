package calltree

import "github.com/getsentry/scopedtrace/internal/frame"

// NoParent is the parent index of root level nodes.
const NoParent = -1

type (
	// Node is one merged position in the tree. Nodes live in the Tree's arena
	// and refer to each other by index.
	Node struct {
		Frame    frame.Descriptor
		Parent   int
		Depth    int
		Children []int
		IsLeaf   bool
	}

	// Tree is a forest of nodes merged from raw captures. It is read-only once
	// built.
	Tree struct {
		Nodes []Node
		Roots []int
	}

	// edge identifies a child by its parent and its frame.
	edge struct {
		parent int
		frame  frame.Descriptor
	}
)

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

func (t *Tree) Empty() bool {
	return len(t.Roots) == 0
}

func (t *Tree) Node(i int) Node {
	return t.Nodes[i]
}

// Leaves returns the indices of every node marked as a leaf, in pre-order.
func (t *Tree) Leaves() []int {
	var leaves []int
	t.Walk(func(i int) {
		if t.Nodes[i].IsLeaf {
			leaves = append(leaves, i)
		}
	})
	return leaves
}

// Path returns the frames from the root of node i down to node i.
func (t *Tree) Path(i int) []frame.Descriptor {
	path := make([]frame.Descriptor, t.Nodes[i].Depth+1)
	for ; i != NoParent; i = t.Nodes[i].Parent {
		path[t.Nodes[i].Depth] = t.Nodes[i].Frame
	}
	return path
}

// Walk visits every node in pre-order, roots and children in insertion order.
func (t *Tree) Walk(fn func(i int)) {
	stack := make([]int, 0, len(t.Roots))
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, t.Roots[i])
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(i)
		children := t.Nodes[i].Children
		for c := len(children) - 1; c >= 0; c-- {
			stack = append(stack, children[c])
		}
	}
}
