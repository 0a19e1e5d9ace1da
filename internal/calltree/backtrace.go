package calltree

import "github.com/getsentry/scopedtrace/internal/frame"

// Build merges raw captures into a tree. Each capture is ordered innermost
// frame first. Captures sharing their outermost frames share the same chain of
// nodes; the innermost node of every capture is marked as a leaf. The order of
// captures only affects the order of siblings, which is first-seen order.
func Build(captures [][]frame.Descriptor) *Tree {
	b := newBuilder()
	for _, c := range captures {
		b.insert(c)
	}
	return &b.tree
}

type builder struct {
	tree  Tree
	index map[edge]int
}

func newBuilder() *builder {
	return &builder{
		index: make(map[edge]int),
	}
}

func (b *builder) insert(capture []frame.Descriptor) {
	if len(capture) == 0 {
		b.tree.Nodes[b.child(NoParent, frame.Entry)].IsLeaf = true
		return
	}
	current := NoParent
	// Walk from the outermost frame, where shared ancestry is found.
	for i := len(capture) - 1; i >= 0; i-- {
		current = b.child(current, capture[i])
	}
	b.tree.Nodes[current].IsLeaf = true
}

// child finds or creates the node for f under parent.
func (b *builder) child(parent int, f frame.Descriptor) int {
	e := edge{parent: parent, frame: f}
	if i, ok := b.index[e]; ok {
		return i
	}
	depth := 0
	if parent != NoParent {
		depth = b.tree.Nodes[parent].Depth + 1
	}
	i := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Frame:  f,
		Parent: parent,
		Depth:  depth,
	})
	if parent == NoParent {
		b.tree.Roots = append(b.tree.Roots, i)
	} else {
		b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, i)
	}
	b.index[e] = i
	return i
}
