package calltree

import (
	"testing"

	"github.com/getsentry/scopedtrace/internal/frame"
	"github.com/getsentry/scopedtrace/internal/testutil"
)

func d(pc uintptr) frame.Descriptor {
	return frame.Descriptor{PC: pc}
}

func capture(pcs ...uintptr) []frame.Descriptor {
	c := make([]frame.Descriptor, 0, len(pcs))
	for _, pc := range pcs {
		c = append(c, d(pc))
	}
	return c
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		captures [][]frame.Descriptor
		want     *Tree
	}{
		{
			name:     "no captures",
			captures: nil,
			want:     &Tree{},
		},
		{
			name:     "single capture",
			captures: [][]frame.Descriptor{capture(3, 2, 1)},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1}},
					{Frame: d(2), Parent: 0, Depth: 1, Children: []int{2}},
					{Frame: d(3), Parent: 1, Depth: 2, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
		{
			name: "leaf in caller and in callee",
			// closure (1) calls F at two sites (2 and 3); F leaves directly at
			// 4 and through G at 5.
			captures: [][]frame.Descriptor{
				capture(4, 1),
				capture(5, 3, 1),
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1, 2}},
					{Frame: d(4), Parent: 0, Depth: 1, IsLeaf: true},
					{Frame: d(3), Parent: 0, Depth: 1, Children: []int{3}},
					{Frame: d(5), Parent: 2, Depth: 2, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
		{
			name: "identical captures collapse",
			captures: [][]frame.Descriptor{
				capture(2, 1),
				capture(2, 1),
				capture(2, 1),
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1}},
					{Frame: d(2), Parent: 0, Depth: 1, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
		{
			name: "leaf that is also an ancestor",
			captures: [][]frame.Descriptor{
				capture(3, 2, 1),
				capture(2, 1),
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1}},
					{Frame: d(2), Parent: 0, Depth: 1, Children: []int{2}, IsLeaf: true},
					{Frame: d(3), Parent: 1, Depth: 2, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
		{
			name: "multiple roots",
			captures: [][]frame.Descriptor{
				capture(2, 1),
				capture(4, 3),
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1}},
					{Frame: d(2), Parent: 0, Depth: 1, IsLeaf: true},
					{Frame: d(3), Parent: NoParent, Depth: 0, Children: []int{3}},
					{Frame: d(4), Parent: 2, Depth: 1, IsLeaf: true},
				},
				Roots: []int{0, 2},
			},
		},
		{
			name: "empty capture becomes an entry leaf",
			captures: [][]frame.Descriptor{
				{},
				{},
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: frame.Entry, Parent: NoParent, Depth: 0, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
		{
			name: "same address different inline index",
			captures: [][]frame.Descriptor{
				{{PC: 2, Inline: 1}, d(1)},
				{{PC: 2}, d(1)},
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1, 2}},
					{Frame: frame.Descriptor{PC: 2, Inline: 1}, Parent: 0, Depth: 1, IsLeaf: true},
					{Frame: d(2), Parent: 0, Depth: 1, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
		{
			name: "siblings keep first seen order",
			captures: [][]frame.Descriptor{
				capture(9, 1),
				capture(5, 1),
				capture(7, 1),
				capture(5, 1),
			},
			want: &Tree{
				Nodes: []Node{
					{Frame: d(1), Parent: NoParent, Depth: 0, Children: []int{1, 2, 3}},
					{Frame: d(9), Parent: 0, Depth: 1, IsLeaf: true},
					{Frame: d(5), Parent: 0, Depth: 1, IsLeaf: true},
					{Frame: d(7), Parent: 0, Depth: 1, IsLeaf: true},
				},
				Roots: []int{0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := testutil.Diff(Build(tt.captures), tt.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestBuildSharesCommonSuffix(t *testing.T) {
	// Both captures share their 3 outermost frames.
	tree := Build([][]frame.Descriptor{
		capture(10, 11, 3, 2, 1),
		capture(20, 3, 2, 1),
	})
	if tree.Len() != 6 {
		t.Fatalf("expected 6 nodes, got %d", tree.Len())
	}

	leaves := tree.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(leaves))
	}
	ancestors := func(i int) map[int]bool {
		m := make(map[int]bool)
		for p := tree.Node(i).Parent; p != NoParent; p = tree.Node(p).Parent {
			m[p] = true
		}
		return m
	}
	a, b := ancestors(leaves[0]), ancestors(leaves[1])
	shared := 0
	for i := range a {
		if b[i] {
			shared++
		}
	}
	if shared != 3 {
		t.Fatalf("expected 3 shared ancestors, got %d", shared)
	}
	branch := tree.Node(2)
	if branch.Frame != d(3) || len(branch.Children) != 2 {
		t.Fatalf("expected the tree to fork below frame 3, got %+v", branch)
	}
}

func TestTreePathReconstructsCaptures(t *testing.T) {
	captures := [][]frame.Descriptor{
		capture(4, 1),
		capture(5, 3, 1),
		capture(3, 1),
		capture(8, 7, 6),
	}
	tree := Build(captures)

	var got [][]frame.Descriptor
	for _, leaf := range tree.Leaves() {
		got = append(got, tree.Path(leaf))
	}
	want := [][]frame.Descriptor{
		capture(1, 4),
		capture(1, 3),
		capture(1, 3, 5),
		capture(6, 7, 8),
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestTreeWalk(t *testing.T) {
	tree := Build([][]frame.Descriptor{
		capture(3, 2, 1),
		capture(4, 1),
		capture(6, 5),
	})
	var got []uintptr
	tree.Walk(func(i int) {
		got = append(got, tree.Node(i).Frame.PC)
	})
	if diff := testutil.Diff(got, []uintptr{1, 2, 3, 4, 5, 6}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if tree.Empty() {
		t.Fatal("tree should not be empty")
	}
	if !Build(nil).Empty() {
		t.Fatal("tree without captures should be empty")
	}
}
