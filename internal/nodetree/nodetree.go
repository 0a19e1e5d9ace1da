package nodetree

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/getsentry/scopedtrace/internal/calltree"
	"github.com/getsentry/scopedtrace/internal/frame"
)

type (
	// Node is the nested, serializable form of a call tree node.
	Node struct {
		Fingerprint     uint64  `json:"fingerprint"`
		Inline          bool    `json:"inline,omitempty"`
		InstructionAddr string  `json:"instruction_addr,omitempty"`
		IsApplication   bool    `json:"is_application"`
		IsLeaf          bool    `json:"is_leaf"`
		Line            uint32  `json:"line,omitempty"`
		Name            string  `json:"name"`
		Package         string  `json:"package"`
		Path            string  `json:"path,omitempty"`
		Children        []*Node `json:"children,omitempty"`
	}

	// Resolver returns the symbol information of the node at index i.
	Resolver func(i int) frame.Frame
)

func NodeFromFrame(f frame.Frame, fingerprint uint64, isLeaf bool) *Node {
	return &Node{
		Fingerprint:     fingerprint,
		Inline:          f.Inline,
		InstructionAddr: f.InstructionAddr,
		IsApplication:   f.InApp,
		IsLeaf:          isLeaf,
		Line:            f.Line,
		Name:            f.Function,
		Package:         f.PackageBaseName(),
		Path:            f.Path,
	}
}

// Fingerprints computes, for every node of the tree, a hash of the frames on
// the path from its root down to it. Nodes reached through the same sequence
// of functions share a fingerprint even when their call sites differ.
func Fingerprints(t *calltree.Tree, resolve Resolver) []uint64 {
	fingerprints := make([]uint64, t.Len())
	buffer := make([]byte, 8)
	h := fnv.New64()
	// Pre-order guarantees parents are hashed before their children.
	t.Walk(func(i int) {
		h.Reset()
		if p := t.Nodes[i].Parent; p != calltree.NoParent {
			binary.LittleEndian.PutUint64(buffer, fingerprints[p])
			h.Write(buffer)
		}
		resolve(i).WriteToHash(h)
		fingerprints[i] = h.Sum64()
	})
	return fingerprints
}

// FromTree converts the arena into nested nodes, one slice entry per root.
func FromTree(t *calltree.Tree, resolve Resolver) []*Node {
	fingerprints := Fingerprints(t, resolve)
	nodes := make([]*Node, t.Len())
	roots := make([]*Node, 0, len(t.Roots))
	t.Walk(func(i int) {
		tn := t.Nodes[i]
		n := NodeFromFrame(resolve(i), fingerprints[i], tn.IsLeaf)
		if tn.Frame.IsEntry() {
			n.Name = frame.EntryLabel
			n.InstructionAddr = ""
		}
		nodes[i] = n
		if tn.Parent == calltree.NoParent {
			roots = append(roots, n)
		} else {
			nodes[tn.Parent].Children = append(nodes[tn.Parent].Children, n)
		}
	})
	return roots
}
