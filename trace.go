package scopedtrace

import (
	"io"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"

	"github.com/getsentry/scopedtrace/internal/calltree"
	"github.com/getsentry/scopedtrace/internal/collector"
	"github.com/getsentry/scopedtrace/internal/frame"
	"github.com/getsentry/scopedtrace/internal/nodetree"
	"github.com/getsentry/scopedtrace/internal/render"
	"github.com/getsentry/scopedtrace/internal/sentryutil"
	"github.com/getsentry/scopedtrace/internal/speedscope"
	"github.com/getsentry/scopedtrace/internal/unwind"
)

const exporter = "scopedtrace"

type (
	// Trace is the merged call tree of one root invocation. Its structure
	// never changes once Root returned.
	Trace struct {
		id        string
		tree      *calltree.Tree
		unwinder  unwind.Unwinder
		captures  int
		collector *collector.Collector

		once         sync.Once
		symbols      []frame.Frame
		fingerprints []uint64
	}

	// Node is one frame of a Trace.
	Node struct {
		t *Trace
		i int
	}

	traceJSON struct {
		ID       string           `json:"id"`
		Captures int              `json:"captures"`
		Roots    []*nodetree.Node `json:"roots"`
	}
)

func newTrace(h Handle, tree *calltree.Tree, captures int) *Trace {
	return &Trace{
		id:        h.id,
		tree:      tree,
		unwinder:  h.unwinder,
		captures:  captures,
		collector: h.collector,
	}
}

// resolve fills the symbol cache on first use. Every descriptor is resolved
// at most once.
func (t *Trace) resolve() {
	t.once.Do(func() {
		t.symbols = make([]frame.Frame, t.tree.Len())
		cache := make(map[frame.Descriptor]frame.Frame)
		for i, n := range t.tree.Nodes {
			if n.Frame.IsEntry() {
				continue
			}
			f, ok := cache[n.Frame]
			if !ok {
				f = t.unwinder.Resolve(n.Frame)
				if f.InstructionAddr == "" {
					f.InstructionAddr = n.Frame.Addr()
				}
				cache[n.Frame] = f
			}
			t.symbols[i] = f
		}
		t.fingerprints = nodetree.Fingerprints(t.tree, t.symbol)
	})
}

func (t *Trace) symbol(i int) frame.Frame {
	return t.symbols[i]
}

func (t *Trace) frame(i int) frame.Frame {
	t.resolve()
	return t.symbols[i]
}

func (t *Trace) label(i int) string {
	if t.tree.Nodes[i].Frame.IsEntry() {
		return frame.EntryLabel
	}
	return t.frame(i).Label()
}

// ID returns the identifier shared by the trace and its root's Handle.
func (t *Trace) ID() string {
	return t.id
}

// Roots returns the top-level nodes in first-seen order.
func (t *Trace) Roots() []Node {
	return t.nodes(t.tree.Roots)
}

// Len returns the number of nodes.
func (t *Trace) Len() int {
	return t.tree.Len()
}

// Empty reports whether no leaf was captured.
func (t *Trace) Empty() bool {
	return t.tree.Empty()
}

// Leaves returns the nodes marked as a capture point, in pre-order.
func (t *Trace) Leaves() []Node {
	return t.nodes(t.tree.Leaves())
}

// Captures returns how many leaves were merged into the trace.
func (t *Trace) Captures() int {
	return t.captures
}

// Dropped returns how many leaves reached the root after it returned.
func (t *Trace) Dropped() uint64 {
	return t.collector.Dropped()
}

// Paths returns, for every leaf node, the frames from its root down to it.
// The synthetic entry node is named after frame.EntryLabel.
func (t *Trace) Paths() [][]Frame {
	t.resolve()
	leaves := t.tree.Leaves()
	paths := make([][]Frame, 0, len(leaves))
	for _, leaf := range leaves {
		p := make([]Frame, t.tree.Nodes[leaf].Depth+1)
		for i := leaf; i != calltree.NoParent; i = t.tree.Nodes[i].Parent {
			f := t.symbols[i]
			if t.tree.Nodes[i].Frame.IsEntry() {
				f.Function = frame.EntryLabel
			}
			p[t.tree.Nodes[i].Depth] = f
		}
		paths = append(paths, p)
	}
	return paths
}

// String renders the trace as a box-drawn tree, one frame per line.
func (t *Trace) String() string {
	var b strings.Builder
	_ = render.Text(&b, t.tree, t.label)
	return b.String()
}

func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.String())
	return int64(n), err
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	t.resolve()
	return json.Marshal(traceJSON{
		ID:       t.id,
		Captures: t.captures,
		Roots:    nodetree.FromTree(t.tree, t.symbol),
	})
}

// MarshalSpeedscope encodes the trace as a speedscope document with one
// sample per leaf.
func (t *Trace) MarshalSpeedscope() ([]byte, error) {
	t.resolve()
	return json.Marshal(speedscope.FromTree(t.id, exporter, t.tree, t.symbol))
}

// SentryEvent builds an event holding one stack trace per leaf.
func (t *Trace) SentryEvent() *sentry.Event {
	return sentryutil.EventFromPaths(t.id, t.Paths())
}

func (t *Trace) nodes(indexes []int) []Node {
	nodes := make([]Node, 0, len(indexes))
	for _, i := range indexes {
		nodes = append(nodes, Node{t: t, i: i})
	}
	return nodes
}

// Frame returns the node's resolved symbol information. The synthetic entry
// node has a zero Frame.
func (n Node) Frame() Frame {
	return n.t.frame(n.i)
}

func (n Node) Descriptor() Descriptor {
	return n.t.tree.Nodes[n.i].Frame
}

// Label returns the node's line in the rendered trace.
func (n Node) Label() string {
	return n.t.label(n.i)
}

func (n Node) Children() []Node {
	return n.t.nodes(n.t.tree.Nodes[n.i].Children)
}

// Parent returns the caller node. Roots have none.
func (n Node) Parent() (Node, bool) {
	p := n.t.tree.Nodes[n.i].Parent
	if p == calltree.NoParent {
		return Node{}, false
	}
	return Node{t: n.t, i: p}, true
}

// IsLeaf reports whether a capture ended at this node.
func (n Node) IsLeaf() bool {
	return n.t.tree.Nodes[n.i].IsLeaf
}

// Depth is 0 for roots.
func (n Node) Depth() int {
	return n.t.tree.Nodes[n.i].Depth
}

// Fingerprint hashes the functions on the path from the root to the node.
func (n Node) Fingerprint() uint64 {
	n.t.resolve()
	return n.t.fingerprints[n.i]
}
