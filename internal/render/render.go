// Package render draws call trees as indented text with box drawing
// connectors:
//
//	╼ main.main.func1 at main.go:4
//	  ├╼ main.foo at main.go:9
//	  │  └╼ main.bar at main.go:14
//	  └╼ main.foo at main.go:10
//	     └╼ main.baz at main.go:18
package render

import (
	"bufio"
	"io"

	"github.com/getsentry/scopedtrace/internal/calltree"
)

const (
	rootGlyph   = "╼ "
	branchGlyph = "├╼ "
	lastGlyph   = "└╼ "
	pipeIndent  = "│  "
	blankIndent = "   "
	rootIndent  = "  "
)

// Labeler returns the text shown for the node at index i.
type Labeler func(i int) string

// Text writes one line per node of t. Lines are separated by a newline; the
// last line is not terminated.
func Text(w io.Writer, t *calltree.Tree, label Labeler) error {
	bw := bufio.NewWriter(w)
	r := renderer{w: bw, tree: t, label: label}
	for _, root := range t.Roots {
		r.line("", rootGlyph, root)
		r.children(rootIndent, root)
	}
	if r.err != nil {
		return r.err
	}
	return bw.Flush()
}

type renderer struct {
	w     *bufio.Writer
	tree  *calltree.Tree
	label Labeler
	lines int
	err   error
}

func (r *renderer) children(prefix string, i int) {
	children := r.tree.Nodes[i].Children
	for n, c := range children {
		if n == len(children)-1 {
			r.line(prefix, lastGlyph, c)
			r.children(prefix+blankIndent, c)
		} else {
			r.line(prefix, branchGlyph, c)
			r.children(prefix+pipeIndent, c)
		}
	}
}

func (r *renderer) line(prefix, glyph string, i int) {
	if r.err != nil {
		return
	}
	if r.lines > 0 {
		r.write("\n")
	}
	r.write(prefix)
	r.write(glyph)
	r.write(r.label(i))
	r.lines++
}

func (r *renderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = r.w.WriteString(s)
}
