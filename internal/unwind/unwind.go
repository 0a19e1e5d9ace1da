// Package unwind walks the calling goroutine's stack and resolves the frames
// it finds into symbols.
package unwind

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/getsentry/scopedtrace/internal/frame"
)

const (
	// DefaultMaxFrames bounds a single walk. Deeper stacks yield a partial
	// capture holding the innermost frames.
	DefaultMaxFrames = 1024

	initialFrames = 32

	goexitFunction = "runtime.goexit"
)

// Unwinder is the stack walking capability captures are built on.
type Unwinder interface {
	// Walk returns the frames of the calling goroutine, innermost first,
	// starting skip frames above the caller of Walk and stopping before the
	// closest boundary frame. It never fails; a walk that finds nothing
	// returns an empty slice.
	Walk(skip int) []frame.Descriptor

	// Resolve maps a descriptor to symbol information. Unresolvable frames
	// come back with an empty function name.
	Resolve(d frame.Descriptor) frame.Frame
}

// Runtime is the Unwinder backed by runtime.Callers.
type Runtime struct {
	boundaries map[string]struct{}
	maxFrames  int
}

// NewRuntime returns an Unwinder that stops walking at any function whose
// name is listed in boundaries. A maxFrames lower than 1 selects
// DefaultMaxFrames.
func NewRuntime(maxFrames int, boundaries ...string) *Runtime {
	if maxFrames < 1 {
		maxFrames = DefaultMaxFrames
	}
	r := &Runtime{
		boundaries: make(map[string]struct{}, len(boundaries)),
		maxFrames:  maxFrames,
	}
	for _, b := range boundaries {
		r.boundaries[NormalizeFuncName(b)] = struct{}{}
	}
	return r
}

func (r *Runtime) Walk(skip int) []frame.Descriptor {
	pcs := callers(skip+2, r.maxFrames)
	if len(pcs) == 0 {
		return []frame.Descriptor{}
	}

	frames := make([]frame.Descriptor, 0, len(pcs))
	entries := make([]uintptr, 0, len(pcs))
	physical := make([]bool, 0, len(pcs))
	for _, pc := range pcs {
		fn := runtime.FuncForPC(pc - 1)
		if fn == nil {
			frames = append(frames, frame.Descriptor{PC: pc})
			entries = append(entries, 0)
			physical = append(physical, true)
			continue
		}
		name := fn.Name()
		if name == goexitFunction {
			break
		}
		if _, ok := r.boundaries[NormalizeFuncName(name)]; ok {
			break
		}
		entry := fn.Entry()
		frames = append(frames, frame.Descriptor{PC: pc})
		entries = append(entries, entry)
		// FuncForPC reports the innermost function at an inlined PC but the
		// entry of the function it was inlined into.
		outer := runtime.FuncForPC(entry)
		physical = append(physical, outer == nil || outer.Name() == name)
	}

	// Number inlined frames outward from the physical frame they live in.
	var depth uint16
	for i := len(frames) - 1; i >= 0; i-- {
		switch {
		case physical[i]:
			depth = 0
		case i+1 < len(frames) && entries[i] == entries[i+1]:
			depth++
		default:
			depth = 1
		}
		frames[i].Inline = depth
	}
	return frames
}

func (r *Runtime) Resolve(d frame.Descriptor) frame.Frame {
	if d.PC == 0 {
		return frame.Frame{InstructionAddr: d.Addr()}
	}
	rf, _ := runtime.CallersFrames([]uintptr{d.PC}).Next()
	if rf.Function == "" {
		return frame.Frame{InstructionAddr: d.Addr(), Inline: d.IsInline()}
	}
	return frame.FromFunction(d, rf.Function, rf.File, rf.Line)
}

// callers collects up to limit return PCs, growing the buffer as needed.
func callers(skip, limit int) []uintptr {
	size := initialFrames
	if size > limit {
		size = limit
	}
	for {
		pcs := make([]uintptr, size)
		n := runtime.Callers(skip+1, pcs)
		if n < len(pcs) || size == limit {
			return pcs[:n]
		}
		size *= 2
		if size > limit {
			size = limit
		}
	}
}

// FuncName returns the normalized runtime name of a function value.
func FuncName(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return NormalizeFuncName(f.Name())
}

// NormalizeFuncName strips the type arguments of generic instantiations so
// every instantiation of a function shares one name.
func NormalizeFuncName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		if j := strings.LastIndexByte(name, ']'); j > i {
			return name[:i] + name[j+1:]
		}
	}
	return name
}
