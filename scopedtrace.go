package scopedtrace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/getsentry/scopedtrace/internal/calltree"
	"github.com/getsentry/scopedtrace/internal/collector"
	"github.com/getsentry/scopedtrace/internal/frame"
	"github.com/getsentry/scopedtrace/internal/unwind"
)

type (
	// Frame is the resolved symbol information of one captured frame.
	Frame = frame.Frame

	// Descriptor identifies a captured frame before resolution.
	Descriptor = frame.Descriptor

	// Unwinder walks and resolves stacks on behalf of Leaf.
	Unwinder = unwind.Unwinder
)

var defaultUnwinder = newRuntimeUnwinder(unwind.DefaultMaxFrames)

// newRuntimeUnwinder returns a runtime unwinder that stops at the frames Root
// and Run push right below the wrapped function.
func newRuntimeUnwinder(maxFrames int) *unwind.Runtime {
	return unwind.NewRuntime(
		maxFrames,
		unwind.FuncName(boundary[struct{}]),
		unwind.FuncName(runBoundary),
	)
}

// boundary is the frame every capture taken under Root stops at.
//
//go:noinline
func boundary[R any](ctx context.Context, f func(context.Context) R) R {
	return f(ctx)
}

// runBoundary is the frame every capture taken under Run stops at.
//
//go:noinline
func runBoundary(ctx context.Context, f func(context.Context)) {
	f(ctx)
}

// Root calls f and returns its result together with the tree of every stack
// captured by Leaf while f ran. Captures stop right above Root, so the first
// frame of each path is f itself.
//
// If f panics the trace gathered so far is attached to a *PanicError and the
// panic is resumed with it.
func Root[R any](ctx context.Context, f func(context.Context) R, opts ...Option) (result R, trace *Trace) {
	s := begin(ctx, opts)
	defer func() {
		trace = s.end(recover())
	}()
	result = boundary(s.ctx, f)
	return result, nil
}

// Run is Root for functions without a result.
func Run(ctx context.Context, f func(context.Context), opts ...Option) (trace *Trace) {
	s := begin(ctx, opts)
	defer func() {
		trace = s.end(recover())
	}()
	runBoundary(s.ctx, f)
	return nil
}

// Leaf captures the calling goroutine's stack into the innermost root active
// on ctx. Without an active root it does nothing.
func Leaf(ctx context.Context) {
	h, ok := FromContext(ctx)
	if !ok {
		return
	}
	if h.collector.Sealed() {
		h.collector.Submit(nil)
		return
	}
	h.collector.Submit(h.unwinder.Walk(1))
}

// PanicError carries the value a root's function panicked with and the
// trace captured up to that point.
type PanicError struct {
	Value interface{}
	Trace *Trace
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in scoped trace %s: %v", e.Trace.ID(), e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

type session struct {
	ctx    context.Context
	cfg    config
	handle Handle
}

func begin(ctx context.Context, opts []Option) *session {
	cfg := makeDefaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	h := Handle{
		id:        strings.ReplaceAll(uuid.New().String(), "-", ""),
		collector: collector.New(),
		unwinder:  cfg.unwinder,
	}
	return &session{
		ctx:    WithHandle(ctx, h),
		cfg:    cfg,
		handle: h,
	}
}

// end seals the collector and builds the trace. A non-nil panic value is
// re-raised as a *PanicError once the trace exists.
func (s *session) end(panicValue interface{}) *Trace {
	captures, err := s.handle.collector.Drain()
	if err != nil {
		s.cfg.logger.Error().Err(err).Str("trace_id", s.handle.id).Msg("can't drain collector")
	}
	t := newTrace(s.handle, calltree.Build(captures), len(captures))
	s.cfg.logger.Debug().
		Str("trace_id", t.ID()).
		Int("captures", t.Captures()).
		Int("nodes", t.Len()).
		Msg("scoped trace built")

	if panicValue != nil {
		s.cfg.logger.Warn().
			Str("trace_id", t.ID()).
			Interface("panic", panicValue).
			Msg("root function panicked")
		panic(&PanicError{Value: panicValue, Trace: t})
	}
	return t
}
