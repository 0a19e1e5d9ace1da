package scopedtrace

import (
	"context"

	"github.com/getsentry/scopedtrace/internal/collector"
	"github.com/getsentry/scopedtrace/internal/unwind"
)

// ctxKey is the key type for storing a Handle in a context.
type ctxKey struct{}

// Handle names the collector of one active root. It is the explicit
// capability a goroutine needs to contribute leaves to that root.
type Handle struct {
	id        string
	collector *collector.Collector
	unwinder  unwind.Unwinder
}

// ID returns the identifier of the trace the handle collects for.
func (h Handle) ID() string {
	return h.id
}

// Active reports whether the root behind the handle is still running.
func (h Handle) Active() bool {
	return h.collector != nil && !h.collector.Sealed()
}

// FromContext returns the handle of the innermost root visible from ctx.
func FromContext(ctx context.Context) (Handle, bool) {
	if ctx == nil {
		return Handle{}, false
	}
	h, ok := ctx.Value(ctxKey{}).(Handle)
	if !ok || h.collector == nil {
		return Handle{}, false
	}
	return h, true
}

// WithHandle returns a context on which leaves are captured into h's root.
// Installing the zero Handle hides any enclosing root from the returned
// context.
func WithHandle(ctx context.Context, h Handle) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, h)
}
