package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/getsentry/scopedtrace"
)

var errInvalidWorkload = errors.New("workers and items must be positive")

// Workload is a small fan-out job whose workers mark every item they handle
// as a leaf.
type Workload struct {
	Workers int `json:"workers"`
	Items   int `json:"items"`
}

func (w Workload) validate() error {
	if w.Workers < 1 || w.Items < 1 {
		return errInvalidWorkload
	}
	return nil
}

func (w Workload) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.Workers; i++ {
		first := i
		g.Go(func() error {
			return w.work(ctx, first)
		})
	}
	return g.Wait()
}

// work handles every Workers-th item starting at first.
func (w Workload) work(ctx context.Context, first int) error {
	for item := first; item < w.Items; item += w.Workers {
		if err := ctx.Err(); err != nil {
			return err
		}
		process(ctx, item)
	}
	return nil
}

func process(ctx context.Context, item int) {
	if item%2 == 0 {
		decode(ctx)
		return
	}
	encode(ctx)
}

func decode(ctx context.Context) {
	scopedtrace.Leaf(ctx)
}

func encode(ctx context.Context) {
	scopedtrace.Leaf(ctx)
	flush(ctx)
}

func flush(ctx context.Context) {
	scopedtrace.Leaf(ctx)
}

// collect runs w under a root and returns its trace.
func collect(ctx context.Context, w Workload, maxFrames int, logger zerolog.Logger) (*scopedtrace.Trace, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	err, trace := scopedtrace.Root(
		ctx,
		w.Run,
		scopedtrace.WithMaxFrames(maxFrames),
		scopedtrace.WithLogger(logger),
	)
	return trace, err
}
