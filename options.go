package scopedtrace

import (
	"github.com/rs/zerolog"

	"github.com/getsentry/scopedtrace/internal/unwind"
)

// Option configures a single root invocation.
type Option interface {
	apply(*config)
}

type config struct {
	unwinder unwind.Unwinder
	logger   zerolog.Logger
}

func makeDefaultConfig() config {
	return config{
		unwinder: defaultUnwinder,
		logger:   zerolog.Nop(),
	}
}

type optionFunc func(cfg *config)

func (f optionFunc) apply(cfg *config) {
	f(cfg)
}

// WithUnwinder replaces the runtime stack walker, for example to capture
// frames from an interpreter's own stack.
func WithUnwinder(u Unwinder) Option {
	return optionFunc(func(cfg *config) {
		if u != nil {
			cfg.unwinder = u
		}
	})
}

// WithMaxFrames bounds how many frames a single leaf captures. Deeper stacks
// keep their innermost frames. It replaces any unwinder set before it.
func WithMaxFrames(n int) Option {
	return optionFunc(func(cfg *config) {
		cfg.unwinder = newRuntimeUnwinder(n)
	})
}

// WithLogger sets the logger receiving debug events when a root completes and
// warnings when it ends in a panic. Nothing is logged by default.
func WithLogger(l zerolog.Logger) Option {
	return optionFunc(func(cfg *config) {
		cfg.logger = l
	})
}
