package errorutil

import "errors"

// ErrCollectorDrained is returned when the captures of a root invocation are
// requested more than once.
var ErrCollectorDrained = errors.New("collector already drained")

// ErrUnknownFormat is returned when a trace is requested in an output format
// that is not supported.
var ErrUnknownFormat = errors.New("unknown output format")
