package sentryutil

import (
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/getsentry/scopedtrace/internal/frame"
)

const platform = "go"

// EventFromPaths builds an event with one thread per root-to-leaf path. Each
// path is ordered from the root down and becomes the thread's stacktrace,
// which Sentry also expects outermost frame first.
func EventFromPaths(traceID string, paths [][]frame.Frame) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = sentry.LevelInfo
	event.Platform = platform
	event.Message = "scoped trace " + traceID
	event.Tags["trace_id"] = traceID
	event.Extra["leaves"] = len(paths)

	event.Threads = make([]sentry.Thread, 0, len(paths))
	for i, path := range paths {
		frames := make([]sentry.Frame, 0, len(path))
		for _, f := range path {
			frames = append(frames, sentryFrame(f))
		}
		id := strconv.Itoa(i)
		event.Threads = append(event.Threads, sentry.Thread{
			ID:         id,
			Name:       "leaf " + id,
			Stacktrace: &sentry.Stacktrace{Frames: frames},
		})
	}
	return event
}

func sentryFrame(f frame.Frame) sentry.Frame {
	sf := sentry.Frame{
		AbsPath:  f.Path,
		Filename: f.File,
		Function: strings.TrimPrefix(f.Function, f.Package+"."),
		InApp:    f.InApp,
		Lineno:   int(f.Line),
		Module:   f.Package,
	}
	if !f.IsResolved() {
		sf.Function = f.Label()
	}
	return sf
}
