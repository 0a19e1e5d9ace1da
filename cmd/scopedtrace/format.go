package main

import (
	"fmt"

	"github.com/getsentry/scopedtrace"
	"github.com/getsentry/scopedtrace/internal/errorutil"
)

const (
	formatText       = "text"
	formatJSON       = "json"
	formatSpeedscope = "speedscope"
)

// checkFormat reports ErrUnknownFormat for formats encodeTrace can't produce.
func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatSpeedscope, "":
		return nil
	default:
		return fmt.Errorf("%w: %q", errorutil.ErrUnknownFormat, format)
	}
}

// encodeTrace returns t in the requested format along with its content type.
func encodeTrace(t *scopedtrace.Trace, format string) ([]byte, string, error) {
	switch format {
	case formatText, "":
		return []byte(t.String()), "text/plain; charset=utf-8", nil
	case formatJSON:
		b, err := t.MarshalJSON()
		return b, "application/json", err
	case formatSpeedscope:
		b, err := t.MarshalSpeedscope()
		return b, "application/json", err
	default:
		return nil, "", checkFormat(format)
	}
}
