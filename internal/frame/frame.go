package frame

import (
	"fmt"
	"hash"
	"path"
	"strconv"
	"strings"

	"github.com/getsentry/scopedtrace/internal/packageutil"
)

const (
	// EntryLabel is displayed for the synthetic node standing in for a
	// capture with no frames.
	EntryLabel = "<entry>"

	// UnknownLabel is displayed for a frame without an address.
	UnknownLabel = "<unknown>"
)

type (
	// Descriptor identifies one logical stack frame. Frames inlined into the
	// same physical frame are told apart by Inline, counted from the physical
	// frame (0) towards the innermost inlined call.
	Descriptor struct {
		PC     uintptr
		Inline uint16
	}

	// Frame is the resolved, display-only view of a Descriptor.
	Frame struct {
		File            string `json:"filename,omitempty"`
		Function        string `json:"function,omitempty"`
		InApp           bool   `json:"in_app"`
		Inline          bool   `json:"inline,omitempty"`
		InstructionAddr string `json:"instruction_addr,omitempty"`
		Line            uint32 `json:"lineno,omitempty"`
		Package         string `json:"package,omitempty"`
		Path            string `json:"abs_path,omitempty"`
	}
)

// Entry is the placeholder descriptor for captures that hold no frames.
var Entry = Descriptor{}

func (d Descriptor) IsEntry() bool {
	return d == Entry
}

func (d Descriptor) IsInline() bool {
	return d.Inline > 0
}

func (d Descriptor) Addr() string {
	return "0x" + strconv.FormatUint(uint64(d.PC), 16)
}

func (d Descriptor) String() string {
	if d.Inline == 0 {
		return d.Addr()
	}
	return fmt.Sprintf("%s#%d", d.Addr(), d.Inline)
}

// FromFunction builds a Frame out of a fully qualified Go function name
// as reported by the runtime, e.g. "github.com/a/b.(*T).Method".
func FromFunction(d Descriptor, function, file string, line int) Frame {
	f := Frame{
		File:            path.Base(file),
		Function:        function,
		Inline:          d.IsInline(),
		InstructionAddr: d.Addr(),
		Path:            file,
	}
	if file == "" {
		f.File = ""
	}
	if line > 0 {
		f.Line = uint32(line)
	}
	f.Package = PackageName(function)
	f.InApp = function != "" && packageutil.IsGoApplicationPackage(f.Package)
	return f
}

// PackageName returns the import path part of a fully qualified Go function
// name.
func PackageName(function string) string {
	if function == "" {
		return ""
	}
	// The package path ends at the first dot after the last slash.
	slash := strings.LastIndexByte(function, '/')
	dot := strings.IndexByte(function[slash+1:], '.')
	if dot < 0 {
		return function
	}
	return function[:slash+1+dot]
}

func (f Frame) PackageBaseName() string {
	if f.Package == "" {
		return ""
	}
	return path.Base(f.Package)
}

// IsResolved reports whether symbol information was found for the frame.
func (f Frame) IsResolved() bool {
	return f.Function != ""
}

// Label returns the line shown for the frame in a rendered trace.
func (f Frame) Label() string {
	if !f.IsResolved() {
		if f.InstructionAddr == "" || f.InstructionAddr == "0x0" {
			return UnknownLabel
		}
		return f.InstructionAddr
	}
	if f.Path == "" {
		return f.Function
	}
	if f.Line == 0 {
		return f.Function + " at " + f.Path
	}
	return f.Function + " at " + f.Path + ":" + strconv.FormatUint(uint64(f.Line), 10)
}

func (f Frame) WriteToHash(h hash.Hash) {
	var s string
	if f.Package != "" {
		s = f.PackageBaseName()
	} else if f.File != "" {
		s = f.File
	} else {
		s = "-"
	}
	h.Write([]byte(s))
	if f.Function != "" {
		s = f.Function
	} else {
		s = "-"
	}
	h.Write([]byte(s))
}
