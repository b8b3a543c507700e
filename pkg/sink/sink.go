// Package sink writes Arrow records to an output stream in one of several
// file formats.
package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Format names an output file format.
type Format string

const (
	// FormatIPC is the Arrow IPC streaming format.
	FormatIPC Format = "ipc"
	// FormatArrow is the Arrow IPC file format, which carries a footer and
	// supports random access.
	FormatArrow   Format = "arrow"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Formats lists every supported format.
var Formats = []Format{FormatIPC, FormatArrow, FormatCSV, FormatParquet}

func (f Format) String() string { return string(f) }

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// A Writer writes records sharing a single schema. Close must be called
// to flush buffered output; it does not close the underlying io.Writer.
type Writer interface {
	Write(rec arrow.Record) error
	Close() error
}

// New returns a Writer emitting records of schema to w in format f. mem
// may be nil.
func New(f Format, w io.Writer, schema *arrow.Schema, mem memory.Allocator) (Writer, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	switch f {
	case FormatIPC:
		return NewIPC(w, schema, mem), nil
	case FormatArrow:
		return NewArrowFile(w, schema, mem)
	case FormatCSV:
		return NewCSV(w, schema)
	case FormatParquet:
		return NewParquet(w, schema, mem)
	}
	return nil, fmt.Errorf("unknown output format %q", string(f))
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	W io.Writer
	N int64
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	cw.N += int64(n)
	return n, err
}
