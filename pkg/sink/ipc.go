package sink

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// NewIPC returns a Writer for the Arrow IPC streaming format.
func NewIPC(w io.Writer, schema *arrow.Schema, mem memory.Allocator) Writer {
	return ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
}

// NewArrowFile returns a Writer for the Arrow IPC file format.
func NewArrowFile(w io.Writer, schema *arrow.Schema, mem memory.Allocator) (Writer, error) {
	return ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
}
