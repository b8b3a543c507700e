package rowsource

import (
	"context"
	"io"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
)

// Slice is a Source over rows held in memory.
type Slice struct {
	schema avro.Schema
	rows   []avro.Value
	next   int
	closed bool
}

var _ Source = (*Slice)(nil)

// NewSlice returns a source yielding rows in order.
func NewSlice(schema avro.Schema, rows ...avro.Value) *Slice {
	return &Slice{schema: schema, rows: rows}
}

func (s *Slice) Schema() avro.Schema { return s.schema }

func (s *Slice) Next(ctx context.Context) (avro.Value, error) {
	if s.closed {
		return nil, &SourceError{Op: "read", Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func (s *Slice) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *Slice) Closed() bool { return s.closed }
