// Package rowsource provides the row sources read by package reader: a
// decoder for Avro object container files and an in-memory source.
package rowsource

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
)

// ErrClosed is returned by Next after the source has been closed.
var ErrClosed = errors.New("row source closed")

// Source is a finite, forward-only sequence of decoded rows that all conform
// to the source's writer schema.
type Source interface {
	// Schema returns the writer schema of the rows.
	Schema() avro.Schema

	// Next returns the next row, or io.EOF once the source is exhausted.
	// Decode and I/O failures are returned as *SourceError.
	Next(ctx context.Context) (avro.Value, error)

	// Close releases the resources held by the source. Close is idempotent.
	Close() error
}

// SourceError is an I/O or decoding failure of a row source.
type SourceError struct {
	// Op is the failing operation: "open", "read" or "decode".
	Op  string
	Err error
}

func (e *SourceError) Error() string { return fmt.Sprintf("row source %s: %v", e.Op, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }
