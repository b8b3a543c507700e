// Package reader converts a stream of Avro rows into Arrow record batches.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
	"github.com/thanos-io/objstore"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/columnar"
	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/rowsource"
)

var (
	// EOF is returned by Read once every row has been emitted.
	EOF = errors.New("reader exhausted") //nolint:revive,staticcheck

	// ErrClosed is returned by Read after Close, unless the reader had
	// already finished.
	ErrClosed = errors.New("reader closed")
)

type state int

const (
	stateOpen state = iota
	stateProducing
	stateExhausted
	stateFailed
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateProducing:
		return "producing"
	case stateExhausted:
		return "exhausted"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Reader pulls rows from a row source and returns them as Arrow records of
// at most Config.BatchSize rows.
//
// The reader owns its source. The source is closed as soon as the reader
// has read every row or fails, and by Close when the reader is abandoned
// early. A Reader is not safe for concurrent use.
type Reader struct {
	cfg     Config
	logger  log.Logger
	metrics *Metrics

	src     rowsource.Source
	schema  *arrow.Schema
	builder *columnar.ColumnBuilder

	state      state
	err        error
	sourceDone bool

	rows    int64 // rows pulled from the source
	batches int64
}

// Open translates the writer schema of src and returns a reader over its
// rows. metrics may be nil.
//
// Open fails with a *columnar.SchemaError when the schema cannot be
// represented in Arrow. src is closed if Open fails.
func Open(cfg Config, src rowsource.Source, logger log.Logger, metrics *Metrics) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("invalid reader config: %w", err)
	}

	schema, err := columnar.Translate(src.Schema())
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.NewNopLogger()
	}
	r := &Reader{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		src:     src,
		schema:  schema,
		builder: columnar.NewColumnBuilder(cfg.allocator(), schema),
	}
	level.Debug(logger).Log("msg", "opened reader", "fields", schema.NumFields(), "batch_size", cfg.BatchSize)
	return r, nil
}

// OpenFile opens the object container file at path on fs.
func OpenFile(cfg Config, fs afero.Fs, path string, logger log.Logger, metrics *Metrics) (*Reader, error) {
	src, err := rowsource.OpenFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Open(cfg, src, log.With(loggerOrNop(logger), "path", path), metrics)
}

// OpenObject opens the object container file stored as name in bkt.
func OpenObject(ctx context.Context, cfg Config, bkt objstore.BucketReader, name string, logger log.Logger, metrics *Metrics) (*Reader, error) {
	src, err := rowsource.OpenObject(ctx, bkt, name)
	if err != nil {
		return nil, err
	}
	return Open(cfg, src, log.With(loggerOrNop(logger), "object", name), metrics)
}

// OpenBatches opens the object container file at path on the local file
// system and returns a reader emitting batches of batchSize rows.
func OpenBatches(path string, batchSize int) (*Reader, error) {
	return OpenFile(Config{BatchSize: batchSize}, afero.NewOsFs(), path, nil, nil)
}

// Schema returns the Arrow schema of every record returned by Read.
func (r *Reader) Schema() *arrow.Schema { return r.schema }

// Read returns the next record. The caller owns the record and must
// Release it.
//
// Read returns EOF once every row has been emitted. Any other error is
// terminal: the rows of the batch in progress are discarded and every later
// call returns the same error.
func (r *Reader) Read(ctx context.Context) (arrow.Record, error) {
	switch r.state {
	case stateExhausted:
		return nil, EOF
	case stateFailed:
		return nil, r.err
	case stateClosed:
		return nil, ErrClosed
	}
	r.state = stateProducing

	for !r.sourceDone && !r.builder.Full(r.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(err)
		}

		row, err := r.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			r.finishSource()
			break
		} else if err != nil {
			return nil, r.fail(err)
		}

		if err := r.appendRow(row); err != nil {
			return nil, r.fail(fmt.Errorf("row %d: %w", r.rows, err))
		}
		r.rows++
	}

	if r.builder.Rows() == 0 {
		r.state = stateExhausted
		r.releaseBuilder()
		level.Debug(r.logger).Log("msg", "reader exhausted", "rows", r.rows, "batches", r.batches)
		return nil, EOF
	}

	rec, err := r.emit()
	if err != nil {
		return nil, r.fail(err)
	}
	return rec, nil
}

// All returns an iterator over the remaining records. The reader is closed
// when the loop ends. A terminal error is yielded once; EOF is not yielded.
// Records yielded to the loop body must be released by it.
func (r *Reader) All(ctx context.Context) iter.Seq2[arrow.Record, error] {
	return func(yield func(arrow.Record, error) bool) {
		defer r.Close()

		for {
			rec, err := r.Read(ctx)
			if errors.Is(err, EOF) {
				return
			} else if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Close releases the reader's buffers and closes its source. Close is
// idempotent. A reader that already finished keeps reporting EOF or its
// terminal error.
func (r *Reader) Close() error {
	if r.state != stateExhausted && r.state != stateFailed {
		r.state = stateClosed
	}
	r.releaseBuilder()
	return r.closeSource()
}

func (r *Reader) appendRow(row avro.Value) error {
	rec, ok := row.(avro.Record)
	if !ok {
		got := "missing value"
		if row != nil {
			got = row.Kind().String()
		}
		return &columnar.TypeMismatchError{Path: "row", Expected: arrow.StructOf(r.schema.Fields()...), Got: got}
	}

	for i, f := range r.schema.Fields() {
		s, err := columnar.Coerce(columnar.FieldValue(rec, i, f.Name), f)
		if err != nil {
			r.builder.RollbackRow()
			return err
		}
		if err := r.builder.Append(i, s); err != nil {
			r.builder.RollbackRow()
			return err
		}
	}
	return r.builder.CommitRow()
}

func (r *Reader) emit() (arrow.Record, error) {
	n := r.builder.Rows()
	rec, err := columnar.Assemble(r.schema, r.builder.Take(), int64(n))
	if err != nil {
		return nil, err
	}

	r.batches++
	r.metrics.observeBatch(n)
	level.Debug(r.logger).Log("msg", "emitted batch", "batch", r.batches, "rows", n)
	return rec, nil
}

// finishSource closes the source once it reports the end of its rows.
func (r *Reader) finishSource() {
	r.sourceDone = true
	if err := r.closeSource(); err != nil {
		level.Warn(r.logger).Log("msg", "failed to close row source", "err", err)
	}
}

func (r *Reader) fail(err error) error {
	r.state = stateFailed
	r.err = err
	r.releaseBuilder()
	if closeErr := r.closeSource(); closeErr != nil {
		level.Warn(r.logger).Log("msg", "failed to close row source", "err", closeErr)
	}

	r.metrics.observeFailure(err)
	level.Warn(r.logger).Log("msg", "reader failed", "rows", r.rows, "batches", r.batches, "err", err)
	return err
}

func (r *Reader) releaseBuilder() {
	if r.builder != nil {
		r.builder.Release()
		r.builder = nil
	}
}

func (r *Reader) closeSource() error {
	if r.src == nil {
		return nil
	}
	err := r.src.Close()
	r.src = nil
	return err
}

func loggerOrNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return logger
}
