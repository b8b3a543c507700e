package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ColumnBuilder accumulates rows into one Arrow builder per top-level field.
//
// Rows are appended atomically: values are first staged with Append and only
// reach the Arrow builders on CommitRow, once every field of the row has been
// staged and validated. A row that fails validation, or is abandoned with
// RollbackRow, leaves no trace. Outside of CommitRow every builder therefore
// holds exactly Rows() values.
//
// Enum columns are dictionary encoded against the full symbol list of the
// enum, so index i is always symbol i and every batch taken from the same
// builder carries the same dictionary.
//
// If a staged row passes validation but an Arrow builder still rejects one of
// its values, the columns can no longer be kept aligned: the builder is marked
// failed and every later call returns ErrBuilderFailed. A failed builder must
// only be released.
//
// ColumnBuilder is not safe for concurrent use.
type ColumnBuilder struct {
	mem      memory.Allocator
	schema   *arrow.Schema
	builders []array.Builder

	staged []Scalar
	isSet  []bool
	rows   int
	failed error
}

// NewColumnBuilder returns an empty builder for records of schema, allocating
// buffers from mem.
func NewColumnBuilder(mem memory.Allocator, schema *arrow.Schema) *ColumnBuilder {
	fields := schema.Fields()
	b := &ColumnBuilder{
		mem:      mem,
		schema:   schema,
		builders: make([]array.Builder, len(fields)),
		staged:   make([]Scalar, len(fields)),
		isSet:    make([]bool, len(fields)),
	}
	for i, f := range fields {
		b.builders[i] = array.NewBuilder(mem, f.Type)
	}
	b.seed()
	return b
}

// seed inserts the enum symbols into every dictionary builder. The memo table
// of a dictionary builder outlives NewArray, so this is a no-op after the
// first call unless a builder was reset.
func (b *ColumnBuilder) seed() {
	if b.failed != nil {
		return
	}
	for i, f := range b.schema.Fields() {
		if err := seedDictionaries(b.mem, b.builders[i], f); err != nil {
			b.failed = fmt.Errorf("seeding dictionary of field %q: %w", f.Name, err)
			return
		}
	}
}

// Append stages s as the value of the field at index field for the open row.
// Staging the same field twice replaces the earlier value.
func (b *ColumnBuilder) Append(field int, s Scalar) error {
	if b.failed != nil {
		return b.failedErr()
	}
	if field < 0 || field >= len(b.staged) {
		return fmt.Errorf("%w: field index %d out of range [0, %d)", ErrBatchShape, field, len(b.staged))
	}
	b.staged[field] = s
	b.isSet[field] = true
	return nil
}

// CommitRow appends the staged row to the column buffers. It fails, and
// discards the staged row, if a field was not staged or a staged value does
// not fit its column.
func (b *ColumnBuilder) CommitRow() error {
	if b.failed != nil {
		b.RollbackRow()
		return b.failedErr()
	}
	for i, f := range b.schema.Fields() {
		if !b.isSet[i] {
			b.RollbackRow()
			return fmt.Errorf("%w: field %q was not staged", ErrBatchShape, f.Name)
		}
		if !conforms(b.staged[i], f) {
			err := mismatch(f.Name, f.Type, scalarKind(b.staged[i]))
			b.RollbackRow()
			return err
		}
	}

	for i, bldr := range b.builders {
		if err := appendScalar(bldr, b.staged[i]); err != nil {
			b.failed = fmt.Errorf("appending field %q: %w", b.schema.Field(i).Name, err)
			b.RollbackRow()
			return b.failedErr()
		}
	}
	b.rows++
	b.RollbackRow()
	return nil
}

// RollbackRow discards the staged row.
func (b *ColumnBuilder) RollbackRow() {
	clear(b.staged)
	clear(b.isSet)
}

// AppendRow stages one value per field and commits the row.
func (b *ColumnBuilder) AppendRow(row []Scalar) error {
	if b.failed != nil {
		return b.failedErr()
	}
	if len(row) != len(b.staged) {
		return fmt.Errorf("%w: row has %d values, schema has %d fields", ErrBatchShape, len(row), len(b.staged))
	}
	for i, s := range row {
		b.staged[i] = s
		b.isSet[i] = true
	}
	return b.CommitRow()
}

// Rows returns the number of committed rows.
func (b *ColumnBuilder) Rows() int { return b.rows }

// Full reports whether at least batchSize rows have been committed.
func (b *ColumnBuilder) Full(batchSize int) bool { return b.rows >= batchSize }

// Take returns the committed columns and resets the builder. The caller owns
// the returned arrays and must release them. The columns of a failed builder
// may differ in length; Assemble rejects them.
func (b *ColumnBuilder) Take() []arrow.Array {
	cols := make([]arrow.Array, len(b.builders))
	for i, bldr := range b.builders {
		cols[i] = bldr.NewArray()
	}
	b.rows = 0
	b.RollbackRow()
	b.seed()
	return cols
}

// Err returns the error that marked the builder failed, if any.
func (b *ColumnBuilder) Err() error {
	if b.failed == nil {
		return nil
	}
	return b.failedErr()
}

func (b *ColumnBuilder) failedErr() error {
	return fmt.Errorf("%w: %w", ErrBuilderFailed, b.failed)
}

// Release frees the buffers held by the builder. It must not be used after.
func (b *ColumnBuilder) Release() {
	for _, bldr := range b.builders {
		bldr.Release()
	}
	b.builders = nil
}

// seedDictionaries walks bldr along the type of f and fills every enum
// dictionary with its symbols in declaration order.
func seedDictionaries(mem memory.Allocator, bldr array.Builder, f arrow.Field) error {
	switch bldr := bldr.(type) {
	case *array.BinaryDictionaryBuilder:
		syms := symbolsOf(f.Metadata)
		if syms == nil {
			return nil
		}
		sb := array.NewStringBuilder(mem)
		defer sb.Release()
		sb.AppendValues(syms.ordered, nil)
		dict := sb.NewStringArray()
		defer dict.Release()
		return bldr.InsertStringDictValues(dict)

	case *array.ListBuilder:
		return seedDictionaries(mem, bldr.ValueBuilder(), f.Type.(*arrow.ListType).ElemField())

	case *array.StructBuilder:
		for i, child := range f.Type.(*arrow.StructType).Fields() {
			if err := seedDictionaries(mem, bldr.FieldBuilder(i), child); err != nil {
				return err
			}
		}

	case *array.DenseUnionBuilder:
		for i, child := range f.Type.(*arrow.DenseUnionType).Fields() {
			if err := seedDictionaries(mem, bldr.Child(i), child); err != nil {
				return err
			}
		}
	}
	return nil
}

// appendScalar appends s to bldr. s must already conform to the builder's
// data type.
func appendScalar(bldr array.Builder, s Scalar) error {
	if s == nil {
		bldr.AppendNull()
		return nil
	}

	switch bldr := bldr.(type) {
	case *array.BooleanBuilder:
		bldr.Append(bool(s.(BoolScalar)))
	case *array.Int32Builder:
		bldr.Append(int32(s.(Int32Scalar)))
	case *array.Date32Builder:
		bldr.Append(arrow.Date32(s.(Int32Scalar)))
	case *array.Time32Builder:
		bldr.Append(arrow.Time32(s.(Int32Scalar)))
	case *array.Int64Builder:
		bldr.Append(int64(s.(Int64Scalar)))
	case *array.Time64Builder:
		bldr.Append(arrow.Time64(s.(Int64Scalar)))
	case *array.TimestampBuilder:
		bldr.Append(arrow.Timestamp(s.(Int64Scalar)))
	case *array.Float32Builder:
		bldr.Append(float32(s.(Float32Scalar)))
	case *array.Float64Builder:
		bldr.Append(float64(s.(Float64Scalar)))
	case *array.StringBuilder:
		bldr.Append(string(s.(StringScalar)))
	case *array.BinaryBuilder:
		bldr.Append(s.(BinaryScalar))
	case *array.FixedSizeBinaryBuilder:
		bldr.Append(s.(BinaryScalar))
	case *array.Decimal128Builder:
		bldr.Append(decimal128.FromBigInt(s.(DecimalScalar).Unscaled))
	case *array.Decimal256Builder:
		bldr.Append(decimal256.FromBigInt(s.(DecimalScalar).Unscaled))
	case *array.MonthDayNanoIntervalBuilder:
		bldr.Append(arrow.MonthDayNanoInterval(s.(IntervalScalar)))
	case *array.BinaryDictionaryBuilder:
		return bldr.AppendString(string(s.(DictScalar)))

	case *array.ListBuilder:
		bldr.Append(true)
		values := bldr.ValueBuilder()
		for _, item := range s.(*ListScalar).Items {
			if err := appendScalar(values, item); err != nil {
				return err
			}
		}

	case *array.StructBuilder:
		bldr.Append(true)
		for i, child := range s.(*StructScalar).Fields {
			if err := appendScalar(bldr.FieldBuilder(i), child); err != nil {
				return err
			}
		}

	case *array.DenseUnionBuilder:
		u := s.(*UnionScalar)
		bldr.Append(u.Code)
		child := bldr.Type().(*arrow.DenseUnionType).ChildIDs()[u.Code]
		return appendScalar(bldr.Child(child), u.Value)

	default:
		return fmt.Errorf("no appender for builder %T", bldr)
	}
	return nil
}
