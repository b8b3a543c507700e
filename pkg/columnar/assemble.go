package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Assemble builds a record of nrows rows from cols, one column per field of
// schema.
//
// Assemble checks that the columns fit the schema: one column per field,
// nrows values in each, the field's data type, and no nulls in non-nullable
// fields. It fails with an error wrapping ErrBatchShape otherwise.
//
// Assemble takes ownership of cols: the caller's references are released
// whether or not the record is built. The returned record must be Release()d
// by the caller.
func Assemble(schema *arrow.Schema, cols []arrow.Array, nrows int64) (arrow.Record, error) {
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()

	if err := validateColumns(schema, cols, nrows); err != nil {
		return nil, err
	}
	return array.NewRecord(schema, cols, nrows), nil
}

func validateColumns(schema *arrow.Schema, cols []arrow.Array, nrows int64) error {
	if len(cols) != schema.NumFields() {
		return fmt.Errorf("%w: %d columns for %d fields", ErrBatchShape, len(cols), schema.NumFields())
	}

	for i, col := range cols {
		field := schema.Field(i)

		switch {
		case col == nil:
			return fmt.Errorf("%w: column %d (%s) is missing", ErrBatchShape, i, field.Name)
		case int64(col.Len()) != nrows:
			return fmt.Errorf("%w: column %d (%s) has %d rows, want %d", ErrBatchShape, i, field.Name, col.Len(), nrows)
		case !arrow.TypeEqual(field.Type, col.DataType()):
			return fmt.Errorf("%w: column %d (%s) has type %s, want %s", ErrBatchShape, i, field.Name, col.DataType(), field.Type)
		case !field.Nullable && col.NullN() > 0:
			return fmt.Errorf("%w: column %d (%s) is not nullable but has %d nulls", ErrBatchShape, i, field.Name, col.NullN())
		}
	}
	return nil
}
