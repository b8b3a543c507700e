package sink

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
)

type csvWriter struct {
	w *csv.Writer
}

// NewCSV returns a Writer emitting a header line followed by one line per
// row. Nulls are written as empty cells.
//
// Only flat schemas of scalar columns can be written as CSV.
func NewCSV(w io.Writer, schema *arrow.Schema) (Writer, error) {
	for _, f := range schema.Fields() {
		if !csvScalar(f.Type) {
			return nil, fmt.Errorf("field %s: type %s cannot be written as csv", f.Name, f.Type)
		}
	}

	return &csvWriter{
		w: csv.NewWriter(w, schema, csv.WithHeader(true), csv.WithNullWriter("")),
	}, nil
}

func (cw *csvWriter) Write(rec arrow.Record) error {
	return cw.w.Write(rec)
}

func (cw *csvWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}

func csvScalar(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.NULL, arrow.BOOL,
		arrow.INT32, arrow.INT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.BINARY,
		arrow.DATE32, arrow.TIMESTAMP,
		arrow.DECIMAL128, arrow.DECIMAL256:
		return true
	}
	return false
}
