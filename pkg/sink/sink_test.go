package sink

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var flatSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "ok", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
}, nil)

func flatRecord(t *testing.T, mem memory.Allocator) arrow.Record {
	t.Helper()

	b := array.NewRecordBuilder(mem, flatSchema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "", "c"}, []bool{true, false, true})
	b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false, false}, []bool{true, true, false})
	return b.NewRecord()
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	got, err := ParseFormat("Parquet")
	require.NoError(t, err)
	require.Equal(t, FormatParquet, got)

	_, err = ParseFormat("orc")
	require.Error(t, err)
}

func TestIPC(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	var buf bytes.Buffer
	w, err := New(FormatIPC, &buf, flatSchema, alloc)
	require.NoError(t, err)

	rec := flatRecord(t, alloc)
	defer rec.Release()
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	r, err := ipc.NewReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(alloc))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Schema().Equal(flatSchema))

	var rows int64
	for r.Next() {
		got := r.Record()
		require.True(t, array.RecordEqual(rec, got))
		rows += got.NumRows()
	}
	require.NoError(t, r.Err())
	require.Equal(t, int64(6), rows)
}

func TestArrowFile(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	var buf bytes.Buffer
	w, err := New(FormatArrow, &buf, flatSchema, alloc)
	require.NoError(t, err)

	rec := flatRecord(t, alloc)
	defer rec.Release()
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(alloc))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 1, r.NumRecords())
	got, err := r.Record(0)
	require.NoError(t, err)
	require.True(t, array.RecordEqual(rec, got))
}

func TestCSV(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	var buf bytes.Buffer
	w, err := New(FormatCSV, &buf, flatSchema, alloc)
	require.NoError(t, err)

	rec := flatRecord(t, alloc)
	defer rec.Release()
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	require.Equal(t, "id,name,ok\n1,a,true\n2,,false\n3,c,\n", buf.String())
}

func TestCSV_NestedSchema(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	}, nil)

	_, err := NewCSV(&bytes.Buffer{}, schema)
	require.ErrorContains(t, err, "tags")
}

func TestParquet(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	w, err := New(FormatParquet, cw, flatSchema, alloc)
	require.NoError(t, err)

	rec := flatRecord(t, alloc)
	defer rec.Release()
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	require.Equal(t, int64(buf.Len()), cw.N)

	pr, err := file.NewParquetReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = pr.Close() }()

	require.Equal(t, int64(6), pr.NumRows())
}
