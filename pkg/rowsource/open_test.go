package rowsource

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
)

func drain(t *testing.T, src Source) []avro.Value {
	t.Helper()

	var rows []avro.Value
	for {
		row, err := src.Next(context.Background())
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestOpenFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/events.avro", writeContainer(t, eventSchema, testEvents()...), 0o644))

	src, err := OpenFile(fs, "/data/events.avro")
	require.NoError(t, err)
	defer src.Close()
	require.Len(t, drain(t, src), 2)

	_, err = OpenFile(fs, "/data/missing.avro")
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "open", serr.Op)
}

func TestOpenObject(t *testing.T) {
	ctx := context.Background()
	bkt := objstore.NewInMemBucket()
	require.NoError(t, bkt.Upload(ctx, "tenant/events.avro", bytes.NewReader(writeContainer(t, eventSchema, testEvents()...))))

	src, err := OpenObject(ctx, bkt, "tenant/events.avro")
	require.NoError(t, err)
	defer src.Close()
	require.Len(t, drain(t, src), 2)

	_, err = OpenObject(ctx, bkt, "tenant/missing.avro")
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	require.True(t, bkt.IsObjNotFoundErr(serr.Err))
}

func TestSlice(t *testing.T) {
	schema := avro.MustParseSchema(`{"type": "record", "name": "S", "fields": [{"name": "n", "type": "long"}]}`)
	rows := []avro.Value{
		avro.Record{Fields: []avro.NamedValue{{Name: "n", Value: avro.Long(1)}}},
		avro.Record{Fields: []avro.NamedValue{{Name: "n", Value: avro.Long(2)}}},
	}

	src := NewSlice(schema, rows...)
	require.Same(t, schema, src.Schema())
	require.Equal(t, rows, drain(t, src))

	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)

	require.False(t, src.Closed())
	require.NoError(t, src.Close())
	require.True(t, src.Closed())

	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}
