package rowsource

import (
	"context"
	"io"

	hamba "github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
	"github.com/pkg/errors"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/columnar"
)

// OCF reads rows from an Avro object container file. Block framing and codecs
// are handled by the hamba decoder; OCF converts its native Go values into
// avro.Value using the writer schema stored in the file header.
type OCF struct {
	rc     io.ReadCloser
	dec    *ocf.Decoder
	schema avro.Schema

	rows   int64
	closed bool
}

var _ Source = (*OCF)(nil)

// NewOCF reads the container header from rc and returns a source over its
// rows. The source owns rc: it is closed by Close, or before returning if
// NewOCF fails.
//
// The writer schema is the one hamba parsed from the header, resolved against
// a schema cache private to this file. A header that cannot be read, or whose
// schema hamba rejects, is reported as *SourceError; a writer schema that
// cannot be converted as *columnar.SchemaError wrapping
// columnar.ErrInvalidSchema.
func NewOCF(rc io.ReadCloser) (*OCF, error) {
	dec, err := ocf.NewDecoder(rc, ocf.WithDecoderSchemaCache(&hamba.SchemaCache{}))
	if err != nil {
		_ = rc.Close()
		return nil, &SourceError{Op: "open", Err: errors.Wrap(err, "reading container header")}
	}

	schema, err := avro.Convert(dec.Schema())
	if err != nil {
		_ = rc.Close()
		return nil, &columnar.SchemaError{Err: columnar.ErrInvalidSchema, Cause: err}
	}

	return &OCF{rc: rc, dec: dec, schema: schema}, nil
}

func (o *OCF) Schema() avro.Schema { return o.schema }

// Rows returns the number of rows returned so far.
func (o *OCF) Rows() int64 { return o.rows }

func (o *OCF) Next(ctx context.Context) (avro.Value, error) {
	if o.closed {
		return nil, &SourceError{Op: "read", Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !o.dec.HasNext() {
		if err := o.dec.Error(); err != nil {
			return nil, &SourceError{Op: "read", Err: errors.Wrapf(err, "after row %d", o.rows)}
		}
		return nil, io.EOF
	}

	var native any
	if err := o.dec.Decode(&native); err != nil {
		return nil, &SourceError{Op: "decode", Err: errors.Wrapf(err, "row %d", o.rows)}
	}
	v, err := fromNative(o.schema, native)
	if err != nil {
		return nil, &SourceError{Op: "decode", Err: errors.Wrapf(err, "row %d", o.rows)}
	}
	o.rows++
	return v, nil
}

func (o *OCF) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.rc.Close()
}
