package rowsource

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/thanos-io/objstore"
)

// OpenFile opens the container file at path on fs.
func OpenFile(fs afero.Fs, path string) (*OCF, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &SourceError{Op: "open", Err: errors.Wrapf(err, "opening %s", path)}
	}
	return NewOCF(f)
}

// OpenObject opens the container file stored as name in bkt.
func OpenObject(ctx context.Context, bkt objstore.BucketReader, name string) (*OCF, error) {
	rc, err := bkt.Get(ctx, name)
	if err != nil {
		return nil, &SourceError{Op: "open", Err: errors.Wrapf(err, "getting object %s", name)}
	}
	return NewOCF(rc)
}
