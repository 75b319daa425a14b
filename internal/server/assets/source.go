// Package assets serves the downloadable files offered to signed-in users,
// either from a local directory or from an S3-compatible bucket.
package assets

import (
	"context"
	"io"
	"mime"
	"path"
	"time"
)

// Object is an opened asset. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Source opens assets by name. Unknown names, and names that would escape
// the source's root, yield common.ErrorNotFound.
type Source interface {
	Open(ctx context.Context, name string) (*Object, error)
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
