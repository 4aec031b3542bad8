package ports

import (
	"context"
	"io"
)

// FileStorage stores uploaded files and returns a public URL for them.
type FileStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}
