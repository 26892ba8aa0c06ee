package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when opening a key that does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service stores uploaded blobs under opaque keys.
// Deleting a key that does not exist is not an error.
type Service interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
