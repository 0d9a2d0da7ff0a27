package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/data"
)

// ReadOnlyStorage wraps any Storage implementation to make it read-only.
// All read operations are passed through to the underlying storage.
// All write operations fail with data.ErrPermissionDenied.
type ReadOnlyStorage struct {
	Storage
}

// NewReadOnly creates a new read-only wrapper around the given storage.
func NewReadOnly(storage Storage) *ReadOnlyStorage {
	return &ReadOnlyStorage{
		Storage: storage,
	}
}

func (ro *ReadOnlyStorage) denied(op, path string) error {
	return fmt.Errorf("%w: %s '%s' on read-only %s", data.ErrPermissionDenied, op, path, ro.Storage.Name())
}

func (ro *ReadOnlyStorage) OpenWrite(ctx context.Context, path string) (io.WriteCloser, error) {
	return nil, ro.denied("write", path)
}

func (ro *ReadOnlyStorage) MakeDir(ctx context.Context, path string) error {
	return ro.denied("mkdir", path)
}

func (ro *ReadOnlyStorage) Remove(ctx context.Context, path string) error {
	return ro.denied("remove", path)
}

func (ro *ReadOnlyStorage) Rename(ctx context.Context, oldPath, newPath string) error {
	return ro.denied("rename", oldPath)
}

// Unwrap returns the wrapped storage.
func (ro *ReadOnlyStorage) Unwrap() Storage {
	return ro.Storage
}
