package backend

import (
	"context"
	"io"

	"github.com/mwantia/contentfs/data"
)

// Backend is used as lifecycle entrypoint for every adapter implementation.
type Backend interface {
	// Name returns the identifier name defined for this backend.
	Name() string
	// Open is part of the lifecycle behaviour and gets called before the first request.
	// Adapters use it to test connectivity.
	Open(ctx context.Context) error
	// Close is part of the lifecycle behaviour and gets called on unmount or shutdown.
	Close(ctx context.Context) error

	// GetCapabilities returns the capabilities supported by this backend.
	GetCapabilities() *Capabilities
}

// Storage is the hierarchical capability surface every adapter provides.
// Paths are native, forward-slash and relative to the adapter root; "" is
// the root itself.
type Storage interface {
	Backend

	// OpenRead streams the content of a file.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenWrite returns a writer whose content replaces the file only when
	// Close returns nil. A writer closed after a failed Write, or aborted via
	// Abort, leaves the previous content untouched.
	OpenWrite(ctx context.Context, path string) (io.WriteCloser, error)

	// List returns the direct children of a directory sorted by key.
	List(ctx context.Context, path string) ([]*data.FileStat, error)

	Stat(ctx context.Context, path string) (*data.FileStat, error)

	// MakeDir creates a single directory. An existing directory is not an error.
	MakeDir(ctx context.Context, path string) error

	// Remove deletes a file or an empty directory.
	Remove(ctx context.Context, path string) error

	// Rename moves a file or directory atomically. Adapters without
	// CapabilityRename return data.ErrUnsupported.
	Rename(ctx context.Context, oldPath, newPath string) error

	Exists(ctx context.Context, path string) (bool, error)
}

// Aborter is implemented by writers that can discard their content instead of committing it.
type Aborter interface {
	Abort() error
}

// AbortWriter discards w when it supports it and closes it otherwise.
func AbortWriter(w io.WriteCloser) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}
