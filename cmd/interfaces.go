package cmd

import (
	"context"
	"io"

	"github.com/mwantia/contentfs"
	"github.com/mwantia/contentfs/data"
	"github.com/mwantia/contentfs/mount"
)

// API is the part of the contents manager the commands operate on.
type API interface {
	// Mount resolves address and attaches the resulting storage at prefix.
	Mount(ctx context.Context, prefix, address string, opts ...mount.MountOption) (*mount.Mount, error)

	// Unmount detaches the storage at prefix. Nested mounts are only
	// detached alongside when force is set.
	Unmount(ctx context.Context, prefix string, force bool) error

	// Mounts describes every attached storage.
	Mounts() []mount.Info

	// Get returns the document at path, with content when requested.
	Get(ctx context.Context, path string, opts *contentfs.GetOptions) (*data.Document, error)

	// List returns the children of the directory at path.
	List(ctx context.Context, path string) ([]*data.Document, error)

	// Save writes doc at path and returns the stored model without content.
	Save(ctx context.Context, doc *data.Document, path string) (*data.Document, error)

	MakeDirectory(ctx context.Context, path string) (*data.Document, error)

	// Delete removes the document or directory tree at path.
	Delete(ctx context.Context, path string) error

	// Rename moves a document, across mounts if required.
	Rename(ctx context.Context, oldPath, newPath string) (*data.Document, error)

	// Copy duplicates a document into toDir under a free name.
	Copy(ctx context.Context, from, toDir string) (*data.Document, error)

	NewUntitled(ctx context.Context, dir string, typ data.DocumentType, ext string) (*data.Document, error)

	CreateCheckpoint(ctx context.Context, path string) (*data.Checkpoint, error)
	ListCheckpoints(ctx context.Context, path string) ([]*data.Checkpoint, error)
	RestoreCheckpoint(ctx context.Context, path, id string) (*data.Document, error)
	DeleteCheckpoint(ctx context.Context, path, id string) error
}

// Command represents an executable command against the contents manager.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "ls -l [path]")
	Usage() string

	// Execute runs the command with parsed arguments
	// The writer parameter is where command output should be written
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}

var _ API = (*contentfs.Manager)(nil)
