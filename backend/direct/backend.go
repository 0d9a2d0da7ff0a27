package direct

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// DirectBackend stores documents on local disk below a root directory.
// All access goes through a billy filesystem bound to the root, so paths
// and symlinks cannot escape it.
type DirectBackend struct {
	mu     sync.RWMutex
	root   string
	create bool

	fs billy.Filesystem
}

func NewDirectBackend(root string, create bool) (*DirectBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	return &DirectBackend{
		root:   abs,
		create: create,
		fs:     osfs.New(abs, osfs.WithBoundOS()),
	}, nil
}

// Returns the identifier name defined for this backend
func (*DirectBackend) Name() string {
	return "direct"
}

// Root returns the absolute directory served by this backend.
func (db *DirectBackend) Root() string {
	return db.root
}

// Open verifies the root directory exists, creating it when configured to.
func (db *DirectBackend) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	info, err := os.Stat(db.root)
	if os.IsNotExist(err) && db.create {
		if err := os.MkdirAll(db.root, 0755); err != nil {
			return backend.Unavailable(db.Name(), err)
		}
		info, err = os.Stat(db.root)
	}
	if err != nil {
		return backend.Unavailable(db.Name(), err)
	}

	if !info.IsDir() {
		return backend.Unavailable(db.Name(), fmt.Errorf("root '%s' is not a directory", db.root))
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (db *DirectBackend) Close(ctx context.Context) error {
	// The underlying filesystem persists independently
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (db *DirectBackend) GetCapabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityRename,
			backend.CapabilityDirectories,
			backend.CapabilityAtomicWrite,
		},
	}
}

func native(path string) string {
	if path == "" {
		return "."
	}
	return path
}

func toFileStat(key string, fileInfo os.FileInfo) *data.FileStat {
	if fileInfo.IsDir() {
		stat := data.NewDirectoryStat(key, fileInfo.ModTime())
		stat.Mode = data.ModeDir | data.FileMode(fileInfo.Mode().Perm())
		return stat
	}

	stat := data.NewFileStat(key, fileInfo.Size(), fileInfo.ModTime())
	stat.Mode = data.FileMode(fileInfo.Mode().Perm())
	return stat
}
