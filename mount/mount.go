package mount

import (
	"context"
	"time"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// Mount is a storage resource attached to a prefix of the virtual namespace.
// It is never mutated after NewMount returns.
type Mount struct {
	// Path is the normalized mount prefix, "" for the root mount
	Path      string
	Options   *MountOptions
	MountTime time.Time // When the mount was created.

	// Storage is the adapter with every decorator from Options applied
	Storage backend.Storage
}

// NewMount attaches storage at path. The decorators requested through
// opts are applied here, so Storage is ready to serve requests.
func NewMount(path string, storage backend.Storage, opts ...MountOption) (*Mount, error) {
	options := newDefaultMountOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if options.Retries > 0 {
		policy := options.RetryPolicy
		policy.MaxRetries = options.Retries
		storage = backend.NewRetrying(storage, policy)
	}
	if options.ReadOnly {
		if _, ok := storage.(*backend.ReadOnlyStorage); !ok {
			storage = backend.NewReadOnly(storage)
		}
	}

	return &Mount{
		Path:      path,
		Options:   options,
		MountTime: time.Now(),
		Storage:   storage,
	}, nil
}

// Open tests connectivity of the underlying adapter.
func (m *Mount) Open(ctx context.Context) error {
	if err := m.Storage.Open(ctx); err != nil {
		return backend.Unavailable(m.Storage.Name(), err)
	}
	return nil
}

// Close releases the underlying adapter.
func (m *Mount) Close(ctx context.Context) error {
	return m.Storage.Close(ctx)
}

// Matches reports whether the virtual path is served by this mount.
func (m *Mount) Matches(path string) bool {
	return data.HasPrefix(path, m.Path)
}

// Native returns the path relative to the mount prefix.
func (m *Mount) Native(path string) string {
	return data.ToRelativePath(path, m.Path)
}

// Virtual returns the virtual path of a native path of this mount.
func (m *Mount) Virtual(native string) string {
	return data.JoinPath(m.Path, native)
}

// Address returns the connection URI with credentials masked.
func (m *Mount) Address() string {
	return m.Options.Address
}

// Root returns the location inside the backend the mount is bound to.
func (m *Mount) Root() string {
	return m.Options.Root
}

// ReadOnly reports whether mutations are rejected.
func (m *Mount) ReadOnly() bool {
	return m.Options.ReadOnly
}

func (m *Mount) GetCapabilities() *backend.Capabilities {
	return m.Storage.GetCapabilities()
}

// Info is the printable description of a mount.
type Info struct {
	Path      string    `json:"path"`
	Address   string    `json:"address"`
	Root      string    `json:"root"`
	Backend   string    `json:"backend"`
	ReadOnly  bool      `json:"readonly"`
	MountTime time.Time `json:"mount_time"`
}

func (m *Mount) Info() Info {
	return Info{
		Path:      m.Path,
		Address:   m.Options.Address,
		Root:      m.Options.Root,
		Backend:   m.Storage.Name(),
		ReadOnly:  m.Options.ReadOnly,
		MountTime: m.MountTime,
	}
}
