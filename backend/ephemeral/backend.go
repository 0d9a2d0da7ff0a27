package ephemeral

import (
	"context"
	"sync"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/tidwall/btree"
)

type entry struct {
	content []byte
	object  objectfs.Object
}

// EphemeralBackend keeps every object in an ordered in-memory map.
// Content is lost on Close.
type EphemeralBackend struct {
	mu sync.RWMutex

	objects *btree.Map[string, *entry]
	maxSize int64
}

func NewEphemeralBackend() *EphemeralBackend {
	return &EphemeralBackend{
		objects: btree.NewMap[string, *entry](0),
		maxSize: 64 << 20,
	}
}

// New returns the ephemeral store lifted into a backend.Storage.
func New() *objectfs.FileSystem {
	return objectfs.New(NewEphemeralBackend())
}

// Returns the identifier name defined for this backend
func (*EphemeralBackend) Name() string {
	return "ephemeral"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (eb *EphemeralBackend) Open(ctx context.Context) error {
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (eb *EphemeralBackend) Close(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.objects.Clear()
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (eb *EphemeralBackend) GetCapabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityAtomicWrite,
		},
		MaxObjectSize: eb.maxSize,
	}
}
