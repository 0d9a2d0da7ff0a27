package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// Factory builds an unopened adapter from a parsed address. It decodes its
// own options with Address.Decode and returns the residual root path.
type Factory func(ctx context.Context, addr *Address) (backend.Storage, string, error)

// Resolved is the outcome of ParseBackendAddress.
type Resolved struct {
	Storage backend.Storage
	Scheme  string
	// Root is the location the adapter is bound to. Storage paths are
	// already relative to it.
	Root string
	// Address is the connection URI with credentials masked
	Address  string
	ReadOnly bool
}

type commonOptions struct {
	Retries  uint64 `mapstructure:"retries"`
	ReadOnly bool   `mapstructure:"readonly"`
}

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds or replaces the factory for scheme.
func Register(scheme string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	factories[strings.ToLower(scheme)] = factory
}

// Schemes returns every registered scheme, sorted.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()

	schemes := make([]string, 0, len(factories))
	for scheme := range factories {
		schemes = append(schemes, scheme)
	}
	slices.Sort(schemes)
	return schemes
}

func lookup(scheme string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()

	factory, exists := factories[scheme]
	return factory, exists
}

// ParseBackendAddress resolves a connection URI into an opened adapter.
func ParseBackendAddress(ctx context.Context, address string, opts ...ResolveOption) (*Resolved, error) {
	options := newDefaultResolveOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	factory, exists := lookup(addr.Scheme)
	if !exists {
		return nil, fmt.Errorf("%w: unknown scheme '%s'", data.ErrUnsupportedBackend, addr.Scheme)
	}

	common := commonOptions{}
	if err := mapstructure.WeakDecode(addr.take("retries", "readonly"), &common); err != nil {
		return nil, fmt.Errorf("%w: invalid common options: %v", data.ErrUnsupportedBackend, err)
	}

	storage, root, err := factory(ctx, addr)
	if err != nil {
		if data.KindOf(err) == data.KindUnknown {
			err = fmt.Errorf("%w: %s: %v", data.ErrUnsupportedBackend, addr.Scheme, err)
		}
		return nil, err
	}

	if !options.SkipOpen {
		if err := storage.Open(ctx); err != nil {
			storage.Close(ctx)
			return nil, backend.Unavailable(addr.Scheme, err)
		}
	}

	if common.Retries > 0 {
		policy := options.RetryPolicy
		policy.MaxRetries = common.Retries
		storage = backend.NewRetrying(storage, policy)
	}
	if common.ReadOnly {
		storage = backend.NewReadOnly(storage)
	}

	return &Resolved{
		Storage:  storage,
		Scheme:   addr.Scheme,
		Root:     root,
		Address:  addr.Redacted(),
		ReadOnly: common.ReadOnly,
	}, nil
}
