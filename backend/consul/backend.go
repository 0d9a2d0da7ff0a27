package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
)

// ConsulBackend provides a simple object store on top of the Consul KV store.
//
// Every object is a single KV entry below Prefix. The modification time is
// kept in the entry flags as unix seconds.
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Best suited for small notebooks and configuration files
type ConsulBackend struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	config *ConsulBackendConfig
}

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string
	// Scheme used to reach the server (http or https)
	Scheme string

	// Token for Consul ACL authentication (optional)
	Token string
	// Datacenter to use (optional)
	Datacenter string
	// Namespace for Consul Enterprise (optional)
	Namespace string

	// Prefix for all keys in Consul KV
	Prefix string
}

// NewConsulBackend creates a new Consul-backed object store
func NewConsulBackend(config *ConsulBackendConfig) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	config.Prefix = strings.Trim(config.Prefix, "/")

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Scheme != "" {
		clientConfig.Scheme = config.Scheme
	}
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}
	if config.Namespace != "" {
		clientConfig.Namespace = config.Namespace
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulBackend{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// New returns the Consul store lifted into a backend.Storage.
func New(config *ConsulBackendConfig) (*objectfs.FileSystem, error) {
	cb, err := NewConsulBackend(config)
	if err != nil {
		return nil, err
	}
	return objectfs.New(cb), nil
}

// Name returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

// Open checks that the cluster has an elected leader.
func (cb *ConsulBackend) Open(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	leader, err := cb.client.Status().LeaderWithQueryOptions((&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return backend.Unavailable(cb.Name(), err)
	}
	if leader == "" {
		return backend.Unavailable(cb.Name(), fmt.Errorf("no cluster leader"))
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend
func (cb *ConsulBackend) Close(ctx context.Context) error {
	// Nothing to clean up - Consul client is stateless
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend
func (cb *ConsulBackend) GetCapabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityAtomicWrite,
		},
		// Consul KV has a default limit of 512KB per value
		MaxObjectSize: 512 * 1024,
	}
}

// buildKey constructs the full Consul KV key from the object key
func (cb *ConsulBackend) buildKey(key string) string {
	if cb.config.Prefix == "" {
		return key
	}
	return cb.config.Prefix + "/" + key
}

func (cb *ConsulBackend) relativeKey(consulKey string) string {
	if cb.config.Prefix == "" {
		return consulKey
	}
	return strings.TrimPrefix(consulKey, cb.config.Prefix+"/")
}
