package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
)

// S3Backend stores objects in a bucket of an S3 compatible server through
// the minio client. Every key is placed below Prefix.
type S3Backend struct {
	mu     sync.RWMutex
	client *minio.Client
	config *S3BackendConfig

	versioning bool
}

// S3BackendConfig contains configuration options for the S3 backend
type S3BackendConfig struct {
	// Endpoint of the server as host[:port]
	Endpoint string
	Bucket   string
	// Prefix inside the bucket that acts as the backend root
	Prefix string

	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	Secure       bool

	// CreateBucket creates a missing bucket on Open
	CreateBucket bool
}

func NewS3Backend(config *S3BackendConfig) (*S3Backend, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("s3: endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, config.SessionToken),
		Secure: config.Secure,
		Region: config.Region,
	})
	if err != nil {
		return nil, err
	}

	config.Prefix = strings.Trim(config.Prefix, "/")

	return &S3Backend{
		client: client,
		config: config,
	}, nil
}

// New returns the minio store lifted into a backend.Storage.
func New(config *S3BackendConfig) (*objectfs.FileSystem, error) {
	sb, err := NewS3Backend(config)
	if err != nil {
		return nil, err
	}
	return objectfs.New(sb), nil
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// Open verifies the bucket exists and detects versioning.
func (sb *S3Backend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	exists, err := sb.client.BucketExists(ctx, sb.config.Bucket)
	if err != nil {
		return backend.Unavailable(sb.Name(), err)
	}

	if !exists {
		if !sb.config.CreateBucket {
			return backend.Unavailable(sb.Name(), fmt.Errorf("bucket '%s' does not exist", sb.config.Bucket))
		}
		if err := sb.client.MakeBucket(ctx, sb.config.Bucket, minio.MakeBucketOptions{Region: sb.config.Region}); err != nil {
			return backend.Unavailable(sb.Name(), err)
		}
	}

	if versioning, err := sb.client.GetBucketVersioning(ctx, sb.config.Bucket); err == nil {
		sb.versioning = versioning.Enabled()
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *S3Backend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *S3Backend) GetCapabilities() *backend.Capabilities {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	capabilities := &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityAtomicWrite,
		},
		MaxObjectSize: 5 << 30, // single PUT limit
	}
	if sb.versioning {
		capabilities.Capabilities = append(capabilities.Capabilities, backend.CapabilityVersioning)
	}
	return capabilities
}

func (sb *S3Backend) objectKey(key string) string {
	if sb.config.Prefix == "" {
		return key
	}
	return sb.config.Prefix + "/" + key
}

func (sb *S3Backend) relativeKey(objectKey string) string {
	if sb.config.Prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, sb.config.Prefix+"/")
}
