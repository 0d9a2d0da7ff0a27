package awss3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

// AWSBackend stores objects through the AWS SDK, against AWS itself or any
// S3 compatible endpoint.
type AWSBackend struct {
	mu     sync.RWMutex
	client *s3.Client
	config *AWSBackendConfig

	versioning bool
}

// AWSBackendConfig contains configuration options for the AWS S3 backend
type AWSBackendConfig struct {
	Bucket string
	Prefix string

	// EndpointURL overrides the AWS endpoint, e.g. for MinIO or Localstack
	EndpointURL string
	Region      string

	AccessKey    string
	SecretKey    string
	SessionToken string
	Anonymous    bool
	PathStyle    bool

	CreateBucket bool
}

func NewAWSBackend(ctx context.Context, config *AWSBackendConfig) (*AWSBackend, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("awss3: bucket is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	config.Prefix = strings.Trim(config.Prefix, "/")

	configOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}

	switch {
	case config.Anonymous:
		configOptions = append(configOptions, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case config.AccessKey != "" && config.SecretKey != "":
		configOptions = append(configOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, config.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if config.EndpointURL != "" {
			o.BaseEndpoint = aws.String(config.EndpointURL)
			// Custom endpoints rarely support virtual host addressing
			o.UsePathStyle = true
		}
		if config.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &AWSBackend{
		client: client,
		config: config,
	}, nil
}

// New returns the AWS store lifted into a backend.Storage.
func New(ctx context.Context, config *AWSBackendConfig) (*objectfs.FileSystem, error) {
	ab, err := NewAWSBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	return objectfs.New(ab), nil
}

// Returns the identifier name defined for this backend
func (*AWSBackend) Name() string {
	return "awss3"
}

// Open verifies the bucket is reachable and detects versioning.
func (ab *AWSBackend) Open(ctx context.Context) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	_, err := ab.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(ab.config.Bucket),
	})
	if err != nil {
		if !errors.Is(translate(err), data.ErrNotFound) || !ab.config.CreateBucket {
			return backend.Unavailable(ab.Name(), err)
		}

		input := &s3.CreateBucketInput{Bucket: aws.String(ab.config.Bucket)}
		if ab.config.Region != "us-east-1" {
			input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
				LocationConstraint: types.BucketLocationConstraint(ab.config.Region),
			}
		}
		if _, err := ab.client.CreateBucket(ctx, input); err != nil {
			return backend.Unavailable(ab.Name(), err)
		}
	}

	versioning, err := ab.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(ab.config.Bucket),
	})
	if err == nil {
		ab.versioning = versioning.Status == types.BucketVersioningStatusEnabled
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (ab *AWSBackend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (ab *AWSBackend) GetCapabilities() *backend.Capabilities {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	capabilities := &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityAtomicWrite,
		},
		MaxObjectSize: 5 << 30, // single PUT limit
	}
	if ab.versioning {
		capabilities.Capabilities = append(capabilities.Capabilities, backend.CapabilityVersioning)
	}
	return capabilities
}

func (ab *AWSBackend) objectKey(key string) string {
	if ab.config.Prefix == "" {
		return key
	}
	return ab.config.Prefix + "/" + key
}

func (ab *AWSBackend) relativeKey(objectKey string) string {
	if ab.config.Prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, ab.config.Prefix+"/")
}
