package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/awss3"
	"github.com/mwantia/contentfs/backend/consul"
	"github.com/mwantia/contentfs/backend/direct"
	"github.com/mwantia/contentfs/backend/ephemeral"
	"github.com/mwantia/contentfs/backend/postgres"
	"github.com/mwantia/contentfs/backend/s3"
	"github.com/mwantia/contentfs/backend/smb"
	"github.com/mwantia/contentfs/backend/sqlite"
)

func init() {
	Register("file", directFactory)
	Register("osfs", directFactory)
	Register("mem", ephemeralFactory)
	Register("s3", awsFactory)
	Register("minio", minioFactory)
	Register("s3+minio", minioFactory)
	Register("smb", smbFactory)
	Register("consul", consulFactory)
	Register("sqlite", sqliteFactory)
	Register("postgres", postgresFactory)
	Register("postgresql", postgresFactory)
}

// localPath returns the filesystem path named by a file-like URI.
// file:///abs/dir is absolute, file://rel/dir is relative to the working directory.
func localPath(addr *Address) string {
	if addr.Host == "" || addr.Host == "localhost" {
		return "/" + addr.Path
	}
	if addr.Path == "" {
		return addr.Host
	}
	return addr.Host + "/" + addr.Path
}

type directOptions struct {
	Create bool `mapstructure:"create"`
}

// file:///<root>?create=true
func directFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	var opts directOptions
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}

	root := localPath(addr)
	storage, err := direct.NewDirectBackend(root, opts.Create)
	if err != nil {
		return nil, "", err
	}
	return storage, storage.Root(), nil
}

// mem://
func ephemeralFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	if err := addr.Decode(&struct{}{}); err != nil {
		return nil, "", err
	}
	return ephemeral.New(), "", nil
}

type awsOptions struct {
	EndpointURL  string `mapstructure:"endpoint_url"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	Anonymous    bool   `mapstructure:"anonymous"`
	PathStyle    bool   `mapstructure:"path_style"`
	CreateBucket bool   `mapstructure:"create_bucket"`
}

// s3://[access:secret@]<bucket>/<prefix>?endpoint_url=&region=
func awsFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	opts := awsOptions{
		AccessKey: addr.User,
		SecretKey: addr.Password,
	}
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}
	if addr.Host == "" {
		return nil, "", fmt.Errorf("bucket is required")
	}

	storage, err := awss3.New(ctx, &awss3.AWSBackendConfig{
		Bucket:       addr.Host,
		Prefix:       addr.Path,
		EndpointURL:  opts.EndpointURL,
		Region:       opts.Region,
		AccessKey:    opts.AccessKey,
		SecretKey:    opts.SecretKey,
		SessionToken: opts.SessionToken,
		Anonymous:    opts.Anonymous,
		PathStyle:    opts.PathStyle,
		CreateBucket: opts.CreateBucket,
	})
	if err != nil {
		return nil, "", err
	}
	return storage, addr.Path, nil
}

type minioOptions struct {
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	Secure       bool   `mapstructure:"secure"`
	Region       string `mapstructure:"region"`
	CreateBucket bool   `mapstructure:"create_bucket"`
}

// minio://[access:secret@]<host>[:port]/<bucket>/<prefix>?secure=true
func minioFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	opts := minioOptions{
		AccessKey: addr.User,
		SecretKey: addr.Password,
	}
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}

	segments := addr.Segments()
	if addr.Host == "" || len(segments) == 0 {
		return nil, "", fmt.Errorf("endpoint and bucket are required")
	}
	prefix := strings.Join(segments[1:], "/")

	storage, err := s3.New(&s3.S3BackendConfig{
		Endpoint:     addr.Host,
		Bucket:       segments[0],
		Prefix:       prefix,
		AccessKey:    opts.AccessKey,
		SecretKey:    opts.SecretKey,
		SessionToken: opts.SessionToken,
		Region:       opts.Region,
		Secure:       opts.Secure,
		CreateBucket: opts.CreateBucket,
	})
	if err != nil {
		return nil, "", err
	}
	return storage, prefix, nil
}

type smbOptions struct {
	Domain string `mapstructure:"domain"`
	Share  string `mapstructure:"share"`
}

// smb://user:password@<host>[:port]/<share>/<root>?domain=
func smbFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	var opts smbOptions
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}

	segments := addr.Segments()
	share, root := opts.Share, addr.Path
	if share == "" {
		if len(segments) == 0 {
			return nil, "", fmt.Errorf("share is required")
		}
		share, root = segments[0], strings.Join(segments[1:], "/")
	}

	storage, err := smb.NewSMBBackend(&smb.SMBBackendConfig{
		Address:  addr.Host,
		Share:    share,
		Root:     root,
		User:     addr.User,
		Password: addr.Password,
		Domain:   opts.Domain,
	})
	if err != nil {
		return nil, "", err
	}
	return storage, root, nil
}

type consulOptions struct {
	Token      string `mapstructure:"token"`
	Datacenter string `mapstructure:"datacenter"`
	Namespace  string `mapstructure:"namespace"`
	Scheme     string `mapstructure:"scheme"`
}

// consul://<host>:<port>/<prefix>?token=&datacenter=
func consulFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	var opts consulOptions
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}

	storage, err := consul.New(&consul.ConsulBackendConfig{
		Address:    addr.Host,
		Scheme:     opts.Scheme,
		Token:      opts.Token,
		Datacenter: opts.Datacenter,
		Namespace:  opts.Namespace,
		Prefix:     addr.Path,
	})
	if err != nil {
		return nil, "", err
	}
	return storage, addr.Path, nil
}

type tableOptions struct {
	Table  string `mapstructure:"table"`
	Prefix string `mapstructure:"prefix"`
}

// sqlite:///<file>?table=&prefix=, sqlite://memory for an in-memory database
func sqliteFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	var opts tableOptions
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}

	path := localPath(addr)
	if addr.Host == "memory" && addr.Path == "" {
		path = ":memory:"
	}

	storage, err := sqlite.New(&sqlite.SQLiteBackendConfig{
		Path:   path,
		Table:  opts.Table,
		Prefix: opts.Prefix,
	})
	if err != nil {
		return nil, "", err
	}
	return storage, opts.Prefix, nil
}

type postgresOptions struct {
	SSLMode         string `mapstructure:"sslmode"`
	ConnectTimeout  string `mapstructure:"connect_timeout"`
	ApplicationName string `mapstructure:"application_name"`
	Table           string `mapstructure:"table"`
	Prefix          string `mapstructure:"prefix"`
}

// postgres://user:pass@<host>:<port>/<db>?sslmode=&table=&prefix=
func postgresFactory(ctx context.Context, addr *Address) (backend.Storage, string, error) {
	var opts postgresOptions
	if err := addr.Decode(&opts); err != nil {
		return nil, "", err
	}

	u := *addr.raw
	query := url.Values{}
	if opts.SSLMode != "" {
		query.Set("sslmode", opts.SSLMode)
	}
	if opts.ConnectTimeout != "" {
		query.Set("connect_timeout", opts.ConnectTimeout)
	}
	if opts.ApplicationName != "" {
		query.Set("application_name", opts.ApplicationName)
	}
	u.RawQuery = query.Encode()

	storage, err := postgres.New(&postgres.PostgresBackendConfig{
		ConnString: u.String(),
		Table:      opts.Table,
		Prefix:     opts.Prefix,
	})
	if err != nil {
		return nil, "", err
	}
	return storage, opts.Prefix, nil
}
