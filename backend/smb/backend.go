package smb

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/hirochachacha/go-smb2"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// SMBBackend stores documents on an SMB2/3 share below Root.
type SMBBackend struct {
	mu     sync.RWMutex
	config *SMBBackendConfig

	conn    net.Conn
	session *smb2.Session
	share   *smb2.Share
}

// SMBBackendConfig contains configuration options for the SMB backend
type SMBBackendConfig struct {
	// Address of the server as host[:port], port defaults to 445
	Address string
	Share   string
	// Root directory inside the share
	Root string

	User     string
	Password string
	Domain   string
}

func NewSMBBackend(config *SMBBackendConfig) (*SMBBackend, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("smb: address is required")
	}
	if config.Share == "" {
		return nil, fmt.Errorf("smb: share is required")
	}
	if _, _, err := net.SplitHostPort(config.Address); err != nil {
		config.Address = net.JoinHostPort(config.Address, "445")
	}
	config.Root = strings.Trim(config.Root, "/")

	return &SMBBackend{
		config: config,
	}, nil
}

// Returns the identifier name defined for this backend
func (*SMBBackend) Name() string {
	return "smb"
}

// Open dials the server, authenticates and mounts the share.
func (sb *SMBBackend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", sb.config.Address)
	if err != nil {
		return backend.Unavailable(sb.Name(), err)
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     sb.config.User,
			Password: sb.config.Password,
			Domain:   sb.config.Domain,
		},
	}

	session, err := d.DialContext(ctx, conn)
	if err != nil {
		conn.Close()
		return backend.Unavailable(sb.Name(), err)
	}

	share, err := session.Mount(sb.config.Share)
	if err != nil {
		session.Logoff()
		conn.Close()
		return backend.Unavailable(sb.Name(), err)
	}

	if sb.config.Root != "" {
		info, err := share.WithContext(ctx).Stat(sb.config.Root)
		if err == nil && !info.IsDir() {
			err = fmt.Errorf("root '%s' is not a directory", sb.config.Root)
		}
		if err != nil {
			share.Umount()
			session.Logoff()
			conn.Close()
			return backend.Unavailable(sb.Name(), err)
		}
	}

	sb.conn = conn
	sb.session = session
	sb.share = share

	return nil
}

// Close unmounts the share and logs off.
func (sb *SMBBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.session == nil {
		return nil
	}

	var errs data.Errors
	errs.Add(sb.share.Umount())
	errs.Add(sb.session.Logoff())
	errs.Add(sb.conn.Close())

	sb.share = nil
	sb.session = nil
	sb.conn = nil

	return errs.Errors()
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *SMBBackend) GetCapabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityRename,
			backend.CapabilityDirectories,
			backend.CapabilityAtomicWrite,
		},
	}
}

// remote returns the share relative path for a native key.
func (sb *SMBBackend) remote(key string) string {
	return data.JoinPath(sb.config.Root, key)
}

// fs returns the mounted share bound to ctx.
func (sb *SMBBackend) fs(ctx context.Context) (*smb2.Share, error) {
	if sb.share == nil {
		return nil, fmt.Errorf("%w: smb share not mounted", data.ErrBackendUnavailable)
	}
	return sb.share.WithContext(ctx), nil
}

func toFileStat(key string, info os.FileInfo) *data.FileStat {
	if info.IsDir() {
		return data.NewDirectoryStat(key, info.ModTime())
	}
	return data.NewFileStat(key, info.Size(), info.ModTime())
}
