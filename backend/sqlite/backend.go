package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteBackend keeps every object as one row of a single SQLite table.
type SQLiteBackend struct {
	mu sync.RWMutex
	db *sql.DB

	config *SQLiteBackendConfig
}

// SQLiteBackendConfig contains configuration options for the SQLite backend
type SQLiteBackendConfig struct {
	// Path of the database file, ":memory:" for an in-memory database
	Path string
	// Table holding the objects (default: "contentfs_objects")
	Table string
	// Prefix for all keys in the table
	Prefix string
}

func NewSQLiteBackend(config *SQLiteBackendConfig) (*SQLiteBackend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	if config.Table == "" {
		config.Table = "contentfs_objects"
	}
	if !tableName.MatchString(config.Table) {
		return nil, fmt.Errorf("sqlite: invalid table name '%s'", config.Table)
	}
	config.Prefix = strings.Trim(config.Prefix, "/")

	return &SQLiteBackend{
		config: config,
	}, nil
}

// New returns the SQLite store lifted into a backend.Storage.
func New(config *SQLiteBackendConfig) (*objectfs.FileSystem, error) {
	sb, err := NewSQLiteBackend(config)
	if err != nil {
		return nil, err
	}
	return objectfs.New(sb), nil
}

// Name returns the identifier name defined for this backend.
func (*SQLiteBackend) Name() string {
	return "sqlite"
}

// Open opens the database and creates the schema.
func (sb *SQLiteBackend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	db, err := sql.Open("sqlite", sb.config.Path)
	if err != nil {
		return backend.Unavailable(sb.Name(), err)
	}
	// A single connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return backend.Unavailable(sb.Name(), err)
	}

	if sb.config.Path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return backend.Unavailable(sb.Name(), err)
		}
	}

	if err := initSchema(ctx, db, sb.config.Table); err != nil {
		db.Close()
		return backend.Unavailable(sb.Name(), err)
	}

	sb.db = db
	return nil
}

// initSchema creates the object table.
func initSchema(ctx context.Context, db *sql.DB, table string) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		key TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		size INTEGER NOT NULL CHECK(size >= 0),
		content_type TEXT NOT NULL DEFAULT '',
		etag TEXT NOT NULL DEFAULT '',
		modify_time INTEGER NOT NULL
	)`, table)

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *SQLiteBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db == nil {
		return nil
	}

	err := sb.db.Close()
	sb.db = nil
	return err
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *SQLiteBackend) GetCapabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityAtomicWrite,
		},
		MaxObjectSize: 1_000_000_000, // SQLITE_MAX_LENGTH
	}
}

func (sb *SQLiteBackend) buildKey(key string) string {
	if sb.config.Prefix == "" {
		return key
	}
	return sb.config.Prefix + "/" + key
}

func (sb *SQLiteBackend) relativeKey(rowKey string) string {
	if sb.config.Prefix == "" {
		return rowKey
	}
	return strings.TrimPrefix(rowKey, sb.config.Prefix+"/")
}
