package sqlite

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return data.Wrap(data.ErrNotFound, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return data.Wrap(data.ErrBackendUnavailable, err)
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return data.Wrap(data.ErrBackendUnavailable, err)
		case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
			return data.Wrap(data.ErrPermissionDenied, err)
		case sqlite3.SQLITE_TOOBIG:
			return data.Wrap(backend.ErrTooLarge, err)
		}
	}

	return backend.Translate(err)
}

func (sb *SQLiteBackend) conn() (*sql.DB, error) {
	if sb.db == nil {
		return nil, fmt.Errorf("%w: sqlite database not open", data.ErrBackendUnavailable)
	}
	return sb.db, nil
}

func (sb *SQLiteBackend) Get(ctx context.Context, key string) (io.ReadCloser, *objectfs.Object, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	db, err := sb.conn()
	if err != nil {
		return nil, nil, err
	}

	var content []byte
	var modifyTime int64
	obj := &objectfs.Object{Key: key}

	query := fmt.Sprintf("SELECT content, size, content_type, etag, modify_time FROM %s WHERE key = ?", sb.config.Table)
	if err := db.QueryRowContext(ctx, query, sb.buildKey(key)).Scan(&content, &obj.Size, &obj.ContentType, &obj.ETag, &modifyTime); err != nil {
		return nil, nil, fmt.Errorf("get '%s': %w", key, translate(err))
	}
	obj.ModifyTime = time.Unix(0, modifyTime)

	return io.NopCloser(bytes.NewReader(content)), obj, nil
}

func (sb *SQLiteBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(content)) != size {
		return fmt.Errorf("%w: expected %d bytes for '%s', got %d", data.ErrInvalidContent, size, key, len(content))
	}
	sum := sha256.Sum256(content)

	sb.mu.Lock()
	defer sb.mu.Unlock()

	db, err := sb.conn()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, content, size, content_type, etag, modify_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			content = excluded.content,
			size = excluded.size,
			content_type = excluded.content_type,
			etag = excluded.etag,
			modify_time = excluded.modify_time`, sb.config.Table)

	_, err = db.ExecContext(ctx, query, sb.buildKey(key), content, size, contentType,
		hex.EncodeToString(sum[:]), time.Now().UnixNano())
	return translate(err)
}

func (sb *SQLiteBackend) Head(ctx context.Context, key string) (*objectfs.Object, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	db, err := sb.conn()
	if err != nil {
		return nil, err
	}

	var modifyTime int64
	obj := &objectfs.Object{Key: key}

	query := fmt.Sprintf("SELECT size, content_type, etag, modify_time FROM %s WHERE key = ?", sb.config.Table)
	if err := db.QueryRowContext(ctx, query, sb.buildKey(key)).Scan(&obj.Size, &obj.ContentType, &obj.ETag, &modifyTime); err != nil {
		return nil, fmt.Errorf("head '%s': %w", key, translate(err))
	}
	obj.ModifyTime = time.Unix(0, modifyTime)

	return obj, nil
}

func (sb *SQLiteBackend) Delete(ctx context.Context, key string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	db, err := sb.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = ?", sb.config.Table), sb.buildKey(key))
	return translate(err)
}

func (sb *SQLiteBackend) Copy(ctx context.Context, src, dst string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	db, err := sb.conn()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %[1]s (key, content, size, content_type, etag, modify_time)
		SELECT ?, content, size, content_type, etag, ? FROM %[1]s WHERE key = ?
		ON CONFLICT(key) DO UPDATE SET
			content = excluded.content,
			size = excluded.size,
			content_type = excluded.content_type,
			etag = excluded.etag,
			modify_time = excluded.modify_time`, sb.config.Table)

	result, err := db.ExecContext(ctx, query, sb.buildKey(dst), time.Now().UnixNano(), sb.buildKey(src))
	if err != nil {
		return translate(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: key '%s'", data.ErrNotFound, src)
	}
	return nil
}

func (sb *SQLiteBackend) Scan(ctx context.Context, prefix string, recursive bool) ([]*objectfs.Object, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	db, err := sb.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT key, size, content_type, etag, modify_time FROM %s
		WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key`, sb.config.Table)

	rows, err := db.QueryContext(ctx, query, sb.buildKey(prefix))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []*objectfs.Object
	for rows.Next() {
		var rowKey string
		var modifyTime int64
		obj := &objectfs.Object{}

		if err := rows.Scan(&rowKey, &obj.Size, &obj.ContentType, &obj.ETag, &modifyTime); err != nil {
			return nil, translate(err)
		}
		obj.Key = sb.relativeKey(rowKey)
		obj.ModifyTime = time.Unix(0, modifyTime)
		result = append(result, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}

	if recursive {
		return result, nil
	}
	return objectfs.Collapse(prefix, result), nil
}
