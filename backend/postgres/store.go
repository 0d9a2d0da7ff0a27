package postgres

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return data.Wrap(data.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501", strings.HasPrefix(pgErr.Code, "28"):
			return data.Wrap(data.ErrPermissionDenied, err)
		case pgErr.Code == "57014":
			return data.Wrap(data.ErrTimeout, err)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"), strings.HasPrefix(pgErr.Code, "57P"):
			return data.Wrap(data.ErrBackendUnavailable, err)
		case pgErr.Code == "54000":
			return data.Wrap(backend.ErrTooLarge, err)
		}
	}

	if pgconn.SafeToRetry(err) {
		return data.Wrap(data.ErrBackendUnavailable, err)
	}

	return backend.Translate(err)
}

func (pb *PostgresBackend) conn() (*pgxpool.Pool, error) {
	if pb.pool == nil {
		return nil, fmt.Errorf("%w: postgres pool not open", data.ErrBackendUnavailable)
	}
	return pb.pool, nil
}

func (pb *PostgresBackend) Get(ctx context.Context, key string) (io.ReadCloser, *objectfs.Object, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	pool, err := pb.conn()
	if err != nil {
		return nil, nil, err
	}

	var content []byte
	var modifyTime int64
	obj := &objectfs.Object{Key: key}

	query := fmt.Sprintf("SELECT content, size, content_type, etag, modify_time FROM %s WHERE key = $1", pb.config.Table)
	if err := pool.QueryRow(ctx, query, pb.buildKey(key)).Scan(&content, &obj.Size, &obj.ContentType, &obj.ETag, &modifyTime); err != nil {
		return nil, nil, fmt.Errorf("get '%s': %w", key, translate(err))
	}
	obj.ModifyTime = time.Unix(0, modifyTime)

	return io.NopCloser(bytes.NewReader(content)), obj, nil
}

func (pb *PostgresBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(content)) != size {
		return fmt.Errorf("%w: expected %d bytes for '%s', got %d", data.ErrInvalidContent, size, key, len(content))
	}
	sum := sha256.Sum256(content)

	pb.mu.RLock()
	defer pb.mu.RUnlock()

	pool, err := pb.conn()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, content, size, content_type, etag, modify_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			content = EXCLUDED.content,
			size = EXCLUDED.size,
			content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			modify_time = EXCLUDED.modify_time`, pb.config.Table)

	_, err = pool.Exec(ctx, query, pb.buildKey(key), content, size, contentType,
		hex.EncodeToString(sum[:]), time.Now().UnixNano())
	return translate(err)
}

func (pb *PostgresBackend) Head(ctx context.Context, key string) (*objectfs.Object, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	pool, err := pb.conn()
	if err != nil {
		return nil, err
	}

	var modifyTime int64
	obj := &objectfs.Object{Key: key}

	query := fmt.Sprintf("SELECT size, content_type, etag, modify_time FROM %s WHERE key = $1", pb.config.Table)
	if err := pool.QueryRow(ctx, query, pb.buildKey(key)).Scan(&obj.Size, &obj.ContentType, &obj.ETag, &modifyTime); err != nil {
		return nil, fmt.Errorf("head '%s': %w", key, translate(err))
	}
	obj.ModifyTime = time.Unix(0, modifyTime)

	return obj, nil
}

func (pb *PostgresBackend) Delete(ctx context.Context, key string) error {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	pool, err := pb.conn()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = $1", pb.config.Table), pb.buildKey(key))
	return translate(err)
}

func (pb *PostgresBackend) Copy(ctx context.Context, src, dst string) error {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	pool, err := pb.conn()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %[1]s (key, content, size, content_type, etag, modify_time)
		SELECT $1, content, size, content_type, etag, $2 FROM %[1]s WHERE key = $3
		ON CONFLICT (key) DO UPDATE SET
			content = EXCLUDED.content,
			size = EXCLUDED.size,
			content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			modify_time = EXCLUDED.modify_time`, pb.config.Table)

	tag, err := pool.Exec(ctx, query, pb.buildKey(dst), time.Now().UnixNano(), pb.buildKey(src))
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: key '%s'", data.ErrNotFound, src)
	}
	return nil
}

func (pb *PostgresBackend) Scan(ctx context.Context, prefix string, recursive bool) ([]*objectfs.Object, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	pool, err := pb.conn()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT key, size, content_type, etag, modify_time FROM %s
		WHERE left(key, length($1)) = $1 ORDER BY key COLLATE "C"`, pb.config.Table)

	rows, err := pool.Query(ctx, query, pb.buildKey(prefix))
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
		obj.Key = pb.relativeKey(rowKey)
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
