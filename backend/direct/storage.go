package direct

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

func (db *DirectBackend) Stat(ctx context.Context, key string) (*data.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.Translate(err)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	info, err := db.fs.Stat(native(key))
	if err != nil {
		return nil, backend.Absent(backend.Translate(err))
	}

	return toFileStat(key, info), nil
}

func (db *DirectBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := db.Stat(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, data.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (db *DirectBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.Translate(err)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	info, err := db.fs.Stat(native(key))
	if err != nil {
		return nil, backend.Absent(backend.Translate(err))
	}
	if info.IsDir() {
		return nil, backend.ErrIsDirectory
	}

	f, err := db.fs.Open(native(key))
	if err != nil {
		return nil, backend.Translate(err)
	}
	return f, nil
}

// OpenWrite writes into a temporary file in the target directory which is
// renamed over the target on Close.
func (db *DirectBackend) OpenWrite(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.Translate(err)
	}
	if key == "" {
		return nil, backend.ErrIsDirectory
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	dir := data.ParentPath(key)
	info, err := db.fs.Stat(native(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", data.ErrParentMissing, dir)
		}
		return nil, backend.Translate(err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, dir)
	}

	if info, err := db.fs.Stat(key); err == nil && info.IsDir() {
		return nil, backend.ErrIsDirectory
	}

	tmp, err := db.fs.TempFile(native(dir), backend.TempPattern)
	if err != nil {
		return nil, backend.Translate(err)
	}

	return &tempWriter{
		db:   db,
		file: tmp,
		tmp:  data.JoinPath(dir, filepath.Base(tmp.Name())),
		key:  key,
	}, nil
}

func (db *DirectBackend) List(ctx context.Context, key string) ([]*data.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, backend.Translate(err)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	info, err := db.fs.Stat(native(key))
	if err != nil {
		return nil, backend.Translate(err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, key)
	}

	infos, err := db.fs.ReadDir(native(key))
	if err != nil {
		return nil, backend.Translate(err)
	}

	result := make([]*data.FileStat, 0, len(infos))
	for _, info := range infos {
		// In-flight temp files of concurrent writers
		if backend.IsTempName(info.Name()) {
			continue
		}
		result = append(result, toFileStat(data.JoinPath(key, info.Name()), info))
	}

	slices.SortFunc(result, func(a, b *data.FileStat) int {
		return strings.Compare(a.Key, b.Key)
	})

	return result, nil
}

func (db *DirectBackend) MakeDir(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return backend.Translate(err)
	}
	if key == "" {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if info, err := db.fs.Stat(key); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%w: file '%s'", data.ErrAlreadyExists, key)
	}

	parent := data.ParentPath(key)
	info, err := db.fs.Stat(native(parent))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: '%s'", data.ErrParentMissing, parent)
		}
		return backend.Translate(err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, parent)
	}

	return backend.Translate(db.fs.MkdirAll(key, 0755))
}

func (db *DirectBackend) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return backend.Translate(err)
	}
	if key == "" {
		return fmt.Errorf("%w: cannot remove root", data.ErrPermissionDenied)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	return backend.Translate(db.fs.Remove(key))
}

func (db *DirectBackend) Rename(ctx context.Context, oldKey, newKey string) error {
	if err := ctx.Err(); err != nil {
		return backend.Translate(err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.fs.Stat(newKey); err == nil {
		return fmt.Errorf("%w: '%s'", data.ErrAlreadyExists, newKey)
	}

	return backend.Translate(db.fs.Rename(oldKey, newKey))
}

// tempWriter commits a temp file by renaming it over the target.
type tempWriter struct {
	db   *DirectBackend
	file billy.File
	tmp  string
	key  string

	failed bool
	done   bool
}

func (w *tempWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.failed = true
		return n, backend.Translate(err)
	}
	return n, nil
}

func (w *tempWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	w.file.Close()
	return backend.Translate(w.db.fs.Remove(w.tmp))
}

func (w *tempWriter) Close() error {
	if w.done {
		return nil
	}
	if w.failed {
		w.Abort()
		return fmt.Errorf("write to '%s' failed, previous content kept", w.key)
	}
	w.done = true

	if err := w.file.Close(); err != nil {
		w.db.fs.Remove(w.tmp)
		return backend.Translate(err)
	}

	w.db.mu.Lock()
	defer w.db.mu.Unlock()

	if err := w.db.fs.Rename(w.tmp, w.key); err != nil {
		w.db.fs.Remove(w.tmp)
		return backend.Translate(err)
	}
	return nil
}
