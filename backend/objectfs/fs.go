package objectfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// FileSystem lifts a flat Store into the hierarchical backend.Storage.
// Directories are zero-length marker keys ending in "/"; a directory also
// exists implicitly while any key lives below it.
type FileSystem struct {
	store Store
}

// New wraps store.
func New(store Store) *FileSystem {
	return &FileSystem{store: store}
}

// Store returns the wrapped flat store.
func (fs *FileSystem) Store() Store {
	return fs.store
}

func (fs *FileSystem) Name() string {
	return fs.store.Name()
}

func (fs *FileSystem) Open(ctx context.Context) error {
	return fs.store.Open(ctx)
}

func (fs *FileSystem) Close(ctx context.Context) error {
	return fs.store.Close(ctx)
}

// GetCapabilities never reports rename or directories: both are emulated.
func (fs *FileSystem) GetCapabilities() *backend.Capabilities {
	capabilities := fs.store.GetCapabilities().Without(backend.CapabilityRename, backend.CapabilityDirectories)
	if !capabilities.Contains(backend.CapabilityAtomicWrite) {
		capabilities.Capabilities = append(capabilities.Capabilities, backend.CapabilityAtomicWrite)
	}
	return capabilities
}

func markerKey(path string) string {
	return path + "/"
}

func dirPrefix(path string) string {
	if path == "" {
		return ""
	}
	return path + "/"
}

func objectStat(key string, obj *Object) *data.FileStat {
	if obj.IsPrefix() {
		return data.NewDirectoryStat(key, obj.ModifyTime)
	}

	stat := data.NewFileStat(key, obj.Size, obj.ModifyTime)
	if obj.ContentType != "" && obj.ContentType != "binary/octet-stream" {
		stat.ContentType = obj.ContentType
	}
	stat.ETag = obj.ETag
	return stat
}

// Stat looks up the object key first, so a file shadows keys below path/.
func (fs *FileSystem) Stat(ctx context.Context, path string) (*data.FileStat, error) {
	if path == "" {
		return data.NewDirectoryStat("", time.Time{}), nil
	}

	obj, err := fs.store.Head(ctx, path)
	if err == nil {
		return objectStat(path, obj), nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	marker, err := fs.store.Head(ctx, markerKey(path))
	if err == nil {
		return data.NewDirectoryStat(path, marker.ModifyTime), nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	children, err := fs.store.Scan(ctx, dirPrefix(path), false)
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		return data.NewDirectoryStat(path, time.Time{}), nil
	}

	return nil, fmt.Errorf("%w: '%s'", data.ErrNotFound, path)
}

func (fs *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := fs.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, data.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (fs *FileSystem) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, backend.ErrIsDirectory
	}

	r, _, err := fs.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// checkParent ensures the parent of path exists as a directory.
func (fs *FileSystem) checkParent(ctx context.Context, path string) error {
	parent := data.ParentPath(path)
	if parent == "" {
		return nil
	}

	stat, err := fs.Stat(ctx, parent)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", data.ErrParentMissing, parent)
		}
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, parent)
	}
	return nil
}

func (fs *FileSystem) OpenWrite(ctx context.Context, path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, backend.ErrIsDirectory
	}
	if err := fs.checkParent(ctx, path); err != nil {
		return nil, err
	}

	return &objectWriter{
		ctx:     ctx,
		fs:      fs,
		key:     path,
		maxSize: fs.store.GetCapabilities().MaxObjectSize,
	}, nil
}

func (fs *FileSystem) MakeDir(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	stat, err := fs.Stat(ctx, path)
	if err == nil {
		if stat.IsDir() {
			return nil
		}
		return fmt.Errorf("%w: file '%s'", data.ErrAlreadyExists, path)
	}
	if !errors.Is(err, data.ErrNotFound) {
		return err
	}

	if err := fs.checkParent(ctx, path); err != nil {
		return err
	}

	return fs.store.Put(ctx, markerKey(path), bytes.NewReader(nil), 0, DirectoryContentType)
}

func (fs *FileSystem) Remove(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: cannot remove root", data.ErrPermissionDenied)
	}

	stat, err := fs.Stat(ctx, path)
	if err != nil {
		return err
	}

	if !stat.IsDir() {
		return fs.store.Delete(ctx, path)
	}

	children, err := fs.List(ctx, path)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: '%s'", backend.ErrNotEmpty, path)
	}

	return fs.store.Delete(ctx, markerKey(path))
}

// Rename is not supported; callers fall back to copy and delete.
func (fs *FileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	return fmt.Errorf("%w: rename on %s", data.ErrUnsupported, fs.store.Name())
}

func (fs *FileSystem) List(ctx context.Context, path string) ([]*data.FileStat, error) {
	stat, err := fs.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, path)
	}

	prefix := dirPrefix(path)
	objects, err := fs.store.Scan(ctx, prefix, false)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*data.FileStat)
	for _, obj := range Collapse(prefix, objects) {
		key := strings.TrimSuffix(obj.Key, "/")
		if key == path || key == "" {
			continue
		}

		entry := objectStat(key, obj)
		// A file wins over a directory of the same name, as in Stat.
		if existing, exists := entries[key]; exists && !existing.IsDir() {
			continue
		}
		entries[key] = entry
	}

	result := make([]*data.FileStat, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b *data.FileStat) int {
		return strings.Compare(a.Key, b.Key)
	})

	return result, nil
}

// objectWriter buffers the whole object and issues a single Put on Close.
type objectWriter struct {
	ctx     context.Context
	fs      *FileSystem
	key     string
	maxSize int64

	buffer bytes.Buffer
	err    error
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed writer '%s'", w.key)
	}
	if w.err != nil {
		return 0, w.err
	}
	if w.maxSize > 0 && int64(w.buffer.Len()+len(p)) > w.maxSize {
		w.err = fmt.Errorf("%w: '%s' exceeds %d bytes", backend.ErrTooLarge, w.key, w.maxSize)
		return 0, w.err
	}
	return w.buffer.Write(p)
}

func (w *objectWriter) Abort() error {
	w.closed = true
	w.buffer.Reset()
	return nil
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.err != nil {
		return w.err
	}

	return w.fs.store.Put(w.ctx, w.key, bytes.NewReader(w.buffer.Bytes()), int64(w.buffer.Len()), string(data.GetMIMEType(w.key)))
}
