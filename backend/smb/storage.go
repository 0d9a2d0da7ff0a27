package smb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/hirochachacha/go-smb2"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

func (sb *SMBBackend) Stat(ctx context.Context, key string) (*data.FileStat, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return nil, err
	}

	info, err := share.Stat(sb.remote(key))
	if err != nil {
		return nil, backend.Absent(translate(err))
	}
	return toFileStat(key, info), nil
}

func (sb *SMBBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := sb.Stat(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, data.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (sb *SMBBackend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return nil, err
	}

	f, err := share.Open(sb.remote(key))
	if err != nil {
		return nil, translate(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, translate(err)
	}
	if info.IsDir() {
		f.Close()
		return nil, backend.ErrIsDirectory
	}

	return f, nil
}

func (sb *SMBBackend) OpenWrite(ctx context.Context, key string) (io.WriteCloser, error) {
	if key == "" {
		return nil, backend.ErrIsDirectory
	}

	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return nil, err
	}

	dir := data.ParentPath(key)
	info, err := share.Stat(sb.remote(dir))
	if err != nil {
		err = translate(err)
		if errors.Is(err, data.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", data.ErrParentMissing, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, dir)
	}

	tmp := data.JoinPath(dir, backend.TempName(uuid.NewString()))
	f, err := share.OpenFile(sb.remote(tmp), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, translate(err)
	}

	return &tempWriter{
		sb:    sb,
		share: share,
		file:  f,
		tmp:   sb.remote(tmp),
		key:   sb.remote(key),
	}, nil
}

func (sb *SMBBackend) List(ctx context.Context, key string) ([]*data.FileStat, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return nil, err
	}

	info, err := share.Stat(sb.remote(key))
	if err != nil {
		return nil, translate(err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: '%s'", backend.ErrNotDirectory, key)
	}

	infos, err := share.ReadDir(sb.remote(key))
	if err != nil {
		return nil, translate(err)
	}

	result := make([]*data.FileStat, 0, len(infos))
	for _, info := range infos {
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

func (sb *SMBBackend) MakeDir(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return err
	}

	if info, err := share.Stat(sb.remote(key)); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%w: file '%s'", data.ErrAlreadyExists, key)
	}

	if err := share.Mkdir(sb.remote(key), 0755); err != nil {
		err = translate(err)
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", data.ErrParentMissing, data.ParentPath(key))
		}
		return err
	}
	return nil
}

func (sb *SMBBackend) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: cannot remove root", data.ErrPermissionDenied)
	}

	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return err
	}

	return translate(share.Remove(sb.remote(key)))
}

func (sb *SMBBackend) Rename(ctx context.Context, oldKey, newKey string) error {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	share, err := sb.fs(ctx)
	if err != nil {
		return err
	}

	if _, err := share.Stat(sb.remote(newKey)); err == nil {
		return fmt.Errorf("%w: '%s'", data.ErrAlreadyExists, newKey)
	}

	return translate(share.Rename(sb.remote(oldKey), sb.remote(newKey)))
}

// tempWriter writes into a temp file that replaces the target on Close.
type tempWriter struct {
	sb    *SMBBackend
	share *smb2.Share
	file  *smb2.File
	tmp   string
	key   string

	failed bool
	done   bool
}

func (w *tempWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.failed = true
		return n, translate(err)
	}
	return n, nil
}

func (w *tempWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	w.file.Close()
	return translate(w.share.Remove(w.tmp))
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
		w.share.Remove(w.tmp)
		return translate(err)
	}

	err := w.share.Rename(w.tmp, w.key)
	if isCollision(err) {
		// SMB rename does not replace; swap out the previous version first.
		if err := w.share.Remove(w.key); err != nil {
			w.share.Remove(w.tmp)
			return translate(err)
		}
		err = w.share.Rename(w.tmp, w.key)
	}
	if err != nil {
		w.share.Remove(w.tmp)
		return translate(err)
	}
	return nil
}
