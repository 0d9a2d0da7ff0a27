package contentfs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
	"golang.org/x/sync/errgroup"
)

// copiedFile records one file written by copyTree for verification.
type copiedFile struct {
	src, dst string
	size     int64
}

// copyFile streams a file between two storages. The target only becomes
// visible when the copy completed.
func copyFile(ctx context.Context, src backend.Storage, srcPath string, dst backend.Storage, dstPath string) (int64, error) {
	r, err := src.OpenRead(ctx, srcPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	w, err := dst.OpenWrite(ctx, dstPath)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(w, r)
	if err != nil {
		backend.AbortWriter(w)
		return n, backend.Translate(err)
	}
	if err := w.Close(); err != nil {
		return n, backend.Translate(err)
	}
	return n, nil
}

// Rename moves a file or directory. Within one resource that supports it
// the adapter renames natively, otherwise the tree is copied, verified and
// the source deleted. A failed delete after a verified copy is reported as
// data.ErrRenameLeftDuplicate with both paths populated.
func (m *Manager) Rename(ctx context.Context, oldPath, newPath string) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	src, err := m.route(oldPath)
	if err != nil {
		return nil, m.fail("rename", oldPath, err)
	}
	dst, err := m.route(newPath)
	if err != nil {
		return nil, m.fail("rename", oldPath, err)
	}

	doc, err := m.rename(ctx, src, dst)
	if err != nil {
		return nil, m.fail("rename", src.path, err)
	}
	return doc, nil
}

func (m *Manager) rename(ctx context.Context, src, dst *route) (*data.Document, error) {
	if src.native == "" {
		return nil, fmt.Errorf("%w: cannot rename the root of a mount", data.ErrPermissionDenied)
	}
	if nested, ok := m.containsMountPoint(src.path, src.mount); ok {
		return nil, fmt.Errorf("%w: contains mount point '/%s'", data.ErrPermissionDenied, nested)
	}

	stat, err := src.mount.Storage.Stat(ctx, src.native)
	if err != nil {
		return nil, err
	}
	if src.path == dst.path {
		return newDocument(src.mount, src.path, stat), nil
	}
	if stat.IsDir() && data.HasPrefix(dst.path, src.path) {
		return nil, fmt.Errorf("%w: cannot move '%s' into itself", data.ErrPermissionDenied, src.path)
	}

	exists, err := m.Exists(ctx, dst.path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: '%s'", data.ErrAlreadyExists, dst.path)
	}

	if err := ensureParents(ctx, dst.mount.Storage, dst.native); err != nil {
		return nil, err
	}

	if src.mount == dst.mount && src.mount.GetCapabilities().Contains(backend.CapabilityRename) {
		err := src.mount.Storage.Rename(ctx, src.native, dst.native)
		switch {
		case err == nil:
			if !stat.IsDir() {
				if err := m.moveCheckpoints(ctx, src, dst); err != nil {
					m.log.Warn("Checkpoints of '%s' were not moved: %v", src.path, err)
				}
			}
			return m.readDocument(ctx, dst, &GetOptions{})
		case !errors.Is(err, data.ErrUnsupported):
			return nil, err
		}
	}

	if err := m.transfer(ctx, src, dst, stat); err != nil {
		return nil, err
	}
	return m.readDocument(ctx, dst, &GetOptions{})
}

// transfer is the two phase rename: copy and verify, then delete the source.
func (m *Manager) transfer(ctx context.Context, src, dst *route, stat *data.FileStat) error {
	copied, err := m.copyTree(ctx, src, dst, stat)
	if err == nil {
		err = verify(ctx, dst, copied)
	}
	if err == nil && !stat.IsDir() {
		err = m.copyCheckpoints(ctx, src, dst)
	}
	if err != nil {
		if cerr := m.removeTree(ctx, dst); cerr != nil {
			m.log.Warn("Unable to remove partial copy '%s': %v", dst.path, cerr)
		}
		return err
	}

	if stat.IsDir() {
		err = m.deleteTree(ctx, src)
	} else {
		err = src.mount.Storage.Remove(ctx, src.native)
		if err == nil {
			err = m.purgeCheckpoints(ctx, src.mount.Storage, src.native)
		}
	}
	if err != nil {
		return &data.ContentsError{
			Op:    "rename",
			Path:  src.path,
			Child: dst.path,
			Err:   data.Wrap(data.ErrRenameLeftDuplicate, err),
		}
	}
	return nil
}

// copyCheckpoints copies the checkpoints of a file to its new location, keeping ids.
func (m *Manager) copyCheckpoints(ctx context.Context, src, dst *route) error {
	checkpoints, err := m.listCheckpoints(ctx, src)
	if err != nil {
		return err
	}

	for _, checkpoint := range checkpoints {
		target := checkpointPath(dst.native, checkpoint.ID)
		if err := ensureParents(ctx, dst.mount.Storage, target); err != nil {
			return err
		}
		if _, err := copyFile(ctx, src.mount.Storage, checkpointPath(src.native, checkpoint.ID), dst.mount.Storage, target); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies src to dst. Directories are created first in walk order,
// files are then copied in parallel up to the configured concurrency.
func (m *Manager) copyTree(ctx context.Context, src, dst *route, stat *data.FileStat) ([]*copiedFile, error) {
	if !stat.IsDir() {
		n, err := copyFile(ctx, src.mount.Storage, src.native, dst.mount.Storage, dst.native)
		if err != nil {
			return nil, err
		}
		return []*copiedFile{{src: src.native, dst: dst.native, size: n}}, nil
	}

	var files []*copiedFile
	var walk func(from, to *route) error
	walk = func(from, to *route) error {
		if err := to.mount.Storage.MakeDir(ctx, to.native); err != nil {
			return err
		}

		stats, err := from.mount.Storage.List(ctx, from.native)
		if err != nil {
			return err
		}
		for _, child := range stats {
			if child.IsDir() {
				if err := walk(from.child(child.Name()), to.child(child.Name())); err != nil {
					return err
				}
				continue
			}
			files = append(files, &copiedFile{
				src:  data.JoinPath(from.native, child.Name()),
				dst:  data.JoinPath(to.native, child.Name()),
				size: child.Size,
			})
		}
		return nil
	}
	if err := walk(src, dst); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.options.CopyConcurrency)
	for _, file := range files {
		g.Go(func() error {
			n, err := copyFile(gctx, src.mount.Storage, file.src, dst.mount.Storage, file.dst)
			if err != nil {
				return fmt.Errorf("copy '%s': %w", file.src, err)
			}
			if n != file.size {
				return fmt.Errorf("copy '%s': read %d bytes, expected %d", file.src, n, file.size)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

// verify compares the size of every copied file with its source.
func verify(ctx context.Context, dst *route, copied []*copiedFile) error {
	for _, file := range copied {
		stat, err := dst.mount.Storage.Stat(ctx, file.dst)
		if err != nil {
			return fmt.Errorf("verify '%s': %w", file.dst, err)
		}
		if stat.Size != file.size {
			return fmt.Errorf("verify '%s': size %d, expected %d", file.dst, stat.Size, file.size)
		}
	}
	return nil
}

// removeTree deletes whatever exists at rt, ignoring missing entries.
func (m *Manager) removeTree(ctx context.Context, rt *route) error {
	stat, err := rt.mount.Storage.Stat(ctx, rt.native)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if stat.IsDir() {
		return m.deleteTree(ctx, rt)
	}
	if err := rt.mount.Storage.Remove(ctx, rt.native); err != nil {
		return err
	}
	return m.purgeCheckpoints(ctx, rt.mount.Storage, rt.native)
}

// Copy copies the file or directory at from into the directory toDir under
// the first free name of the form name-Copy1.ext, name-Copy2.ext, ...
func (m *Manager) Copy(ctx context.Context, from, toDir string) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	src, err := m.route(from)
	if err != nil {
		return nil, m.fail("copy", from, err)
	}
	if src.native == "" {
		return nil, m.fail("copy", src.path, fmt.Errorf("%w: cannot copy the root of a mount", data.ErrPermissionDenied))
	}

	stat, err := src.mount.Storage.Stat(ctx, src.native)
	if err != nil {
		return nil, m.fail("copy", src.path, err)
	}

	target, err := m.Get(ctx, toDir, nil)
	if err != nil {
		return nil, m.fail("copy", src.path, err)
	}
	if !target.IsDir() {
		return nil, m.fail("copy", src.path, fmt.Errorf("%w: '%s' is not a directory", data.ErrParentMissing, target.Path))
	}
	if stat.IsDir() && data.HasPrefix(target.Path, src.path) {
		return nil, m.fail("copy", src.path, fmt.Errorf("%w: cannot copy '%s' into itself", data.ErrPermissionDenied, src.path))
	}

	stem, ext := data.SplitExt(data.BaseName(src.path))
	if stat.IsDir() {
		stem, ext = data.BaseName(src.path), ""
	}
	stem = copySuffix.ReplaceAllString(stem, "")

	name, err := m.freeName(ctx, target.Path, stem, ext, "-Copy", 1)
	if err != nil {
		return nil, m.fail("copy", src.path, err)
	}

	dst, err := m.route(data.JoinPath(target.Path, name))
	if err != nil {
		return nil, m.fail("copy", src.path, err)
	}

	if _, err := m.copyTree(ctx, src, dst, stat); err != nil {
		if cerr := m.removeTree(ctx, dst); cerr != nil {
			m.log.Warn("Unable to remove partial copy '%s': %v", dst.path, cerr)
		}
		return nil, m.fail("copy", src.path, err)
	}

	doc, err := m.readDocument(ctx, dst, &GetOptions{})
	if err != nil {
		return nil, m.fail("copy", src.path, err)
	}
	return doc, nil
}
