package contentfs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// Get returns the document at path. Directories requested with content
// carry their children.
func (m *Manager) Get(ctx context.Context, path string, opts *GetOptions) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	if opts == nil {
		opts = &GetOptions{}
	}

	rt, err := m.route(path)
	if err != nil {
		if doc, ok := m.virtualDirectory(path, err, opts); ok {
			return doc, nil
		}
		return nil, m.fail("get", path, err)
	}

	doc, err := m.readDocument(ctx, rt, opts)
	if err != nil {
		return nil, m.fail("get", rt.path, err)
	}
	return doc, nil
}

// List returns the children of the directory at path sorted by name.
func (m *Manager) List(ctx context.Context, path string) ([]*data.Document, error) {
	doc, err := m.Get(ctx, path, &GetOptions{Content: true, Type: data.TypeDirectory})
	if err != nil {
		return nil, err
	}
	return doc.Children(), nil
}

// Save stores doc at path. Missing ancestors are created as directories.
func (m *Manager) Save(ctx context.Context, doc *data.Document, path string) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	if doc == nil {
		return nil, m.fail("save", path, fmt.Errorf("%w: document is missing", data.ErrInvalidContent))
	}

	rt, err := m.route(path)
	if err != nil {
		return nil, m.fail("save", path, err)
	}

	if doc.IsDir() {
		saved, err := m.makeDirectory(ctx, rt)
		if err != nil {
			return nil, m.fail("save", rt.path, err)
		}
		return saved, nil
	}

	if rt.native == "" {
		return nil, m.fail("save", rt.path, fmt.Errorf("%w: mount point is a directory", data.ErrAlreadyExists))
	}

	raw, err := decodeDocument(doc)
	if err != nil {
		return nil, m.fail("save", rt.path, err)
	}

	storage := rt.mount.Storage
	if err := ensureParents(ctx, storage, rt.native); err != nil {
		return nil, m.fail("save", rt.path, err)
	}
	if err := writeAll(ctx, storage, rt.native, raw); err != nil {
		return nil, m.fail("save", rt.path, err)
	}

	saved, err := m.readDocument(ctx, rt, &GetOptions{Type: typeFor(doc)})
	if err != nil {
		return nil, m.fail("save", rt.path, err)
	}
	return saved, nil
}

// MakeDirectory creates the directory at path including missing ancestors.
// An existing directory is returned as is.
func (m *Manager) MakeDirectory(ctx context.Context, path string) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	rt, err := m.route(path)
	if err != nil {
		return nil, m.fail("mkdir", path, err)
	}

	doc, err := m.makeDirectory(ctx, rt)
	if err != nil {
		return nil, m.fail("mkdir", rt.path, err)
	}
	return doc, nil
}

func (m *Manager) makeDirectory(ctx context.Context, rt *route) (*data.Document, error) {
	storage := rt.mount.Storage

	stat, err := storage.Stat(ctx, rt.native)
	switch {
	case err == nil && stat.IsDir():
		return newDocument(rt.mount, rt.path, stat), nil
	case err == nil:
		return nil, fmt.Errorf("%w: '%s' is a file", data.ErrAlreadyExists, rt.path)
	case !isNotFound(err):
		return nil, err
	}

	if err := ensureParents(ctx, storage, rt.native); err != nil {
		return nil, err
	}
	if err := storage.MakeDir(ctx, rt.native); err != nil {
		return nil, err
	}

	return m.readDocument(ctx, rt, &GetOptions{})
}

// Delete removes a file or a directory tree including its checkpoints.
// Deletion stops at the first failure, reported as data.ErrPartialDelete
// naming the child that could not be removed.
func (m *Manager) Delete(ctx context.Context, path string) error {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	rt, err := m.route(path)
	if err != nil {
		return m.fail("delete", path, err)
	}
	if rt.native == "" {
		return m.fail("delete", rt.path, fmt.Errorf("%w: cannot delete the root of a mount", data.ErrPermissionDenied))
	}
	if nested, ok := m.containsMountPoint(rt.path, rt.mount); ok {
		return m.fail("delete", rt.path, fmt.Errorf("%w: contains mount point '/%s'", data.ErrPermissionDenied, nested))
	}

	stat, err := rt.mount.Storage.Stat(ctx, rt.native)
	if err != nil {
		return m.fail("delete", rt.path, err)
	}

	if stat.IsDir() {
		return m.fail("delete", rt.path, m.deleteTree(ctx, rt))
	}

	if err := rt.mount.Storage.Remove(ctx, rt.native); err != nil {
		return m.fail("delete", rt.path, err)
	}
	if err := m.purgeCheckpoints(ctx, rt.mount.Storage, rt.native); err != nil {
		return m.fail("delete", rt.path, partialDelete(rt.path, checkpointDir(rt.path), err))
	}
	return nil
}

// deleteTree removes a directory depth first.
func (m *Manager) deleteTree(ctx context.Context, rt *route) error {
	removed := 0

	var walk func(dir *route) error
	walk = func(dir *route) error {
		stats, err := dir.mount.Storage.List(ctx, dir.native)
		if err != nil {
			return partialDelete(rt.path, dir.path, err)
		}

		for _, stat := range stats {
			child := dir.child(stat.Name())
			if stat.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}

			if err := child.mount.Storage.Remove(ctx, child.native); err != nil && !isNotFound(err) {
				return partialDelete(rt.path, child.path, err)
			}
			removed++
		}

		if err := dir.mount.Storage.Remove(ctx, dir.native); err != nil && !isNotFound(err) {
			if dir == rt && removed == 0 {
				return err
			}
			return partialDelete(rt.path, dir.path, err)
		}
		removed++
		return nil
	}

	return walk(rt)
}

func partialDelete(path, child string, err error) error {
	return &data.ContentsError{
		Op:    "delete",
		Path:  path,
		Child: child,
		Err:   data.Wrap(data.ErrPartialDelete, err),
	}
}

// Exists reports whether a file or directory exists at path.
func (m *Manager) Exists(ctx context.Context, path string) (bool, error) {
	doc, err := m.stat(ctx, path)
	return doc != nil, err
}

// FileExists reports whether a file or notebook exists at path.
func (m *Manager) FileExists(ctx context.Context, path string) (bool, error) {
	doc, err := m.stat(ctx, path)
	return doc != nil && !doc.IsDir(), err
}

// DirExists reports whether a directory exists at path.
func (m *Manager) DirExists(ctx context.Context, path string) (bool, error) {
	doc, err := m.stat(ctx, path)
	return doc != nil && doc.IsDir(), err
}

// stat returns nil without error when nothing exists at path. Other
// failures are returned as Get reported them.
func (m *Manager) stat(ctx context.Context, path string) (*data.Document, error) {
	doc, err := m.Get(ctx, path, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// NewUntitled creates an empty document with the first free name of the
// form Untitled.ext, Untitled1.ext, ... or Untitled Folder, Untitled Folder 1, ...
func (m *Manager) NewUntitled(ctx context.Context, dir string, typ data.DocumentType, ext string) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	var doc *data.Document
	stem, insert := "Untitled", ""
	switch typ {
	case data.TypeDirectory:
		doc = data.NewDirectoryDocument()
		stem, insert, ext = "Untitled Folder", " ", ""
	case data.TypeNotebook:
		doc = data.NewNotebookDocument(data.NewNotebook())
		ext = data.NotebookExtension
	case data.TypeFile, "":
		doc = data.NewTextDocument("")
	default:
		return nil, m.fail("new_untitled", dir, fmt.Errorf("%w: unknown document type '%s'", data.ErrInvalidContent, typ))
	}

	name, err := m.freeName(ctx, dir, stem, ext, insert, 0)
	if err != nil {
		return nil, m.fail("new_untitled", dir, err)
	}

	return m.Save(ctx, doc, data.JoinPath(dir, name))
}

var copySuffix = regexp.MustCompile(`-Copy\d*$`)

// freeName returns the first name in dir that is not taken, counting from start.
// A zero counter yields the bare stem.
func (m *Manager) freeName(ctx context.Context, dir, stem, ext, insert string, start int) (string, error) {
	for i := start; ; i++ {
		name := stem + ext
		if i > 0 {
			name = stem + insert + strconv.Itoa(i) + ext
		}

		exists, err := m.Exists(ctx, data.JoinPath(dir, name))
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

// CreateCheckpoint snapshots the current content of the document at path.
func (m *Manager) CreateCheckpoint(ctx context.Context, path string) (*data.Checkpoint, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	rt, err := m.route(path)
	if err != nil {
		return nil, m.fail("create_checkpoint", path, err)
	}

	checkpoint, err := m.createCheckpoint(ctx, rt)
	if err != nil {
		return nil, m.fail("create_checkpoint", rt.path, err)
	}
	return checkpoint, nil
}

// ListCheckpoints returns the checkpoints of the document at path, most recent first.
func (m *Manager) ListCheckpoints(ctx context.Context, path string) ([]*data.Checkpoint, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	rt, err := m.route(path)
	if err != nil {
		return nil, m.fail("list_checkpoints", path, err)
	}

	checkpoints, err := m.listCheckpoints(ctx, rt)
	if err != nil {
		return nil, m.fail("list_checkpoints", rt.path, err)
	}
	return checkpoints, nil
}

// RestoreCheckpoint replaces the document at path with the checkpoint content.
func (m *Manager) RestoreCheckpoint(ctx context.Context, path, id string) (*data.Document, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	rt, err := m.route(path)
	if err != nil {
		return nil, m.fail("restore_checkpoint", path, err)
	}

	if err := m.restoreCheckpoint(ctx, rt, id); err != nil {
		return nil, m.fail("restore_checkpoint", rt.path, err)
	}

	doc, err := m.readDocument(ctx, rt, &GetOptions{})
	if err != nil {
		return nil, m.fail("restore_checkpoint", rt.path, err)
	}
	return doc, nil
}

func (m *Manager) DeleteCheckpoint(ctx context.Context, path, id string) error {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	rt, err := m.route(path)
	if err != nil {
		return m.fail("delete_checkpoint", path, err)
	}

	return m.fail("delete_checkpoint", rt.path, m.deleteCheckpoint(ctx, rt, id))
}

// route resolves path and hides checkpoint storage when the mount asks for it.
func (m *Manager) route(path string) (*route, error) {
	rt, err := m.resolve(path)
	if err != nil {
		return nil, err
	}
	if rt.mount.Options.HideCheckpoints && isCheckpointPath(rt.native) {
		return nil, fmt.Errorf("%w: '%s'", data.ErrNotFound, rt.path)
	}
	return rt, nil
}

// virtualDirectory answers reads of namespace directories that no mount
// serves but that contain nested mount points.
func (m *Manager) virtualDirectory(path string, err error, opts *GetOptions) (*data.Document, bool) {
	if !errors.Is(err, data.ErrNoSuchMount) || opts.Type == data.TypeFile || opts.Type == data.TypeNotebook {
		return nil, false
	}

	cleaned, cerr := CleanPath(path)
	if cerr != nil {
		return nil, false
	}
	points := m.mountPoints(cleaned)
	if len(points) == 0 {
		return nil, false
	}

	doc := &data.Document{
		Name: data.BaseName(cleaned),
		Path: cleaned,
		Type: data.TypeDirectory,
	}
	if opts.Content {
		children := make([]*data.Document, 0, len(points))
		for name, mnt := range points {
			children = append(children, mountPointDocument(mnt, data.JoinPath(cleaned, name)))
		}
		sortDocuments(children)
		doc.Format = data.FormatJSON
		doc.Content = children
	}
	return doc, true
}

func typeFor(doc *data.Document) data.DocumentType {
	if doc.Type == data.TypeNotebook {
		return data.TypeNotebook
	}
	return ""
}

// ensureParents creates the missing ancestors of native. An ancestor that
// is a file fails with data.ErrParentMissing.
func ensureParents(ctx context.Context, storage backend.Storage, native string) error {
	parent := data.ParentPath(native)
	if parent == "" {
		return nil
	}

	stat, err := storage.Stat(ctx, parent)
	switch {
	case err == nil && stat.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: '%s' is a file", data.ErrParentMissing, parent)
	case !isNotFound(err):
		return err
	}

	if err := ensureParents(ctx, storage, parent); err != nil {
		return err
	}
	return storage.MakeDir(ctx, parent)
}
