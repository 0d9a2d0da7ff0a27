package contentfs_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/contentfs"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/ephemeral"
	"github.com/mwantia/contentfs/config"
	"github.com/mwantia/contentfs/data"
	"github.com/mwantia/contentfs/log"
)

// faultStorage fails Remove for a single native path.
type faultStorage struct {
	backend.Storage
	failRemove string
}

func (fs *faultStorage) Remove(ctx context.Context, path string) error {
	if path == fs.failRemove {
		return fmt.Errorf("%w: injected failure for '%s'", data.ErrBackendUnavailable, path)
	}
	return fs.Storage.Remove(ctx, path)
}

// slowStorage blocks Stat until the context expires.
type slowStorage struct {
	backend.Storage
}

func (ss *slowStorage) Stat(ctx context.Context, path string) (*data.FileStat, error) {
	<-ctx.Done()
	return nil, backend.Translate(ctx.Err())
}

func TestPartialDelete(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	storage := &faultStorage{Storage: ephemeral.New(), failRemove: "tree/b.txt"}
	if _, err := m.MountStorage(ctx, "", storage); err != nil {
		t.Fatalf("MountStorage failed: %v", err)
	}

	for _, path := range []string{"tree/a.txt", "tree/b.txt", "tree/sub/c.txt"} {
		saveText(t, m, path, path)
	}

	err := m.Delete(ctx, "tree")
	if !errors.Is(err, data.ErrPartialDelete) {
		t.Fatalf("Expected ErrPartialDelete, got: %v", err)
	}
	if data.KindOf(err) != data.KindPartialDelete {
		t.Errorf("Expected kind PartialDelete, got %s", data.KindOf(err))
	}

	var ce *data.ContentsError
	if !errors.As(err, &ce) || ce.Child != "tree/b.txt" || ce.Path != "tree" {
		t.Errorf("Expected failed child 'tree/b.txt', got: %+v", ce)
	}

	// Deletion stopped at the failure
	if exists, _ := m.Exists(ctx, "tree/a.txt"); exists {
		t.Errorf("Expected 'tree/a.txt' to be deleted")
	}
	if exists, _ := m.Exists(ctx, "tree/b.txt"); !exists {
		t.Errorf("Expected 'tree/b.txt' to remain")
	}
	if exists, _ := m.Exists(ctx, "tree/sub/c.txt"); !exists {
		t.Errorf("Expected 'tree/sub/c.txt' to remain")
	}
}

func TestRenameLeftDuplicate(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	source := &faultStorage{Storage: ephemeral.New(), failRemove: "draft.txt"}
	if _, err := m.MountStorage(ctx, "", source); err != nil {
		t.Fatalf("MountStorage failed: %v", err)
	}
	if _, err := m.MountStorage(ctx, "archive", ephemeral.New()); err != nil {
		t.Fatalf("MountStorage failed: %v", err)
	}

	saveText(t, m, "draft.txt", "content")

	_, err := m.Rename(ctx, "draft.txt", "archive/draft.txt")
	if !errors.Is(err, data.ErrRenameLeftDuplicate) {
		t.Fatalf("Expected ErrRenameLeftDuplicate, got: %v", err)
	}

	var ce *data.ContentsError
	if !errors.As(err, &ce) || ce.Path != "draft.txt" || ce.Child != "archive/draft.txt" {
		t.Errorf("Expected both paths in error, got: %+v", ce)
	}

	for _, path := range []string{"draft.txt", "archive/draft.txt"} {
		if got := readText(t, m, path); got != "content" {
			t.Errorf("Expected '%s' to hold the content, got '%s'", path, got)
		}
	}
}

func TestCrossMountRenameMovesCheckpoints(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	if _, err := m.Mount(ctx, "", "mem://"); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if _, err := m.Mount(ctx, "disk", "file://"+t.TempDir()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	saveText(t, m, "nb.txt", "v1")
	checkpoint, err := m.CreateCheckpoint(ctx, "nb.txt")
	if err != nil {
		t.Fatalf("CreateCheckpoint failed: %v", err)
	}

	if _, err := m.Rename(ctx, "nb.txt", "disk/nb.txt"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	checkpoints, err := m.ListCheckpoints(ctx, "disk/nb.txt")
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(checkpoints) != 1 || checkpoints[0].ID != checkpoint.ID {
		t.Errorf("Expected checkpoint %s on the new resource, got %v", checkpoint.ID, checkpoints)
	}
	if exists, _ := m.Exists(ctx, "nb.txt"); exists {
		t.Errorf("Expected source to be removed")
	}
}

func TestOperationTimeout(t *testing.T) {
	m := newManager(t, contentfs.WithOperationTimeout(20*time.Millisecond))

	if _, err := m.MountStorage(t.Context(), "", &slowStorage{Storage: ephemeral.New()}); err != nil {
		t.Fatalf("MountStorage failed: %v", err)
	}

	_, err := m.Get(t.Context(), "notes.txt", nil)
	if data.KindOf(err) != data.KindTimeout {
		t.Fatalf("Expected Timeout, got: %v", err)
	}
	if !data.IsTransient(err) {
		t.Errorf("Expected timeout to be transient")
	}
}

func TestReadOnlyMount(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	if _, err := m.Mount(ctx, "", "mem://?readonly=true"); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	_, err := m.Save(ctx, data.NewTextDocument("x"), "notes.txt")
	if !errors.Is(err, data.ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied, got: %v", err)
	}

	doc, err := m.Get(ctx, "", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Writable {
		t.Errorf("Expected read-only root to be reported as not writable")
	}
}

func TestMountErrors(t *testing.T) {
	m := newManager(t)
	ctx := t.Context()

	if _, err := m.Mount(ctx, "", "ftp://example.com"); !errors.Is(err, data.ErrUnsupportedBackend) {
		t.Errorf("Expected ErrUnsupportedBackend, got: %v", err)
	}
	if _, err := m.Mount(ctx, "", "file://"+filepath.Join(t.TempDir(), "missing")); !errors.Is(err, data.ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got: %v", err)
	}
	if len(m.Mounts()) != 0 {
		t.Errorf("Expected failed mounts to leave no trace, got %+v", m.Mounts())
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Logging: log.LoggerConfig{Level: "ERROR"},
		Manager: config.ManagerConfig{
			OperationTimeout: time.Second,
			CopyConcurrency:  2,
		},
		Mounts: []config.MountConfig{
			{Prefix: "", Address: "mem://"},
			{Prefix: "disk", Address: "file://" + t.TempDir(), Retries: 2},
			{Prefix: "shared", Address: "mem://", ReadOnly: true},
		},
	}

	m, err := contentfs.NewFromConfig(t.Context(), cfg, contentfs.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer m.Shutdown(context.Background())

	if len(m.Mounts()) != 3 {
		t.Fatalf("Expected 3 mounts, got %d", len(m.Mounts()))
	}

	saveText(t, m, "disk/hello.txt", "hello")
	if got := readText(t, m, "disk/hello.txt"); got != "hello" {
		t.Errorf("Expected 'hello', got '%s'", got)
	}

	if _, err := m.Save(t.Context(), data.NewTextDocument("x"), "shared/x.txt"); !errors.Is(err, data.ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied on read-only mount, got: %v", err)
	}

	cfg.Mounts = append(cfg.Mounts, config.MountConfig{Prefix: "bad", Address: "nope://"})
	if _, err := contentfs.NewFromConfig(t.Context(), cfg, contentfs.WithLogger(log.Discard())); !errors.Is(err, data.ErrUnsupportedBackend) {
		t.Errorf("Expected ErrUnsupportedBackend, got: %v", err)
	}
}
