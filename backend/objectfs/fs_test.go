package objectfs_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/ephemeral"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

func put(t *testing.T, store objectfs.Store, key, content string) {
	t.Helper()
	if err := store.Put(t.Context(), key, strings.NewReader(content), int64(len(content)), ""); err != nil {
		t.Fatalf("Put '%s' failed: %v", key, err)
	}
}

func TestCollapse(t *testing.T) {
	objects := []*objectfs.Object{
		{Key: "dir/"},
		{Key: "dir/a.txt"},
		{Key: "dir/sub/"},
		{Key: "dir/sub/b.txt"},
		{Key: "dir/sub/deeper/c.txt"},
		{Key: "dir/z/x"},
	}

	got := objectfs.Collapse("dir/", objects)

	var keys []string
	for _, obj := range got {
		keys = append(keys, obj.Key)
	}
	want := "dir/a.txt,dir/sub/,dir/z/"
	if strings.Join(keys, ",") != want {
		t.Errorf("Expected %s, got %s", want, strings.Join(keys, ","))
	}
}

func TestFileSystem_ImplicitAndMarkerDirectories(t *testing.T) {
	ctx := t.Context()
	store := ephemeral.NewEphemeralBackend()
	fs := objectfs.New(store)

	// Implicit directory created by a deep key without markers.
	put(t, store, "implicit/nested/file.txt", "x")

	stat, err := fs.Stat(ctx, "implicit")
	if err != nil {
		t.Fatalf("Stat implicit failed: %v", err)
	}
	if !stat.IsDir() {
		t.Errorf("Expected implicit directory")
	}

	if err := fs.MakeDir(ctx, "explicit"); err != nil {
		t.Fatalf("MakeDir failed: %v", err)
	}
	if err := fs.MakeDir(ctx, "explicit"); err != nil {
		t.Fatalf("MakeDir on existing directory failed: %v", err)
	}
	if _, err := store.Head(ctx, "explicit/"); err != nil {
		t.Fatalf("Expected marker object: %v", err)
	}

	entries, err := fs.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "explicit" || entries[1].Key != "implicit" {
		t.Fatalf("Unexpected root listing: %+v", entries)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			t.Errorf("Expected '%s' to be a directory", entry.Key)
		}
	}

	if err := fs.MakeDir(ctx, "missing/child"); !errors.Is(err, data.ErrParentMissing) {
		t.Errorf("Expected ParentMissing, got %v", err)
	}
}

func TestFileSystem_WriteIsAtomic(t *testing.T) {
	ctx := t.Context()
	fs := ephemeral.New()

	w, err := fs.OpenWrite(ctx, "note.txt")
	if err != nil {
		t.Fatalf("OpenWrite failed: %v", err)
	}
	if _, err := w.Write([]byte("draft")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if exists, _ := fs.Exists(ctx, "note.txt"); exists {
		t.Fatalf("Content visible before Close")
	}
	if err := backend.AbortWriter(w); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if exists, _ := fs.Exists(ctx, "note.txt"); exists {
		t.Fatalf("Aborted write became visible")
	}

	w, _ = fs.OpenWrite(ctx, "note.txt")
	w.Write([]byte("final"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := fs.OpenRead(ctx, "note.txt")
	if err != nil {
		t.Fatalf("OpenRead failed: %v", err)
	}
	defer r.Close()

	got, _ := io.ReadAll(r)
	if !bytes.Equal(got, []byte("final")) {
		t.Errorf("Expected 'final', got %q", got)
	}
}

func TestFileSystem_RemoveAndRename(t *testing.T) {
	ctx := t.Context()
	store := ephemeral.NewEphemeralBackend()
	fs := objectfs.New(store)

	fs.MakeDir(ctx, "dir")
	put(t, store, "dir/a.txt", "a")

	if err := fs.Remove(ctx, "dir"); !errors.Is(err, backend.ErrNotEmpty) {
		t.Errorf("Expected ErrNotEmpty, got %v", err)
	}
	if err := fs.Remove(ctx, "dir/a.txt"); err != nil {
		t.Fatalf("Remove file failed: %v", err)
	}
	if err := fs.Remove(ctx, "dir"); err != nil {
		t.Fatalf("Remove empty directory failed: %v", err)
	}
	if exists, _ := fs.Exists(ctx, "dir"); exists {
		t.Errorf("Directory still exists after remove")
	}

	if err := fs.Rename(ctx, "a", "b"); !errors.Is(err, data.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if fs.GetCapabilities().Contains(backend.CapabilityRename) {
		t.Errorf("Object stores must not report rename")
	}
}

func TestFileSystem_FileShadowsDirectory(t *testing.T) {
	ctx := t.Context()
	store := ephemeral.NewEphemeralBackend()
	fs := objectfs.New(store)

	// Foreign buckets may hold both a key and keys below it.
	put(t, store, "a", "file")
	put(t, store, "a/b.txt", "nested")

	stat, err := fs.Stat(ctx, "a")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	entries, err := fs.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "a" {
		t.Fatalf("Expected a single entry 'a', got %+v", entries)
	}
	if entries[0].IsDir() != stat.IsDir() {
		t.Errorf("Stat and List disagree: Stat dir=%v, List dir=%v", stat.IsDir(), entries[0].IsDir())
	}
	if stat.IsDir() {
		t.Errorf("Expected the file to win")
	}

	// Keys below stay reachable by path
	if exists, err := fs.Exists(ctx, "a/b.txt"); err != nil || !exists {
		t.Errorf("Expected 'a/b.txt' to exist: %v", err)
	}
}
