package contentfs_test

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mwantia/contentfs"
	"github.com/mwantia/contentfs/backend/direct"
	"github.com/mwantia/contentfs/backend/ephemeral"
	"github.com/mwantia/contentfs/data"
	"github.com/mwantia/contentfs/log"
)

// TestMountFactory mounts the resources of a scenario and returns the
// virtual directory the scenario works in.
type TestMountFactory func(tst *testing.T, m *contentfs.Manager) (string, error)

func GetTestMountFactories() map[string]TestMountFactory {
	return map[string]TestMountFactory{
		"ephemeral": func(tst *testing.T, m *contentfs.Manager) (string, error) {
			_, err := m.MountStorage(tst.Context(), "", ephemeral.New())
			return "", err
		},
		"direct": func(tst *testing.T, m *contentfs.Manager) (string, error) {
			storage, err := direct.NewDirectBackend(tst.TempDir(), false)
			if err != nil {
				return "", err
			}
			_, err = m.MountStorage(tst.Context(), "", storage)
			return "", err
		},
		"sqlite": func(tst *testing.T, m *contentfs.Manager) (string, error) {
			_, err := m.Mount(tst.Context(), "", "sqlite://"+filepath.Join(tst.TempDir(), "contents.db"))
			return "", err
		},
		"two-mount": func(tst *testing.T, m *contentfs.Manager) (string, error) {
			if _, err := m.Mount(tst.Context(), "", "mem://"); err != nil {
				return "", err
			}
			_, err := m.Mount(tst.Context(), "/data", "file://"+tst.TempDir())
			return "data", err
		},
	}
}

func newManager(tst *testing.T, opts ...contentfs.ManagerOption) *contentfs.Manager {
	tst.Helper()

	opts = append([]contentfs.ManagerOption{contentfs.WithLogger(log.Discard())}, opts...)
	m, err := contentfs.New(opts...)
	if err != nil {
		tst.Fatalf("Manager init failed: %v", err)
	}
	tst.Cleanup(func() {
		m.Shutdown(context.Background())
	})

	return m
}

func setup(tst *testing.T, factory TestMountFactory) (*contentfs.Manager, string) {
	tst.Helper()

	m := newManager(tst)
	base, err := factory(tst, m)
	if err != nil {
		tst.Fatalf("Failed to mount: %v", err)
	}
	return m, base
}

func saveText(tst *testing.T, m *contentfs.Manager, path, content string) *data.Document {
	tst.Helper()

	doc, err := m.Save(tst.Context(), data.NewTextDocument(content), path)
	if err != nil {
		tst.Fatalf("Save '%s' failed: %v", path, err)
	}
	return doc
}

func readText(tst *testing.T, m *contentfs.Manager, path string) string {
	tst.Helper()

	doc, err := m.Get(tst.Context(), path, &contentfs.GetOptions{Content: true, Format: data.FormatText})
	if err != nil {
		tst.Fatalf("Get '%s' failed: %v", path, err)
	}
	text, ok := doc.Text()
	if !ok {
		tst.Fatalf("Expected text content for '%s', got %T", path, doc.Content)
	}
	return text
}

func TestAllMounts_DocumentRoundTrip(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			path := data.JoinPath(base, "work/nested/notes.txt")
			saved := saveText(tst, m, path, "hello world")
			if saved.Type != data.TypeFile || saved.Name != "notes.txt" || saved.Path != path {
				tst.Errorf("Unexpected saved model: %+v", saved)
			}
			if saved.Content != nil {
				tst.Errorf("Expected save to return no content")
			}

			doc, err := m.Get(ctx, path, &contentfs.GetOptions{Content: true})
			if err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			if doc.Format != data.FormatText || doc.Content != "hello world" {
				tst.Errorf("Expected text 'hello world', got %s %v", doc.Format, doc.Content)
			}
			if doc.Mimetype != string(data.ContentTypeTextPlain) || doc.Size != 11 {
				tst.Errorf("Unexpected metadata: mimetype=%s size=%d", doc.Mimetype, doc.Size)
			}

			// Parents were created on save
			exists, err := m.DirExists(ctx, data.JoinPath(base, "work/nested"))
			if err != nil || !exists {
				tst.Errorf("Expected parent directory to exist: %v", err)
			}

			// Overwrite replaces the content
			saveText(tst, m, path, "second")
			if got := readText(tst, m, path); got != "second" {
				tst.Errorf("Expected 'second', got '%s'", got)
			}
		})
	}
}

func TestAllMounts_BinaryContent(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			raw := []byte{0x00, 0xff, 0x10, 0x80, 0xfe}
			path := data.JoinPath(base, "blob.bin")
			if _, err := m.Save(ctx, data.NewBase64Document(base64.StdEncoding.EncodeToString(raw)), path); err != nil {
				tst.Fatalf("Save failed: %v", err)
			}

			doc, err := m.Get(ctx, path, &contentfs.GetOptions{Content: true})
			if err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			if doc.Format != data.FormatBase64 {
				tst.Fatalf("Expected base64 format, got %s", doc.Format)
			}
			decoded, _ := base64.StdEncoding.DecodeString(doc.Content.(string))
			if string(decoded) != string(raw) {
				tst.Errorf("Expected %v, got %v", raw, decoded)
			}

			_, err = m.Get(ctx, path, &contentfs.GetOptions{Content: true, Format: data.FormatText})
			if data.KindOf(err) != data.KindInvalidContent {
				tst.Errorf("Expected InvalidContent for text on binary, got: %v", err)
			}

			_, err = m.Save(ctx, data.NewBase64Document("not base64!"), path)
			if data.KindOf(err) != data.KindInvalidContent {
				tst.Errorf("Expected InvalidContent for malformed base64, got: %v", err)
			}
		})
	}
}

func TestAllMounts_Notebooks(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			nb := data.NewNotebook()
			nb.Cells = append(nb.Cells, map[string]any{
				"cell_type": "markdown",
				"metadata":  map[string]any{},
				"source":    "# Title",
			})

			path := data.JoinPath(base, "analysis.ipynb")
			saved, err := m.Save(ctx, data.NewNotebookDocument(nb), path)
			if err != nil {
				tst.Fatalf("Save failed: %v", err)
			}
			if saved.Type != data.TypeNotebook || saved.Mimetype != string(data.ContentTypeNotebook) {
				tst.Errorf("Unexpected saved model: %+v", saved)
			}

			doc, err := m.Get(ctx, path, &contentfs.GetOptions{Content: true})
			if err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			got, ok := doc.Notebook()
			if !ok {
				tst.Fatalf("Expected notebook content, got %T", doc.Content)
			}
			if len(got.Cells) != 1 || got.NBFormat != 4 {
				tst.Errorf("Unexpected notebook: %+v", got)
			}

			// Broken notebooks are stored as files but cannot be read as notebooks
			broken := data.JoinPath(base, "broken.ipynb")
			if _, err := m.Save(ctx, data.NewTextDocument(`{"cells": []}`), broken); err != nil {
				tst.Fatalf("Save failed: %v", err)
			}
			_, err = m.Get(ctx, broken, &contentfs.GetOptions{Content: true})
			if !errors.Is(err, data.ErrInvalidNotebookFormat) {
				tst.Errorf("Expected ErrInvalidNotebookFormat, got: %v", err)
			}
			if _, err := m.Get(ctx, broken, &contentfs.GetOptions{Content: true, Type: data.TypeFile}); err != nil {
				tst.Errorf("Expected broken notebook to be readable as file: %v", err)
			}
		})
	}
}

func TestAllMounts_DirectoryOperations(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			dir := data.JoinPath(base, "project")
			doc, err := m.MakeDirectory(ctx, dir)
			if err != nil {
				tst.Fatalf("MakeDirectory failed: %v", err)
			}
			if !doc.IsDir() {
				tst.Errorf("Expected directory, got %s", doc.Type)
			}

			// Existing directories are returned as is
			if _, err := m.MakeDirectory(ctx, dir); err != nil {
				tst.Errorf("MakeDirectory on existing directory failed: %v", err)
			}

			saveText(tst, m, data.JoinPath(dir, "b.txt"), "b")
			saveText(tst, m, data.JoinPath(dir, "a.txt"), "a")
			if _, err := m.MakeDirectory(ctx, data.JoinPath(dir, "sub")); err != nil {
				tst.Fatalf("MakeDirectory failed: %v", err)
			}

			_, err = m.MakeDirectory(ctx, data.JoinPath(dir, "a.txt"))
			if !errors.Is(err, data.ErrAlreadyExists) {
				tst.Errorf("Expected ErrAlreadyExists for file, got: %v", err)
			}

			children, err := m.List(ctx, dir)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			names := []string{}
			for _, child := range children {
				names = append(names, child.Name)
			}
			if len(names) != 3 || names[0] != "a.txt" || names[1] != "b.txt" || names[2] != "sub" {
				tst.Errorf("Expected [a.txt b.txt sub], got %v", names)
			}

			// A file ancestor cannot become a directory
			_, err = m.Save(ctx, data.NewTextDocument("x"), data.JoinPath(dir, "a.txt/child.txt"))
			if !errors.Is(err, data.ErrParentMissing) {
				tst.Errorf("Expected ErrParentMissing, got: %v", err)
			}

			// Nothing exists below a file
			below := data.JoinPath(dir, "a.txt/child.txt")
			_, err = m.Get(ctx, below, nil)
			if data.KindOf(err) != data.KindNotFound {
				tst.Errorf("Expected NotFound below a file, got: %v", err)
			}
			if err != nil && strings.Count(err.Error(), "contentfs:") != 1 {
				tst.Errorf("Expected a single error prefix, got: %v", err)
			}
			for op, exists := range map[string]func(context.Context, string) (bool, error){
				"Exists":     m.Exists,
				"FileExists": m.FileExists,
				"DirExists":  m.DirExists,
			} {
				if found, err := exists(ctx, below); err != nil || found {
					tst.Errorf("%s below a file: expected false, got %v (err: %v)", op, found, err)
				}
			}

			if err := m.Delete(ctx, dir); err != nil {
				tst.Fatalf("Delete failed: %v", err)
			}
			exists, err := m.Exists(ctx, dir)
			if err != nil || exists {
				tst.Errorf("Expected directory to be deleted: exists=%v err=%v", exists, err)
			}

			_, err = m.Get(ctx, dir, nil)
			if data.KindOf(err) != data.KindNotFound {
				tst.Errorf("Expected NotFound, got: %v", err)
			}
		})
	}
}

func TestAllMounts_NewUntitledAndCopy(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			expected := []string{"Untitled.txt", "Untitled1.txt", "Untitled2.txt"}
			for _, want := range expected {
				doc, err := m.NewUntitled(ctx, base, data.TypeFile, ".txt")
				if err != nil {
					tst.Fatalf("NewUntitled failed: %v", err)
				}
				if doc.Name != want {
					tst.Errorf("Expected '%s', got '%s'", want, doc.Name)
				}
			}

			nb, err := m.NewUntitled(ctx, base, data.TypeNotebook, "")
			if err != nil {
				tst.Fatalf("NewUntitled notebook failed: %v", err)
			}
			if nb.Name != "Untitled.ipynb" || nb.Type != data.TypeNotebook {
				tst.Errorf("Unexpected notebook: %+v", nb)
			}

			for _, want := range []string{"Untitled Folder", "Untitled Folder 1"} {
				folder, err := m.NewUntitled(ctx, base, data.TypeDirectory, "")
				if err != nil {
					tst.Fatalf("NewUntitled folder failed: %v", err)
				}
				if folder.Name != want {
					tst.Errorf("Expected '%s', got '%s'", want, folder.Name)
				}
			}

			source := data.JoinPath(base, "report.txt")
			saveText(tst, m, source, "content")
			for _, want := range []string{"report-Copy1.txt", "report-Copy2.txt"} {
				doc, err := m.Copy(ctx, source, base)
				if err != nil {
					tst.Fatalf("Copy failed: %v", err)
				}
				if doc.Name != want {
					tst.Errorf("Expected '%s', got '%s'", want, doc.Name)
				}
			}

			// Copying a copy does not stack suffixes
			doc, err := m.Copy(ctx, data.JoinPath(base, "report-Copy1.txt"), data.JoinPath(base, "Untitled Folder"))
			if err != nil {
				tst.Fatalf("Copy into folder failed: %v", err)
			}
			if doc.Path != data.JoinPath(base, "Untitled Folder/report-Copy1.txt") {
				tst.Errorf("Unexpected copy path '%s'", doc.Path)
			}
			if got := readText(tst, m, doc.Path); got != "content" {
				tst.Errorf("Expected copied content, got '%s'", got)
			}
		})
	}
}

func TestAllMounts_Rename(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			source := data.JoinPath(base, "draft.txt")
			saveText(tst, m, source, "v1")
			checkpoint, err := m.CreateCheckpoint(ctx, source)
			if err != nil {
				tst.Fatalf("CreateCheckpoint failed: %v", err)
			}

			target := data.JoinPath(base, "final/draft.txt")
			doc, err := m.Rename(ctx, source, target)
			if err != nil {
				tst.Fatalf("Rename failed: %v", err)
			}
			if doc.Path != target {
				tst.Errorf("Expected path '%s', got '%s'", target, doc.Path)
			}

			if exists, _ := m.Exists(ctx, source); exists {
				tst.Errorf("Expected source to be gone")
			}
			if got := readText(tst, m, target); got != "v1" {
				tst.Errorf("Expected 'v1', got '%s'", got)
			}

			checkpoints, err := m.ListCheckpoints(ctx, target)
			if err != nil {
				tst.Fatalf("ListCheckpoints failed: %v", err)
			}
			if len(checkpoints) != 1 || checkpoints[0].ID != checkpoint.ID {
				tst.Errorf("Expected checkpoint %s to move, got %v", checkpoint.ID, checkpoints)
			}
			if old, _ := m.ListCheckpoints(ctx, source); len(old) != 0 {
				tst.Errorf("Expected no checkpoints at the old path, got %d", len(old))
			}

			saveText(tst, m, source, "other")
			_, err = m.Rename(ctx, source, target)
			if !errors.Is(err, data.ErrAlreadyExists) {
				tst.Errorf("Expected ErrAlreadyExists, got: %v", err)
			}

			// Directories move with their content
			if _, err := m.Rename(ctx, data.JoinPath(base, "final"), data.JoinPath(base, "archive")); err != nil {
				tst.Fatalf("Rename directory failed: %v", err)
			}
			if got := readText(tst, m, data.JoinPath(base, "archive/draft.txt")); got != "v1" {
				tst.Errorf("Expected 'v1' after directory rename, got '%s'", got)
			}
		})
	}
}

func TestAllMounts_Checkpoints(t *testing.T) {
	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()

			path := data.JoinPath(base, "notes.txt")
			var created []*data.Checkpoint
			for _, content := range []string{"one", "two", "three"} {
				saveText(tst, m, path, content)
				checkpoint, err := m.CreateCheckpoint(ctx, path)
				if err != nil {
					tst.Fatalf("CreateCheckpoint failed: %v", err)
				}
				created = append(created, checkpoint)
			}

			checkpoints, err := m.ListCheckpoints(ctx, path)
			if err != nil {
				tst.Fatalf("ListCheckpoints failed: %v", err)
			}
			if len(checkpoints) != 3 {
				tst.Fatalf("Expected 3 checkpoints, got %d", len(checkpoints))
			}
			for i, checkpoint := range checkpoints {
				if checkpoint.ID != created[2-i].ID {
					tst.Errorf("Expected most recent first at %d: %s != %s", i, checkpoint.ID, created[2-i].ID)
				}
			}

			// Checkpoint storage never shows up in listings
			children, err := m.List(ctx, base)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			for _, child := range children {
				if child.Name == ".ipynb_checkpoints" {
					tst.Errorf("Checkpoint directory is visible in listing")
				}
			}

			doc, err := m.RestoreCheckpoint(ctx, path, created[0].ID)
			if err != nil {
				tst.Fatalf("RestoreCheckpoint failed: %v", err)
			}
			if doc.Path != path {
				tst.Errorf("Expected restored path '%s', got '%s'", path, doc.Path)
			}
			if got := readText(tst, m, path); got != "one" {
				tst.Errorf("Expected 'one' after restore, got '%s'", got)
			}

			if err := m.DeleteCheckpoint(ctx, path, created[1].ID); err != nil {
				tst.Fatalf("DeleteCheckpoint failed: %v", err)
			}
			if err := m.DeleteCheckpoint(ctx, path, created[1].ID); !errors.Is(err, data.ErrNotFound) {
				tst.Errorf("Expected ErrNotFound for deleted checkpoint, got: %v", err)
			}
			if _, err := m.RestoreCheckpoint(ctx, path, "unknown"); !errors.Is(err, data.ErrNotFound) {
				tst.Errorf("Expected ErrNotFound for unknown checkpoint, got: %v", err)
			}

			// Deleting the document purges its checkpoints
			if err := m.Delete(ctx, path); err != nil {
				tst.Fatalf("Delete failed: %v", err)
			}
			saveText(tst, m, path, "fresh")
			checkpoints, err = m.ListCheckpoints(ctx, path)
			if err != nil {
				tst.Fatalf("ListCheckpoints failed: %v", err)
			}
			if len(checkpoints) != 0 {
				tst.Errorf("Expected checkpoints to be purged, got %d", len(checkpoints))
			}
		})
	}
}

func TestMaxCheckpoints(t *testing.T) {
	m := newManager(t, contentfs.WithMaxCheckpoints(2))
	if _, err := m.Mount(t.Context(), "", "mem://"); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	saveText(t, m, "notes.txt", "content")
	var last *data.Checkpoint
	for range 4 {
		checkpoint, err := m.CreateCheckpoint(t.Context(), "notes.txt")
		if err != nil {
			t.Fatalf("CreateCheckpoint failed: %v", err)
		}
		last = checkpoint
	}

	checkpoints, err := m.ListCheckpoints(t.Context(), "notes.txt")
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(checkpoints) != 2 || checkpoints[0].ID != last.ID {
		t.Errorf("Expected the 2 newest checkpoints, got %v", checkpoints)
	}
}

func TestAllMounts_ConcurrentSaves(t *testing.T) {
	const writers = 16
	const size = 64 * 1024

	for name, factory := range GetTestMountFactories() {
		t.Run(name, func(tst *testing.T) {
			m, base := setup(tst, factory)
			ctx := tst.Context()
			path := data.JoinPath(base, "same.txt")

			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					content := strings.Repeat(string(rune('a'+i)), size)
					if _, err := m.Save(ctx, data.NewTextDocument(content), path); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				tst.Errorf("Concurrent save failed: %v", err)
			}

			// The last writer wins with all of its bytes
			got := readText(tst, m, path)
			if len(got) != size {
				tst.Fatalf("Expected %d bytes, got %d", size, len(got))
			}
			if strings.Count(got, got[:1]) != size {
				tst.Errorf("Expected content of a single writer, got interleaved bytes")
			}
		})
	}
}
