package contentfs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
	"github.com/mwantia/contentfs/mount"
)

// GetOptions selects what Get returns. The zero value returns the model
// without content.
type GetOptions struct {
	Content bool
	// Type forces file or notebook handling, empty infers it from the path
	Type data.DocumentType
	// Format forces text or base64 for files, empty infers it from the bytes
	Format data.Format
}

// newDocument builds the content-less model of a stored entry.
func newDocument(mnt *mount.Mount, virtual string, stat *data.FileStat) *data.Document {
	doc := &data.Document{
		Name:         data.BaseName(virtual),
		Path:         virtual,
		Size:         stat.Size,
		Created:      stat.CreateTime,
		LastModified: stat.ModifyTime,
		Writable:     !mnt.ReadOnly() && stat.Mode.Writable(),
	}
	if doc.Created.IsZero() {
		doc.Created = doc.LastModified
	}

	switch {
	case stat.IsDir():
		doc.Type = data.TypeDirectory
		doc.Size = 0
	case data.IsNotebookPath(virtual):
		doc.Type = data.TypeNotebook
		doc.Mimetype = string(data.ContentTypeNotebook)
	default:
		doc.Type = data.TypeFile
		doc.Mimetype = stat.ContentType
		if doc.Mimetype == "" {
			doc.Mimetype = string(data.GetMIMEType(virtual))
		}
	}

	return doc
}

// mountPointDocument is the directory entry a nested mount contributes to its parent listing.
func mountPointDocument(mnt *mount.Mount, virtual string) *data.Document {
	return &data.Document{
		Name:         data.BaseName(virtual),
		Path:         virtual,
		Type:         data.TypeDirectory,
		Created:      mnt.MountTime,
		LastModified: mnt.MountTime,
		Writable:     !mnt.ReadOnly(),
	}
}

// readDocument returns the model of rt, with content when requested.
func (m *Manager) readDocument(ctx context.Context, rt *route, opts *GetOptions) (*data.Document, error) {
	stat, err := rt.mount.Storage.Stat(ctx, rt.native)
	if err != nil {
		return nil, err
	}

	doc := newDocument(rt.mount, rt.path, stat)
	if err := applyType(doc, opts.Type); err != nil {
		return nil, err
	}
	if !opts.Content {
		return doc, nil
	}

	switch doc.Type {
	case data.TypeDirectory:
		children, err := m.listDocuments(ctx, rt)
		if err != nil {
			return nil, err
		}
		doc.Format = data.FormatJSON
		doc.Content = children
		return doc, nil

	case data.TypeNotebook:
		raw, err := readAll(ctx, rt.mount.Storage, rt.native)
		if err != nil {
			return nil, err
		}
		nb, err := data.ParseNotebook(raw)
		if err != nil {
			return nil, err
		}
		doc.Format = data.FormatJSON
		doc.Content = nb
		doc.Size = int64(len(raw))
		return doc, nil
	}

	raw, err := readAll(ctx, rt.mount.Storage, rt.native)
	if err != nil {
		return nil, err
	}
	if err := encodeFile(doc, raw, opts.Format); err != nil {
		return nil, err
	}
	return doc, nil
}

// applyType honours an explicitly requested type. Files and notebooks can be
// read as each other, directories only as directories.
func applyType(doc *data.Document, requested data.DocumentType) error {
	switch requested {
	case "":
		return nil
	case data.TypeFile, data.TypeNotebook:
		if doc.IsDir() {
			return fmt.Errorf("%w: '%s' is a directory", data.ErrInvalidContent, doc.Path)
		}
		doc.Type = requested
		if requested == data.TypeNotebook {
			doc.Mimetype = string(data.ContentTypeNotebook)
		}
		return nil
	case data.TypeDirectory:
		if !doc.IsDir() {
			return fmt.Errorf("%w: '%s' is not a directory", data.ErrInvalidContent, doc.Path)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown document type '%s'", data.ErrInvalidContent, requested)
}

// encodeFile stores raw in doc using the requested format or the one that fits the bytes.
func encodeFile(doc *data.Document, raw []byte, format data.Format) error {
	contentType := data.DetectContentType(doc.Path, raw)
	doc.Mimetype = string(contentType)
	doc.Size = int64(len(raw))

	if format == data.FormatNone {
		format = data.FormatBase64
		if utf8.Valid(raw) && contentType.IsTextual() {
			format = data.FormatText
		}
	}

	switch format {
	case data.FormatText:
		if !utf8.Valid(raw) {
			return fmt.Errorf("%w: '%s' is not UTF-8 encoded text", data.ErrInvalidContent, doc.Path)
		}
		doc.Content = string(raw)
	case data.FormatBase64:
		doc.Content = base64.StdEncoding.EncodeToString(raw)
	default:
		return fmt.Errorf("%w: format '%s' is not supported for files", data.ErrInvalidContent, format)
	}

	doc.Format = format
	return nil
}

// decodeDocument returns the bytes a saved document is stored as.
func decodeDocument(doc *data.Document) ([]byte, error) {
	switch doc.Type {
	case data.TypeNotebook:
		nb, err := toNotebook(doc.Content)
		if err != nil {
			return nil, err
		}
		return nb.Marshal()

	case data.TypeFile, "":
		content, ok := doc.Text()
		if !ok {
			if doc.Content == nil {
				return []byte{}, nil
			}
			return nil, fmt.Errorf("%w: file content must be a string, got %T", data.ErrInvalidContent, doc.Content)
		}

		switch doc.Format {
		case data.FormatText, data.FormatNone:
			return []byte(content), nil
		case data.FormatBase64:
			raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
			if err != nil {
				return nil, fmt.Errorf("%w: malformed base64: %v", data.ErrInvalidContent, err)
			}
			return raw, nil
		}
		return nil, fmt.Errorf("%w: format '%s' is not supported for files", data.ErrInvalidContent, doc.Format)
	}

	return nil, fmt.Errorf("%w: unknown document type '%s'", data.ErrInvalidContent, doc.Type)
}

// toNotebook accepts a parsed notebook or its JSON in any shape a caller may hand over.
func toNotebook(content any) (*data.Notebook, error) {
	switch c := content.(type) {
	case *data.Notebook:
		if c == nil {
			break
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	case string:
		return data.ParseNotebook([]byte(c))
	case []byte:
		return data.ParseNotebook(c)
	case json.RawMessage:
		return data.ParseNotebook(c)
	case nil:
	default:
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", data.ErrInvalidNotebookFormat, err)
		}
		return data.ParseNotebook(raw)
	}
	return nil, fmt.Errorf("%w: notebook content is missing", data.ErrInvalidNotebookFormat)
}

// listDocuments returns the children of a directory sorted by name, merged
// with the nested mount points below it.
func (m *Manager) listDocuments(ctx context.Context, rt *route) ([]*data.Document, error) {
	stats, err := rt.mount.Storage.List(ctx, rt.native)
	if err != nil {
		return nil, err
	}

	docs := make([]*data.Document, 0, len(stats))
	index := make(map[string]int, len(stats))
	for _, stat := range stats {
		name := stat.Name()
		if rt.mount.Options.HideCheckpoints && name == checkpointDirName {
			continue
		}

		index[name] = len(docs)
		docs = append(docs, newDocument(rt.mount, data.JoinPath(rt.path, name), stat))
	}

	for name, mnt := range m.mountPoints(rt.path) {
		doc := mountPointDocument(mnt, data.JoinPath(rt.path, name))
		// A mount point shadows whatever the parent resource stores under its name
		if i, exists := index[name]; exists {
			docs[i] = doc
			continue
		}
		docs = append(docs, doc)
	}

	sortDocuments(docs)
	return docs, nil
}

func sortDocuments(docs []*data.Document) {
	slices.SortFunc(docs, func(a, b *data.Document) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func readAll(ctx context.Context, storage backend.Storage, native string) ([]byte, error) {
	r, err := storage.OpenRead(ctx, native)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, backend.Translate(err)
	}
	return raw, nil
}

// writeAll replaces the content at native. The previous content survives a failed write.
func writeAll(ctx context.Context, storage backend.Storage, native string, raw []byte) error {
	w, err := storage.OpenWrite(ctx, native)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, bytes.NewReader(raw)); err != nil {
		backend.AbortWriter(w)
		return backend.Translate(err)
	}
	return backend.Translate(w.Close())
}
