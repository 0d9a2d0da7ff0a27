package data

import (
	"path"
	"time"
)

// DocumentType tags the three kinds of documents the notebook server knows.
type DocumentType string

const (
	TypeFile      DocumentType = "file"
	TypeNotebook  DocumentType = "notebook"
	TypeDirectory DocumentType = "directory"
)

// Format describes how Content is encoded.
type Format string

const (
	FormatNone   Format = ""
	FormatText   Format = "text"
	FormatBase64 Format = "base64"
	FormatJSON   Format = "json"
)

// Document is the content model exchanged with the notebook server.
//
// Content holds a string for text and base64 formats, a *Notebook for the
// json format and []*Document for directory listings. It is nil when the
// content was not requested.
type Document struct {
	Name         string       `json:"name"`
	Path         string       `json:"path"`
	Type         DocumentType `json:"type"`
	Format       Format       `json:"format"`
	Mimetype     string       `json:"mimetype"`
	Content      any          `json:"content"`
	Size         int64        `json:"size"`
	Created      time.Time    `json:"created"`
	LastModified time.Time    `json:"last_modified"`
	Writable     bool         `json:"writable"`
}

// NewTextDocument returns a file model carrying text content.
func NewTextDocument(content string) *Document {
	return &Document{
		Type:    TypeFile,
		Format:  FormatText,
		Content: content,
	}
}

// NewBase64Document returns a file model carrying base64 encoded content.
func NewBase64Document(encoded string) *Document {
	return &Document{
		Type:    TypeFile,
		Format:  FormatBase64,
		Content: encoded,
	}
}

// NewNotebookDocument returns a notebook model.
func NewNotebookDocument(nb *Notebook) *Document {
	return &Document{
		Type:    TypeNotebook,
		Format:  FormatJSON,
		Content: nb,
	}
}

// NewDirectoryDocument returns a directory model.
func NewDirectoryDocument() *Document {
	return &Document{
		Type: TypeDirectory,
	}
}

// IsDir reports whether the document is a directory.
func (d *Document) IsDir() bool {
	return d.Type == TypeDirectory
}

// Text returns the string content, if any.
func (d *Document) Text() (string, bool) {
	s, ok := d.Content.(string)
	return s, ok
}

// Notebook returns the notebook content, if any.
func (d *Document) Notebook() (*Notebook, bool) {
	nb, ok := d.Content.(*Notebook)
	return nb, ok && nb != nil
}

// Children returns the listing of a directory document.
func (d *Document) Children() []*Document {
	children, _ := d.Content.([]*Document)
	return children
}

// Child looks up a direct child of a directory listing by name.
func (d *Document) Child(name string) (*Document, bool) {
	for _, child := range d.Children() {
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}

// Dir returns the virtual parent directory of the document.
func (d *Document) Dir() string {
	dir := path.Dir(d.Path)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
