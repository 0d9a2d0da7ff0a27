package data

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type ContentType string

const (
	ContentTypeTextPlain         ContentType = "text/plain"
	ContentTypeTextMarkdown      ContentType = "text/markdown"
	ContentTypeTextHTML          ContentType = "text/html"
	ContentTypeTextCSS           ContentType = "text/css"
	ContentTypeTextJavaScript    ContentType = "text/javascript"
	ContentTypeTextCSV           ContentType = "text/csv"
	ContentTypeTextPython        ContentType = "text/x-python"
	ContentTypeTextYAML          ContentType = "application/yaml"
	ContentTypeImageJPEG         ContentType = "image/jpeg"
	ContentTypeImagePNG          ContentType = "image/png"
	ContentTypeImageGIF          ContentType = "image/gif"
	ContentTypeImageSVGXML       ContentType = "image/svg+xml"
	ContentTypeApplicationPDF    ContentType = "application/pdf"
	ContentTypeApplicationZip    ContentType = "application/zip"
	ContentTypeApplicationGZip   ContentType = "application/gzip"
	ContentTypeApplicationJson   ContentType = "application/json"
	ContentTypeApplicationXML    ContentType = "application/xml"
	ContentTypeApplicationStream ContentType = "application/octet-stream"
	ContentTypeNotebook          ContentType = "application/x-ipynb+json"
	ContentTypeDirectory         ContentType = "application/x-directory"
)

// NotebookExtension marks documents that are parsed as notebooks.
const NotebookExtension = ".ipynb"

// ExtensionToMIME maps file extensions to MIME types
var ExtensionToMIME = map[string]ContentType{
	".txt":            ContentTypeTextPlain,
	".md":             ContentTypeTextMarkdown,
	".html":           ContentTypeTextHTML,
	".css":            ContentTypeTextCSS,
	".js":             ContentTypeTextJavaScript,
	".csv":            ContentTypeTextCSV,
	".py":             ContentTypeTextPython,
	".yaml":           ContentTypeTextYAML,
	".yml":            ContentTypeTextYAML,
	".jpg":            ContentTypeImageJPEG,
	".jpeg":           ContentTypeImageJPEG,
	".png":            ContentTypeImagePNG,
	".gif":            ContentTypeImageGIF,
	".svg":            ContentTypeImageSVGXML,
	".pdf":            ContentTypeApplicationPDF,
	".zip":            ContentTypeApplicationZip,
	".gz":             ContentTypeApplicationGZip,
	".json":           ContentTypeApplicationJson,
	".xml":            ContentTypeApplicationXML,
	NotebookExtension: ContentTypeNotebook,
}

// GetMIMEType returns the MIME type for a file extension
func GetMIMEType(path string) ContentType {
	ext := strings.ToLower(filepath.Ext(path))

	if mimeType, exists := ExtensionToMIME[ext]; exists {
		return mimeType
	}

	return ContentTypeApplicationStream
}

// DetectContentType prefers the extension table and falls back to sniffing
// the leading bytes of the content.
func DetectContentType(path string, head []byte) ContentType {
	if ct := GetMIMEType(path); ct != ContentTypeApplicationStream {
		return ct
	}
	if len(head) == 0 {
		return ContentTypeTextPlain
	}

	detected := mimetype.Detect(head)
	mediaType, _, _ := strings.Cut(detected.String(), ";")

	return ContentType(mediaType)
}

// IsTextual reports whether content of this type can be presented as text.
func (ct ContentType) IsTextual() bool {
	switch {
	case strings.HasPrefix(string(ct), "text/"):
		return true
	case ct == ContentTypeApplicationJson, ct == ContentTypeApplicationXML,
		ct == ContentTypeTextYAML, ct == ContentTypeImageSVGXML, ct == ContentTypeNotebook:
		return true
	}

	for mt := mimetype.Lookup(string(ct)); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}

	return false
}

// IsNotebookPath reports whether the path names a notebook document.
func IsNotebookPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), NotebookExtension)
}
