package data

import "testing"

func TestDetectContentType(t *testing.T) {
	cases := []struct {
		path string
		head []byte
		want ContentType
	}{
		{"notes.md", []byte("# hi"), ContentTypeTextMarkdown},
		{"book.IPYNB", nil, ContentTypeNotebook},
		{"noext", []byte("plain words"), ContentTypeTextPlain},
		{"empty", nil, ContentTypeTextPlain},
		{"image", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ContentTypeImagePNG},
	}

	for _, c := range cases {
		if got := DetectContentType(c.path, c.head); got != c.want {
			t.Errorf("DetectContentType(%q) = %s, expected %s", c.path, got, c.want)
		}
	}
}

func TestContentType_IsTextual(t *testing.T) {
	textual := []ContentType{ContentTypeTextPlain, ContentTypeTextPython, ContentTypeApplicationJson, ContentTypeNotebook}
	for _, ct := range textual {
		if !ct.IsTextual() {
			t.Errorf("Expected %s to be textual", ct)
		}
	}

	binary := []ContentType{ContentTypeImagePNG, ContentTypeApplicationZip, ContentTypeApplicationStream}
	for _, ct := range binary {
		if ct.IsTextual() {
			t.Errorf("Expected %s not to be textual", ct)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	if !HasPrefix("data/a", "data") || HasPrefix("database", "data") || !HasPrefix("x", "") {
		t.Errorf("HasPrefix misbehaves")
	}
	if got := ToRelativePath("data/a/b", "data"); got != "a/b" {
		t.Errorf("ToRelativePath = %q", got)
	}
	if got := JoinPath("", "a/", "/b", ""); got != "a/b" {
		t.Errorf("JoinPath = %q", got)
	}
	if got := ParentPath("a"); got != "" {
		t.Errorf("ParentPath = %q", got)
	}
	if stem, ext := SplitExt("Untitled.ipynb"); stem != "Untitled" || ext != ".ipynb" {
		t.Errorf("SplitExt = %q %q", stem, ext)
	}
	if stem, ext := SplitExt(".env"); stem != ".env" || ext != "" {
		t.Errorf("SplitExt dotfile = %q %q", stem, ext)
	}
}
