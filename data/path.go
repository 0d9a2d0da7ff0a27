package data

import (
	"path"
	"strings"
)

// ToRelativePath removes the prefix from p.
// Returns the relative path after the prefix without leading slashes.
func ToRelativePath(p, prefix string) string {
	if prefix == "" {
		return p
	}

	if p == prefix {
		return ""
	}

	relPath := strings.TrimPrefix(p, prefix)
	return strings.TrimPrefix(relPath, "/")
}

// HasPrefix checks if p equals prefix or lies below it.
// Both paths should be cleaned before calling.
func HasPrefix(p, prefix string) bool {
	// Root matches everything
	if prefix == "" {
		return true
	}

	if p == prefix {
		return true
	}

	return strings.HasPrefix(p, prefix+"/")
}

// JoinPath joins relative path segments, ignoring empty ones.
func JoinPath(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for _, elem := range elems {
		elem = strings.Trim(elem, "/")
		if elem != "" {
			parts = append(parts, elem)
		}
	}
	return strings.Join(parts, "/")
}

// ParentPath returns the parent of a relative path, "" for top level entries.
func ParentPath(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// BaseName returns the last element of a relative path.
func BaseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// SplitExt splits a file name into its stem and extension.
// Dot files keep their leading dot in the stem.
func SplitExt(name string) (string, string) {
	ext := path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
