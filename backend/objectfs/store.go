package objectfs

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/mwantia/contentfs/backend"
)

// DirectoryContentType is set on zero-length directory marker objects.
const DirectoryContentType = "application/x-directory"

// Object describes one key of a flat store. Keys ending in "/" are either
// directory markers or common prefixes returned by a shallow scan.
type Object struct {
	Key         string
	Size        int64
	ModifyTime  time.Time
	ContentType string
	ETag        string
}

// IsPrefix reports whether the object stands for a directory.
func (o *Object) IsPrefix() bool {
	return strings.HasSuffix(o.Key, "/")
}

// Store is a flat key/value object store. Keys never start with "/".
type Store interface {
	backend.Backend

	// Get returns the content of key or data.ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	// Put replaces key with exactly size bytes read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Head returns the object metadata or data.ErrNotFound.
	Head(ctx context.Context, key string) (*Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Copy duplicates src onto dst inside the store.
	Copy(ctx context.Context, src, dst string) error
	// Scan returns the keys below prefix sorted by key. A shallow scan may
	// either collapse deeper keys into common prefixes or return them as is.
	Scan(ctx context.Context, prefix string, recursive bool) ([]*Object, error)
}

// Collapse turns a recursive listing of prefix into a shallow one by
// replacing every deeper key with the common prefix of its first segment.
func Collapse(prefix string, objects []*Object) []*Object {
	result := make([]*Object, 0, len(objects))
	seen := make(map[string]struct{})

	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, prefix)
		if rel == "" {
			continue
		}

		if idx := strings.Index(rel, "/"); idx >= 0 && idx < len(rel)-1 {
			common := prefix + rel[:idx+1]
			if _, exists := seen[common]; exists {
				continue
			}
			seen[common] = struct{}{}
			result = append(result, &Object{Key: common, ContentType: DirectoryContentType})
			continue
		}

		if _, exists := seen[obj.Key]; exists {
			continue
		}
		seen[obj.Key] = struct{}{}
		result = append(result, obj)
	}

	slices.SortFunc(result, func(a, b *Object) int {
		return strings.Compare(a.Key, b.Key)
	})

	return result
}
