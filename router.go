package contentfs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mwantia/contentfs/data"
	"github.com/mwantia/contentfs/mount"
)

// route is a resolved virtual path.
type route struct {
	mount *mount.Mount
	// path is the cleaned virtual path
	path string
	// native is path relative to the mount
	native string
}

func (r *route) child(name string) *route {
	return &route{
		mount:  r.mount,
		path:   data.JoinPath(r.path, name),
		native: data.JoinPath(r.native, name),
	}
}

// sortMounts orders mounts longest prefix first, ties by name.
func sortMounts(mounts []*mount.Mount) {
	slices.SortFunc(mounts, func(a, b *mount.Mount) int {
		if len(a.Path) != len(b.Path) {
			return len(b.Path) - len(a.Path)
		}
		return strings.Compare(a.Path, b.Path)
	})
}

func (m *Manager) snapshot() []*mount.Mount {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.mounts
}

// resolve finds the mount owning the virtual path. The first mount whose
// prefix equals the path or is one of its ancestors wins; the root mount
// matches everything.
func (m *Manager) resolve(p string) (*route, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	mounts := m.snapshot()
	if len(mounts) == 0 {
		return nil, fmt.Errorf("%w: no mounts configured", data.ErrNoSuchMount)
	}

	for _, mnt := range mounts {
		if !mnt.Matches(cleaned) {
			continue
		}

		native := mnt.Native(cleaned)
		if err := checkNative(native); err != nil {
			return nil, err
		}

		return &route{
			mount:  mnt,
			path:   cleaned,
			native: native,
		}, nil
	}

	return nil, fmt.Errorf("%w: no mount for path '/%s'", data.ErrNoSuchMount, cleaned)
}

// mountPoints returns the names of the entries that nested mounts below
// dir contribute to its listing, mapped to the mount that causes them.
func (m *Manager) mountPoints(dir string) map[string]*mount.Mount {
	points := make(map[string]*mount.Mount)
	for _, mnt := range m.snapshot() {
		if mnt.Path == dir || !data.HasPrefix(mnt.Path, dir) {
			continue
		}

		rel := data.ToRelativePath(mnt.Path, dir)
		name, _, _ := strings.Cut(rel, "/")
		// Shallow mounts come last, so the mount closest to dir is kept
		points[name] = mnt
	}
	return points
}

// containsMountPoint reports whether a nested mount lies at or below the virtual path.
func (m *Manager) containsMountPoint(p string, owner *mount.Mount) (string, bool) {
	for _, mnt := range m.snapshot() {
		if mnt != owner && data.HasPrefix(mnt.Path, p) {
			return mnt.Path, true
		}
	}
	return "", false
}
