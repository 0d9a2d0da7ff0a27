package data

import (
	"path"
	"strings"
	"time"
)

// FileStat is the adapter-level view of one stored entry.
// Key is relative to the adapter root and never carries a trailing slash.
type FileStat struct {
	Key  string   `json:"key"`
	Mode FileMode `json:"mode"`
	Size int64    `json:"size"`

	ModifyTime time.Time `json:"modify_time"`
	CreateTime time.Time `json:"create_time"`

	ContentType string `json:"content_type"`
	ETag        string `json:"etag"`
}

// NewDirectoryStat returns a synthesized directory entry.
func NewDirectoryStat(key string, modTime time.Time) *FileStat {
	return &FileStat{
		Key:        strings.TrimSuffix(key, "/"),
		Mode:       ModeDir | 0755,
		ModifyTime: modTime,
		CreateTime: modTime,
	}
}

// NewFileStat returns a regular file entry.
func NewFileStat(key string, size int64, modTime time.Time) *FileStat {
	return &FileStat{
		Key:         key,
		Mode:        0644,
		Size:        size,
		ModifyTime:  modTime,
		CreateTime:  modTime,
		ContentType: string(GetMIMEType(key)),
	}
}

// IsDir reports whether the entry is a directory.
func (fs *FileStat) IsDir() bool {
	return fs.Mode.IsDir()
}

// Name returns the last path element of the key.
func (fs *FileStat) Name() string {
	if fs.Key == "" {
		return ""
	}
	return path.Base(fs.Key)
}

// Clone creates a copy of the stat.
func (fs *FileStat) Clone() *FileStat {
	clone := *fs
	return &clone
}

// CloneWithKey returns a copy with a different key.
func (fs *FileStat) CloneWithKey(key string) *FileStat {
	clone := fs.Clone()
	clone.Key = key

	return clone
}
