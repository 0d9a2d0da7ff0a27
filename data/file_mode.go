package data

// FileMode carries the type and permission bits reported by a backend.
type FileMode uint32

const (
	ModeDir  FileMode = 1 << 31 // d: directory
	ModePerm FileMode = 0777    // Unix permission bits
)

// IsDir reports whether m describes a directory.
func (m FileMode) IsDir() bool {
	return m&ModeDir != 0
}

// IsRegular reports whether m describes a regular file.
func (m FileMode) IsRegular() bool {
	return m&ModeDir == 0
}

// Perm returns the Unix permission bits in m.
func (m FileMode) Perm() FileMode {
	return m & ModePerm
}

// Writable reports whether the owner write bit is set.
func (m FileMode) Writable() bool {
	return m&0200 != 0
}

// String returns the mode in ls -l form, e.g. "drwxr-xr-x".
func (m FileMode) String() string {
	var buf [10]byte
	buf[0] = '-'
	if m.IsDir() {
		buf[0] = 'd'
	}

	const rwx = "rwxrwxrwx"
	for i, c := range rwx {
		if m&(1<<uint(9-1-i)) != 0 {
			buf[i+1] = byte(c)
		} else {
			buf[i+1] = '-'
		}
	}

	return string(buf[:])
}
