package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/mwantia/contentfs/data"
)

var (
	// ErrNotDirectory is returned when a path component is a file.
	ErrNotDirectory = fmt.Errorf("%w: not a directory", data.ErrParentMissing)
	// ErrIsDirectory is returned when file content is requested for a directory.
	ErrIsDirectory = fmt.Errorf("%w: is a directory", data.ErrAlreadyExists)
	// ErrNotEmpty is returned when removing a directory that still has children.
	ErrNotEmpty = fmt.Errorf("%w: directory not empty", data.ErrAlreadyExists)
	// ErrTooLarge is returned when content exceeds the backend object size limit.
	ErrTooLarge = fmt.Errorf("%w: object exceeds size limit", data.ErrInvalidContent)
)

// Temporary files of atomic writers are named TempPrefix + id + TempSuffix
// and never listed.
const (
	TempPrefix = ".contentfs-"
	TempSuffix = ".tmp"
)

// TempPattern is the os.CreateTemp pattern for temporary file names.
const TempPattern = TempPrefix + "*" + TempSuffix

func TempName(id string) string {
	return TempPrefix + id + TempSuffix
}

// IsTempName reports whether name is the temporary file of a writer.
func IsTempName(name string) bool {
	return len(name) > len(TempPrefix)+len(TempSuffix) &&
		strings.HasPrefix(name, TempPrefix) &&
		strings.HasSuffix(name, TempSuffix)
}

// Absent translates a Stat failure. A path below a file, or below a
// missing directory, does not exist.
func Absent(err error) error {
	if errors.Is(err, data.ErrParentMissing) {
		return fmt.Errorf("%w: %v", data.ErrNotFound, err)
	}
	return err
}

// Translate maps errors common to every adapter onto the error taxonomy.
// Errors already carrying a taxonomy kind are returned unchanged; protocol
// specific codes are translated by the adapters before falling back here.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if data.KindOf(err) != data.KindUnknown {
		return err
	}
	err = withoutPath(err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return data.Wrap(data.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, syscall.ENOTDIR):
		return data.Wrap(ErrNotDirectory, err)
	case errors.Is(err, syscall.EISDIR):
		return data.Wrap(ErrIsDirectory, err)
	case errors.Is(err, syscall.ENOTEMPTY):
		return data.Wrap(ErrNotEmpty, err)
	case errors.Is(err, syscall.EROFS):
		return data.Wrap(data.ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return data.Wrap(data.ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return data.Wrap(data.ErrAlreadyExists, err)
	case errors.Is(err, fs.ErrPermission):
		return data.Wrap(data.ErrPermissionDenied, err)
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE), errors.Is(err, io.ErrUnexpectedEOF):
		return data.Wrap(data.ErrBackendUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return data.Wrap(data.ErrTimeout, err)
		}
		return data.Wrap(data.ErrBackendUnavailable, err)
	}

	return err
}

// withoutPath drops the host path of *fs.PathError and *os.LinkError so
// that native locations do not surface above the adapter.
func withoutPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return fmt.Errorf("%s: %w", linkErr.Op, linkErr.Err)
	}
	return err
}

// Unavailable marks a failed connectivity test.
func Unavailable(name string, err error) error {
	if errors.Is(err, data.ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", data.ErrBackendUnavailable, name, err)
}
