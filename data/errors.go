package data

import (
	"errors"
	"fmt"
	"sync"
)

// Error taxonomy shared by every adapter and the contents manager.
// Adapters translate their native errors into these sentinels so callers
// only ever have to match against this set.
var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrParentMissing         = errors.New("parent missing")
	ErrNoSuchMount           = errors.New("no such mount")
	ErrPathTraversal         = errors.New("path traversal")
	ErrUnsupportedBackend    = errors.New("unsupported backend")
	ErrBackendUnavailable    = errors.New("backend unavailable")
	ErrTimeout               = errors.New("timeout")
	ErrPartialDelete         = errors.New("partial delete")
	ErrRenameLeftDuplicate   = errors.New("rename left duplicate")
	ErrInvalidNotebookFormat = errors.New("invalid notebook format")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidContent        = errors.New("invalid content")
	ErrUnsupported           = errors.New("operation unsupported")
)

// ErrorKind classifies an error against the taxonomy.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindAlreadyExists
	KindParentMissing
	KindNoSuchMount
	KindPathTraversal
	KindUnsupportedBackend
	KindBackendUnavailable
	KindTimeout
	KindPartialDelete
	KindRenameLeftDuplicate
	KindInvalidNotebookFormat
	KindPermissionDenied
	KindInvalidContent
	KindUnsupported
)

// Order matters: compound outcomes are checked before the causes they may wrap.
var kinds = []struct {
	kind ErrorKind
	err  error
	name string
}{
	{KindPartialDelete, ErrPartialDelete, "PartialDelete"},
	{KindRenameLeftDuplicate, ErrRenameLeftDuplicate, "RenameLeftDuplicate"},
	{KindNotFound, ErrNotFound, "NotFound"},
	{KindAlreadyExists, ErrAlreadyExists, "AlreadyExists"},
	{KindParentMissing, ErrParentMissing, "ParentMissing"},
	{KindNoSuchMount, ErrNoSuchMount, "NoSuchMount"},
	{KindPathTraversal, ErrPathTraversal, "PathTraversal"},
	{KindUnsupportedBackend, ErrUnsupportedBackend, "UnsupportedBackend"},
	{KindBackendUnavailable, ErrBackendUnavailable, "BackendUnavailable"},
	{KindTimeout, ErrTimeout, "Timeout"},
	{KindInvalidNotebookFormat, ErrInvalidNotebookFormat, "InvalidNotebookFormat"},
	{KindPermissionDenied, ErrPermissionDenied, "PermissionDenied"},
	{KindInvalidContent, ErrInvalidContent, "InvalidContent"},
	{KindUnsupported, ErrUnsupported, "Unsupported"},
}

func (k ErrorKind) String() string {
	for _, entry := range kinds {
		if entry.kind == k {
			return entry.name
		}
	}
	return "Unknown"
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kinds {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}

// IsTransient reports whether err is worth retrying for idempotent operations.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindBackendUnavailable, KindTimeout:
		return true
	}
	return false
}

// Wrap attaches sentinel to cause unless cause already carries it.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	if errors.Is(cause, sentinel) {
		return cause
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// ContentsError is the typed failure handed to the notebook server.
// Child names the first failed descendant for partial deletes and the
// destination of a rename whose source could not be removed.
type ContentsError struct {
	Op    string
	Path  string
	Child string
	Err   error
}

// NewError wraps err with the operation and virtual path that failed.
func NewError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var ce *ContentsError
	if errors.As(err, &ce) && ce.Op == op && ce.Path == path {
		return err
	}

	return &ContentsError{Op: op, Path: path, Err: err}
}

func (e *ContentsError) Error() string {
	if e.Child != "" {
		return fmt.Sprintf("contentfs: %s '%s' (at '%s'): %v", e.Op, e.Path, e.Child, e.Err)
	}
	return fmt.Sprintf("contentfs: %s '%s': %v", e.Op, e.Path, e.Err)
}

func (e *ContentsError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy kind of the wrapped error.
func (e *ContentsError) Kind() ErrorKind {
	return KindOf(e.Err)
}

// Errors collects errors from several independent operations.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
