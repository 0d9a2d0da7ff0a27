package contentfs

import (
	"context"
	"errors"

	"github.com/mwantia/contentfs/data"
)

// fail wraps err with the failed operation and virtual path and logs it.
func (m *Manager) fail(op, path string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) && data.KindOf(err) == data.KindUnknown {
		err = data.Wrap(data.ErrTimeout, err)
	}
	err = data.NewError(op, path, err)

	switch kind := data.KindOf(err); kind {
	case data.KindPartialDelete, data.KindRenameLeftDuplicate:
		m.log.Warn("%s '%s' left storage inconsistent: %v", op, path, err)
	default:
		m.log.Debug("%s '%s' failed with %s: %v", op, path, kind, err)
	}

	return err
}

// isNotFound reports whether err is a not found failure.
func isNotFound(err error) bool {
	return errors.Is(err, data.ErrNotFound)
}
