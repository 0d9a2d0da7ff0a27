package smb

import (
	"errors"

	"github.com/hirochachacha/go-smb2"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// NT status codes translated by this backend.
const (
	statusNoSuchFile          uint32 = 0xC000000F
	statusAccessDenied        uint32 = 0xC0000022
	statusObjectNameNotFound  uint32 = 0xC0000034
	statusObjectNameCollision uint32 = 0xC0000035
	statusObjectPathNotFound  uint32 = 0xC000003A
	statusLogonFailure        uint32 = 0xC000006D
	statusFileIsADirectory    uint32 = 0xC00000BA
	statusBadNetworkName      uint32 = 0xC00000CC
	statusDirectoryNotEmpty   uint32 = 0xC0000101
	statusNotADirectory       uint32 = 0xC0000103
	statusNetworkNameDeleted  uint32 = 0xC00000C9
	statusIOTimeout           uint32 = 0xC00000B5
	statusSharingViolation    uint32 = 0xC0000043
)

func translate(err error) error {
	if err == nil {
		return nil
	}

	var respErr *smb2.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.Code {
		case statusNoSuchFile, statusObjectNameNotFound:
			return data.Wrap(data.ErrNotFound, err)
		case statusObjectPathNotFound:
			return data.Wrap(data.ErrParentMissing, err)
		case statusObjectNameCollision:
			return data.Wrap(data.ErrAlreadyExists, err)
		case statusAccessDenied, statusLogonFailure:
			return data.Wrap(data.ErrPermissionDenied, err)
		case statusFileIsADirectory:
			return data.Wrap(backend.ErrIsDirectory, err)
		case statusNotADirectory:
			return data.Wrap(backend.ErrNotDirectory, err)
		case statusDirectoryNotEmpty:
			return data.Wrap(backend.ErrNotEmpty, err)
		case statusBadNetworkName, statusNetworkNameDeleted, statusSharingViolation:
			return data.Wrap(data.ErrBackendUnavailable, err)
		case statusIOTimeout:
			return data.Wrap(data.ErrTimeout, err)
		}
	}

	return backend.Translate(err)
}

func isCollision(err error) bool {
	var respErr *smb2.ResponseError
	return errors.As(err, &respErr) && respErr.Code == statusObjectNameCollision
}
