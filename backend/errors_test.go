package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/mwantia/contentfs/data"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want data.ErrorKind
	}{
		{"deadline", fmt.Errorf("stat: %w", context.DeadlineExceeded), data.KindTimeout},
		{"not exist", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, data.KindNotFound},
		{"exist", os.ErrExist, data.KindAlreadyExists},
		{"permission", &fs.PathError{Op: "open", Path: "x", Err: syscall.EACCES}, data.KindPermissionDenied},
		{"not dir", &fs.PathError{Op: "mkdir", Path: "x", Err: syscall.ENOTDIR}, data.KindParentMissing},
		{"not empty", &fs.PathError{Op: "remove", Path: "x", Err: syscall.ENOTEMPTY}, data.KindAlreadyExists},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), data.KindBackendUnavailable},
		{"kept", data.ErrInvalidContent, data.KindInvalidContent},
		{"unknown", errors.New("boom"), data.KindUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(tst *testing.T) {
			got := Translate(c.err)
			if kind := data.KindOf(got); kind != c.want {
				tst.Errorf("Expected %s, got %s (%v)", c.want, kind, got)
			}
			cause := c.err
			var pathErr *fs.PathError
			if errors.As(c.err, &pathErr) {
				cause = pathErr.Err
			}
			if !errors.Is(got, cause) && c.want != data.KindUnknown {
				tst.Errorf("Translated error lost its cause: %v", got)
			}
		})
	}

	if Translate(nil) != nil {
		t.Errorf("Expected nil for nil error")
	}
}

func TestTranslateDropsHostPath(t *testing.T) {
	errs := []error{
		&fs.PathError{Op: "stat", Path: "/srv/notebooks/notes.txt/child", Err: syscall.ENOTDIR},
		fmt.Errorf("read: %w", &fs.PathError{Op: "open", Path: "/srv/notebooks/x", Err: fs.ErrNotExist}),
		&os.LinkError{Op: "rename", Old: "/srv/notebooks/a", New: "/srv/notebooks/b", Err: syscall.EACCES},
	}

	for _, err := range errs {
		got := Translate(err)
		if strings.Contains(got.Error(), "/srv/notebooks") {
			t.Errorf("Expected host path to be dropped, got: %v", got)
		}
		if data.KindOf(got) == data.KindUnknown {
			t.Errorf("Expected a taxonomy kind, got: %v", got)
		}
	}
}

func TestAbsent(t *testing.T) {
	if err := Absent(Translate(&fs.PathError{Op: "stat", Path: "x", Err: syscall.ENOTDIR})); data.KindOf(err) != data.KindNotFound {
		t.Errorf("Expected NotFound below a file, got: %v", err)
	}
	if err := Absent(data.ErrBackendUnavailable); !errors.Is(err, data.ErrBackendUnavailable) {
		t.Errorf("Expected other errors unchanged, got: %v", err)
	}
	if Absent(nil) != nil {
		t.Errorf("Expected nil for nil error")
	}
}

func TestTempNames(t *testing.T) {
	cases := map[string]bool{
		TempName("0123"):         true,
		".contentfs-42.tmp":      true,
		".contentfs-notes.ipynb": false,
		".contentfs-":            false,
		".contentfs-.tmp":        false,
		"notes.tmp":              false,
	}

	for name, want := range cases {
		if got := IsTempName(name); got != want {
			t.Errorf("IsTempName(%q) = %v, expected %v", name, got, want)
		}
	}
}
