package data

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	partial := &ContentsError{Op: "delete", Path: "a", Child: "a/b", Err: Wrap(ErrPartialDelete, ErrPermissionDenied)}

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"sentinel", ErrNotFound, KindNotFound},
		{"wrapped", fmt.Errorf("stat: %w", ErrTimeout), KindTimeout},
		{"compound first", partial, KindPartialDelete},
		{"duplicate", Wrap(ErrRenameLeftDuplicate, ErrBackendUnavailable), KindRenameLeftDuplicate},
	}

	for _, c := range cases {
		t.Run(c.name, func(tst *testing.T) {
			if got := KindOf(c.err); got != c.want {
				tst.Errorf("Expected %s, got %s", c.want, got)
			}
		})
	}

	if !errors.Is(partial, ErrPermissionDenied) {
		t.Errorf("Expected partial delete to keep its cause")
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Wrap(ErrBackendUnavailable, errors.New("connection refused"))) {
		t.Errorf("Expected BackendUnavailable to be transient")
	}
	if !IsTransient(ErrTimeout) {
		t.Errorf("Expected Timeout to be transient")
	}
	if IsTransient(ErrNotFound) {
		t.Errorf("Expected NotFound not to be transient")
	}
}

func TestContentsError(t *testing.T) {
	err := NewError("get", "dir/a.txt", Wrap(ErrNotFound, errors.New("no such key")))

	var ce *ContentsError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ContentsError, got %T", err)
	}
	if ce.Kind() != KindNotFound {
		t.Errorf("Expected NotFound, got %s", ce.Kind())
	}
	if msg := err.Error(); !strings.HasPrefix(msg, "contentfs: get 'dir/a.txt': not found") {
		t.Errorf("Unexpected message: %s", msg)
	}

	if again := NewError("get", "dir/a.txt", err); again != err {
		t.Errorf("Expected NewError not to wrap twice for the same op and path")
	}
	if NewError("get", "x", nil) != nil {
		t.Errorf("Expected nil for nil error")
	}
}

func TestErrorsCollector(t *testing.T) {
	var errs Errors
	if errs.Errors() != nil {
		t.Fatalf("Expected empty collector to return nil")
	}

	errs.Add(nil)
	errs.Add(ErrTimeout)
	errs.Add(ErrNotFound)

	if errs.Len() != 2 {
		t.Errorf("Expected 2 errors, got %d", errs.Len())
	}
	joined := errs.Errors()
	if !errors.Is(joined, ErrTimeout) || !errors.Is(joined, ErrNotFound) {
		t.Errorf("Expected joined error to match both sentinels: %v", joined)
	}
}
