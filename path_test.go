package contentfs

import (
	"errors"
	"testing"

	"github.com/mwantia/contentfs/data"
)

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"/":                     "",
		"notes.txt":             "notes.txt",
		"/work/notes.txt/":      "work/notes.txt",
		"work//nested///a.txt":  "work/nested/a.txt",
		"./work/./a.txt":        "work/a.txt",
		"work/nested/../a.txt":  "work/a.txt",
		"\\work\\windows\\a.py": "work/windows/a.py",
		"work/..":               "",
	}

	for input, expected := range tests {
		got, err := CleanPath(input)
		if err != nil {
			t.Errorf("CleanPath '%s' failed: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("CleanPath '%s': expected '%s', got '%s'", input, expected, got)
		}
	}
}

func TestCleanPathTraversal(t *testing.T) {
	for _, input := range []string{
		"..",
		"../etc/passwd",
		"work/../../etc",
		"..\\..\\windows",
		"s3://bucket/key",
		"file:///etc/passwd",
		"work/\x00/a",
	} {
		if _, err := CleanPath(input); !errors.Is(err, data.ErrPathTraversal) {
			t.Errorf("Expected ErrPathTraversal for '%s', got: %v", input, err)
		}
	}
}

func TestCheckNative(t *testing.T) {
	for _, native := range []string{"/etc", "..", "../x"} {
		if err := checkNative(native); !errors.Is(err, data.ErrPathTraversal) {
			t.Errorf("Expected ErrPathTraversal for '%s', got: %v", native, err)
		}
	}
	if err := checkNative("work/..data"); err != nil {
		t.Errorf("Expected '..data' to be a valid name: %v", err)
	}
}
