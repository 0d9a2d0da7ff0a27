package contentfs

import (
	"fmt"
	"strings"

	"github.com/mwantia/contentfs/data"
)

// CleanPath normalizes a virtual path: backslashes become slashes, "." and
// empty elements are dropped and ".." is resolved. A path that climbs above
// the namespace root or carries a URI scheme fails with data.ErrPathTraversal.
func CleanPath(p string) (string, error) {
	if strings.Contains(p, "://") {
		return "", fmt.Errorf("%w: '%s' carries a scheme", data.ErrPathTraversal, p)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: '%s' contains a null byte", data.ErrPathTraversal, p)
	}

	p = strings.ReplaceAll(p, "\\", "/")

	segments := strings.Split(p, "/")
	stack := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: '%s' escapes the root", data.ErrPathTraversal, p)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, segment)
		}
	}

	return strings.Join(stack, "/"), nil
}

// checkNative rejects native paths that would leave the resource root.
func checkNative(native string) error {
	if strings.HasPrefix(native, "/") || native == ".." || strings.HasPrefix(native, "../") {
		return fmt.Errorf("%w: native path '%s' escapes the resource", data.ErrPathTraversal, native)
	}
	return nil
}
