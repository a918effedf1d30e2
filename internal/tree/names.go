package tree

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ValidName checks that name can be a single namespace segment and a single
// directory name under a mirror root: not empty, not "." or "..", free of
// path separators and NUL, and not absolute.
func ValidName(name string) error {
	switch {
	case name == "":
		return errors.New("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("name %q is reserved", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("name %q contains a path separator", name)
	case filepath.IsAbs(name) || filepath.VolumeName(name) != "":
		return fmt.Errorf("name %q is an absolute path", name)
	}
	return nil
}
