package gitsync

import (
	"fmt"
	"path/filepath"
	"strings"
)

// localPath maps the canonical path of a node onto its directory below
// dest. Paths that would resolve outside dest are refused.
func localPath(dest, path string) (string, error) {
	root := filepath.Clean(dest)
	dir := filepath.Join(root, filepath.FromSlash(path))

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q escapes destination %q", path, dest)
	}
	return dir, nil
}
