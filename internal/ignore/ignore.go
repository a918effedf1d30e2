// Package ignore reads include/exclude pattern files.
//
// A pattern file holds one namespace glob per line. Blank lines and lines
// starting with '#' are skipped; a leading '/' is dropped because namespace
// paths are always relative to the server root.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFile reads a single pattern file.
func ParseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	patterns, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file %s: %w", path, err)
	}
	return patterns, nil
}

// Parse reads patterns from r. Later duplicates of a pattern are dropped.
func Parse(r io.Reader) ([]string, error) {
	var patterns []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p := parseLine(scanner.Text())
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		patterns = append(patterns, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// parseLine returns the pattern on line, or "" for comments and blank lines.
func parseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return ""
	}
	return strings.TrimPrefix(line, "/")
}
