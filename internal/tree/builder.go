package tree

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Entry is one discovered project: its namespace path and its locator.
type Entry struct {
	Path    string
	Locator string
}

// Builder grows a tree from flat namespace paths.
type Builder struct {
	root   *Node
	logger *zap.Logger
}

// NewBuilder returns a Builder that grows root. A nil logger disables
// logging.
func NewBuilder(root *Node, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{root: root, logger: logger}
}

// Build adds every entry to the tree. Entries are validated up front: if any
// of them is invalid the tree is left untouched and an error wrapping
// ErrInvalidPath is returned.
func (b *Builder) Build(entries []Entry) error {
	split := make([][]string, len(entries))
	for i, e := range entries {
		segments, err := Segments(e.Path)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		split[i] = segments
	}

	created := 0
	for i, e := range entries {
		created += b.add(split[i], e.Locator)
	}

	b.logger.Debug("tree built",
		zap.Int("entries", len(entries)),
		zap.Int("created", created))
	return nil
}

// Add adds a single entry to the tree.
func (b *Builder) Add(e Entry) error {
	return b.Build([]Entry{e})
}

// add inserts one entry and returns the number of nodes it created.
func (b *Builder) add(segments []string, locator string) int {
	created := 0
	current := b.root
	last := len(segments) - 1
	for i, name := range segments {
		child := current.FindChild(name)
		if child == nil {
			child = NewNode(name, "")
			// child is fresh, so it can never be an ancestor of current
			_ = child.Attach(current)
			created++
		}
		if i == last {
			child.Locator = locator
		}
		current = child
	}
	return created
}

// Segments splits a namespace path into its names. Empty paths, empty
// segments (leading, trailing or doubled separators) and segments that
// ValidName rejects, such as "..", are refused.
func Segments(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
		if err := ValidName(s); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
	}
	return segments, nil
}
