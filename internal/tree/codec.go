package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the exported form of a node and its subtree.
//
// Fields are declared in alphabetical order so both encodings emit sorted
// keys. RootPath is informational: Import derives canonical paths from the
// structure and never reads it.
type Document struct {
	Children []*Document `json:"children,omitempty" yaml:"children,omitempty"`
	Name     string      `json:"name" yaml:"name"`
	RootPath string      `json:"root_path,omitempty" yaml:"root_path,omitempty"`
	URL      string      `json:"url,omitempty" yaml:"url,omitempty"`
}

// Export converts the tree rooted at n into a Document.
func Export(n *Node) *Document {
	doc := &Document{
		Name:     n.Name,
		RootPath: n.Path(),
		URL:      n.Locator,
	}
	for _, c := range n.children {
		doc.Children = append(doc.Children, Export(c))
	}
	return doc
}

// Import builds a new tree from doc. The document root must have an empty
// name; every other node needs a non-empty name without separators, unique
// among its siblings. Nothing is returned unless the whole document is
// valid.
func Import(doc *Document) (*Node, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}
	if doc.Name != "" {
		return nil, fmt.Errorf("%w: root node must have an empty name, got %q", ErrInvalidDocument, doc.Name)
	}
	root := NewRoot(doc.URL)
	if err := importChildren(root, doc.Children); err != nil {
		return nil, err
	}
	return root, nil
}

func importChildren(parent *Node, docs []*Document) error {
	for i, d := range docs {
		if d == nil {
			return fmt.Errorf("%w: child %d of %s is empty", ErrInvalidDocument, i, parent)
		}
		if err := ValidName(d.Name); err != nil {
			return fmt.Errorf("%w: child %d of %s: %v", ErrInvalidDocument, i, parent, err)
		}
		if parent.FindChild(d.Name) != nil {
			return fmt.Errorf("%w: duplicate child %q under %s", ErrInvalidDocument, d.Name, parent)
		}

		n := NewNode(d.Name, d.URL)
		if err := n.Attach(parent); err != nil {
			return err
		}
		if err := importChildren(n, d.Children); err != nil {
			return err
		}
	}
	return nil
}

// EncodeYAML writes the tree rooted at n as a YAML document.
func EncodeYAML(w io.Writer, n *Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Export(n)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// EncodeJSON writes the tree rooted at n as an indented JSON document.
func EncodeJSON(w io.Writer, n *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(n)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// Decode reads a YAML or JSON document from r and imports it.
func Decode(r io.Reader) (*Node, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no document found", ErrMalformedDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return Import(&doc)
}
