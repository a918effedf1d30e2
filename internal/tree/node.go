package tree

import "fmt"

// Node is one level of the namespace hierarchy: a group or a project.
type Node struct {
	// Name is the path segment this node represents. Empty only for roots.
	Name string

	// Locator identifies where a project's working copy is fetched from,
	// usually a clone URL. Groups carry an empty locator; the root carries
	// the source server URL.
	Locator string

	path     string
	parent   *Node
	children []*Node
}

// NewNode returns a detached node.
func NewNode(name, locator string) *Node {
	return &Node{Name: name, Locator: locator, path: name}
}

// NewRoot returns a root node for a tree sourced from locator.
func NewRoot(locator string) *Node {
	return &Node{Locator: locator}
}

// Path returns the canonical path of the node.
func (n *Node) Path() string {
	return n.path
}

// Parent returns the owning node, or nil for roots and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a snapshot of the node's children in insertion order.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.children)
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// FindChild returns the first child named name, or nil.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Attach makes parent the owner of n. A node already owned elsewhere is
// detached first. Canonical paths of n and all of its descendants are
// recomputed before Attach returns.
func (n *Node) Attach(parent *Node) error {
	if parent == nil {
		return fmt.Errorf("attach %q: nil parent", n.Name)
	}
	for p := parent; p != nil; p = p.parent {
		if p == n {
			return fmt.Errorf("%w: %q under %q", ErrCycle, n.Name, parent.path)
		}
	}

	if n.parent != parent {
		n.Detach()
		n.parent = parent
	}
	if !parent.owns(n) {
		parent.children = append(parent.children, n)
	}
	n.recomputePaths()
	return nil
}

// Detach removes n from its parent. The subtree below n is left intact as
// an orphan and keeps its last canonical paths.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *Node) owns(child *Node) bool {
	for _, c := range n.children {
		if c == child {
			return true
		}
	}
	return false
}

func (n *Node) recomputePaths() {
	switch {
	case n.parent == nil:
		n.path = ""
	case n.parent.path == "":
		n.path = n.Name
	default:
		n.path = n.parent.path + "/" + n.Name
	}
	for _, c := range n.children {
		c.recomputePaths()
	}
}

// Walk visits n and its descendants depth-first in insertion order. Returning
// false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Descendants returns every node below n in depth-first order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			out = append(out, d)
			return true
		})
	}
	return out
}

// Leaves returns every childless node below n. A childless n is its own
// single leaf.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(d *Node) bool {
		if d.IsLeaf() {
			out = append(out, d)
		}
		return true
	})
	return out
}

// Height returns the number of edges on the longest downward path from n.
func (n *Node) Height() int {
	h := 0
	for _, c := range n.children {
		if ch := c.Height() + 1; ch > h {
			h = ch
		}
	}
	return h
}

// Counts returns the number of groups and projects below n.
func (n *Node) Counts() (groups, projects int) {
	for _, d := range n.Descendants() {
		if d.IsLeaf() {
			projects++
		} else {
			groups++
		}
	}
	return groups, projects
}

func (n *Node) String() string {
	if n.parent == nil && n.Name == "" {
		return "root"
	}
	return n.path
}
