package tree

import (
	"fmt"
	"io"

	"github.com/xlab/treeprint"
)

// RootLabel is the fixed label printed for a tree's root.
const RootLabel = "root"

// Render writes the tree rooted at n as indented text. The root line reads
// "root [<locator>]"; every other line reads "<name> [<canonical path>]".
func Render(w io.Writer, n *Node) error {
	t := treeprint.NewWithRoot(fmt.Sprintf("%s [%s]", RootLabel, n.Locator))
	addBranches(t, n)
	if _, err := io.WriteString(w, t.String()); err != nil {
		return fmt.Errorf("rendering tree: %w", err)
	}
	return nil
}

func addBranches(t treeprint.Tree, n *Node) {
	for _, c := range n.children {
		addBranches(t.AddBranch(fmt.Sprintf("%s [%s]", c.Name, c.Path())), c)
	}
}
