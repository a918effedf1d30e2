// Package tree rebuilds a source-control server's group/project namespace as
// an in-memory tree.
//
// Flat "namespace/subgroup/project" paths are grown into a deduplicated
// hierarchy by Builder. Filter prunes the hierarchy in place with
// include/exclude glob patterns evaluated against every node's canonical
// path. The codec exports a tree as a structured document (YAML or JSON) and
// imports it back, and Render draws it as indented text.
//
// # Canonical paths
//
// Every node carries the '/'-joined names from the root down to itself. The
// root has an empty name and an empty path; its direct children have a path
// equal to their own name. Paths are recomputed eagerly whenever a node is
// attached, so readers never trigger recomputation.
//
// # Concurrency
//
// Nodes are not safe for concurrent mutation. Once filtering has finished a
// tree may be shared read-only between goroutines, which is how the sync
// engine walks it.
package tree
