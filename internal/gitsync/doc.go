// Package gitsync mirrors a filtered namespace tree onto the local file
// system with git.
//
// A Worker keeps one local directory in sync with one remote repository:
// it clones when the directory holds no repository and pulls otherwise. A
// Syncer walks a tree, creates a directory for every group and runs a
// bounded pool of Workers over the projects.
//
// Local copies are non-authoritative. Pulls are forced and a copy whose
// HEAD cannot be resolved is deleted and cloned again.
package gitsync
