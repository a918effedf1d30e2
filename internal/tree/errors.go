package tree

import "errors"

var (
	// ErrInvalidPath indicates a namespace path that cannot be split into
	// non-empty segments.
	ErrInvalidPath = errors.New("invalid namespace path")

	// ErrCycle indicates an attempt to attach a node below itself.
	ErrCycle = errors.New("node cannot be attached below itself")

	// ErrMalformedDocument indicates a document that could not be decoded.
	ErrMalformedDocument = errors.New("malformed tree document")

	// ErrInvalidDocument indicates a decoded document whose structure does
	// not describe a valid tree.
	ErrInvalidDocument = errors.New("invalid tree document")
)
