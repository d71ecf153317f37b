package store

import "errors"

var (
	// ErrConflict is returned by Save when a concurrent write has already
	// superseded the revision being written.
	ErrConflict = errors.New("store: conflict")

	// ErrTransport is returned for I/O-level failures talking to the store.
	ErrTransport = errors.New("store: transport error")

	// ErrNotFound is returned by Get when the requested (id, rev) does not
	// exist.
	ErrNotFound = errors.New("store: not found")
)
