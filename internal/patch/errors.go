package patch

import "errors"

var (
	// ErrPathNotFound is returned when a pointer fails to resolve during apply.
	ErrPathNotFound = errors.New("patch: path not found")

	// ErrPatchConflict is returned when a structural precondition of an
	// operation is violated (out-of-range insert, failed test, non-container
	// parent, etc).
	ErrPatchConflict = errors.New("patch: conflict")

	// ErrMalformedPatch is returned when a required operation member is
	// missing.
	ErrMalformedPatch = errors.New("patch: malformed operation")
)
