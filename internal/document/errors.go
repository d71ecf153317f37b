package document

import "errors"

// ErrNoHistory is returned when a document variant has no revisions field
// at all; the caller must skip resolution for it entirely, since no safe
// reconciliation is possible.
var ErrNoHistory = errors.New("document: no revision history")
