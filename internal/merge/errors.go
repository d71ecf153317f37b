package merge

import "errors"

// ErrCannotApply is returned when applying a reconstructed forward edit to
// the winner fails.
var ErrCannotApply = errors.New("merge: cannot apply patch")
