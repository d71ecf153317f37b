package reconstruct

import "errors"

// ErrCannotRestore is returned when replaying a sibling's reverse patches
// fails against the sibling's current state.
var ErrCannotRestore = errors.New("reconstruct: cannot restore revision")
