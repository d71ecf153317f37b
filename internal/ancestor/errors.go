package ancestor

import "errors"

// ErrNoCommonRevision is returned when the winner and its siblings share no
// revision-log prefix at all.
var ErrNoCommonRevision = errors.New("ancestor: no common revision")
