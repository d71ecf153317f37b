package resolver

// Message identifiers attached to every structured log event. Each
// Resolve call logs conflict_detected on entry. Every outcome except the
// skip of a winner with no revisions field then logs one of the
// conflict_error_*, conflict_not_resolved or conflict_resolved* messages;
// a call that goes on to tombstone siblings also logs conflict_deleting or
// conflict_error_deleting.
const (
	MsgConflictDetected       = "conflict_detected"
	MsgErrorGet               = "conflict_error_get"
	MsgErrorCommon            = "conflict_error_common"
	MsgErrorRestore           = "conflict_error_restore"
	MsgErrorPointer           = "conflict_error_pointer"
	MsgErrorPatch             = "conflict_error_patch"
	MsgErrorSave              = "conflict_error_save"
	MsgNotResolved            = "conflict_not_resolved"
	MsgResolved               = "conflict_resolved"
	MsgResolvedWithoutChanges = "conflict_resolved_wo_changes"
	MsgErrorDeleting          = "conflict_error_deleting"
	MsgDeleting               = "conflict_deleting"
)

// Outcome classifies how one Resolve call ended, for callers that need to
// count or dispatch on it (such as internal/health's counters) without
// parsing log lines.
type Outcome string

const (
	// OutcomeResolved means the merge produced changes and the new
	// revision was saved.
	OutcomeResolved Outcome = "resolved"
	// OutcomeResolvedNoChanges means every sibling edit was already
	// reflected in the winner; nothing was written.
	OutcomeResolvedNoChanges Outcome = "resolved_wo_changes"
	// OutcomeSkipped means resolution aborted with no write and no
	// tombstones issued (NoHistory, NoCommonRevision, CannotRestore,
	// CannotApply, or a sibling fetch failure).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeAbandoned means the merge succeeded but the save lost to a
	// concurrent writer or failed transiently; the change feed will
	// re-offer the document.
	OutcomeAbandoned Outcome = "abandoned"
)
