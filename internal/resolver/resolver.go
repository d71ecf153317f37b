// Package resolver orchestrates conflict resolution for a single document:
// read the revision logs, locate the common ancestor, reconstruct each
// sibling's forward edits, merge them into the winner, write the result and
// tombstone the losers, emitting a structured log event per outcome.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/openprocurement/concord/internal/ancestor"
	"github.com/openprocurement/concord/internal/concordlog"
	"github.com/openprocurement/concord/internal/document"
	"github.com/openprocurement/concord/internal/merge"
	"github.com/openprocurement/concord/internal/patch"
	"github.com/openprocurement/concord/internal/reconstruct"
	"github.com/openprocurement/concord/internal/store"
)

// tenderIDField is the human-readable business identifier logged alongside
// _id when the payload carries it; its absence is not an error.
const tenderIDField = "tenderID"

// Resolver resolves conflicted documents one at a time against an injected
// store.Client. All work on a single document is strictly sequential;
// Resolver itself holds no mutable state shared across
// documents, so one instance may be driven concurrently by
// internal/dispatch for different documents.
type Resolver struct {
	client store.Client
	opts   *Options
	now    func() time.Time
}

// New constructs a Resolver against client with opts applied over
// DefaultOptions.
func New(client store.Client, opts ...Option) *Resolver {
	return &Resolver{client: client, opts: NewOptions(opts...), now: time.Now}
}

// Resolve runs the full resolution state machine for one winner
// document (a change-feed record's doc body, carrying _conflicts). It
// never returns a Go error for an expected skip/abandon outcome — those
// are reported via Outcome and logged with the matching message_id; a
// non-nil error indicates the caller passed a malformed winner (e.g. no
// _id) that the state machine cannot even begin to classify.
func (r *Resolver) Resolve(ctx context.Context, winner document.Document) (Outcome, error) {
	id, ok := winner.ID()
	if !ok {
		return "", fmt.Errorf("resolver: winner document has no _id")
	}
	rev, _ := winner.Rev()
	tenderID, _ := winner[tenderIDField].(string)
	conflicts := winner.Conflicts()

	r.dump(id, rev, "_conflicts", winner)

	log := func(messageID string, fields ...zap.Field) {
		concordlog.Event(messageID, id, tenderID, rev, fields...)
	}
	log(MsgConflictDetected, zap.Strings("params", conflicts))

	winnerRefs, err := winner.RevisionRefs()
	if err != nil {
		// No revisions field at all: no safe reconciliation is possible,
		// skip without touching the siblings.
		return OutcomeSkipped, nil
	}

	siblingDocs := make([]document.Document, len(conflicts))
	siblingRefs := make([][]document.RevisionRef, len(conflicts))
	for i, sibRev := range conflicts {
		getCtx, cancel := context.WithTimeout(ctx, r.opts.GetTimeout)
		sib, err := r.client.Get(getCtx, id, sibRev)
		cancel()
		if err != nil {
			log(MsgErrorGet, zap.String("conflict_rev", sibRev), zap.Error(err))
			return OutcomeSkipped, nil
		}
		r.dump(id, sibRev, "", sib)

		refs, err := sib.RevisionRefs()
		if err != nil {
			log(MsgErrorGet, zap.String("conflict_rev", sibRev), zap.Error(err))
			return OutcomeSkipped, nil
		}
		siblingDocs[i] = sib
		siblingRefs[i] = refs
	}

	anc, err := ancestor.Locate(winnerRefs, siblingRefs...)
	if err != nil {
		log(MsgErrorCommon)
		return OutcomeSkipped, nil
	}

	edits := make([][]reconstruct.Edit, len(siblingDocs))
	for i, sib := range siblingDocs {
		e, err := reconstruct.Reconstruct(sib, anc.K)
		if err != nil {
			log(MsgErrorRestore)
			return OutcomeSkipped, nil
		}
		edits[i] = e
	}

	result, err := merge.Merge(winner, anc.K, anc.Rev, edits)
	if err != nil {
		switch {
		case errors.Is(err, patch.ErrPathNotFound):
			log(MsgErrorPointer)
		case errors.Is(err, patch.ErrPatchConflict):
			log(MsgErrorPatch)
		default:
			log(MsgErrorPatch)
		}
		return OutcomeSkipped, nil
	}

	outcome := OutcomeResolvedNoChanges
	if result.Changed {
		merged := result.Winner.WithDateModified(r.now().In(r.opts.TimeZone).Format(time.RFC3339))

		saveCtx, cancel := context.WithTimeout(ctx, r.opts.SaveTimeout)
		newRev, err := r.client.Save(saveCtx, merged)
		cancel()
		switch {
		case errors.Is(err, store.ErrConflict):
			log(MsgNotResolved)
			return OutcomeAbandoned, nil
		case err != nil:
			log(MsgErrorSave, zap.Error(err))
			return OutcomeAbandoned, nil
		}
		log(MsgResolved, zap.String("new_rev", newRev))
		outcome = OutcomeResolved
	} else {
		log(MsgResolvedWithoutChanges)
	}

	r.tombstone(ctx, id, tenderID, rev, conflicts)
	return outcome, nil
}

// tombstone issues bulk deletes for every sibling revision regardless of
// whether the merge changed the winner. Failures are logged but never roll
// back the merged write; a later pass will see the dangling conflict and
// retry.
func (r *Resolver) tombstone(ctx context.Context, id, tenderID, rev string, conflicts []string) {
	if len(conflicts) == 0 {
		return
	}
	reqs := make([]store.TombstoneRequest, len(conflicts))
	for i, c := range conflicts {
		reqs[i] = store.TombstoneRequest{ID: id, Rev: c}
	}

	delCtx, cancel := context.WithTimeout(ctx, r.opts.DeleteTimeout)
	defer cancel()

	results, err := r.client.BulkUpdate(delCtx, reqs)
	if err != nil {
		concordlog.Event(MsgErrorDeleting, id, tenderID, rev, zap.Error(err))
		return
	}
	failed := 0
	for _, res := range results {
		if !res.OK {
			failed++
		}
	}
	concordlog.Event(MsgDeleting, id, tenderID, rev, zap.Int("count", len(results)), zap.Int("failed", failed))
}

// dump writes doc to <DumpDir>/<id>@<rev><suffix>.json for forensic
// replay. Errors are logged, not propagated.
func (r *Resolver) dump(id, rev, suffix string, doc document.Document) {
	if r.opts.DumpDir == "" {
		return
	}
	path := filepath.Join(r.opts.DumpDir, fmt.Sprintf("%s@%s%s.json", id, rev, suffix))
	b, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		concordlog.Event(MsgErrorGet, id, "", rev, zap.String("dump_path", path), zap.Error(err))
	}
}
