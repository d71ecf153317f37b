// Package reconstruct recovers the edits a sibling contributed: for one
// sibling variant, replay its revision-log reverse patches backward from its
// current state to the common ancestor, re-diffing at each step to recover
// the forward change it contributed.
package reconstruct

import (
	"errors"
	"fmt"

	"github.com/openprocurement/concord/internal/document"
	"github.com/openprocurement/concord/internal/patch"
)

// Edit is one forward change a sibling contributed after the common
// ancestor, annotated with the timestamp of the revision that produced it.
type Edit struct {
	Date    string
	Source  document.RevisionEntry
	Forward patch.Patch
}

// Reconstruct walks sibling's revision log backward from its stored state
// down to (and including) index k — the first entry after the shared
// prefix, since the common ancestor itself sits at k-1 — applying
// each entry's reverse "changes" patch when present, and diffing the
// ignored-attribute-stripped before/after states to recover a forward
// edit.
//
// A revision entry with no changes (the genesis entry, or any entry
// recorded without one) is a no-op at this step: it still occupies a
// position in the walk but contributes no edit and leaves the
// reconstructed state unchanged.
//
// The returned edits are oldest-first, ready for the merger to apply in
// order; Reconstruct does the chronological reversal itself so callers
// never see the backward walk order.
func Reconstruct(sibling document.Document, k int) ([]Edit, error) {
	revs, err := sibling.Revisions()
	if err != nil {
		return nil, err
	}
	if k < 0 || k > len(revs) {
		return nil, fmt.Errorf("reconstruct: ancestor index %d out of range for %d revisions", k, len(revs))
	}

	cur := map[string]any(sibling)
	var edits []Edit

	for i := len(revs) - 1; i >= k; i-- {
		entry := revs[i]
		if entry.Changes == nil {
			continue
		}

		prevAny, err := patch.Apply(cur, entry.Changes)
		if err != nil {
			if errors.Is(err, patch.ErrPatchConflict) || errors.Is(err, patch.ErrPathNotFound) {
				return nil, fmt.Errorf("%w: revision %s: %w", ErrCannotRestore, entry.Rev, err)
			}
			return nil, fmt.Errorf("reconstruct: revision %s: %w", entry.Rev, err)
		}
		prev, ok := prevAny.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: revision %s: restored state is not an object", ErrCannotRestore, entry.Rev)
		}

		forward := patch.MakePatch(document.Strip(prev), document.Strip(cur))
		edits = append(edits, Edit{Date: entry.Date, Source: entry, Forward: forward})
		cur = prev
	}

	reverse(edits)
	return edits, nil
}

func reverse(edits []Edit) {
	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
}
