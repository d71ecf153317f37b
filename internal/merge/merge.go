// Package merge replays reconstructed sibling edits into the winning
// document variant: each edit is applied in timestamp order,
// skipping any timestamp already reflected in the winner's own
// post-ancestor history.
package merge

import (
	"errors"
	"fmt"

	"github.com/openprocurement/concord/internal/document"
	"github.com/openprocurement/concord/internal/patch"
	"github.com/openprocurement/concord/internal/reconstruct"
)

// Result describes what the merger produced.
type Result struct {
	Winner  document.Document
	Changed bool
}

// Merge applies edits (one ordered, oldest-first list per sibling, in the
// same order siblings appear in the winner's _conflicts) to winner.
//
// k and ancestorRev locate the common ancestor: k is the length of the
// shared revision prefix (used to compute the winner's own
// already-applied timestamp set from revisions[k:]), and ancestorRev is
// recorded as the provenance of any new revision entry the merge
// produces.
//
// Edits are applied in ascending date order across all siblings; ties
// are broken by sibling iteration order, which Merge preserves by
// processing edits using a stable sort and by receiving sibling edit
// lists pre-ordered to match _conflicts.
func Merge(winner document.Document, k int, ancestorRev string, edits [][]reconstruct.Edit) (Result, error) {
	winnerRevs, err := winner.Revisions()
	if err != nil {
		return Result{}, err
	}
	if k < 0 || k > len(winnerRevs) {
		return Result{}, fmt.Errorf("merge: ancestor index %d out of range for %d revisions", k, len(winnerRevs))
	}

	applied := make(map[string]struct{}, len(winnerRevs)-k)
	for _, r := range winnerRevs[k:] {
		applied[r.Date] = struct{}{}
	}

	ordered := flatten(edits)
	stableSortByDate(ordered)

	w := winner
	changed := false

	for _, e := range ordered {
		if _, seen := applied[e.Date]; seen {
			continue
		}

		beforeAny := map[string]any(w)
		afterAny, err := patch.Apply(beforeAny, e.Forward)
		if err != nil {
			if errors.Is(err, patch.ErrPatchConflict) || errors.Is(err, patch.ErrPathNotFound) {
				return Result{}, fmt.Errorf("%w: %w", ErrCannotApply, err)
			}
			return Result{}, fmt.Errorf("merge: %w", err)
		}
		after, ok := afterAny.(map[string]any)
		if !ok {
			return Result{}, fmt.Errorf("%w: result is not an object", ErrCannotApply)
		}

		// Stored as a reverse patch, matching RevisionEntry.changes
		// convention: applying it to the new state reproduces the old one.
		effective := patch.MakePatch(document.Strip(after), document.Strip(beforeAny))

		w = document.Document(after)
		if len(effective) > 0 {
			revs, err := w.Revisions()
			if err != nil {
				return Result{}, err
			}
			revs = append(revs, document.RevisionEntry{Rev: ancestorRev, Date: e.Date, Changes: effective})
			w = w.WithRevisions(revs)
			changed = true
		}
		applied[e.Date] = struct{}{}
	}

	return Result{Winner: w, Changed: changed}, nil
}

func flatten(edits [][]reconstruct.Edit) []reconstruct.Edit {
	var out []reconstruct.Edit
	for _, sib := range edits {
		out = append(out, sib...)
	}
	return out
}

// stableSortByDate sorts by ascending date; insertion sort is stable, so
// ties preserve the concatenation (sibling-iteration) order already
// present in edits.
func stableSortByDate(edits []reconstruct.Edit) {
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j-1].Date > edits[j].Date; j-- {
			edits[j-1], edits[j] = edits[j], edits[j-1]
		}
	}
}
