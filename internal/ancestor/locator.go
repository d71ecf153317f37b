// Package ancestor locates the common ancestor of a conflicted document:
// given the winner's and every sibling's (rev, date) revision lists, find
// the longest prefix they all share.
package ancestor

import "github.com/openprocurement/concord/internal/document"

// Result is the outcome of a successful Locate.
type Result struct {
	// K is the length of the longest common prefix across all lists.
	K int
	// Rev is the revision identifier at position K-1 — the common
	// ancestor revision.
	Rev string
}

// Locate scans the revision lists column by column: at column i, the ith
// entry of every list is compared by full (rev, date)
// tuple equality (not rev alone — two independently generated revisions
// could coincidentally collide on a short rev id but never on rev and
// timestamp together); the scan stops at the first column where any list
// disagrees, runs out, or is empty.
//
// Returns ErrNoCommonRevision if the winner and siblings share no prefix
// at all.
func Locate(winner []document.RevisionRef, siblings ...[]document.RevisionRef) (Result, error) {
	k := 0
scan:
	for {
		if k >= len(winner) {
			break
		}
		want := winner[k]
		for _, sib := range siblings {
			if k >= len(sib) || sib[k] != want {
				break scan
			}
		}
		k++
	}

	if k == 0 {
		return Result{}, ErrNoCommonRevision
	}
	return Result{K: k, Rev: winner[k-1].Rev}, nil
}
