// Package store defines the database client contract the resolver consumes
// and a concrete adapter for it.
package store

import (
	"context"

	"github.com/openprocurement/concord/internal/document"
)

// TombstoneRequest deletes one losing revision: a bulk-update entry shaped
// {_id, _rev, _deleted: true}.
type TombstoneRequest struct {
	ID  string
	Rev string
}

// BulkResult reports the outcome of one TombstoneRequest.
type BulkResult struct {
	ID    string
	Rev   string
	OK    bool
	Error string
}

// Client is the database surface the resolver needs: fetching a specific
// historical revision, atomically saving a new revision, and
// bulk-tombstoning losers.
type Client interface {
	// Get fetches a specific historical revision body. Returns ErrNotFound
	// if it does not exist.
	Get(ctx context.Context, id, rev string) (document.Document, error)

	// Save atomically creates a new revision for doc, returning the
	// assigned revision identifier. Returns ErrConflict if a concurrent
	// write has already superseded the revision doc was built from.
	Save(ctx context.Context, doc document.Document) (newRev string, err error)

	// BulkUpdate submits tombstone requests and returns a per-item result.
	// A failure to submit the whole batch returns ErrTransport; per-item
	// failures are reported in the returned slice instead.
	BulkUpdate(ctx context.Context, reqs []TombstoneRequest) ([]BulkResult, error)
}
