// Package document reads the revision log embedded in a document variant:
// it extracts and validates the ordered RevisionEntry list and strips the
// ignored-attribute set before payloads are diffed elsewhere in the
// pipeline.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/openprocurement/concord/internal/patch"
)

// Reserved top-level attribute names.
const (
	FieldID           = "_id"
	FieldRev          = "_rev"
	FieldConflicts    = "_conflicts"
	FieldRevisions    = "revisions"
	FieldDateModified = "dateModified"
)

// ignoredAttrs is excluded from diffed payloads: transport metadata, merge
// bookkeeping, or the revision log itself.
var ignoredAttrs = map[string]struct{}{
	"_attachments": {},
	"_revisions":   {},
	"revisions":    {},
	"dateModified": {},
	"_id":          {},
	"_rev":         {},
	"doc_type":     {},
}

// Document is one variant of a conflicted document as stored by the
// database: a plain JSON object carrying a handful of reserved attributes
// (see the Field* constants) alongside an otherwise opaque user payload.
type Document map[string]any

// RevisionRef is the (rev, date) pair the common-ancestor locator
// compares; it deliberately omits changes, since the locator only ever
// compares identity and ordering, never patch content.
type RevisionRef struct {
	Rev  string
	Date string
}

// RevisionEntry is one stored revision-log record. Changes is
// nil on the genesis entry, or on any entry recorded without a reverse
// patch — both are "no-op at this step" for reconstruction purposes.
type RevisionEntry struct {
	Rev     string
	Date    string
	Changes patch.Patch
}

// ID returns the document's _id, if present.
func (d Document) ID() (string, bool) {
	v, ok := d[FieldID].(string)
	return v, ok
}

// Rev returns the document's current _rev, if present.
func (d Document) Rev() (string, bool) {
	v, ok := d[FieldRev].(string)
	return v, ok
}

// Conflicts returns the sibling revision identifiers listed in
// _conflicts, in stored order. Returns nil if the field is absent.
func (d Document) Conflicts() []string {
	raw, ok := d[FieldConflicts].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// DateModified returns the stored dateModified, if present.
func (d Document) DateModified() (string, bool) {
	v, ok := d[FieldDateModified].(string)
	return v, ok
}

// Revisions parses the document's revision log into an ordered,
// oldest-first slice. It returns ErrNoHistory if the revisions field is
// entirely absent.
func (d Document) Revisions() ([]RevisionEntry, error) {
	raw, ok := d[FieldRevisions]
	if !ok {
		return nil, ErrNoHistory
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("document: revisions field is not a list")
	}
	out := make([]RevisionEntry, 0, len(list))
	for i, item := range list {
		entry, err := decodeRevisionEntry(item)
		if err != nil {
			return nil, fmt.Errorf("document: revisions[%d]: %w", i, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// RevisionRefs reduces Revisions to the (rev, date) pairs the
// common-ancestor locator compares.
func (d Document) RevisionRefs() ([]RevisionRef, error) {
	revs, err := d.Revisions()
	if err != nil {
		return nil, err
	}
	refs := make([]RevisionRef, len(revs))
	for i, r := range revs {
		refs[i] = RevisionRef{Rev: r.Rev, Date: r.Date}
	}
	return refs, nil
}

// Strip returns a copy of v (expected to be a map[string]any document body)
// with the ignored-attribute set removed, for use as diff input. Non-map
// values are returned unchanged.
func Strip(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		if _, ignored := ignoredAttrs[k]; ignored {
			continue
		}
		out[k] = val
	}
	return out
}

// WithRevisions returns a copy of d with its revisions field replaced.
func (d Document) WithRevisions(revs []RevisionEntry) Document {
	out := cloneShallow(d)
	out[FieldRevisions] = encodeRevisionEntries(revs)
	return out
}

// WithDateModified returns a copy of d with dateModified set to ts.
func (d Document) WithDateModified(ts string) Document {
	out := cloneShallow(d)
	out[FieldDateModified] = ts
	return out
}

func cloneShallow(d Document) Document {
	out := make(Document, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}

func decodeRevisionEntry(item any) (RevisionEntry, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return RevisionEntry{}, fmt.Errorf("entry is not an object")
	}
	rev, _ := m["rev"].(string)
	date, _ := m["date"].(string)

	changesRaw, hasChanges := m["changes"]
	if !hasChanges || changesRaw == nil {
		return RevisionEntry{Rev: rev, Date: date}, nil
	}
	p, err := decodePatch(changesRaw)
	if err != nil {
		return RevisionEntry{}, fmt.Errorf("changes: %w", err)
	}
	return RevisionEntry{Rev: rev, Date: date, Changes: p}, nil
}

// decodePatch round-trips a generic []any (as produced by
// encoding/json.Unmarshal into any) into a patch.Patch via JSON, since the
// two share the same wire shape ({op, path, value, from}).
func decodePatch(raw any) (patch.Patch, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var p patch.Patch
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func encodeRevisionEntries(revs []RevisionEntry) []any {
	out := make([]any, len(revs))
	for i, r := range revs {
		entry := map[string]any{
			"rev":  r.Rev,
			"date": r.Date,
		}
		if r.Changes != nil {
			entry["changes"] = r.Changes
		}
		out[i] = entry
	}
	return out
}
