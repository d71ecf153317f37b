package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocurement/concord/internal/document"
	"github.com/openprocurement/concord/internal/patch"
	"github.com/openprocurement/concord/internal/reconstruct"
)

func winnerDoc() document.Document {
	return document.Document{
		"_id": "t1", "_rev": "3-a", "title": "X",
		"_conflicts": []any{"3-b"},
		"revisions": []any{
			map[string]any{"rev": "1-x", "date": "T0"},
			map[string]any{"rev": "2-x", "date": "T1"},
			map[string]any{
				"rev": "3-x", "date": "T2",
				"changes": []any{map[string]any{"op": "replace", "path": "/title", "value": "old"}},
			},
		},
	}
}

func TestMergeAppliesSiblingEditAndRecordsReverseProvenance(t *testing.T) {
	w := winnerDoc()
	edits := [][]reconstruct.Edit{
		{{Date: "T3", Forward: patch.Patch{{Op: patch.OpAdd, Path: "/note", Value: "N"}}}},
	}

	res, err := Merge(w, 2, "2-x", edits)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "N", res.Winner["note"])
	assert.Equal(t, "X", res.Winner["title"])

	revs, err := res.Winner.Revisions()
	require.NoError(t, err)
	require.Len(t, revs, 4)
	last := revs[3]
	assert.Equal(t, "2-x", last.Rev)
	assert.Equal(t, "T3", last.Date)
	require.Len(t, last.Changes, 1)
	assert.Equal(t, patch.OpRemove, last.Changes[0].Op)
	assert.Equal(t, "/note", last.Changes[0].Path)
}

func TestMergeSkipsAlreadyAppliedTimestamp(t *testing.T) {
	w := winnerDoc()
	edits := [][]reconstruct.Edit{
		{{Date: "T2", Forward: patch.Patch{{Op: patch.OpAdd, Path: "/note", Value: "N"}}}},
	}

	res, err := Merge(w, 2, "2-x", edits)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	_, hasNote := res.Winner["note"]
	assert.False(t, hasNote)
}

func TestMergeOrdersAcrossSiblingsByAscendingDate(t *testing.T) {
	w := winnerDoc()
	edits := [][]reconstruct.Edit{
		{{Date: "T5", Forward: patch.Patch{{Op: patch.OpReplace, Path: "/title", Value: "from-late"}}}},
		{{Date: "T3", Forward: patch.Patch{{Op: patch.OpReplace, Path: "/title", Value: "from-early"}}}},
	}

	res, err := Merge(w, 2, "2-x", edits)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "from-late", res.Winner["title"])
}

func TestMergeCannotApplyOnPathNotFound(t *testing.T) {
	w := winnerDoc()
	edits := [][]reconstruct.Edit{
		{{Date: "T3", Forward: patch.Patch{{Op: patch.OpReplace, Path: "/missing", Value: "x"}}}},
	}

	_, err := Merge(w, 2, "2-x", edits)
	assert.ErrorIs(t, err, ErrCannotApply)
}
