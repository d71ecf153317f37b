package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAddArrayTail(t *testing.T) {
	doc := map[string]any{"items": []any{"a", "b"}}
	out, err := Apply(doc, Patch{{Op: OpAdd, Path: "/items/-", Value: "c"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, out.(map[string]any)["items"])
}

func TestApplyAddArrayIndexInsert(t *testing.T) {
	doc := map[string]any{"items": []any{"a", "c"}}
	out, err := Apply(doc, Patch{{Op: OpAdd, Path: "/items/1", Value: "b"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, out.(map[string]any)["items"])
}

func TestApplyAddArrayIndexOutOfRange(t *testing.T) {
	doc := map[string]any{"items": []any{"a"}}
	_, err := Apply(doc, Patch{{Op: OpAdd, Path: "/items/5", Value: "z"}})
	assert.ErrorIs(t, err, ErrPatchConflict)
}

func TestApplyAddObjectKeyNotExistSets(t *testing.T) {
	doc := map[string]any{}
	out, err := Apply(doc, Patch{{Op: OpAdd, Path: "/note", Value: "N"}})
	require.NoError(t, err)
	assert.Equal(t, "N", out.(map[string]any)["note"])
}

// Add at an existing key concatenates when both sides are arrays, and
// overwrites otherwise.
func TestApplyAddObjectKeyExistsConcatenatesArrays(t *testing.T) {
	doc := map[string]any{"attachments": []any{"x"}}
	out, err := Apply(doc, Patch{{Op: OpAdd, Path: "/attachments", Value: []any{"y"}}})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, out.(map[string]any)["attachments"])
}

func TestApplyAddObjectKeyExistsOverwritesNonArray(t *testing.T) {
	doc := map[string]any{"title": "old"}
	out, err := Apply(doc, Patch{{Op: OpAdd, Path: "/title", Value: "new"}})
	require.NoError(t, err)
	assert.Equal(t, "new", out.(map[string]any)["title"])
}

func TestApplyRemove(t *testing.T) {
	doc := map[string]any{"note": "N", "title": "X"}
	out, err := Apply(doc, Patch{{Op: OpRemove, Path: "/note"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "X"}, out)
}

func TestApplyReplaceMissingPathFails(t *testing.T) {
	doc := map[string]any{"title": "X"}
	_, err := Apply(doc, Patch{{Op: OpReplace, Path: "/missing", Value: "Y"}})
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestApplyMoveAndCopy(t *testing.T) {
	doc := map[string]any{"a": "v", "b": map[string]any{}}
	out, err := Apply(doc, Patch{{Op: OpMove, From: "/a", Path: "/b/a"}})
	require.NoError(t, err)
	m := out.(map[string]any)
	_, hasA := m["a"]
	assert.False(t, hasA)
	assert.Equal(t, "v", m["b"].(map[string]any)["a"])

	out, err = Apply(doc, Patch{{Op: OpCopy, From: "/a", Path: "/c"}})
	require.NoError(t, err)
	m = out.(map[string]any)
	assert.Equal(t, "v", m["a"])
	assert.Equal(t, "v", m["c"])
}

func TestApplyTestFailureIsConflict(t *testing.T) {
	doc := map[string]any{"title": "X"}
	_, err := Apply(doc, Patch{{Op: OpTest, Path: "/title", Value: "Y"}})
	assert.ErrorIs(t, err, ErrPatchConflict)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	doc := map[string]any{"items": []any{"a"}}
	_, err := Apply(doc, Patch{{Op: OpAdd, Path: "/items/-", Value: "b"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, doc["items"])
}

// Round-trip faithfulness: Apply(a, MakePatch(a, b)) must reproduce b.
func TestMakePatchRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		a, b any
	}{
		{"scalar replace", map[string]any{"title": "X"}, map[string]any{"title": "Y"}},
		{"key removed", map[string]any{"title": "X", "note": "N"}, map[string]any{"title": "X"}},
		{"key added", map[string]any{"title": "X"}, map[string]any{"title": "X", "note": "N"}},
		{"array appended", map[string]any{"items": []any{"a"}}, map[string]any{"items": []any{"a", "b"}}},
		{"array replaced", map[string]any{"items": []any{"a", "b"}}, map[string]any{"items": []any{"z"}}},
		{"nested object", map[string]any{"a": map[string]any{"b": 1.0}}, map[string]any{"a": map[string]any{"b": 2.0}}},
		{"identical", map[string]any{"title": "X"}, map[string]any{"title": "X"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := MakePatch(tc.a, tc.b)
			out, err := Apply(tc.a, p)
			require.NoError(t, err)
			assert.True(t, jsonEqual(out, tc.b), "expected %v got %v via patch %v", tc.b, out, p)
		})
	}
}

// Concurrent array appends from two independent sources, replayed as
// sequential adds, must preserve both contributions.
func TestConcurrentArrayAppendPreservesBoth(t *testing.T) {
	winner := map[string]any{"items": []any{"base", "a"}}
	// sibling's forward patch, as produced by diffing its own before/after:
	siblingPatch := Patch{{Op: OpAdd, Path: "/items", Value: []any{"b"}}}

	out, err := Apply(winner, siblingPatch)
	require.NoError(t, err)
	assert.Equal(t, []any{"base", "a", "b"}, out.(map[string]any)["items"])
}
