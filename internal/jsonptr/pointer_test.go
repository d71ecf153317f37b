package jsonptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	p, err := New("/a~1b/c~0d/2")
	require.NoError(t, err)
	assert.Equal(t, Pointer{"a/b", "c~d", "2"}, p)
	assert.Equal(t, "/a~1b/c~0d/2", p.String())
}

func TestNewRoot(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Equal(t, "", p.String())
}

func TestNewRejectsMissingSlash(t *testing.T) {
	_, err := New("a/b")
	assert.Error(t, err)
}

func TestGetObjectAndArray(t *testing.T) {
	doc := map[string]any{
		"title": "X",
		"items": []any{"a", "b", "c"},
	}

	v, err := Get(doc, "/title")
	require.NoError(t, err)
	assert.Equal(t, "X", v)

	v, err = Get(doc, "/items/1")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestGetNotFound(t *testing.T) {
	doc := map[string]any{"title": "X"}
	_, err := Get(doc, "/note")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseArrayIndexRejectsLeadingZero(t *testing.T) {
	_, err := ParseArrayIndex("01")
	assert.Error(t, err)

	n, err := ParseArrayIndex("0")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestParent(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}}
	p, err := New("/a/b")
	require.NoError(t, err)

	parent, last, err := p.Parent(doc)
	require.NoError(t, err)
	assert.Equal(t, "b", last)
	assert.Equal(t, map[string]any{"b": 1}, parent)
}
