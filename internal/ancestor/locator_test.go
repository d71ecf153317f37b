package ancestor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocurement/concord/internal/document"
)

func refs(pairs ...[2]string) []document.RevisionRef {
	out := make([]document.RevisionRef, len(pairs))
	for i, p := range pairs {
		out[i] = document.RevisionRef{Rev: p[0], Date: p[1]}
	}
	return out
}

func TestLocateFindsCommonPrefix(t *testing.T) {
	winner := refs([2]string{"1-x", "T0"}, [2]string{"2-x", "T1"}, [2]string{"3-x", "T2"})
	sibling := refs([2]string{"1-x", "T0"}, [2]string{"2-x", "T1"}, [2]string{"3-y", "T3"})

	res, err := Locate(winner, sibling)
	require.NoError(t, err)
	assert.Equal(t, 2, res.K)
	assert.Equal(t, "2-x", res.Rev)
}

func TestLocateMultipleSiblingsAllMustAgree(t *testing.T) {
	winner := refs([2]string{"1-x", "T0"}, [2]string{"2-x", "T1"})
	sibA := refs([2]string{"1-x", "T0"}, [2]string{"2-x", "T1"})
	sibB := refs([2]string{"1-x", "T0"}, [2]string{"2-z", "T9"})

	res, err := Locate(winner, sibA, sibB)
	require.NoError(t, err)
	assert.Equal(t, 1, res.K)
	assert.Equal(t, "1-x", res.Rev)
}

func TestLocateNoCommonRevisionFirstEntryDiffers(t *testing.T) {
	winner := refs([2]string{"1-x", "T0"})
	sibling := refs([2]string{"1-z", "T0"})

	_, err := Locate(winner, sibling)
	assert.ErrorIs(t, err, ErrNoCommonRevision)
}

func TestLocateShorterSiblingLimitsPrefix(t *testing.T) {
	winner := refs([2]string{"1-x", "T0"}, [2]string{"2-x", "T1"})
	sibling := refs([2]string{"1-x", "T0"})

	res, err := Locate(winner, sibling)
	require.NoError(t, err)
	assert.Equal(t, 1, res.K)
}
