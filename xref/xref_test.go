package xref

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderRejectsCommitsOnlyViolation(t *testing.T) {
	b := NewBuilder(1, true)
	err := b.Add(Reference{FromRow: 9, FromCol: 0, ToRow: 5, ToCol: 2})
	require.Error(t, err)
	require.Equal(t, 0, len(b.refs))
}

func TestBuilderAcceptsCommitHashAgainstTimechain(t *testing.T) {
	b := NewBuilder(1, true)
	err := b.Add(Reference{FromRow: 9, FromCol: 0, ToRow: 5, ToCol: ColCommitHash})
	require.NoError(t, err)
	fr := b.Build()
	require.Len(t, fr.Refs, 1)
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	b := NewBuilder(2, false)
	ref := Reference{FromRow: 1, FromCol: 0, ToRow: 2, ToCol: 0}
	require.NoError(t, b.Add(ref))
	require.Error(t, b.Add(ref))
}

func TestBuilderMaintainsSortedOrder(t *testing.T) {
	b := NewBuilder(2, false)
	require.NoError(t, b.Add(Reference{FromRow: 5, FromCol: 0, ToRow: 1, ToCol: 0}))
	require.NoError(t, b.Add(Reference{FromRow: 1, FromCol: 0, ToRow: 1, ToCol: 0}))
	require.NoError(t, b.Add(Reference{FromRow: 3, FromCol: 0, ToRow: 1, ToCol: 0}))
	fr := b.Build()
	require.Equal(t, int64(1), fr.Refs[0].FromRow)
	require.Equal(t, int64(3), fr.Refs[1].FromRow)
	require.Equal(t, int64(5), fr.Refs[2].FromRow)
}

func TestForeignRefsRoundTrip(t *testing.T) {
	b := NewBuilder(7, false)
	require.NoError(t, b.Add(Reference{FromRow: 9, FromCol: 0, ToRow: 5, ToCol: 2}))
	require.NoError(t, b.Add(Reference{FromRow: 9, FromCol: 1, ToRow: 5, ToCol: 3}))
	fr := b.Build()

	var buf bytes.Buffer
	require.NoError(t, fr.Write(&buf))
	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, fr.Refs, got.Refs)
}

func TestReadRejectsUnsorted(t *testing.T) {
	var buf bytes.Buffer
	unsorted := &ForeignRefs{ForeignID: 1, Refs: []Reference{
		{FromRow: 5, FromCol: 0, ToRow: 1, ToCol: 0},
		{FromRow: 1, FromCol: 0, ToRow: 1, ToCol: 0},
	}}
	require.NoError(t, unsorted.Write(&buf))
	_, err := Read(&buf)
	require.Error(t, err)
}
