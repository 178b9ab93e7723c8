package multipath

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/path"
)

func inputHash(i uint32) [32]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], i)
	return sha256.Sum256(b[:])
}

func buildLedger(t *testing.T, n int) *ledger.MemStore {
	t.Helper()
	m := ledger.NewMemStore()
	for i := 0; i < n; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		require.NoError(t, err)
	}
	return m
}

// TestMultiPathAuthorityScenario is spec scenario S3.
func TestMultiPathAuthorityScenario(t *testing.T) {
	m := buildLedger(t, 52)
	p1, err := path.Skip(m, 1, 16)
	require.NoError(t, err)
	p2, err := path.Skip(m, 11, 52)
	require.NoError(t, err)

	mp, err := New([]*path.Path{p1, p2})
	require.NoError(t, err)
	require.True(t, mp.SingleAuthority())

	p3, err := path.Skip(m, 11, 17)
	require.NoError(t, err)
	require.Equal(t, uint64(16), mp.HighestCommonNo(p3))
}

func TestMultiPathRejectsNonIntersecting(t *testing.T) {
	m := buildLedger(t, 100)
	p1, err := path.Skip(m, 1, 8)
	require.NoError(t, err)
	p2, err := path.Skip(m, 50, 96)
	require.NoError(t, err)
	_, err = New([]*path.Path{p1, p2})
	require.Error(t, err)
}

func TestMultiPathRejectsDuplicates(t *testing.T) {
	m := buildLedger(t, 20)
	p1, err := path.Skip(m, 1, 16)
	require.NoError(t, err)
	p2, err := path.Skip(m, 1, 16)
	require.NoError(t, err)
	_, err = New([]*path.Path{p1, p2})
	require.Error(t, err)
}

func TestBuilderHighestCommonNoFeedback(t *testing.T) {
	m := buildLedger(t, 52)
	b := NewBuilder()
	p1, err := path.Skip(m, 1, 16)
	require.NoError(t, err)
	common, err := b.AddPath(p1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), common)

	p2, err := path.Skip(m, 11, 52)
	require.NoError(t, err)
	common, err = b.AddPath(p2)
	require.NoError(t, err)
	require.Equal(t, uint64(16), common)

	mp, err := b.Build()
	require.NoError(t, err)
	require.True(t, mp.SingleAuthority())
}
