package path

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crums-io/skipledger-go/ledger"
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

func TestSkipBuildsShortestPath(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Skip(m, 1, 16)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 4, 8, 16}, p.RowNos())
	require.Equal(t, uint64(1), p.Lo())
	require.Equal(t, uint64(16), p.Hi())
}

func TestStatePathCoversFullLedger(t *testing.T) {
	m := buildLedger(t, 40)
	p, err := State(m)
	require.NoError(t, err)
	require.Equal(t, uint64(40), p.Hi())
	hash, err := m.RowHash(40)
	require.NoError(t, err)
	require.Equal(t, hash, p.HiHash())
}

func TestCoversRowAndHasRow(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Skip(m, 1, 16)
	require.NoError(t, err)
	require.True(t, p.HasRow(16))
	require.False(t, p.HasRow(3))
	require.True(t, p.CoversRow(0))
	for _, n := range p.RowNos() {
		require.True(t, p.CoversRow(n))
	}
}

func TestSubPathHeadTail(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Get(m, []uint64{1, 2, 4, 8, 16})
	require.NoError(t, err)

	sub, err := p.SubPath(2, 8)
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 4, 8}, sub.RowNos())

	head, err := p.HeadPath(4)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 4}, head.RowNos())

	tail, err := p.TailPath(4)
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 8, 16}, tail.RowNos())
}

func TestCompPathsAgree(t *testing.T) {
	m := buildLedger(t, 40)
	a, err := Skip(m, 1, 32)
	require.NoError(t, err)
	b, err := Skip(m, 1, 40)
	require.NoError(t, err)
	c := a.Comp(b)
	require.Equal(t, uint64(32), c.CommonNo)
	require.Equal(t, uint64(0), c.ConflictNo)
}

func TestCompDetectsConflict(t *testing.T) {
	a := buildLedger(t, 20)
	// Diverge row 5's input hash to build a forked ledger for comparison.
	forked := ledger.NewMemStore()
	for i := 0; i < 20; i++ {
		var h [32]byte
		if i == 4 {
			h = sha256.Sum256([]byte("forked"))
		} else {
			h = inputHash(uint32(i))
		}
		_, err := forked.AppendRows(h[:])
		require.NoError(t, err)
	}
	pa, err := Skip(a, 1, 20)
	require.NoError(t, err)
	pb, err := Skip(forked, 1, 20)
	require.NoError(t, err)
	c := pa.Comp(pb)
	require.NotZero(t, c.ConflictNo)
}

func TestCompressPreservesHiHash(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Skip(m, 1, 16)
	require.NoError(t, err)
	compressed := p.Compress()
	require.Equal(t, p.HiHash(), compressed.HiHash())
	require.True(t, compressed.CoversRow(8))
}

func TestPathPackRoundTripFull(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Skip(m, 1, 16)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Pack(p, &buf))

	got, err := Unpack(&buf)
	require.NoError(t, err)
	require.Equal(t, p.RowNos(), got.RowNos())
	require.Equal(t, p.HiHash(), got.HiHash())
}

func TestPathPackRoundTripCondensed(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Skip(m, 1, 16)
	require.NoError(t, err)
	compressed := p.Compress()

	var buf bytes.Buffer
	require.NoError(t, Pack(compressed, &buf))

	got, err := Unpack(&buf)
	require.NoError(t, err)
	require.Equal(t, compressed.HiHash(), got.HiHash())
}

func TestPathPackRejectsOutOfOrderStitchRows(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := Skip(m, 1, 16)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Pack(p, &buf))
	raw := buf.Bytes()
	// SR_COUNT starts at offset 1; first stitch row number at offset 5.
	// Overwrite it with 99, above the second entry (16), to break strict
	// ascending order.
	binary.BigEndian.PutUint64(raw[5:13], 99)
	_, err = Unpack(bytes.NewReader(raw))
	require.Error(t, err)
}
