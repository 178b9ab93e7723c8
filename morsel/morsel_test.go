package morsel

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/rowmath"
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

// rowPackBytes hand-encodes a ROW_PACK from p, standing in for the writer
// the legacy format never specifies.
func rowPackBytes(t *testing.T, p *path.Path) []byte {
	t.Helper()
	var buf bytes.Buffer
	rowNos := p.RowNos()
	require.NoError(t, sl.WriteUint32(&buf, uint32(len(rowNos))))
	for _, n := range rowNos {
		require.NoError(t, sl.WriteUint64(&buf, n))
	}
	refNos := rowmath.SortedKeys(rowmath.RefOnlyCoverage(rowNos))
	for _, n := range refNos {
		h, ok := p.GetRowHash(n)
		require.True(t, ok)
		require.NoError(t, sl.WriteHash(&buf, h))
	}
	for _, r := range p.Rows() {
		require.NoError(t, sl.WriteHash(&buf, r.InputHash))
	}
	return buf.Bytes()
}

// morselBytes assembles a full MRSL container around the given packs
// (row, trail, source, path, assets — trailing absent packs may be nil,
// encoded as zero-length parts).
func morselBytes(t *testing.T, parts ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Magic[:])
	require.NoError(t, sl.WriteByte(&buf, byte(len(parts))))
	for _, p := range parts {
		require.NoError(t, sl.WriteUint32(&buf, uint32(len(p))))
	}
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}

func TestMorselRowPackRoundTrip(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := path.Skip(m, 1, 16)
	require.NoError(t, err)

	rp := rowPackBytes(t, p)
	data := morselBytes(t, rp, nil, nil, nil)

	ms, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	rowPack, err := ms.RowPack()
	require.NoError(t, err)
	rows := rowPack.Rows()
	require.Equal(t, p.RowNos(), rowNos(rows))
	for _, r := range rows {
		want, ok := p.Row(r.RowNo)
		require.True(t, ok)
		require.Equal(t, want.InputHash, r.InputHash)
		require.Equal(t, want.Hash(), r.Hash())
	}

	_, ok, err := ms.TrailPack()
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = ms.SourcePack([32]byte{})
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = ms.PathPack()
	require.NoError(t, err)
	require.False(t, ok)
}

func rowNos(rows []*ledger.Row) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = r.RowNo
	}
	return out
}

func TestMorselTrailPackPresent(t *testing.T) {
	m := buildLedger(t, 16)
	p, err := path.Skip(m, 1, 16)
	require.NoError(t, err)
	rp := rowPackBytes(t, p)

	var cargo sl.Hash
	copy(cargo[:], inputHash(99)[:])

	var trailBuf bytes.Buffer
	require.NoError(t, sl.WriteUint32(&trailBuf, 7)) // chain id
	require.NoError(t, sl.WriteUint32(&trailBuf, 1))  // row count
	require.NoError(t, sl.WriteUint64(&trailBuf, 16))
	require.NoError(t, sl.WriteHash(&trailBuf, cargo))
	require.NoError(t, sl.WriteUint64(&trailBuf, 5000))

	data := morselBytes(t, rp, trailBuf.Bytes(), nil, nil)
	ms, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	trail, ok, err := ms.TrailPack()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(7), trail.ChainID)
	require.Len(t, trail.Rows(), 1)
	require.Equal(t, cargo, trail.Rows()[0].CargoHash)
}

func TestMorselAssets(t *testing.T) {
	m := buildLedger(t, 8)
	p, err := path.Skip(m, 1, 8)
	require.NoError(t, err)
	rp := rowPackBytes(t, p)

	var assetBuf bytes.Buffer
	require.NoError(t, sl.WriteUint32(&assetBuf, 1))
	require.NoError(t, sl.WriteBytes32(&assetBuf, []byte("README")))
	require.NoError(t, sl.WriteBytes32(&assetBuf, []byte("hello morsel")))

	data := morselBytes(t, rp, nil, nil, nil, assetBuf.Bytes())
	ms, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	assets, err := ms.Assets()
	require.NoError(t, err)
	require.Equal(t, []byte("hello morsel"), assets["README"])
}

func TestMorselRejectsBadMagic(t *testing.T) {
	m := buildLedger(t, 8)
	p, err := path.Skip(m, 1, 8)
	require.NoError(t, err)
	rp := rowPackBytes(t, p)
	data := morselBytes(t, rp, nil, nil, nil)
	data[0] ^= 0xFF

	_, err = Read(bytes.NewReader(data))
	require.Error(t, err)
	require.True(t, sl.Is(err, sl.SerialFormat))
}

func TestMorselRejectsBelowMinPackCount(t *testing.T) {
	m := buildLedger(t, 8)
	p, err := path.Skip(m, 1, 8)
	require.NoError(t, err)
	rp := rowPackBytes(t, p)
	data := morselBytes(t, rp, nil, nil)

	_, err = Read(bytes.NewReader(data))
	require.Error(t, err)
	require.True(t, sl.Is(err, sl.SerialFormat))
}

func TestRowPackRejectsOutOfOrderRowNos(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sl.WriteUint32(&buf, 2))
	require.NoError(t, sl.WriteUint64(&buf, 4))
	require.NoError(t, sl.WriteUint64(&buf, 2))

	_, err := ReadRowPack(&buf)
	require.Error(t, err)
	require.True(t, sl.Is(err, sl.SerialFormat))
}
