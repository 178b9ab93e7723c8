package nugget

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

func inputHash(i uint32) [32]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], i)
	return sha256.Sum256(b[:])
}

func TestBuilderProducesValidNugget(t *testing.T) {
	m := ledger.NewMemStore()
	var rows []*source.SourceRow
	var seed source.SaltSeed
	for i := range seed {
		seed[i] = byte(i)
	}
	for i := 0; i < 10; i++ {
		sr := &source.SourceRow{
			RowNo: uint64(i + 1),
			Cells: []source.Cell{source.LongCell(int64(i), true)},
			Seed:  seed,
		}
		h := sr.Hash()
		_, err := m.AppendRows(h[:])
		require.NoError(t, err)
		rows = append(rows, sr)
	}
	pack, err := source.NewPack(rows)
	require.NoError(t, err)

	id := LedgerId{ID: 1, Info: LedgerInfo{Type: TypeLog, Alias: "main"}}
	b := NewBuilder(id)
	p, err := path.State(m)
	require.NoError(t, err)
	_, err = b.AddPath(p)
	require.NoError(t, err)
	b.SetSource(pack)

	n, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, id.ID, n.ID.ID)
}

func TestBuildRejectsSourceHashMismatch(t *testing.T) {
	m := ledger.NewMemStore()
	for i := 0; i < 4; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		require.NoError(t, err)
	}
	var seed source.SaltSeed
	mismatched := &source.SourceRow{RowNo: 1, Cells: []source.Cell{source.LongCell(999, false)}, Seed: seed}
	pack, err := source.NewPack([]*source.SourceRow{mismatched})
	require.NoError(t, err)

	id := LedgerId{ID: 1, Info: LedgerInfo{Type: TypeLog}}
	b := NewBuilder(id)
	p, err := path.State(m)
	require.NoError(t, err)
	_, err = b.AddPath(p)
	require.NoError(t, err)
	b.SetSource(pack)

	_, err = b.Build()
	require.Error(t, err)
}

func TestCommitsOnlyRejectsForeignRefs(t *testing.T) {
	m := ledger.NewMemStore()
	for i := 0; i < 4; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		require.NoError(t, err)
	}
	id := LedgerId{ID: 2, Info: LedgerInfo{Type: TypeTimechain}}
	b := NewBuilder(id)
	p, err := path.State(m)
	require.NoError(t, err)
	_, err = b.AddPath(p)
	require.NoError(t, err)
	frb := xref.NewBuilder(7, true)
	require.NoError(t, frb.Add(xref.Reference{FromRow: 1, FromCol: 0, ToRow: 4, ToCol: xref.ColCommitHash}))
	b.AddForeignRefs(frb.Build())

	_, err = b.Build()
	require.Error(t, err)
}

func TestCommitsOnlyRejectsSourcePack(t *testing.T) {
	m := ledger.NewMemStore()
	var seed source.SaltSeed
	for i := 0; i < 4; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		require.NoError(t, err)
	}
	sr := &source.SourceRow{RowNo: 1, Cells: []source.Cell{source.LongCell(1, true)}, Seed: seed}
	pack, err := source.NewPack([]*source.SourceRow{sr})
	require.NoError(t, err)

	id := LedgerId{ID: 2, Info: LedgerInfo{Type: TypeTimechain}}
	b := NewBuilder(id)
	p, err := path.State(m)
	require.NoError(t, err)
	_, err = b.AddPath(p)
	require.NoError(t, err)
	b.SetSource(pack)

	_, err = b.Build()
	require.Error(t, err)
}

func TestNotaryRowMustMatchPathHash(t *testing.T) {
	m := ledger.NewMemStore()
	for i := 0; i < 4; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		require.NoError(t, err)
	}
	id := LedgerId{ID: 3, Info: LedgerInfo{Type: TypeLog}}
	b := NewBuilder(id)
	p, err := path.State(m)
	require.NoError(t, err)
	_, err = b.AddPath(p)
	require.NoError(t, err)

	nb := notary.NewBuilder(99)
	_, err = nb.Add(notary.NotarizedRow{RowNo: 4, CargoHash: inputHash(42), Utc: 10})
	require.NoError(t, err)
	np, err := nb.Build()
	require.NoError(t, err)
	b.AddNotaryPack(np)

	_, err = b.Build()
	require.Error(t, err)
}
