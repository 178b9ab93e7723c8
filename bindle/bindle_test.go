package bindle

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/nugget"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/source"
)

func seqHash(i uint32) [32]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], i)
	return sha256.Sum256(b[:])
}

// fakeCrumtrail stands in for the out-of-scope timechain witness proof
// (spec.md's Non-goals: "crumtrail Merkle-tree verification internals,
// treated as an opaque verify() boolean").
type fakeCrumtrail struct {
	cargo sl.Hash
	utc   int64
	block *path.Path
}

func (f *fakeCrumtrail) Verify() bool          { return true }
func (f *fakeCrumtrail) CargoHash() sl.Hash    { return f.cargo }
func (f *fakeCrumtrail) Utc() int64            { return f.utc }
func (f *fakeCrumtrail) BlockPath() *path.Path { return f.block }

// buildTestBindle assembles the S6 scenario: a LOG ledger with 8 source
// rows and a TIMECHAIN ledger whose block 3 commits to the LOG's row 7
// hash, notarized at utc 2500.
func buildTestBindle(t *testing.T) (bdl *Bindle, seed source.SaltSeed, logID, chainID uint32, cargo sl.Hash) {
	t.Helper()

	logStore := ledger.NewMemStore()
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	var rows []*source.SourceRow
	for i := 0; i < 8; i++ {
		sr := &source.SourceRow{
			RowNo: uint64(i + 1),
			Cells: []source.Cell{source.LongCell(int64(i*10), true)},
			Seed:  seed,
		}
		h := sr.Hash()
		_, err := logStore.AppendRows(h[:])
		require.NoError(t, err)
		rows = append(rows, sr)
	}
	srcPack, err := source.NewPack(rows)
	require.NoError(t, err)

	row7, err := logStore.GetRow(7)
	require.NoError(t, err)
	cargo = row7.Hash()

	chainStore := ledger.NewMemStore()
	for i := 1; i <= 3; i++ {
		var ih sl.Hash
		if i == 3 {
			ih = cargo
		} else {
			ih = seqHash(uint32(100 + i))
		}
		_, err := chainStore.AppendRows(ih[:])
		require.NoError(t, err)
	}

	bb := NewBindleBuilder()
	logID = bb.DeclareLedger(nugget.LedgerInfo{Type: nugget.TypeLog, Alias: "log"})
	chainID = bb.DeclareLedger(nugget.LedgerInfo{
		Type:        nugget.TypeTimechain,
		Alias:       "chain",
		ChainParams: &nugget.ChainParamsRef{InceptionUTC: 0, BlockDurationMillis: 1000},
	})

	logState, err := path.State(logStore)
	require.NoError(t, err)
	_, err = bb.AddPath(logID, logState)
	require.NoError(t, err)
	require.NoError(t, bb.SetSource(logID, srcPack))

	blockPath, err := path.Skip(chainStore, 1, 3)
	require.NoError(t, err)
	trail := &fakeCrumtrail{cargo: cargo, utc: 2500, block: blockPath}
	require.NoError(t, bb.AddNotarizedRow(logID, 7, chainID, trail))

	b, err := bb.Build()
	require.NoError(t, err)
	return b, seed, logID, chainID, cargo
}

func TestBindleRoundTrip(t *testing.T) {
	b, seed, logID, chainID, _ := buildTestBindle(t)

	var buf bytes.Buffer
	require.NoError(t, Write(b, &buf))

	seeds := map[uint32]source.SaltSeed{logID: seed}
	reloaded, err := Read(bytes.NewReader(buf.Bytes()), seeds)
	require.NoError(t, err)
	require.Equal(t, b.Ids(), reloaded.Ids())

	n, ok := reloaded.Nugget(chainID)
	require.True(t, ok)
	require.Equal(t, nugget.TypeTimechain, n.ID.Info.Type)
}

func TestBindleRejectsCorruptedBlockHash(t *testing.T) {
	b, seed, logID, _, cargo := buildTestBindle(t)

	var buf bytes.Buffer
	require.NoError(t, Write(b, &buf))
	data := buf.Bytes()

	idx := bytes.LastIndex(data, cargo[:])
	require.GreaterOrEqual(t, idx, 0)
	corrupted := append([]byte(nil), data...)
	corrupted[idx] ^= 0xFF

	seeds := map[uint32]source.SaltSeed{logID: seed}
	_, err := Read(bytes.NewReader(corrupted), seeds)
	require.Error(t, err)
	require.True(t, sl.Is(err, sl.HashConflict))
}

func TestBindleRejectsBadMagic(t *testing.T) {
	b, seed, logID, _, _ := buildTestBindle(t)
	var buf bytes.Buffer
	require.NoError(t, Write(b, &buf))
	data := buf.Bytes()
	data[0] ^= 0xFF

	_, err := Read(bytes.NewReader(data), map[uint32]source.SaltSeed{logID: seed})
	require.Error(t, err)
}
