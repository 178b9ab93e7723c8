// Command skipledger-demo is a thin end-to-end example exercising the
// ledger/path/multipath/nugget/bindle stack through six named scenarios
// (S1-S6). It demonstrates the library; it is not a general-purpose CLI,
// which remains an external collaborator out of scope for this module.
//
// A flag-driven driver that builds a store, runs a handful of named
// routines against it, and reports results with plain log output.
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"flag"
	"log"
	"os"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/bindle"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/multipath"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/nugget"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

func main() {
	dbdir := flag.String("dbdir", "", "badger directory for the S1 FileStore demo (temp dir if empty)")
	flag.Parse()

	dir := *dbdir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "skipledger-demo-*")
		must(err)
		defer os.RemoveAll(dir)
	}

	s1EmptyToOneRow(dir)
	s2Condensation()
	s3MultiPathAuthority()
	s4ForeignRefVerification()
	s5NotarizationRejection()
	s6BindleRoundTrip()
}

func must(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}

func inputHash(i uint32) [32]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], i)
	return sha256.Sum256(b[:])
}

// s1EmptyToOneRow appends a single row to a fresh badger-backed FileStore
// and checks the row's hash against the row-hash formula directly.
func s1EmptyToOneRow(dir string) {
	fs, err := ledger.OpenFileStore(dir)
	must(err)
	defer fs.Close()

	ih := sl.Hash{0x11}
	for i := 1; i < sl.HashSize; i++ {
		ih[i] = 0x11
	}
	_, err = fs.AppendRows(ih[:])
	must(err)

	row, err := fs.GetRow(1)
	must(err)
	want := sl.Sum(ih[:], sl.Sentinel[:])
	if row.Hash() != want {
		log.Fatalf("S1: row 1 hash mismatch")
	}
	log.Printf("S1 ok: size=%d, row(1).hash=%x", fs.Size(), row.Hash())
}

// s2Condensation builds a 16-row ledger, compresses its state path, and
// checks hi_hash is preserved while the condensed encoding is smaller.
func s2Condensation() {
	m := ledger.NewMemStore()
	for i := 0; i < 16; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		must(err)
	}
	full, err := path.State(m)
	must(err)
	if !equalRowNos(full.RowNos(), []uint64{1, 2, 4, 8, 16}) {
		log.Fatalf("S2: unexpected state path rows %v", full.RowNos())
	}

	condensed := full.Compress()
	if condensed.HiHash() != full.HiHash() {
		log.Fatalf("S2: compression changed hi_hash")
	}
	fullSize, err := packSize(full)
	must(err)
	condSize, err := packSize(condensed)
	must(err)
	if condSize >= fullSize {
		log.Fatalf("S2: condensed pack (%d bytes) not smaller than full (%d bytes)", condSize, fullSize)
	}
	log.Printf("S2 ok: full pack %d bytes, condensed %d bytes", fullSize, condSize)
}

func packSize(p *path.Path) (int, error) {
	var buf bytes.Buffer
	if err := path.Pack(p, &buf); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func equalRowNos(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// s3MultiPathAuthority builds a 52-row ledger and two overlapping paths,
// checking single authority and highest_common_no.
func s3MultiPathAuthority() {
	m := ledger.NewMemStore()
	for i := 0; i < 52; i++ {
		h := inputHash(uint32(i))
		_, err := m.AppendRows(h[:])
		must(err)
	}
	p1, err := path.Skip(m, 1, 16)
	must(err)
	p2, err := path.Skip(m, 11, 52)
	must(err)

	mp, err := multipath.New([]*path.Path{p1, p2})
	must(err)
	if !mp.SingleAuthority() {
		log.Fatalf("S3: expected single authority")
	}
	p3, err := path.Get(m, []uint64{11, 17})
	must(err)
	if got := mp.HighestCommonNo(p3); got != 16 {
		log.Fatalf("S3: highest_common_no = %d, want 16", got)
	}
	log.Printf("S3 ok: single_authority=%v, highest_common_no(11,17)=16", mp.SingleAuthority())
}

// s4ForeignRefVerification builds two ledgers with matching salted string
// cells and validates a single-cell foreign reference between them.
func s4ForeignRefVerification() {
	storeA := ledger.NewMemStore()
	storeB := ledger.NewMemStore()
	var seedA, seedB source.SaltSeed
	for i := range seedA {
		seedA[i] = byte(i + 1)
		seedB[i] = byte(i + 101)
	}

	rowA := &source.SourceRow{RowNo: 5, Cells: []source.Cell{
		source.NullCell(), source.NullCell(),
		source.StringCell("hello", true),
	}, Seed: seedA}
	rowB := &source.SourceRow{RowNo: 9, Cells: []source.Cell{
		source.StringCell("hello", true),
	}, Seed: seedB}

	for i := uint64(1); i <= 5; i++ {
		var ih sl.Hash
		if i == 5 {
			ih = rowA.Hash()
		} else {
			h := inputHash(uint32(1000 + i))
			ih = h
		}
		_, err := storeA.AppendRows(ih[:])
		must(err)
	}
	for i := uint64(1); i <= 9; i++ {
		var ih sl.Hash
		if i == 9 {
			ih = rowB.Hash()
		} else {
			h := inputHash(uint32(2000 + i))
			ih = h
		}
		_, err := storeB.AppendRows(ih[:])
		must(err)
	}

	bb := bindle.NewBindleBuilder()
	idA := bb.DeclareLedger(nugget.LedgerInfo{Type: nugget.TypeLog, Alias: "A"})
	idB := bb.DeclareLedger(nugget.LedgerInfo{Type: nugget.TypeLog, Alias: "B"})

	stateA, err := path.State(storeA)
	must(err)
	must1(bb.AddPath(idA, stateA))
	packA, err := source.NewPack([]*source.SourceRow{rowA})
	must(err)
	must(bb.SetSource(idA, packA))

	stateB, err := path.State(storeB)
	must(err)
	must1(bb.AddPath(idB, stateB))
	packB, err := source.NewPack([]*source.SourceRow{rowB})
	must(err)
	must(bb.SetSource(idB, packB))

	frb := xref.NewBuilder(idA, false)
	must(frb.Add(xref.Reference{FromRow: 9, FromCol: 0, ToRow: 5, ToCol: 2}))
	must(bb.AddForeignRefs(idB, frb.Build()))

	bdl, err := bb.Build()
	must(err)
	n, ok := bdl.Nugget(idB)
	if !ok {
		log.Fatalf("S4: nugget B missing from bindle")
	}
	log.Printf("S4 ok: foreign ref validated, B's nugget carries %d ref pack(s)", len(n.Refs))
}

func must1(_ uint64, err error) {
	must(err)
}

// s5NotarizationRejection adds a higher row number then a lower one with
// the same utc to a fresh NotaryPack builder; the second call must be
// rejected as redundant.
func s5NotarizationRejection() {
	nb := notary.NewBuilder(1)
	ok1, err := nb.Add(notary.NotarizedRow{RowNo: 64, Utc: 1000})
	must(err)
	ok2, err := nb.Add(notary.NotarizedRow{RowNo: 32, Utc: 1000})
	must(err)
	if !ok1 || ok2 {
		log.Fatalf("S5: expected (true,false), got (%v,%v)", ok1, ok2)
	}
	pack, err := nb.Build()
	must(err)
	if len(pack.Rows()) != 1 {
		log.Fatalf("S5: expected 1 surviving row, got %d", len(pack.Rows()))
	}
	log.Printf("S5 ok: redundant notarization rejected, builder holds %d row", len(pack.Rows()))
}

// s6BindleRoundTrip builds a two-ledger bindle (LOG + TIMECHAIN) with one
// notarization, serializes it, reloads it, then corrupts the timechain
// block's input hash and checks the reload now fails with HashConflict.
func s6BindleRoundTrip() {
	logStore := ledger.NewMemStore()
	var seed source.SaltSeed
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	var rows []*source.SourceRow
	for i := 0; i < 8; i++ {
		sr := &source.SourceRow{RowNo: uint64(i + 1), Cells: []source.Cell{source.LongCell(int64(i), true)}, Seed: seed}
		h := sr.Hash()
		_, err := logStore.AppendRows(h[:])
		must(err)
		rows = append(rows, sr)
	}
	srcPack, err := source.NewPack(rows)
	must(err)
	row7, err := logStore.GetRow(7)
	must(err)
	cargo := row7.Hash()

	chainStore := ledger.NewMemStore()
	for i := 1; i <= 3; i++ {
		var ih sl.Hash
		if i == 3 {
			ih = cargo
		} else {
			h := inputHash(uint32(9000 + i))
			ih = h
		}
		_, err := chainStore.AppendRows(ih[:])
		must(err)
	}

	bb := bindle.NewBindleBuilder()
	logID := bb.DeclareLedger(nugget.LedgerInfo{Type: nugget.TypeLog, Alias: "log"})
	chainID := bb.DeclareLedger(nugget.LedgerInfo{
		Type:        nugget.TypeTimechain,
		Alias:       "chain",
		ChainParams: &nugget.ChainParamsRef{InceptionUTC: 0, BlockDurationMillis: 1000},
	})

	logState, err := path.State(logStore)
	must(err)
	must1(bb.AddPath(logID, logState))
	must(bb.SetSource(logID, srcPack))

	blockPath, err := path.Skip(chainStore, 1, 3)
	must(err)
	trail := &demoCrumtrail{cargo: cargo, utc: 2500, block: blockPath}
	must(bb.AddNotarizedRow(logID, 7, chainID, trail))

	bdl, err := bb.Build()
	must(err)

	var buf bytes.Buffer
	must(bindle.Write(bdl, &buf))
	seeds := map[uint32]source.SaltSeed{logID: seed}
	reloaded, err := bindle.Read(bytes.NewReader(buf.Bytes()), seeds)
	must(err)
	if !equalIds(bdl.Ids(), reloaded.Ids()) {
		log.Fatalf("S6: reloaded bindle id set disagrees")
	}

	data := buf.Bytes()
	idx := bytes.LastIndex(data, cargo[:])
	if idx < 0 {
		log.Fatalf("S6: could not locate cargo hash to corrupt")
	}
	corrupted := append([]byte(nil), data...)
	corrupted[idx] ^= 0xFF
	if _, err := bindle.Read(bytes.NewReader(corrupted), seeds); !sl.Is(err, sl.HashConflict) {
		log.Fatalf("S6: corrupted block hash did not raise HashConflict: %v", err)
	}
	log.Printf("S6 ok: bindle round-trips, corruption detected as HashConflict")
}

func equalIds(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type demoCrumtrail struct {
	cargo sl.Hash
	utc   int64
	block *path.Path
}

func (d *demoCrumtrail) Verify() bool          { return true }
func (d *demoCrumtrail) CargoHash() sl.Hash    { return d.cargo }
func (d *demoCrumtrail) Utc() int64            { return d.utc }
func (d *demoCrumtrail) BlockPath() *path.Path { return d.block }
