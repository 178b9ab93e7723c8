package path

import (
	"bytes"
	"io"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/rowmath"
)

// PathPack is the compact wire form of a Path: instead of the full
// expanded row list it frames the minimal seed row numbers and lets the
// reader re-derive the stitched row set with rowmath.Stitch, then carries
// just the input hashes and referenced-only hashes needed to reconstruct
// every row object.
type PathPack struct {
	Condensed bool
	SeedRows  []uint64
}

// Pack encodes p. All rows in p must share the same condensation state
// (all full or all condensed, as produced by Get/Skip/State vs. Compress);
// mixed paths are rejected since TYPE is a single pack-wide flag.
func Pack(p *Path, w io.Writer) error {
	condensed, err := uniformCondensation(p)
	if err != nil {
		return err
	}

	stitched := rowmath.Stitch(p.Seed())
	if !sameSequence(stitched, p.RowNos()) {
		return sl.Kindf(sl.SerialFormat, "path: seed does not stitch back to this path's row sequence")
	}

	typ := byte(0)
	if condensed {
		typ = 1
	}
	if err := sl.WriteByte(w, typ); err != nil {
		return err
	}
	if err := sl.WriteUint32(w, uint32(len(p.Seed()))); err != nil {
		return err
	}
	for _, n := range p.Seed() {
		if err := sl.WriteUint64(w, n); err != nil {
			return err
		}
	}

	byRowNo := make(map[uint64]*ledger.Row, len(p.Rows()))
	for _, r := range p.Rows() {
		byRowNo[r.RowNo] = r
		if err := sl.WriteHash(w, r.InputHash); err != nil {
			return err
		}
	}

	if condensed {
		for _, r := range p.Rows() {
			for _, h := range r.Levels.FunnelSiblings() {
				if err := sl.WriteHash(w, h); err != nil {
					return err
				}
			}
		}
	}

	refOnly := refOnlyRows(p)
	for _, n := range refOnly {
		h, ok := p.GetRowHash(n)
		if !ok {
			return sl.Kindf(sl.SerialFormat, "path: referenced row %d has no known hash to frame", n)
		}
		if err := sl.WriteHash(w, h); err != nil {
			return err
		}
	}
	return nil
}

// refOnlyRows returns, in ascending order, every row number referenced by
// some row's levels pointer but not itself present in the path.
func refOnlyRows(p *Path) []uint64 {
	present := make(map[uint64]struct{}, len(p.rows))
	for _, r := range p.rows {
		present[r.RowNo] = struct{}{}
	}
	refs := make(map[uint64]struct{})
	for _, r := range p.rows {
		for k := 0; k < r.Levels.Count(); k++ {
			if _, ok := r.Levels.LevelHash(k); !ok {
				continue
			}
			n := r.PredecessorRowNo(k)
			if n == 0 {
				continue
			}
			if _, ok := present[n]; ok {
				continue
			}
			refs[n] = struct{}{}
		}
	}
	return rowmath.SortedKeys(refs)
}

func uniformCondensation(p *Path) (bool, error) {
	condensed := p.rows[0].Levels.IsCondensed()
	for _, r := range p.rows[1:] {
		if r.Levels.IsCondensed() != condensed {
			return false, sl.Kindf(sl.SerialFormat, "path: rows mix condensed and full levels pointers")
		}
	}
	return condensed, nil
}

func sameSequence(a, b []uint64) bool {
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

// Unpack decodes a PathPack and reconstructs the Path it frames, re-running
// every Path construction check (reject negative/zero counts, counts
// exceeding the input, out-of-order stitch numbers, hash conflicts).
func Unpack(r io.Reader) (*Path, error) {
	typ, err := sl.ReadByte(r)
	if err != nil {
		return nil, err
	}
	if typ != 0 && typ != 1 {
		return nil, sl.Kindf(sl.SerialFormat, "path: unknown TYPE byte %d", typ)
	}
	condensed := typ == 1

	srCount, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if srCount == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "path: SR_COUNT must be positive")
	}
	seed := make([]uint64, srCount)
	for i := range seed {
		n, err := sl.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, sl.Kindf(sl.SerialFormat, "path: row number 0 is not valid")
		}
		if i > 0 && n <= seed[i-1] {
			return nil, sl.Kindf(sl.SerialFormat, "path: STITCH_RNS not strictly ascending")
		}
		seed[i] = n
	}

	stitched := rowmath.Stitch(seed)
	inputHashes := make([]sl.Hash, len(stitched))
	for i := range inputHashes {
		h, err := sl.ReadHash(r)
		if err != nil {
			return nil, err
		}
		inputHashes[i] = h
	}

	funnelLens := make([]int, len(stitched))
	if condensed {
		for i, n := range stitched {
			p := rowmath.SkipCount(n)
			if i == 0 {
				funnelLens[i] = funnelLength(p, 0)
			} else {
				diff := n - stitched[i-1]
				ell := trailingZeros(diff)
				funnelLens[i] = funnelLength(p, ell)
			}
		}
	}
	funnels := make([][]sl.Hash, len(stitched))
	if condensed {
		for i, fl := range funnelLens {
			f := make([]sl.Hash, fl)
			for j := range f {
				h, err := sl.ReadHash(r)
				if err != nil {
					return nil, err
				}
				f[j] = h
			}
			funnels[i] = f
		}
	}

	rows := make([]*ledger.Row, len(stitched))
	byRowNo := make(map[uint64]*ledger.Row, len(stitched))
	for i, n := range stitched {
		var lp *ledger.LevelsPointer
		if condensed {
			ell := 0
			if i > 0 {
				ell = trailingZeros(n - stitched[i-1])
			}
			lp = ledger.NewCondensedLevelsPointer(ell, sl.Sentinel, funnels[i])
			// condensedHash is filled in below once we know the level value;
			// placeholder above exists only to reserve the funnel.
		}
		row := &ledger.Row{RowNo: n, InputHash: inputHashes[i], Levels: lp}
		rows[i] = row
		byRowNo[n] = row
	}

	// Resolve referenced-only rows (R_TBL) and fill the condensed level
	// values (the one level each row actually needs to link to its path
	// predecessor) from either a present row's real hash or R_TBL.
	refNos := refCandidates(stitched, condensed)
	refHashes := make(map[uint64]sl.Hash, len(refNos))
	for _, n := range refNos {
		h, err := sl.ReadHash(r)
		if err != nil {
			return nil, err
		}
		refHashes[n] = h
	}

	lookup := func(n uint64) (sl.Hash, bool) {
		if n == 0 {
			return sl.Sentinel, true
		}
		if row, ok := byRowNo[n]; ok {
			return row.Hash(), true
		}
		if h, ok := refHashes[n]; ok {
			return h, true
		}
		return sl.Hash{}, false
	}

	if condensed {
		for i, n := range stitched {
			ell := 0
			if i > 0 {
				ell = trailingZeros(n - stitched[i-1])
			}
			pred := n - (uint64(1) << uint(ell))
			h, ok := lookup(pred)
			if !ok {
				return nil, sl.Kindf(sl.SerialFormat, "path: cannot resolve level %d hash for row %d", ell, n)
			}
			rows[i].Levels = ledger.NewCondensedLevelsPointer(ell, h, funnels[i])
		}
	} else {
		for i, n := range stitched {
			p := rowmath.SkipCount(n)
			levels := make([]sl.Hash, p)
			for k := 0; k < p; k++ {
				pred := n - (uint64(1) << uint(k))
				h, ok := lookup(pred)
				if !ok {
					return nil, sl.Kindf(sl.SerialFormat, "path: cannot resolve level %d hash for row %d", k, n)
				}
				levels[k] = h
			}
			rows[i].Levels = ledger.NewFullLevelsPointer(levels)
		}
	}

	return New(rows, seed)
}

// refCandidates mirrors refOnlyRows but operates on the bare stitched row
// number sequence before any Row objects exist (used while decoding,
// symmetric with the encoder's computation over the finished Path). For a
// full pack every level of every row is a candidate; for a condensed pack
// only the single level each row retains (linking it to its predecessor in
// the stitched sequence) is.
func refCandidates(stitched []uint64, condensed bool) []uint64 {
	present := make(map[uint64]struct{}, len(stitched))
	for _, n := range stitched {
		present[n] = struct{}{}
	}
	refs := make(map[uint64]struct{})
	for i, n := range stitched {
		var levels []int
		if condensed {
			ell := 0
			if i > 0 {
				ell = trailingZeros(n - stitched[i-1])
			}
			levels = []int{ell}
		} else {
			p := rowmath.SkipCount(n)
			levels = make([]int, p)
			for k := range levels {
				levels[k] = k
			}
		}
		for _, ell := range levels {
			pred := n - (uint64(1) << uint(ell))
			if pred == 0 {
				continue
			}
			if _, ok := present[pred]; ok {
				continue
			}
			refs[pred] = struct{}{}
		}
	}
	return rowmath.SortedKeys(refs)
}

func trailingZeros(n uint64) int {
	count := 0
	for n&1 == 0 && n != 0 {
		n >>= 1
		count++
	}
	return count
}

func funnelLength(p, ell int) int {
	// Number of Merkle tree layers above a set of p leaves.
	layer := p
	count := 0
	for layer > 1 {
		layer = (layer + 1) / 2
		count++
	}
	return count
}

// MustBytes encodes p and panics on error, for tests and demo code that
// already know p is well-formed.
func MustBytes(p *Path) []byte {
	var buf bytes.Buffer
	if err := Pack(p, &buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
