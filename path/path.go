// Package path implements Path, the validated ordered row sequence at the
// heart of skip-ledger proofs, plus its compact binary pack form
// (PathPack, see pack.go). A Path is built either directly from a
// SkipLedger (Get/Skip/State) or reconstructed from a PathPack; either
// way construction re-validates every invariant so a *Path is always
// safe to trust once it exists.
package path

import (
	"math/bits"
	"sort"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/rowmath"
)

// Path is a finite ordered sequence of rows r1 < r2 < ... < rm such that
// each adjacent pair is linked by a valid skip pointer.
type Path struct {
	rows []*ledger.Row
	// seed is the minimal anchor row-number set this path remembers
	// itself as having been built from; PathPack frames this instead of
	// the full row list and relies on rowmath.Stitch to re-expand it.
	seed []uint64
}

// New validates rows (already-ascending, already-linked by the caller's
// construction) and wraps them in a Path. It re-checks every construction
// invariant so a Path built this way — e.g. by a PathPack loader — is
// exactly as trustworthy as one built from a live ledger.
func New(rows []*ledger.Row, seed []uint64) (*Path, error) {
	if len(rows) == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "path: empty row sequence")
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].RowNo <= rows[i-1].RowNo {
			return nil, sl.Kindf(sl.SerialFormat, "path: row numbers not strictly ascending at index %d", i)
		}
		if !rowmath.RowsLinked(rows[i-1].RowNo, rows[i].RowNo) {
			return nil, sl.Kindf(sl.SerialFormat, "path: rows %d and %d are not linked", rows[i-1].RowNo, rows[i].RowNo)
		}
	}
	// Every row whose levels reference another row present in the path
	// must agree with that row's actual hash.
	byRowNo := make(map[uint64]*ledger.Row, len(rows))
	for _, r := range rows {
		byRowNo[r.RowNo] = r
	}
	for _, r := range rows {
		for k, h := range allKnownLevels(r.Levels) {
			pred := r.PredecessorRowNo(k)
			if other, ok := byRowNo[pred]; ok {
				if other.Hash() != h {
					return nil, sl.Kindf(sl.HashConflict, "path: row %d asserts hash for row %d that disagrees with the row itself", r.RowNo, pred)
				}
			}
		}
	}
	if seed == nil {
		seed = rowNos(rows)
	}
	return &Path{rows: rows, seed: seed}, nil
}

// allKnownLevels returns the level index -> hash map of every level this
// pointer actually knows (used by Path's cross-check above).
func allKnownLevels(lp *ledger.LevelsPointer) map[int]sl.Hash {
	out := make(map[int]sl.Hash)
	for k := 0; k < lp.Count(); k++ {
		if h, ok := lp.LevelHash(k); ok {
			out[k] = h
		}
	}
	return out
}

func rowNos(rows []*ledger.Row) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = r.RowNo
	}
	return out
}

// Lo is the lowest row number in the path.
func (p *Path) Lo() uint64 { return p.rows[0].RowNo }

// Hi is the highest row number in the path.
func (p *Path) Hi() uint64 { return p.rows[len(p.rows)-1].RowNo }

// Length returns the number of rows in the path.
func (p *Path) Length() int { return len(p.rows) }

// RowNos returns the ascending row numbers of every row explicitly present.
func (p *Path) RowNos() []uint64 { return rowNos(p.rows) }

// Seed returns the minimal anchor set this path was constructed/framed
// from; rowmath.Stitch(Seed()) reproduces RowNos().
func (p *Path) Seed() []uint64 { return p.seed }

// Rows returns the underlying rows, ascending. Callers must not mutate.
func (p *Path) Rows() []*ledger.Row { return p.rows }

// HasRow reports whether row n is explicitly present (full, not just
// referenced).
func (p *Path) HasRow(n uint64) bool {
	_, ok := p.findRow(n)
	return ok
}

func (p *Path) findRow(n uint64) (*ledger.Row, bool) {
	i := sort.Search(len(p.rows), func(i int) bool { return p.rows[i].RowNo >= n })
	if i < len(p.rows) && p.rows[i].RowNo == n {
		return p.rows[i], true
	}
	return nil, false
}

// Row returns the full *ledger.Row object for row n if explicitly present
// (not just referenced).
func (p *Path) Row(n uint64) (*ledger.Row, bool) {
	return p.findRow(n)
}

// CoversRow reports whether the hash of row n is known either directly
// (HasRow) or via some present row's levels pointer.
func (p *Path) CoversRow(n uint64) bool {
	_, ok := p.GetRowHash(n)
	return ok
}

// GetRowHash returns the hash of row n if known, directly or through a
// levels pointer, false otherwise. Row 0 always resolves to the sentinel.
func (p *Path) GetRowHash(n uint64) (sl.Hash, bool) {
	if n == 0 {
		return sl.Sentinel, true
	}
	if r, ok := p.findRow(n); ok {
		return r.Hash(), true
	}
	for _, r := range p.rows {
		if r.RowNo <= n {
			continue
		}
		for k := 0; k < r.Levels.Count(); k++ {
			if r.PredecessorRowNo(k) == n {
				if h, ok := r.Levels.LevelHash(k); ok {
					return h, true
				}
			}
		}
	}
	return sl.Hash{}, false
}

// SubPath returns the positional slice of rows whose row numbers lie in
// [from, to]; both bounds must name rows actually present in the path
// (endpoints remain linked automatically, being a contiguous subsequence
// of an already-linked chain).
func (p *Path) SubPath(from, to uint64) (*Path, error) {
	i, ok := p.indexOf(from)
	if !ok {
		return nil, sl.Kindf(sl.OutOfBounds, "path: row %d not present", from)
	}
	j, ok := p.indexOf(to)
	if !ok || j < i {
		return nil, sl.Kindf(sl.OutOfBounds, "path: row %d not present or precedes %d", to, from)
	}
	sub := make([]*ledger.Row, j-i+1)
	copy(sub, p.rows[i:j+1])
	return New(sub, nil)
}

func (p *Path) indexOf(n uint64) (int, bool) {
	i := sort.Search(len(p.rows), func(i int) bool { return p.rows[i].RowNo >= n })
	if i < len(p.rows) && p.rows[i].RowNo == n {
		return i, true
	}
	return 0, false
}

// HeadPath returns the non-empty prefix of rows with RowNo <= beforeHi.
func (p *Path) HeadPath(beforeHi uint64) (*Path, error) {
	end := 0
	for end < len(p.rows) && p.rows[end].RowNo <= beforeHi {
		end++
	}
	if end == 0 {
		return nil, sl.Kindf(sl.OutOfBounds, "path: no rows at or below %d", beforeHi)
	}
	sub := make([]*ledger.Row, end)
	copy(sub, p.rows[:end])
	return New(sub, nil)
}

// TailPath returns the non-empty suffix of rows with RowNo >= fromLo.
func (p *Path) TailPath(fromLo uint64) (*Path, error) {
	start := 0
	for start < len(p.rows) && p.rows[start].RowNo < fromLo {
		start++
	}
	if start == len(p.rows) {
		return nil, sl.Kindf(sl.OutOfBounds, "path: no rows at or above %d", fromLo)
	}
	sub := make([]*ledger.Row, len(p.rows)-start)
	copy(sub, p.rows[start:])
	return New(sub, nil)
}

// HighestCommonNo returns the highest row number whose hash both p and
// other know, and know the *same* value for; 0 if there is none.
func (p *Path) HighestCommonNo(other *Path) uint64 {
	c := p.Comp(other)
	return c.CommonNo
}

// Comp is the richer comparison result of two paths: the highest row
// where both agree (CommonNo), and the highest row where they actively
// disagree (ConflictNo, 0 if none). Comp never errors; callers translate
// a non-zero ConflictNo into a HashConflict where that matters.
type Comp struct {
	CommonNo   uint64
	ConflictNo uint64
}

// Comp compares p against other over every row number either one knows
// the hash of.
func (p *Path) Comp(other *Path) Comp {
	seen := make(map[uint64]struct{})
	for _, r := range p.rows {
		seen[r.RowNo] = struct{}{}
		addCoverage(seen, r)
	}
	for _, r := range other.rows {
		seen[r.RowNo] = struct{}{}
		addCoverage(seen, r)
	}
	var c Comp
	for n := range seen {
		ha, oka := p.GetRowHash(n)
		hb, okb := other.GetRowHash(n)
		if !oka || !okb {
			continue
		}
		if ha == hb {
			if n > c.CommonNo {
				c.CommonNo = n
			}
		} else {
			if n > c.ConflictNo {
				c.ConflictNo = n
			}
		}
	}
	return c
}

func addCoverage(set map[uint64]struct{}, r *ledger.Row) {
	for k := 0; k < r.Levels.Count(); k++ {
		set[r.PredecessorRowNo(k)] = struct{}{}
	}
}

// Compress returns an equivalent path with every row's levels pointer
// condensed to just the level linking it to the previous row in the path
// (the first row condenses to level 0, an arbitrary but valid choice
// since nothing in the path depends on its other levels). This strictly
// reduces data without losing verifiability: HiHash is unchanged and
// every row the compressed path covers is covered by the original. The
// reverse does not hold: rows referenced only through a dropped level
// (e.g. row 15 via row 16's level 0 when row 16 links to row 8) are no
// longer covered.
func (p *Path) Compress() *Path {
	out := make([]*ledger.Row, len(p.rows))
	for i, r := range p.rows {
		var ell int
		if i == 0 {
			ell = 0
		} else {
			diff := r.RowNo - p.rows[i-1].RowNo
			ell = bits.TrailingZeros64(diff)
		}
		if ell >= r.Levels.Count() {
			ell = r.Levels.Count() - 1
		}
		condensed := r.Levels.Condense(ell)
		out[i] = &ledger.Row{RowNo: r.RowNo, InputHash: r.InputHash, Levels: condensed}
	}
	return &Path{rows: out, seed: p.seed}
}

// HiHash returns the hash of the path's highest row.
func (p *Path) HiHash() sl.Hash {
	return p.rows[len(p.rows)-1].Hash()
}
