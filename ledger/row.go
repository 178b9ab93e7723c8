// Package ledger implements the append-only SkipLedger: a sequence of
// Rows whose hashes are linked by skip pointers, enabling logarithmic-
// length proofs of membership and consistency. It provides the storage
// primitives (append, row lookup, row hashing) that the
// path, multipath, nugget, and bindle packages build verification on top
// of.
package ledger

import (
	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/rowmath"
)

// LevelsPointer is the condensation view of a row's level hashes. Full
// form carries every level hash; condensed form carries a single level
// hash plus the funnel siblings needed to recover the combined-levels
// root.
type LevelsPointer struct {
	// full is non-nil for the full form: one hash per skip pointer,
	// full[i] = rowHash(n - 2^i).
	full []sl.Hash

	// condensed is non-nil for the condensed form.
	condensedLevel int      // ell: the retained level index
	condensedHash  sl.Hash  // the level hash at position ell
	funnel         []sl.Hash
}

// NewFullLevelsPointer builds the uncondensed form from the complete set
// of level hashes (levels[i] = rowHash(n-2^i), with the sentinel standing
// in whenever n-2^i == 0).
func NewFullLevelsPointer(levels []sl.Hash) *LevelsPointer {
	cp := make([]sl.Hash, len(levels))
	copy(cp, levels)
	return &LevelsPointer{full: cp}
}

// IsCondensed reports whether this pointer has been reduced to a single
// level plus funnel.
func (lp *LevelsPointer) IsCondensed() bool { return lp.full == nil }

// Count returns p, the number of skip pointers (== rowmath.SkipCount(n)),
// for a full pointer. For a condensed pointer it returns 2^len(funnel),
// an upper bound on SkipCount(n) rather than its exact value.
func (lp *LevelsPointer) Count() int {
	if lp.full != nil {
		return len(lp.full)
	}
	return funnelImpliedCount(len(lp.funnel))
}

// LevelHash returns the hash at level i (the hash of row n-2^i), if known
// directly. For a condensed pointer this only succeeds at the retained
// level; query coverage with Coverage() first.
func (lp *LevelsPointer) LevelHash(i int) (sl.Hash, bool) {
	if lp.full != nil {
		if i < 0 || i >= len(lp.full) {
			return sl.Hash{}, false
		}
		return lp.full[i], true
	}
	if i == lp.condensedLevel {
		return lp.condensedHash, true
	}
	return sl.Hash{}, false
}

// MerkleRoot computes merkleRoot(level_hashes): a single element is its
// own root; more than one is a binary Merkle tree over the level hashes
// in order, hashed pairwise (duplicating the last element of an odd
// layer, the usual convention).
func MerkleRoot(levels []sl.Hash) sl.Hash {
	if len(levels) == 0 {
		return sl.Sentinel
	}
	layer := make([]sl.Hash, len(levels))
	copy(layer, levels)
	for len(layer) > 1 {
		next := make([]sl.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, sl.Sum(layer[i][:], layer[i+1][:]))
			} else {
				next = append(next, sl.Sum(layer[i][:], layer[i][:]))
			}
		}
		layer = next
	}
	return layer[0]
}

// Root returns the merkle root over the full level set (full pointers
// only; a condensed pointer carries the root implicitly via its funnel —
// use RecoverRoot instead).
func (lp *LevelsPointer) Root() sl.Hash {
	if lp.full == nil {
		panic("ledger: Root() called on a condensed LevelsPointer")
	}
	return MerkleRoot(lp.full)
}

// NewCondensedLevelsPointer builds a condensed pointer directly from its
// wire representation: the retained level index, its hash, and the funnel
// siblings needed to recover the root. Used by PathPack's loader, which
// never has the full level set to condense from.
func NewCondensedLevelsPointer(ell int, hash sl.Hash, funnel []sl.Hash) *LevelsPointer {
	return &LevelsPointer{condensedLevel: ell, condensedHash: hash, funnel: funnel}
}

// FunnelSiblings returns the funnel hashes of a condensed pointer (nil for
// a full pointer), in the order Condense produced them.
func (lp *LevelsPointer) FunnelSiblings() []sl.Hash {
	return lp.funnel
}

// Condense reduces a full pointer to the condensed form retaining only
// level ell plus the Merkle funnel proving that level belongs to the set.
// ell must be a valid level index (0 <= ell < Count()).
func (lp *LevelsPointer) Condense(ell int) *LevelsPointer {
	if lp.full == nil {
		if lp.condensedLevel == ell {
			return lp
		}
		panic("ledger: cannot re-condense to a different level without the full set")
	}
	if ell < 0 || ell >= len(lp.full) {
		panic("ledger: level out of range")
	}
	funnel := buildFunnel(lp.full, ell)
	return &LevelsPointer{
		condensedLevel: ell,
		condensedHash:  lp.full[ell],
		funnel:         funnel,
	}
}

// RecoverRoot recomputes the Merkle root from a condensed pointer's
// retained level hash and funnel siblings. It is the verification
// counterpart of Condense.
func (lp *LevelsPointer) RecoverRoot() sl.Hash {
	if lp.full != nil {
		return lp.Root()
	}
	cur := lp.condensedHash
	idx := lp.condensedLevel
	for _, sib := range lp.funnel {
		if idx%2 == 0 {
			cur = sl.Sum(cur[:], sib[:])
		} else {
			cur = sl.Sum(sib[:], cur[:])
		}
		idx /= 2
	}
	return cur
}

// buildFunnel returns the sibling hashes needed to recompute the Merkle
// root of levels from position ell alone: one hash per tree layer,
// ceil(log2(len(levels))) of them.
func buildFunnel(levels []sl.Hash, ell int) []sl.Hash {
	layer := make([]sl.Hash, len(levels))
	copy(layer, levels)
	idx := ell
	var funnel []sl.Hash
	for len(layer) > 1 {
		var sibIdx int
		if idx%2 == 0 {
			sibIdx = idx + 1
		} else {
			sibIdx = idx - 1
		}
		if sibIdx >= len(layer) {
			// odd layer, duplicate-self convention
			funnel = append(funnel, layer[idx])
		} else {
			funnel = append(funnel, layer[sibIdx])
		}
		next := make([]sl.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, sl.Sum(layer[i][:], layer[i+1][:]))
			} else {
				next = append(next, sl.Sum(layer[i][:], layer[i][:]))
			}
		}
		layer = next
		idx /= 2
	}
	return funnel
}

// funnelImpliedCount bounds p from a funnel length: 2^len(funnel) is an
// upper bound, not exact (trees aren't always full). A condensed pointer
// keeps no count of its own, so this bound is what Count reports for it.
func funnelImpliedCount(funnelLen int) int {
	return 1 << uint(funnelLen)
}

// Row is the atomic ledger unit at row number n >= 1: an input hash plus
// the levels pointer covering its skip-pointer predecessors.
type Row struct {
	RowNo     uint64
	InputHash sl.Hash
	Levels    *LevelsPointer
}

// Hash computes row_hash(n) = SHA256(input_hash || merkleRoot(levels)).
// A condensed row recomputes the root from its funnel.
func (r *Row) Hash() sl.Hash {
	var root sl.Hash
	if r.Levels.IsCondensed() {
		root = r.Levels.RecoverRoot()
	} else {
		root = r.Levels.Root()
	}
	return sl.Sum(r.InputHash[:], root[:])
}

// HashOfPredecessor returns the hash the ledger asserts for row n-2^k (the
// sentinel when that would be row 0), reading it from the levels pointer.
func (r *Row) HashOfPredecessor(k int) (sl.Hash, bool) {
	return r.Levels.LevelHash(k)
}

// PredecessorRowNo returns n - 2^k for level k of this row.
func (r *Row) PredecessorRowNo(k int) uint64 {
	off := uint64(1) << uint(k)
	if off > r.RowNo {
		return 0
	}
	return r.RowNo - off
}

// Coverage returns the set of row numbers whose hash this row's levels
// pointer references (a subset of rowmath.Coverage({RowNo})), filtered to
// what's actually known by this particular (possibly condensed) pointer.
func (r *Row) Coverage() map[uint64]struct{} {
	out := make(map[uint64]struct{})
	p := rowmath.SkipCount(r.RowNo)
	for k := 0; k < p; k++ {
		if _, ok := r.Levels.LevelHash(k); ok {
			out[r.PredecessorRowNo(k)] = struct{}{}
		}
	}
	return out
}
