// Package rowmath implements the pure row-arithmetic functions the rest of
// the skip-ledger stack is built on: how many skip pointers a row carries,
// where its cells live in a densely packed store, the shortest path of row
// numbers linking two rows, and the coverage a set of rows implies.
//
// Every function here is deterministic and allocation-light; none of them
// touch a ledger or any I/O. They underpin path construction, PathPack
// framing, and MultiPath consistency checks alike.
package rowmath

import (
	"math/bits"
	"sort"
)

// SkipCount returns the number of skip pointers (level hashes) carried by
// row n: 1 + the number of trailing zero bits of n. n must be >= 1.
func SkipCount(n uint64) int {
	if n == 0 {
		panic("rowmath.SkipCount: row 0 is abstract")
	}
	return 1 + bits.TrailingZeros64(n)
}

// CellNumber returns the starting cell offset of row n in a densely packed
// store: the number of cells occupied by rows 1..n-1.
//
// Each row k occupies exactly SkipCount(k) cells (one for its input hash,
// plus SkipCount(k)-1 additional level hashes — level 0 is always the
// immediate predecessor's row hash and is never stored redundantly, since
// it's one row read away). Summing SkipCount(k) for k in [1,n) in closed
// form uses the identity sum_{k=1}^{m} trailingZeros(k) = m - popcount(m):
//
//	cellNumber(n) = (n-1) + sum_{k=1}^{n-1} trailingZeros(k)
//	              = (n-1) + (n-1) - popcount(n-1)
//	              = 2*(n-1) - popcount(n-1)
func CellNumber(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	m := n - 1
	return 2*m - uint64(bits.OnesCount64(m))
}

// MaxRows returns the largest row number n such that CellNumber(n+1) <=
// cells, i.e. the number of complete rows a store of the given cell count
// can hold.
func MaxRows(cells uint64) uint64 {
	if cells == 0 {
		return 0
	}
	lo, hi := uint64(0), cells
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if CellNumber(mid+1) <= cells {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// RowsLinked reports whether b is directly reachable from a via one of b's
// skip pointers: b > a, d = b-a is a power of two, and d is one of b's
// valid skip offsets (equivalently, d divides evenly into b).
func RowsLinked(a, b uint64) bool {
	if b <= a {
		return false
	}
	d := b - a
	if d&(d-1) != 0 {
		return false // not a power of two
	}
	return b&(d-1) == 0
}

// SkipPathNumbers returns the lexicographically unique shortest ascending
// sequence of row numbers linking lo to hi via power-of-two decrements,
// each step bounded by the current row's SkipCount. lo and hi must satisfy
// 1 <= lo <= hi.
func SkipPathNumbers(lo, hi uint64) []uint64 {
	if lo < 1 || lo > hi {
		panic("rowmath.SkipPathNumbers: require 1 <= lo <= hi")
	}
	rows := []uint64{hi}
	cur := hi
	for cur > lo {
		p := SkipCount(cur)
		chosen := -1
		for k := p - 1; k >= 0; k-- {
			off := uint64(1) << uint(k)
			if off <= cur && cur-off >= lo {
				chosen = k
				break
			}
		}
		if chosen < 0 {
			// k=0 (off=1) always satisfies cur-1>=lo since cur>lo.
			panic("rowmath.SkipPathNumbers: unreachable")
		}
		cur -= uint64(1) << uint(chosen)
		rows = append(rows, cur)
	}
	// rows was built descending from hi to lo; reverse to ascending.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

// Stitch expands an ascending set of row numbers into the minimal closed
// path by inserting SkipPathNumbers between each adjacent pair. Idempotent:
// stitching an already-stitched path returns an equal path.
func Stitch(rowNos []uint64) []uint64 {
	sorted := sortedUnique(rowNos)
	if len(sorted) == 0 {
		return sorted
	}
	result := make([]uint64, 0, len(sorted))
	result = append(result, sorted[0])
	for i := 1; i < len(sorted); i++ {
		seg := SkipPathNumbers(sorted[i-1], sorted[i])
		result = append(result, seg[1:]...)
	}
	return result
}

// Coverage returns the set of row numbers appearing in rowNos, or
// referenced as a skip pointer from any row in rowNos (row 0, the
// sentinel, may appear when a row's lowest-level pointer reaches it).
func Coverage(rowNos []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(rowNos)*2)
	for _, n := range rowNos {
		set[n] = struct{}{}
		p := SkipCount(n)
		for k := 0; k < p; k++ {
			off := uint64(1) << uint(k)
			set[n-off] = struct{}{}
		}
	}
	return set
}

// RefOnlyCoverage is Coverage(rowNos) minus rowNos itself, restricted to
// [1, inf) (the sentinel row 0 is never a "referenced row" proper).
func RefOnlyCoverage(rowNos []uint64) map[uint64]struct{} {
	full := Coverage(rowNos)
	present := make(map[uint64]struct{}, len(rowNos))
	for _, n := range rowNos {
		present[n] = struct{}{}
	}
	out := make(map[uint64]struct{}, len(full))
	for n := range full {
		if n == 0 {
			continue
		}
		if _, ok := present[n]; ok {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

// SortedKeys returns the keys of a row-number set in ascending order, a
// convenience used everywhere a coverage/ref-only set needs a stable,
// deterministic iteration order (e.g. for binary framing).
func SortedKeys(set map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedUnique(rowNos []uint64) []uint64 {
	if len(rowNos) == 0 {
		return nil
	}
	cp := make([]uint64, len(rowNos))
	copy(cp, rowNos)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:1]
	for i := 1; i < len(cp); i++ {
		if cp[i] != out[len(out)-1] {
			out = append(out, cp[i])
		}
	}
	return out
}
