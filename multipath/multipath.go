// Package multipath implements MultiPath: a set of intersecting paths from
// one ledger, sorted by descending hi, with a single-authority consistency
// check.
package multipath

import (
	"sort"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/path"
)

// MultiPath is an immutable, validated set of intersecting Paths.
type MultiPath struct {
	paths           []*path.Path // sorted hi desc, lo asc
	singleAuthority bool
	authorityNos    []uint64 // descending; singleton when singleAuthority
}

// New builds a MultiPath from an unordered collection of paths: sort by
// (hi desc, lo asc), reject exact duplicates, require every path after
// the first to intersect some earlier path, then compute the single-
// authority flag.
func New(paths []*path.Path) (*MultiPath, error) {
	if len(paths) == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "multipath: no paths given")
	}
	sorted := make([]*path.Path, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Hi() != sorted[j].Hi() {
			return sorted[i].Hi() > sorted[j].Hi()
		}
		return sorted[i].Lo() < sorted[j].Lo()
	})

	for i := 1; i < len(sorted); i++ {
		if sameRowNos(sorted[i], sorted[i-1]) {
			return nil, sl.Kindf(sl.MalformedBindle, "multipath: duplicate path (lo=%d, hi=%d)", sorted[i].Lo(), sorted[i].Hi())
		}
	}

	for i := 1; i < len(sorted); i++ {
		intersects := false
		for j := 0; j < i; j++ {
			c := sorted[i].Comp(sorted[j])
			if c.ConflictNo != 0 {
				return nil, sl.Kindf(sl.HashConflict, "multipath: paths disagree at row %d", c.ConflictNo)
			}
			if c.CommonNo != 0 {
				intersects = true
			}
		}
		if !intersects {
			return nil, sl.Kindf(sl.MalformedBindle, "multipath: path (lo=%d,hi=%d) does not intersect any earlier path", sorted[i].Lo(), sorted[i].Hi())
		}
	}

	mp := &MultiPath{paths: sorted}
	mp.computeAuthority()
	return mp, nil
}

func sameRowNos(a, b *path.Path) bool {
	ar, br := a.RowNos(), b.RowNos()
	if len(ar) != len(br) {
		return false
	}
	for i := range ar {
		if ar[i] != br[i] {
			return false
		}
	}
	return true
}

// computeAuthority decides single_authority: true iff every path's hi is
// covered by some earlier (higher-hi) path in the sorted sequence. The
// authority row numbers are the hi values of paths that are not covered by
// any earlier path — a single-authority MultiPath has exactly one.
func (mp *MultiPath) computeAuthority() {
	var authorities []uint64
	for i, p := range mp.paths {
		covered := false
		for j := 0; j < i; j++ {
			if mp.paths[j].CoversRow(p.Hi()) {
				covered = true
				break
			}
		}
		if !covered {
			authorities = append(authorities, p.Hi())
		}
	}
	mp.authorityNos = authorities
	mp.singleAuthority = len(authorities) == 1
}

// SingleAuthority reports whether every path transitively chains into the
// path with maximum hi.
func (mp *MultiPath) SingleAuthority() bool { return mp.singleAuthority }

// AuthorityNos returns the descending list of authority row numbers
// (singleton iff SingleAuthority()).
func (mp *MultiPath) AuthorityNos() []uint64 {
	out := make([]uint64, len(mp.authorityNos))
	copy(out, mp.authorityNos)
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

// Paths returns the member paths, sorted (hi desc, lo asc).
func (mp *MultiPath) Paths() []*path.Path { return mp.paths }

// HasRow reports whether n is explicitly present in any member path.
func (mp *MultiPath) HasRow(n uint64) bool {
	for _, p := range mp.paths {
		if p.HasRow(n) {
			return true
		}
	}
	return false
}

// CoversRow reports whether n's hash is known by any member path.
func (mp *MultiPath) CoversRow(n uint64) bool {
	_, ok := mp.RowHash(n)
	return ok
}

// FindRow returns the first member path that explicitly carries row n.
func (mp *MultiPath) FindRow(n uint64) (*path.Path, bool) {
	for _, p := range mp.paths {
		if p.HasRow(n) {
			return p, true
		}
	}
	return nil, false
}

// Row returns the full *ledger.Row for row n from the first member path
// that explicitly carries it.
func (mp *MultiPath) Row(n uint64) (*ledger.Row, bool) {
	p, ok := mp.FindRow(n)
	if !ok {
		return nil, false
	}
	return p.Row(n)
}

// RowHash returns the hash of row n as known by any member path.
func (mp *MultiPath) RowHash(n uint64) (sl.Hash, bool) {
	for _, p := range mp.paths {
		if h, ok := p.GetRowHash(n); ok {
			return h, true
		}
	}
	return sl.Hash{}, false
}

// HighestCommonNo returns the highest row number whose hash both mp and p
// agree on (0 if none).
func (mp *MultiPath) HighestCommonNo(p *path.Path) uint64 {
	c, _ := mp.Comp(p)
	return c.CommonNo
}

// Comp compares this MultiPath's best-so-far Comp against a single path,
// folding each member path's comparison via upgradeSorted: the member
// paths are already hi-descending, so the first disagreement or agreement
// encountered at the highest row number wins.
func (mp *MultiPath) Comp(p *path.Path) (path.Comp, error) {
	var best path.Comp
	for _, member := range mp.paths {
		c := member.Comp(p)
		best = upgradeSorted(best, c)
		if best.CommonNo != 0 && best.ConflictNo != 0 && best.CommonNo >= best.ConflictNo {
			return best, sl.Kindf(sl.MalformedBindle, "multipath: comp reveals multi-authority contradiction (common=%d, conflict=%d)", best.CommonNo, best.ConflictNo)
		}
	}
	return best, nil
}

// upgradeSorted keeps the higher CommonNo and the higher ConflictNo seen
// across a sequence of Comp results.
func upgradeSorted(best, next path.Comp) path.Comp {
	if next.CommonNo > best.CommonNo {
		best.CommonNo = next.CommonNo
	}
	if next.ConflictNo > best.ConflictNo {
		best.ConflictNo = next.ConflictNo
	}
	return best
}
