package multipath

import (
	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/path"
)

// Builder incrementally collects paths for one ledger, enforcing the same
// intersection/duplicate rules New does, but path by path so a caller
// (e.g. BindleBuilder.AddPath) gets highest_common_no feedback on each
// successful add rather than only at the end.
type Builder struct {
	paths []*path.Path
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// AddPath adds p, returning the highest row number p shares with the
// paths already added (0 for the first path). Fails with MalformedBindle
// if p is an exact duplicate or (once at least one path is present)
// doesn't intersect any existing path, and with HashConflict if p
// disagrees with an existing path on a shared row.
func (b *Builder) AddPath(p *path.Path) (uint64, error) {
	var highestCommon uint64
	if len(b.paths) == 0 {
		b.paths = append(b.paths, p)
		return 0, nil
	}
	intersects := false
	for _, existing := range b.paths {
		if sameRowNos(existing, p) {
			return 0, sl.Kindf(sl.MalformedBindle, "multipath: duplicate path (lo=%d, hi=%d)", p.Lo(), p.Hi())
		}
		c := existing.Comp(p)
		if c.ConflictNo != 0 {
			return 0, sl.Kindf(sl.HashConflict, "multipath: path disagrees with existing path at row %d", c.ConflictNo)
		}
		if c.CommonNo != 0 {
			intersects = true
			if c.CommonNo > highestCommon {
				highestCommon = c.CommonNo
			}
		}
	}
	if !intersects {
		return 0, sl.Kindf(sl.MalformedBindle, "multipath: path (lo=%d,hi=%d) does not intersect any existing path", p.Lo(), p.Hi())
	}
	b.paths = append(b.paths, p)
	return highestCommon, nil
}

// Build finalizes the collected paths into a MultiPath.
func (b *Builder) Build() (*MultiPath, error) {
	return New(b.paths)
}

// CoversRow reports whether any path added so far knows row n's hash.
func (b *Builder) CoversRow(n uint64) bool {
	for _, p := range b.paths {
		if p.CoversRow(n) {
			return true
		}
	}
	return false
}

// HighestCommonNo returns the highest row number any added path shares
// with p, without mutating the builder.
func (b *Builder) HighestCommonNo(p *path.Path) uint64 {
	var best uint64
	for _, existing := range b.paths {
		c := existing.Comp(p)
		if c.CommonNo > best {
			best = c.CommonNo
		}
	}
	return best
}
