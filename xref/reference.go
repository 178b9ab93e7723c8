// Package xref implements Reference and ForeignRefs: sorted cross-ledger
// references (row->row, row->commitment, or cell->cell) plus a builder
// for assembling them.
package xref

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// Column sentinels encoding a Reference's mode.
const (
	ColSameContent = -1 // from_col == to_col == -1: same-content mode
	ColCommitHash  = -2 // to_col == -2: commit-hash mode (from_col >= 0)
)

// Mode classifies a Reference by its column sentinels.
type Mode int

const (
	ModeSameContent Mode = iota
	ModeCommitHash
	ModeSingleCell
)

// Reference is one cross-ledger pointer: from (from_row, from_col) in the
// local ledger to (to_row, to_col) in a foreign one.
type Reference struct {
	FromRow int64
	FromCol int64
	ToRow   int64
	ToCol   int64
}

// Mode classifies the reference by its column sentinels.
func (r Reference) Mode() Mode {
	switch {
	case r.FromCol == ColSameContent && r.ToCol == ColSameContent:
		return ModeSameContent
	case r.ToCol == ColCommitHash && r.FromCol >= 0:
		return ModeCommitHash
	default:
		return ModeSingleCell
	}
}

// Less implements the lex ordering on (from_row, from_col, to_row, to_col).
func (r Reference) Less(other Reference) bool {
	if r.FromRow != other.FromRow {
		return r.FromRow < other.FromRow
	}
	if r.FromCol != other.FromCol {
		return r.FromCol < other.FromCol
	}
	if r.ToRow != other.ToRow {
		return r.ToRow < other.ToRow
	}
	return r.ToCol < other.ToCol
}

func (r Reference) equal(other Reference) bool {
	return r == other
}

func (r Reference) write(w io.Writer) error {
	for _, v := range []int64{r.FromRow, r.FromCol, r.ToRow, r.ToCol} {
		if err := sl.WriteUint64(w, uint64(v)); err != nil {
			return err
		}
	}
	return nil
}

func readReference(r io.Reader) (Reference, error) {
	var vals [4]int64
	for i := range vals {
		u, err := sl.ReadUint64(r)
		if err != nil {
			return Reference{}, err
		}
		vals[i] = int64(u)
	}
	return Reference{FromRow: vals[0], FromCol: vals[1], ToRow: vals[2], ToCol: vals[3]}, nil
}
