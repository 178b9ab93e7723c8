package path

import (
	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/rowmath"
)

// Get builds the path stitched from the given (ascending, deduped) row
// numbers: rowmath.Stitch fills in the shortest linking rows between each
// adjacent pair, and every stitched row is read from lg.
func Get(lg ledger.SkipLedger, rowNos []uint64) (*Path, error) {
	if len(rowNos) == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "path: no row numbers given")
	}
	stitched := rowmath.Stitch(rowNos)
	rows := make([]*ledger.Row, len(stitched))
	for i, n := range stitched {
		r, err := lg.GetRow(n)
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return New(rows, sortedCopy(rowNos))
}

// Skip builds the shortest path linking lo to hi (rowmath.SkipPathNumbers).
func Skip(lg ledger.SkipLedger, lo, hi uint64) (*Path, error) {
	return Get(lg, []uint64{lo, hi})
}

// State builds the path from row 1 to the ledger's current size, the proof
// of the ledger's full current state.
func State(lg ledger.SkipLedger) (*Path, error) {
	size := lg.Size()
	if size == 0 {
		return nil, sl.Kindf(sl.OutOfBounds, "path: ledger is empty")
	}
	return Skip(lg, 1, size)
}

func sortedCopy(rowNos []uint64) []uint64 {
	out := make([]uint64, len(rowNos))
	copy(out, rowNos)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
