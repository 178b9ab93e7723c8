package notary

import sl "github.com/crums-io/skipledger-go"

// Builder incrementally collects NotarizedRows for one chain under a
// dual-monotonic conditional-insert policy: only the earliest witness
// covering a given row prefix is kept, since each crumtrail notarizes
// every row at or below the one it directly names.
type Builder struct {
	chainID uint32
	rows    []NotarizedRow
}

// NewBuilder starts an empty Builder for chainID.
func NewBuilder(chainID uint32) *Builder {
	return &Builder{chainID: chainID}
}

// Add attempts to insert nr. Returns (true, nil) on insertion, (false,
// nil) when nr is rejected as redundant (a duplicate row number with an
// agreeing hash, or a later-row, non-strictly-earlier-utc entry — a
// recoverable no-op), and a non-nil error only for an actual HashConflict
// (a duplicate row number with a disagreeing hash).
func (b *Builder) Add(nr NotarizedRow) (bool, error) {
	i := 0
	for i < len(b.rows) && b.rows[i].RowNo < nr.RowNo {
		i++
	}
	if i < len(b.rows) && b.rows[i].RowNo == nr.RowNo {
		if b.rows[i].CargoHash != nr.CargoHash {
			return false, sl.Kindf(sl.HashConflict, "notary: row %d already notarized with a different cargo hash", nr.RowNo)
		}
		return false, nil
	}
	if i < len(b.rows) && nr.Utc >= b.rows[i].Utc {
		// A higher row number already witnessed no later than nr: nr
		// carries no new information.
		return false, nil
	}

	// nr supersedes any earlier (lower row number) entry it also proves:
	// those with utc >= nr.Utc are now redundant.
	kept := b.rows[:0:0]
	for _, existing := range b.rows[:i] {
		if existing.Utc < nr.Utc {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, nr)
	kept = append(kept, b.rows[i:]...)
	b.rows = kept
	return true, nil
}

// Build finalizes the collected rows into a Pack. Fails if no rows were
// ever successfully added (empty packs are not representable).
func (b *Builder) Build() (*Pack, error) {
	if len(b.rows) == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "notary: cannot build an empty notary pack")
	}
	rows := make([]NotarizedRow, len(b.rows))
	copy(rows, b.rows)
	return &Pack{ChainID: b.chainID, rows: rows}, nil
}
