package morsel

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/ledger"
	"github.com/crums-io/skipledger-go/rowmath"
)

// RowPack is the legacy row-pack: an explicit ascending row-number list
// (RN_LIST) plus the input hashes needed to recompute each listed row's
// hash (I_TBL) and the referenced-only hashes (R_TBL,
// rowmath.RefOnlyCoverage(RN_LIST)) needed to resolve any skip pointer
// reaching outside the list. Unlike PathPack's seed-stitched form, every
// row number here is framed explicitly.
type RowPack struct {
	rows []*ledger.Row
}

// Rows returns the member rows, ascending by row number.
func (rp *RowPack) Rows() []*ledger.Row {
	out := make([]*ledger.Row, len(rp.rows))
	copy(out, rp.rows)
	return out
}

// ReadRowPack decodes a ROW_PACK: I_COUNT(u32 BE) + RN_LIST(u64
// BE[I_COUNT]) + R_TBL(byte[32*R_COUNT]) + I_TBL(byte[32*I_COUNT]).
func ReadRowPack(r io.Reader) (*RowPack, error) {
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "morsel: ROW_PACK has zero rows")
	}
	rowNos := make([]uint64, count)
	for i := range rowNos {
		n, err := sl.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, sl.Kindf(sl.SerialFormat, "morsel: row number 0 is not valid")
		}
		if i > 0 && n <= rowNos[i-1] {
			return nil, sl.Kindf(sl.SerialFormat, "morsel: RN_LIST not strictly ascending")
		}
		rowNos[i] = n
	}

	refNos := rowmath.SortedKeys(rowmath.RefOnlyCoverage(rowNos))
	refHashes := make(map[uint64]sl.Hash, len(refNos))
	for _, n := range refNos {
		h, err := sl.ReadHash(r)
		if err != nil {
			return nil, err
		}
		refHashes[n] = h
	}

	inputHashes := make([]sl.Hash, count)
	for i := range inputHashes {
		h, err := sl.ReadHash(r)
		if err != nil {
			return nil, err
		}
		inputHashes[i] = h
	}

	rows := make([]*ledger.Row, count)
	byRowNo := make(map[uint64]*ledger.Row, count)
	for i, n := range rowNos {
		rows[i] = &ledger.Row{RowNo: n, InputHash: inputHashes[i]}
		byRowNo[n] = rows[i]
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

	for i, n := range rowNos {
		p := rowmath.SkipCount(n)
		levels := make([]sl.Hash, p)
		for k := 0; k < p; k++ {
			pred := n - (uint64(1) << uint(k))
			h, ok := lookup(pred)
			if !ok {
				return nil, sl.Kindf(sl.SerialFormat, "morsel: cannot resolve level %d hash for row %d", k, n)
			}
			levels[k] = h
		}
		rows[i].Levels = ledger.NewFullLevelsPointer(levels)
	}

	return &RowPack{rows: rows}, nil
}
