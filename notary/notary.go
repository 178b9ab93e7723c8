package notary

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// NotarizedRow is a witness claim: row_no's commitment hash (cargo_hash)
// was observed at utc.
type NotarizedRow struct {
	RowNo     uint64
	CargoHash sl.Hash
	Utc       int64
}

// Pack is a dual-monotonic sequence of NotarizedRows for one chain:
// strictly increasing RowNo, strictly increasing Utc.
type Pack struct {
	ChainID uint32
	rows    []NotarizedRow
}

// Rows returns the member rows, ascending by RowNo (and by Utc).
func (p *Pack) Rows() []NotarizedRow {
	out := make([]NotarizedRow, len(p.rows))
	copy(out, p.rows)
	return out
}

// Write encodes the pack: chain id, row count, then each row.
func (p *Pack) Write(w io.Writer) error {
	if err := sl.WriteUint32(w, p.ChainID); err != nil {
		return err
	}
	if err := sl.WriteUint32(w, uint32(len(p.rows))); err != nil {
		return err
	}
	for _, nr := range p.rows {
		if err := sl.WriteUint64(w, nr.RowNo); err != nil {
			return err
		}
		if err := sl.WriteHash(w, nr.CargoHash); err != nil {
			return err
		}
		if err := sl.WriteUint64(w, uint64(nr.Utc)); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a Pack framed by Write, re-validating dual-monotonic
// order. Empty packs are not representable.
func Read(r io.Reader) (*Pack, error) {
	chainID, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "notary: empty notary packs are not representable")
	}
	rows := make([]NotarizedRow, count)
	for i := range rows {
		rowNo, err := sl.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		cargoHash, err := sl.ReadHash(r)
		if err != nil {
			return nil, err
		}
		utc, err := sl.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		rows[i] = NotarizedRow{RowNo: rowNo, CargoHash: cargoHash, Utc: int64(utc)}
		if i > 0 {
			if rows[i].RowNo <= rows[i-1].RowNo || rows[i].Utc <= rows[i-1].Utc {
				return nil, sl.Kindf(sl.MalformedNotarizedRow, "notary: rows %d not strictly dual-monotonic", i)
			}
		}
	}
	return &Pack{ChainID: chainID, rows: rows}, nil
}
