package source

import (
	"io"
	"sort"

	sl "github.com/crums-io/skipledger-go"
)

// Pack is an ordered collection of SourceRows for one ledger, strictly
// ascending by row number.
type Pack struct {
	rows []*SourceRow
}

// NewPack validates and wraps rows, which must already be strictly
// ascending by RowNo.
func NewPack(rows []*SourceRow) (*Pack, error) {
	for i := 1; i < len(rows); i++ {
		if rows[i].RowNo <= rows[i-1].RowNo {
			return nil, sl.Kindf(sl.SerialFormat, "source: rows not strictly ascending at index %d", i)
		}
	}
	return &Pack{rows: rows}, nil
}

// Rows returns the member rows, ascending.
func (p *Pack) Rows() []*SourceRow { return p.rows }

// GetRow returns the row at rowNo, if present.
func (p *Pack) GetRow(rowNo uint64) (*SourceRow, bool) {
	i := sort.Search(len(p.rows), func(i int) bool { return p.rows[i].RowNo >= rowNo })
	if i < len(p.rows) && p.rows[i].RowNo == rowNo {
		return p.rows[i], true
	}
	return nil, false
}

// Write encodes the pack: row count, then each row's wire form.
func (p *Pack) Write(w io.Writer) error {
	if err := sl.WriteUint32(w, uint32(len(p.rows))); err != nil {
		return err
	}
	for _, r := range p.rows {
		if err := r.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadPack decodes a pack framed by Write, with every row sharing seed.
func ReadPack(r io.Reader, seed SaltSeed) (*Pack, error) {
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	rows := make([]*SourceRow, count)
	for i := range rows {
		sr, err := ReadSourceRow(r, seed)
		if err != nil {
			return nil, err
		}
		rows[i] = sr
	}
	return NewPack(rows)
}
