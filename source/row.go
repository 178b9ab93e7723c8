package source

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// SourceRow is one ledger row's typed source content: an ordered set of
// cells whose combined hash must equal the ledger row's input_hash.
type SourceRow struct {
	RowNo uint64
	Cells []Cell
	Seed  SaltSeed
}

// Hash computes SHA256(H1 || ... || Hk), each Hi the canonical hash of
// cell i (salted with CellSalt(RowNo, i) when Cell.Salted, literal when
// it's a hash/redaction cell).
func (sr *SourceRow) Hash() sl.Hash {
	parts := make([][]byte, len(sr.Cells))
	for i, c := range sr.Cells {
		var salt sl.Hash
		if c.Salted {
			salt = sr.Seed.CellSalt(sr.RowNo, i)
		}
		h := c.canonicalHash(salt)
		cp := h
		parts[i] = cp[:]
	}
	return sl.Sum(parts...)
}

// Redact replaces cell i with a hash cell equal to its canonical hash,
// preserving Hash(). Fails with OutOfBounds if i is not a valid index.
func (sr *SourceRow) Redact(i int) error {
	if i < 0 || i >= len(sr.Cells) {
		return sl.Kindf(sl.OutOfBounds, "source: cell index %d out of range [0,%d)", i, len(sr.Cells))
	}
	c := sr.Cells[i]
	if c.Type == TypeHash {
		return nil
	}
	salt := sr.Seed.CellSalt(sr.RowNo, i)
	sr.Cells[i] = c.Redact(salt)
	return nil
}

// IsRedacted reports whether cell i has already been replaced by a hash
// cell.
func (sr *SourceRow) IsRedacted(i int) bool {
	return i >= 0 && i < len(sr.Cells) && sr.Cells[i].Type == TypeHash
}

// Write encodes the row: row number, cell count, then each cell's wire
// form (salts framed inline per cell).
func (sr *SourceRow) Write(w io.Writer) error {
	if err := sl.WriteUint64(w, sr.RowNo); err != nil {
		return err
	}
	if err := sl.WriteUint32(w, uint32(len(sr.Cells))); err != nil {
		return err
	}
	for i, c := range sr.Cells {
		var salt sl.Hash
		if c.Salted {
			salt = sr.Seed.CellSalt(sr.RowNo, i)
		}
		if err := c.write(w, salt); err != nil {
			return err
		}
	}
	return nil
}

// ReadSourceRow decodes a row framed by Write and attaches the caller's
// seed (the seed itself is never serialized on the wire). The salts
// framed inline per cell are read past and not kept: Hash and Redact
// re-derive each salted cell's salt from the attached seed, so a row with
// salted cells hashes correctly only with the seed it was written with.
// With a zero seed, only unsalted and redacted cells hash correctly.
func ReadSourceRow(r io.Reader, seed SaltSeed) (*SourceRow, error) {
	rowNo, err := sl.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	cells := make([]Cell, count)
	for i := range cells {
		c, err := readCell(r, sl.Hash{})
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}
	return &SourceRow{RowNo: rowNo, Cells: cells, Seed: seed}, nil
}
