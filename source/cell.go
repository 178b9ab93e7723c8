// Package source implements SourceRow/SourcePack: typed, per-cell salted
// row data with optional redactions.
package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// TypeCode identifies a Cell's kind. The sign bit of the wire byte marks
// whether the cell is salted; TypeCode itself is always the unsigned
// magnitude.
type TypeCode int8

const (
	TypeNull TypeCode = iota
	TypeHash
	TypeBytes
	TypeString
	TypeLong
	TypeDouble
	TypeDate
)

// Cell is one typed, optionally salted value in a SourceRow.
type Cell struct {
	Type   TypeCode
	Salted bool
	// Value holds the cell's native payload: nil for TypeNull, sl.Hash
	// for TypeHash, []byte for TypeBytes, string for TypeString,
	// int64 for TypeLong/TypeDate, float64 for TypeDouble.
	Value interface{}
}

// NullCell, HashCell, BytesCell, StringCell, LongCell, DoubleCell, DateCell
// are the canonical constructors; hash cells are never salted.
func NullCell() Cell                { return Cell{Type: TypeNull} }
func HashCell(h sl.Hash) Cell       { return Cell{Type: TypeHash, Value: h} }
func BytesCell(b []byte, salted bool) Cell {
	return Cell{Type: TypeBytes, Salted: salted, Value: append([]byte(nil), b...)}
}
func StringCell(s string, salted bool) Cell {
	return Cell{Type: TypeString, Salted: salted, Value: s}
}
func LongCell(v int64, salted bool) Cell  { return Cell{Type: TypeLong, Salted: salted, Value: v} }
func DoubleCell(v float64, salted bool) Cell {
	return Cell{Type: TypeDouble, Salted: salted, Value: v}
}
func DateCell(msEpoch int64, salted bool) Cell {
	return Cell{Type: TypeDate, Salted: salted, Value: msEpoch}
}

// DataEqual reports whether c and other carry the same logical value,
// independent of salting — the comparison the same-content and single-
// cell foreign-ref checks use, since two ledgers salt the same logical
// content with different, independent salts.
func (c Cell) DataEqual(other Cell) bool {
	if c.Type != other.Type {
		return false
	}
	switch c.Type {
	case TypeNull:
		return true
	case TypeHash:
		return c.Value.(sl.Hash) == other.Value.(sl.Hash)
	case TypeBytes:
		return bytes.Equal(c.Value.([]byte), other.Value.([]byte))
	case TypeString:
		return c.Value.(string) == other.Value.(string)
	case TypeLong, TypeDate:
		return c.Value.(int64) == other.Value.(int64)
	case TypeDouble:
		return c.Value.(float64) == other.Value.(float64)
	default:
		return false
	}
}

// Redact returns a hash-typed cell equal to c's canonical hash (given the
// salt it was originally hashed with), so the row hash is unaffected.
func (c Cell) Redact(salt sl.Hash) Cell {
	h := c.canonicalHash(salt)
	return HashCell(h)
}

// valueBytes renders the fixed- or variable-width payload bytes of a cell
// (fixed widths by type; the raw payload for bytes/string, without the
// 3-byte length prefix that write adds on the wire).
func (c Cell) valueBytes() ([]byte, error) {
	switch c.Type {
	case TypeNull:
		return nil, nil
	case TypeHash:
		h := c.Value.(sl.Hash)
		return h[:], nil
	case TypeLong:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(c.Value.(int64)))
		return b[:], nil
	case TypeDate:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(c.Value.(int64)))
		return b[:], nil
	case TypeDouble:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], doubleBits(c.Value.(float64)))
		return b[:], nil
	case TypeBytes:
		return c.Value.([]byte), nil
	case TypeString:
		return []byte(c.Value.(string)), nil
	default:
		return nil, sl.Kindf(sl.SerialFormat, "source: unknown cell type %d", c.Type)
	}
}

func doubleBits(f float64) uint64 {
	return mathFloat64bits(f)
}

// canonicalHash computes the cell hash: SHA256(salt || typecode || value)
// when salted, SHA256(typecode || value) otherwise; a hash cell hashes to
// its own literal 32 bytes regardless.
func (c Cell) canonicalHash(salt sl.Hash) sl.Hash {
	if c.Type == TypeHash {
		return c.Value.(sl.Hash)
	}
	typeByte := byte(c.Type)
	if c.Salted {
		typeByte |= 0x80
	}
	vb, err := c.valueBytes()
	if err != nil {
		panic(err)
	}
	if c.Salted {
		return sl.Sum(salt[:], []byte{typeByte}, vb)
	}
	return sl.Sum([]byte{typeByte}, vb)
}

// write encodes the cell onto w: signed typecode byte, optional 32-byte
// salt, then fixed/length-prefixed value.
func (c Cell) write(w io.Writer, salt sl.Hash) error {
	typeByte := byte(c.Type)
	if c.Salted {
		typeByte |= 0x80
	}
	if err := sl.WriteByte(w, typeByte); err != nil {
		return err
	}
	if c.Salted {
		if err := sl.WriteHash(w, salt); err != nil {
			return err
		}
	}
	vb, err := c.valueBytes()
	if err != nil {
		return err
	}
	switch c.Type {
	case TypeBytes, TypeString:
		if len(vb) > sl.Uint24Max {
			return sl.Kindf(sl.SerialFormat, "source: cell value exceeds 16 MiB")
		}
		if err := sl.WriteUint24(w, uint32(len(vb))); err != nil {
			return err
		}
		_, err = w.Write(vb)
		return err
	default:
		_, err = w.Write(vb)
		return err
	}
}

func readCell(r io.Reader, salt sl.Hash) (Cell, error) {
	typeByte, err := sl.ReadByte(r)
	if err != nil {
		return Cell{}, err
	}
	salted := typeByte&0x80 != 0
	typ := TypeCode(typeByte &^ 0x80)
	if salted {
		salt, err = sl.ReadHash(r)
		if err != nil {
			return Cell{}, err
		}
	}
	switch typ {
	case TypeNull:
		return Cell{Type: TypeNull}, nil
	case TypeHash:
		h, err := sl.ReadHash(r)
		if err != nil {
			return Cell{}, err
		}
		return HashCell(h), nil
	case TypeLong:
		v, err := sl.ReadUint64(r)
		if err != nil {
			return Cell{}, err
		}
		return Cell{Type: TypeLong, Salted: salted, Value: int64(v)}, nil
	case TypeDate:
		v, err := sl.ReadUint64(r)
		if err != nil {
			return Cell{}, err
		}
		return Cell{Type: TypeDate, Salted: salted, Value: int64(v)}, nil
	case TypeDouble:
		v, err := sl.ReadUint64(r)
		if err != nil {
			return Cell{}, err
		}
		return Cell{Type: TypeDouble, Salted: salted, Value: mathFloat64frombits(v)}, nil
	case TypeBytes:
		n, err := sl.ReadUint24(r)
		if err != nil {
			return Cell{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Cell{}, sl.WithKind(sl.SerialFormat, err)
		}
		return Cell{Type: TypeBytes, Salted: salted, Value: buf}, nil
	case TypeString:
		n, err := sl.ReadUint24(r)
		if err != nil {
			return Cell{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Cell{}, sl.WithKind(sl.SerialFormat, err)
		}
		return Cell{Type: TypeString, Salted: salted, Value: string(buf)}, nil
	default:
		return Cell{}, sl.Kindf(sl.SerialFormat, "source: unknown cell type code %d", typ)
	}
}

// sha256Sum is a small indirection kept for symmetry with sl.Sum's
// multi-part signature; nothing in the module currently calls it.
func sha256Sum(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
