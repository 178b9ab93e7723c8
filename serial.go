package skipledger

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Numeric conventions: every multi-byte integer in every binary format
// defined by this module (PathPack, bindle files, morsel packs) is
// big-endian. These helpers read/write that convention and are kept under
// consistent names so the rest of the module's codecs read the same way.

// MustBytes serializes o and panics on error, the most common way to get
// the bytes of an immutable, already-validated value.
func MustBytes(o interface{ Write(w io.Writer) error }) []byte {
	var buf bytes.Buffer
	if err := o.Write(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// byteCounter is an io.Writer that only counts bytes, used to size a
// serializable value without allocating its encoding.
type byteCounter int

func (b *byteCounter) Write(p []byte) (int, error) {
	*b += byteCounter(len(p))
	return len(p), nil
}

// Size computes the encoded byte size of o without materializing it.
func Size(o interface{ Write(w io.Writer) error }) (int, error) {
	var c byteCounter
	if err := o.Write(&c); err != nil {
		return 0, err
	}
	return int(c), nil
}

func ReadByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, translateEOF(err)
	}
	return b[0], nil
}

func WriteByte(w io.Writer, val byte) error {
	_, err := w.Write([]byte{val})
	return err
}

func ReadUint32(r io.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, translateEOF(err)
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func WriteUint32(w io.Writer, val uint32) error {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

func ReadUint64(r io.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, translateEOF(err)
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

func WriteUint64(w io.Writer, val uint64) error {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

func ReadUint16(r io.Reader) (uint16, error) {
	var tmp [2]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, translateEOF(err)
	}
	return binary.BigEndian.Uint16(tmp[:]), nil
}

func WriteUint16(w io.Writer, val uint16) error {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

// ReadUint24 reads a 3-byte big-endian unsigned length, the width used for
// variable-width source cells, capped at 16 MiB.
func ReadUint24(r io.Reader) (uint32, error) {
	var tmp [3]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, translateEOF(err)
	}
	return uint32(tmp[0])<<16 | uint32(tmp[1])<<8 | uint32(tmp[2]), nil
}

// Uint24Max is the largest value ReadUint24/WriteUint24 can carry (16 MiB - 1).
const Uint24Max = 1<<24 - 1

func WriteUint24(w io.Writer, val uint32) error {
	if val > Uint24Max {
		return WithKind(SerialFormat, ErrTruncated)
	}
	tmp := [3]byte{byte(val >> 16), byte(val >> 8), byte(val)}
	_, err := w.Write(tmp[:])
	return err
}

func ReadHash(r io.Reader) (Hash, error) {
	var h Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, translateEOF(err)
	}
	return h, nil
}

func WriteHash(w io.Writer, h Hash) error {
	_, err := w.Write(h[:])
	return err
}

// ReadBytes32 reads a u32-length-prefixed byte blob.
func ReadBytes32(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, translateEOF(err)
	}
	return buf, nil
}

func WriteBytes32(w io.Writer, data []byte) error {
	if err := WriteUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// translateEOF maps a bare io.EOF/io.ErrUnexpectedEOF from a short read
// into the module's own truncation sentinel, so callers never need to
// special-case io.EOF.
func translateEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return WithKind(SerialFormat, ErrTruncated)
	}
	return err
}
