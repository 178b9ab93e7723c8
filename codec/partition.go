// Package codec implements the shared random-access partitioning and
// lookup primitives used by the bindle file format: a PARTITION is a
// count-prefixed array of byte-slice sizes followed by the concatenated
// slices, letting a reader seek straight to slice i without parsing the
// slices before it.
package codec

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// WritePartition encodes parts as a PARTITION: u32 BE part-count, u32 BE
// size for each part, then the parts themselves concatenated in order.
func WritePartition(w io.Writer, parts [][]byte) error {
	if err := sl.WriteUint32(w, uint32(len(parts))); err != nil {
		return err
	}
	for _, p := range parts {
		if err := sl.WriteUint32(w, uint32(len(p))); err != nil {
			return err
		}
	}
	for _, p := range parts {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// ReadPartition decodes a PARTITION framed by WritePartition, materializing
// every part.
func ReadPartition(r io.Reader) ([][]byte, error) {
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	sizes := make([]uint32, count)
	for i := range sizes {
		sizes[i], err = sl.ReadUint32(r)
		if err != nil {
			return nil, err
		}
	}
	parts := make([][]byte, count)
	for i, size := range sizes {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, sl.WithKind(sl.SerialFormat, err)
		}
		parts[i] = buf
	}
	return parts, nil
}

// Partitioning is a parsed PARTITION held as one contiguous byte slice plus
// the byte offset of each part within it, so Part(i) slices in place
// instead of copying — the same random-access behavior the legacy
// morsel PACK_SIZES table calls for, generalized to the bindle partition
// layout.
type Partitioning struct {
	data    []byte
	offsets []int // len(offsets) == count+1; part i spans [offsets[i], offsets[i+1])
}

// ParsePartitioning reads a PARTITION's header (count + sizes) from r,
// then reads the remaining bytes into a single buffer it slices from.
func ParsePartitioning(r io.Reader) (*Partitioning, error) {
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	sizes := make([]uint32, count)
	for i := range sizes {
		sizes[i], err = sl.ReadUint32(r)
		if err != nil {
			return nil, err
		}
	}
	offsets := make([]int, count+1)
	total := 0
	for i, size := range sizes {
		offsets[i] = total
		total += int(size)
	}
	offsets[count] = total
	data := make([]byte, total)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, sl.WithKind(sl.SerialFormat, err)
	}
	return &Partitioning{data: data, offsets: offsets}, nil
}

// NewPartitioning builds a Partitioning directly from already-decoded part
// sizes and the concatenated bytes that follow them, for formats whose
// count/size prefix doesn't match WritePartition's own framing (e.g. the
// legacy morsel PACK_COUNT(u8) + PACK_SIZES(u32 BE[]) header).
func NewPartitioning(r io.Reader, sizes []uint32) (*Partitioning, error) {
	offsets := make([]int, len(sizes)+1)
	total := 0
	for i, size := range sizes {
		offsets[i] = total
		total += int(size)
	}
	offsets[len(sizes)] = total
	data := make([]byte, total)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, sl.WithKind(sl.SerialFormat, err)
	}
	return &Partitioning{data: data, offsets: offsets}, nil
}

// Count returns the number of parts.
func (p *Partitioning) Count() int { return len(p.offsets) - 1 }

// Part returns part i without copying.
func (p *Partitioning) Part(i int) ([]byte, error) {
	if i < 0 || i >= p.Count() {
		return nil, sl.Kindf(sl.OutOfBounds, "codec: partition index %d out of range [0,%d)", i, p.Count())
	}
	return p.data[p.offsets[i]:p.offsets[i+1]], nil
}
