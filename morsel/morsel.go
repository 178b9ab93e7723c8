// Package morsel implements the legacy MRSL container format, the
// predecessor to the .bindl bindle format. A morsel carries one ledger's
// slice: a row-pack, an optional trail-pack (notary witness), an optional
// source-pack, an optional path-pack, and a named-asset block. This
// package is a reader only: nothing still produces morsels, and no
// writer is specified for the format beyond its wire shape.
package morsel

import (
	"bytes"
	"io"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/codec"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/source"
)

// Magic is the 10-byte header identifying a version 0.3 morsel file.
var Magic = [10]byte{'M', 'R', 'S', 'L', ' ', ' ', '0', '.', '3', ' '}

// Pack indices within the PACK_SIZES table, current (0.3) layout.
const (
	packRow = iota
	packTrail
	packSource
	packPath
	packAssets

	minPackCount = 4
)

// Morsel is a parsed legacy container, giving random access to its packs
// via the PACK_SIZES table without requiring every pack to be decoded.
type Morsel struct {
	parts *codec.Partitioning
}

// Read decodes a Morsel: the 10-byte magic, PACK_COUNT(u8) +
// PACK_SIZES(u32 BE[PACK_COUNT]) header, then the concatenated packs.
// PACK_COUNT below the 0.3 minimum of 4 is rejected.
func Read(r io.Reader) (*Morsel, error) {
	var magic [10]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, sl.WithKind(sl.SerialFormat, err)
	}
	if magic != Magic {
		return nil, sl.WithKind(sl.SerialFormat, sl.ErrBadMagic)
	}
	packCount, err := sl.ReadByte(r)
	if err != nil {
		return nil, err
	}
	if packCount < minPackCount {
		return nil, sl.Kindf(sl.SerialFormat, "morsel: PACK_COUNT %d below minimum %d", packCount, minPackCount)
	}
	sizes := make([]uint32, packCount)
	for i := range sizes {
		sizes[i], err = sl.ReadUint32(r)
		if err != nil {
			return nil, err
		}
	}
	parts, err := codec.NewPartitioning(r, sizes)
	if err != nil {
		return nil, err
	}
	return &Morsel{parts: parts}, nil
}

// RowPack decodes pack 0, the row-pack (always present).
func (m *Morsel) RowPack() (*RowPack, error) {
	data, err := m.parts.Part(packRow)
	if err != nil {
		return nil, err
	}
	return ReadRowPack(bytes.NewReader(data))
}

// TrailPack decodes pack 1, the notary pack witnessing the row-pack's
// rows against a timechain, if the morsel carries one.
func (m *Morsel) TrailPack() (*notary.Pack, bool, error) {
	data, ok, err := m.optionalPart(packTrail)
	if !ok || err != nil {
		return nil, ok, err
	}
	p, err := notary.Read(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// SourcePack decodes pack 2, the ledger's source rows, unsalting cells
// with seed (the salt seed is secret and provided externally, never
// framed in the file itself).
func (m *Morsel) SourcePack(seed source.SaltSeed) (*source.Pack, bool, error) {
	data, ok, err := m.optionalPart(packSource)
	if !ok || err != nil {
		return nil, ok, err
	}
	p, err := source.ReadPack(bytes.NewReader(data), seed)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// PathPack decodes pack 3, the single skip-path covering the row-pack's
// rows.
func (m *Morsel) PathPack() (*path.Path, bool, error) {
	data, ok, err := m.optionalPart(packPath)
	if !ok || err != nil {
		return nil, ok, err
	}
	p, err := path.Unpack(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Assets decodes pack 4, the 0.3 named-asset block: a count-prefixed
// sequence of (name, bytes) pairs. Absent in a PACK_COUNT-4 morsel
// (the version this module reads has no use for the 0.2 meta-pack it
// replaced).
func (m *Morsel) Assets() (map[string][]byte, error) {
	data, ok, err := m.optionalPart(packAssets)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string][]byte{}, nil
	}
	return readAssets(bytes.NewReader(data))
}

func (m *Morsel) optionalPart(i int) ([]byte, bool, error) {
	if i >= m.parts.Count() {
		return nil, false, nil
	}
	data, err := m.parts.Part(i)
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

func readAssets(r io.Reader) (map[string][]byte, error) {
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, count)
	for i := uint32(0); i < count; i++ {
		name, err := sl.ReadBytes32(r)
		if err != nil {
			return nil, err
		}
		data, err := sl.ReadBytes32(r)
		if err != nil {
			return nil, err
		}
		out[string(name)] = data
	}
	return out, nil
}
