package bindle

import (
	"bytes"
	"io"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/codec"
	"github.com/crums-io/skipledger-go/multipath"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/nugget"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

// Magic and CurrentVersion frame every .bindl file.
var Magic = [6]byte{'B', 'I', 'N', 'D', 'L', 'E'}

const CurrentVersion = uint16(1)

// Write encodes b as a complete BINDLE_FILE: MAGIC, VERSION, IDS, then one
// partition slot per nugget (ids ascending), each slot the canonical
// serialization of that nugget's NUG.
func Write(b *Bindle, w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := sl.WriteUint16(w, CurrentVersion); err != nil {
		return err
	}
	if err := sl.WriteUint32(w, uint32(len(b.ids))); err != nil {
		return err
	}
	for _, id := range b.ids {
		if err := b.nuggets[id].ID.Write(w); err != nil {
			return err
		}
	}
	parts := make([][]byte, len(b.ids))
	for i, id := range b.ids {
		buf, err := encodeNug(b.nuggets[id])
		if err != nil {
			return err
		}
		parts[i] = buf
	}
	return codec.WritePartition(w, parts)
}

// Read decodes a BINDLE_FILE written by Write, re-running the full
// construction and cross-nugget validation pipeline. seeds supplies each
// ledger's secret salt seed by numeric id (the seed is secret and assumed
// to be provided externally, never framed in the file itself); a ledger
// absent from seeds is read with the zero seed, correct whenever its
// source cells are unsalted or already redacted.
func Read(r io.Reader, seeds map[uint32]source.SaltSeed) (*Bindle, error) {
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, sl.WithKind(sl.SerialFormat, err)
	}
	if magic != Magic {
		return nil, sl.WithKind(sl.SerialFormat, sl.ErrBadMagic)
	}
	version, err := sl.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, sl.WithKind(sl.SerialFormat, sl.ErrUnknownVersion)
	}
	// version > CurrentVersion parses best-effort.

	idCount, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if idCount == 0 {
		return nil, sl.Kindf(sl.MalformedBindle, "bindle: no ledger ids")
	}
	ids := make([]nugget.LedgerId, idCount)
	for i := range ids {
		id, err := nugget.ReadLedgerId(r)
		if err != nil {
			return nil, err
		}
		if i > 0 && id.ID <= ids[i-1].ID {
			return nil, sl.Kindf(sl.MalformedBindle, "bindle: ledger ids must be strictly increasing")
		}
		ids[i] = id
	}

	parts, err := codec.ReadPartition(r)
	if err != nil {
		return nil, err
	}
	if len(parts) < len(ids) {
		return nil, sl.Kindf(sl.MalformedBindle, "bindle: partition count %d less than id count %d", len(parts), len(ids))
	}

	nuggets := make([]*nugget.Nugget, len(ids))
	for i, id := range ids {
		seed := seeds[id.ID]
		n, err := decodeNug(id, parts[i], seed)
		if err != nil {
			return nil, err
		}
		nuggets[i] = n
	}
	return New(nuggets)
}

func encodeNug(n *nugget.Nugget) ([]byte, error) {
	var buf bytes.Buffer
	if err := sl.WriteUint32(&buf, n.ID.ID); err != nil {
		return nil, err
	}
	if err := n.Paths.Write(&buf); err != nil {
		return nil, err
	}
	var srcBuf bytes.Buffer
	if n.Source != nil {
		if err := n.Source.Write(&srcBuf); err != nil {
			return nil, err
		}
	}
	if err := sl.WriteBytes32(&buf, srcBuf.Bytes()); err != nil {
		return nil, err
	}

	notaryParts := make([][]byte, len(n.Notaries))
	for i, np := range n.Notaries {
		var b bytes.Buffer
		if err := np.Write(&b); err != nil {
			return nil, err
		}
		notaryParts[i] = b.Bytes()
	}
	if err := codec.WritePartition(&buf, notaryParts); err != nil {
		return nil, err
	}

	refParts := make([][]byte, len(n.Refs))
	for i, fr := range n.Refs {
		var b bytes.Buffer
		if err := fr.Write(&b); err != nil {
			return nil, err
		}
		refParts[i] = b.Bytes()
	}
	if err := codec.WritePartition(&buf, refParts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeNug(id nugget.LedgerId, data []byte, seed source.SaltSeed) (*nugget.Nugget, error) {
	r := bytes.NewReader(data)
	nugID, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if nugID != id.ID {
		return nil, sl.Kindf(sl.MalformedNugget, "bindle: nug id %d disagrees with declared ledger id %d", nugID, id.ID)
	}
	paths, err := multipath.Read(r)
	if err != nil {
		return nil, err
	}
	srcBytes, err := sl.ReadBytes32(r)
	if err != nil {
		return nil, err
	}
	var src *source.Pack
	if len(srcBytes) > 0 {
		src, err = source.ReadPack(bytes.NewReader(srcBytes), seed)
		if err != nil {
			return nil, err
		}
	}

	notaryParts, err := codec.ReadPartition(r)
	if err != nil {
		return nil, err
	}
	var notaries []*notary.Pack
	for _, p := range notaryParts {
		np, err := notary.Read(bytes.NewReader(p))
		if err != nil {
			return nil, err
		}
		notaries = append(notaries, np)
	}

	refParts, err := codec.ReadPartition(r)
	if err != nil {
		return nil, err
	}
	var refs []*xref.ForeignRefs
	for _, p := range refParts {
		fr, err := xref.Read(bytes.NewReader(p))
		if err != nil {
			return nil, err
		}
		refs = append(refs, fr)
	}

	return nugget.New(id, paths, src, notaries, refs)
}
