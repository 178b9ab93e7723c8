package nugget

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// Write encodes id: its u32 big-endian id, then LEDGER_INFO (type byte,
// three length-prefixed strings (alias, uri, description), then
// type-specific fields).
func (id LedgerId) Write(w io.Writer) error {
	if err := sl.WriteUint32(w, id.ID); err != nil {
		return err
	}
	return id.Info.write(w)
}

func (info LedgerInfo) write(w io.Writer) error {
	if err := sl.WriteByte(w, byte(info.Type)); err != nil {
		return err
	}
	for _, s := range []string{info.Alias, info.Uri, info.Description} {
		if err := sl.WriteBytes32(w, []byte(s)); err != nil {
			return err
		}
	}
	switch info.Type {
	case TypeTimechain:
		cp := info.ChainParams
		if cp == nil {
			return sl.Kindf(sl.SerialFormat, "nugget: timechain ledger info missing chain params")
		}
		if err := sl.WriteUint64(w, uint64(cp.InceptionUTC)); err != nil {
			return err
		}
		if err := sl.WriteUint64(w, uint64(cp.BlockDurationMillis)); err != nil {
			return err
		}
	case TypeTable:
		if err := sl.WriteUint32(w, uint32(len(info.Columns))); err != nil {
			return err
		}
		for _, c := range info.Columns {
			if err := sl.WriteBytes32(w, []byte(c)); err != nil {
				return err
			}
		}
		if err := sl.WriteBytes32(w, []byte(info.DateFormat)); err != nil {
			return err
		}
	case TypeBstream:
		if err := sl.WriteUint32(w, info.BlockSize); err != nil {
			return err
		}
	}
	return nil
}

// ReadLedgerId decodes a LedgerId framed by Write.
func ReadLedgerId(r io.Reader) (LedgerId, error) {
	id, err := sl.ReadUint32(r)
	if err != nil {
		return LedgerId{}, err
	}
	info, err := readLedgerInfo(r)
	if err != nil {
		return LedgerId{}, err
	}
	return LedgerId{ID: id, Info: info}, nil
}

func readLedgerInfo(r io.Reader) (LedgerInfo, error) {
	typByte, err := sl.ReadByte(r)
	if err != nil {
		return LedgerInfo{}, err
	}
	typ := LedgerType(typByte)
	strs := make([]string, 3)
	for i := range strs {
		b, err := sl.ReadBytes32(r)
		if err != nil {
			return LedgerInfo{}, err
		}
		strs[i] = string(b)
	}
	info := LedgerInfo{Type: typ, Alias: strs[0], Uri: strs[1], Description: strs[2]}
	switch typ {
	case TypeTimechain:
		inception, err := sl.ReadUint64(r)
		if err != nil {
			return LedgerInfo{}, err
		}
		duration, err := sl.ReadUint64(r)
		if err != nil {
			return LedgerInfo{}, err
		}
		info.ChainParams = &ChainParamsRef{InceptionUTC: int64(inception), BlockDurationMillis: int64(duration)}
	case TypeTable:
		count, err := sl.ReadUint32(r)
		if err != nil {
			return LedgerInfo{}, err
		}
		cols := make([]string, count)
		for i := range cols {
			b, err := sl.ReadBytes32(r)
			if err != nil {
				return LedgerInfo{}, err
			}
			cols[i] = string(b)
		}
		info.Columns = cols
		dateFmt, err := sl.ReadBytes32(r)
		if err != nil {
			return LedgerInfo{}, err
		}
		info.DateFormat = string(dateFmt)
	case TypeBstream:
		size, err := sl.ReadUint32(r)
		if err != nil {
			return LedgerInfo{}, err
		}
		info.BlockSize = size
	}
	return info, nil
}
