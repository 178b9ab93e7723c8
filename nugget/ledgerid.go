// Package nugget implements Nugget: the per-ledger bindle section
// bundling a LedgerId, a MultiPath, optional source data, notary packs,
// and foreign-ref packs.
package nugget

import sl "github.com/crums-io/skipledger-go"

// LedgerType classifies a LedgerId's kind.
type LedgerType int

const (
	TypeLog LedgerType = iota
	TypeTable
	TypeBstream
	TypeTimechain
)

// LedgerInfo carries a LedgerId's descriptive and type-specific metadata.
// Once attached to a LedgerId its Type and ChainParams are immutable;
// attempts to change them through WithInfo raise IllegalEdit.
type LedgerInfo struct {
	Type        LedgerType
	Alias       string
	Uri         string
	Description string

	// ChainParams is set only for TypeTimechain.
	ChainParams *ChainParamsRef
	// Columns/DateFormat are set only for TypeTable.
	Columns    []string
	DateFormat string
	// BlockSize is set only for TypeBstream.
	BlockSize uint32
}

// ChainParamsRef is a local mirror of a timechain's chain parameters that
// keeps LedgerInfo self-contained; bindle's validation engine is the
// layer that actually cross-checks chain params against a NotaryPack's
// chain.
type ChainParamsRef struct {
	InceptionUTC        int64
	BlockDurationMillis int64
}

// CommitsOnly holds for TIMECHAIN ledgers: a timechain nugget may carry
// no source pack and no foreign refs.
func (info LedgerInfo) CommitsOnly() bool {
	return info.Type == TypeTimechain
}

// LedgerId is a bindle-local numeric id plus its descriptive info.
type LedgerId struct {
	ID   uint32
	Info LedgerInfo
}

// WithInfo returns a copy of id whose Info has been replaced, or
// IllegalEdit if info's Type or ChainParams disagree with id.Info's
// (both are immutable properties of a LedgerId once declared; the other
// fields may be replaced).
func (id LedgerId) WithInfo(info LedgerInfo) (LedgerId, error) {
	if info.Type != id.Info.Type {
		return LedgerId{}, sl.Kindf(sl.IllegalEdit, "nugget: cannot change ledger %d's type after declaration", id.ID)
	}
	a, b := id.Info.ChainParams, info.ChainParams
	if (a == nil) != (b == nil) || (a != nil && *a != *b) {
		return LedgerId{}, sl.Kindf(sl.IllegalEdit, "nugget: cannot change ledger %d's chain params after declaration", id.ID)
	}
	return LedgerId{ID: id.ID, Info: info}, nil
}
