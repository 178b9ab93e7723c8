package bindle

import (
	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/nugget"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

// Crumtrail is the boundary interface to a timechain witness proof: its
// Merkle-tree verification internals are out of scope (spec.md's Non-goals
// treat them as an opaque verify() boolean) — BindleBuilder only needs a
// crumtrail's outward-facing shape: does it check out, what cargo hash and
// utc does it attest to, and the minimal block-proof Path it carries into
// the timechain.
type Crumtrail interface {
	Verify() bool
	CargoHash() sl.Hash
	Utc() int64
	BlockPath() *path.Path
}

type notaryKey struct {
	ledgerID uint32
	chainID  uint32
}

// BindleBuilder composes per-ledger nugget.Builders by numeric id.
type BindleBuilder struct {
	nextID   uint32
	order    []uint32
	infos    map[uint32]nugget.LedgerInfo
	builders map[uint32]*nugget.Builder
	notaries map[notaryKey]*notary.Builder
}

// NewBindleBuilder returns an empty builder; ledger ids start at 1.
func NewBindleBuilder() *BindleBuilder {
	return &BindleBuilder{
		nextID:   1,
		infos:    make(map[uint32]nugget.LedgerInfo),
		builders: make(map[uint32]*nugget.Builder),
		notaries: make(map[notaryKey]*notary.Builder),
	}
}

// DeclareLedger allocates the next bindle-local numeric id for a ledger
// described by info.
func (bb *BindleBuilder) DeclareLedger(info nugget.LedgerInfo) uint32 {
	id := bb.nextID
	bb.nextID++
	bb.order = append(bb.order, id)
	bb.infos[id] = info
	bb.builders[id] = nugget.NewBuilder(nugget.LedgerId{ID: id, Info: info})
	return id
}

func (bb *BindleBuilder) builderFor(id uint32) (*nugget.Builder, error) {
	b, ok := bb.builders[id]
	if !ok {
		return nil, sl.Kindf(sl.MalformedBindle, "bindle: unknown ledger id %d", id)
	}
	return b, nil
}

// AddPath delegates to id's nugget.Builder, returning highest_common_no.
func (bb *BindleBuilder) AddPath(id uint32, p *path.Path) (uint64, error) {
	b, err := bb.builderFor(id)
	if err != nil {
		return 0, err
	}
	return b.AddPath(p)
}

// SetSource attaches id's source pack.
func (bb *BindleBuilder) SetSource(id uint32, src *source.Pack) error {
	b, err := bb.builderFor(id)
	if err != nil {
		return err
	}
	b.SetSource(src)
	return nil
}

// AddForeignRefs attaches a foreign-ref pack to id's nugget.
func (bb *BindleBuilder) AddForeignRefs(id uint32, fr *xref.ForeignRefs) error {
	b, err := bb.builderFor(id)
	if err != nil {
		return err
	}
	b.AddForeignRefs(fr)
	return nil
}

// AddNotarizedRow is the central orchestration: verify the crumtrail,
// attempt the dual-monotonic insert into id's notary pack for chainID,
// and only on successful (non-redundant) insertion splice the minimal
// extension of the crumtrail's block-proof into the timechain nugget
// under construction. A rejected or redundant notarization leaves the
// timechain nugget untouched.
func (bb *BindleBuilder) AddNotarizedRow(id uint32, rowNo uint64, chainID uint32, trail Crumtrail) error {
	if !trail.Verify() {
		return sl.Kindf(sl.HashConflict, "bindle: crumtrail failed verification")
	}
	if _, err := bb.builderFor(id); err != nil {
		return err
	}
	chainBuilder, err := bb.builderFor(chainID)
	if err != nil {
		return err
	}
	chainInfo, ok := bb.infos[chainID]
	if !ok || chainInfo.ChainParams == nil {
		return sl.Kindf(sl.MalformedNotarizedRow, "bindle: chain %d has no chain params", chainID)
	}
	cp := notary.ChainParams{
		InceptionUTC:        chainInfo.ChainParams.InceptionUTC,
		BlockDurationMillis: chainInfo.ChainParams.BlockDurationMillis,
	}
	blockNo := cp.BlockNoForUTC(trail.Utc())

	key := notaryKey{ledgerID: id, chainID: chainID}
	nb, ok := bb.notaries[key]
	if !ok {
		nb = notary.NewBuilder(chainID)
		bb.notaries[key] = nb
	}

	inserted, err := nb.Add(notary.NotarizedRow{RowNo: rowNo, CargoHash: trail.CargoHash(), Utc: trail.Utc()})
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	if chainBuilder.CoversRow(blockNo) {
		return nil
	}
	blockPath := trail.BlockPath()
	hc := chainBuilder.HighestCommonNo(blockPath)
	sub := blockPath
	if hc != 0 {
		sub, err = blockPath.TailPath(hc)
		if err != nil {
			return err
		}
	}
	_, err = chainBuilder.AddPath(sub)
	return err
}

// Build finalizes every accumulated notary pack, attaches it to its
// ledger's nugget builder, then builds and cross-validates the Bindle.
func (bb *BindleBuilder) Build() (*Bindle, error) {
	for key, nb := range bb.notaries {
		pack, err := nb.Build()
		if err != nil {
			return nil, err
		}
		b, err := bb.builderFor(key.ledgerID)
		if err != nil {
			return nil, err
		}
		b.AddNotaryPack(pack)
	}
	nuggets := make([]*nugget.Nugget, 0, len(bb.order))
	for _, id := range bb.order {
		n, err := bb.builders[id].Build()
		if err != nil {
			return nil, err
		}
		nuggets = append(nuggets, n)
	}
	return New(nuggets)
}
