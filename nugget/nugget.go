package nugget

import (
	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/multipath"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

// Nugget is one ledger's bindle section: its id, a MultiPath of proof
// paths, optional source content, zero or more notary packs (one per
// chain it's been witnessed against), and zero or more foreign-ref packs
// (one per ledger it references).
type Nugget struct {
	ID       LedgerId
	Paths    *multipath.MultiPath
	Source   *source.Pack // nil unless the ledger carries source content
	Notaries []*notary.Pack
	Refs     []*xref.ForeignRefs
}

// New validates the construction guarantees and returns a Nugget, or the
// first violated invariant's error:
//
//  1. A commits-only ledger (timechain) carries neither a source pack nor
//     foreign refs.
//  2. For every SourceRow, paths.findRow(row_no) yields a full row with
//     input_hash == source_row.hash(); else HashConflict.
//  3. Notary pack uniqueness: chain IDs distinct from each other and from
//     the nugget's own id. For every NotarizedRow, paths.rowHash(row_no)
//     == nr.cargo_hash.
//  4. Foreign refs: source pack present when refs non-empty. For each
//     ref, from_row exists in source pack, referenced cells are not
//     redacted, and indices are in bounds.
func New(id LedgerId, paths *multipath.MultiPath, src *source.Pack, notaries []*notary.Pack, refs []*xref.ForeignRefs) (*Nugget, error) {
	if src != nil && id.Info.CommitsOnly() {
		return nil, sl.Kindf(sl.MalformedNugget, "nugget %d: commits-only ledger cannot carry a source pack", id.ID)
	}

	if src != nil {
		for _, sr := range src.Rows() {
			row, ok := paths.Row(sr.RowNo)
			if !ok {
				return nil, sl.Kindf(sl.HashConflict, "nugget %d: source row %d has no matching full path row", id.ID, sr.RowNo)
			}
			if row.InputHash != sr.Hash() {
				return nil, sl.Kindf(sl.HashConflict, "nugget %d: source row %d hash disagrees with its ledger input hash", id.ID, sr.RowNo)
			}
		}
	}

	seenChains := map[uint32]bool{id.ID: true}
	for _, np := range notaries {
		if seenChains[np.ChainID] {
			return nil, sl.Kindf(sl.MalformedNugget, "nugget %d: duplicate or self-referential chain id %d", id.ID, np.ChainID)
		}
		seenChains[np.ChainID] = true
		for _, nr := range np.Rows() {
			h, ok := paths.RowHash(nr.RowNo)
			if !ok {
				return nil, sl.Kindf(sl.HashConflict, "nugget %d: path does not cover notarized row %d", id.ID, nr.RowNo)
			}
			if h != nr.CargoHash {
				return nil, sl.Kindf(sl.HashConflict, "nugget %d: notarized row %d cargo hash disagrees with path", id.ID, nr.RowNo)
			}
		}
	}

	if len(refs) > 0 {
		if id.Info.CommitsOnly() {
			return nil, sl.Kindf(sl.MalformedNugget, "nugget %d: commits-only ledger cannot carry foreign refs", id.ID)
		}
		if src == nil {
			return nil, sl.Kindf(sl.MalformedNugget, "nugget %d: foreign refs present but no source pack", id.ID)
		}
		for _, fr := range refs {
			for _, ref := range fr.Refs {
				sr, ok := src.GetRow(uint64(ref.FromRow))
				if !ok {
					return nil, sl.Kindf(sl.MalformedReference, "nugget %d: reference's from_row %d not in source pack", id.ID, ref.FromRow)
				}
				if ref.FromCol >= 0 {
					if int(ref.FromCol) >= len(sr.Cells) {
						return nil, sl.Kindf(sl.MalformedReference, "nugget %d: reference from_col %d out of bounds", id.ID, ref.FromCol)
					}
					if sr.IsRedacted(int(ref.FromCol)) {
						return nil, sl.Kindf(sl.MalformedReference, "nugget %d: reference's from cell is redacted", id.ID)
					}
				}
			}
		}
	}

	return &Nugget{ID: id, Paths: paths, Source: src, Notaries: notaries, Refs: refs}, nil
}
