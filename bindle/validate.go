package bindle

import (
	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/nugget"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

// validate runs the cross-nugget checks: foreign-ref resolution and
// notary resolution against a timechain block. Each nugget's own
// construction checks already ran during nugget.New/Builder.Build.
func validate(b *Bindle) error {
	for _, id := range b.ids {
		n := b.nuggets[id]
		if err := validateForeignRefs(b, n); err != nil {
			return err
		}
		if err := validateNotaries(b, n); err != nil {
			return err
		}
	}
	return nil
}

func validateForeignRefs(b *Bindle, n *nugget.Nugget) error {
	for _, fr := range n.Refs {
		if fr.ForeignID == n.ID.ID {
			continue
		}
		foreign, ok := b.nuggets[fr.ForeignID]
		if !ok {
			return sl.Kindf(sl.MalformedReference, "bindle: nugget %d references unknown foreign nugget %d", n.ID.ID, fr.ForeignID)
		}
		for _, ref := range fr.Refs {
			if err := validateOneRef(n, foreign, ref); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateOneRef(n, foreign *nugget.Nugget, ref xref.Reference) error {
	switch ref.Mode() {
	case xref.ModeCommitHash:
		if !foreign.Paths.CoversRow(uint64(ref.ToRow)) {
			return sl.Kindf(sl.MalformedReference, "bindle: foreign nugget %d does not cover row %d", foreign.ID.ID, ref.ToRow)
		}
		h, ok := foreign.Paths.RowHash(uint64(ref.ToRow))
		if !ok {
			return sl.Kindf(sl.MalformedReference, "bindle: foreign nugget %d row %d hash unavailable", foreign.ID.ID, ref.ToRow)
		}
		fromCell, err := fromCell(n, ref)
		if err != nil {
			return err
		}
		if fromCell.Type != source.TypeHash || fromCell.Value.(sl.Hash) != h {
			return sl.Kindf(sl.HashConflict, "bindle: commit-hash reference does not match foreign row %d's hash", ref.ToRow)
		}

	case xref.ModeSameContent:
		localRow, ok := n.Source.GetRow(uint64(ref.FromRow))
		if !ok {
			return sl.Kindf(sl.MalformedReference, "bindle: local source row %d not found", ref.FromRow)
		}
		foreignRow, ok := foreign.Source.GetRow(uint64(ref.ToRow))
		if !ok {
			return sl.Kindf(sl.MalformedReference, "bindle: foreign source row %d not found", ref.ToRow)
		}
		if len(localRow.Cells) != len(foreignRow.Cells) {
			return sl.Kindf(sl.MalformedReference, "bindle: same-content reference rows have different cell counts")
		}
		for i := range localRow.Cells {
			if localRow.IsRedacted(i) || foreignRow.IsRedacted(i) {
				return sl.Kindf(sl.MalformedReference, "bindle: same-content reference touches a redacted cell")
			}
			if !localRow.Cells[i].DataEqual(foreignRow.Cells[i]) {
				return sl.Kindf(sl.MalformedReference, "bindle: same-content reference rows disagree at cell %d", i)
			}
		}

	default: // ModeSingleCell
		foreignRow, ok := foreign.Source.GetRow(uint64(ref.ToRow))
		if !ok {
			return sl.Kindf(sl.MalformedReference, "bindle: foreign source row %d not found", ref.ToRow)
		}
		if int(ref.ToCol) >= len(foreignRow.Cells) || ref.ToCol < 0 {
			return sl.Kindf(sl.MalformedReference, "bindle: foreign cell index %d out of bounds", ref.ToCol)
		}
		if foreignRow.IsRedacted(int(ref.ToCol)) {
			return sl.Kindf(sl.MalformedReference, "bindle: single-cell reference touches a redacted foreign cell")
		}
		fromCell, err := fromCell(n, ref)
		if err != nil {
			return err
		}
		if !fromCell.DataEqual(foreignRow.Cells[ref.ToCol]) {
			return sl.Kindf(sl.MalformedReference, "bindle: single-cell reference data disagrees with foreign cell")
		}
	}
	return nil
}

func fromCell(n *nugget.Nugget, ref xref.Reference) (source.Cell, error) {
	if n.Source == nil {
		return source.Cell{}, sl.Kindf(sl.MalformedReference, "bindle: nugget %d has no source pack", n.ID.ID)
	}
	row, ok := n.Source.GetRow(uint64(ref.FromRow))
	if !ok {
		return source.Cell{}, sl.Kindf(sl.MalformedReference, "bindle: local source row %d not found", ref.FromRow)
	}
	if ref.FromCol < 0 || int(ref.FromCol) >= len(row.Cells) {
		return source.Cell{}, sl.Kindf(sl.MalformedReference, "bindle: local cell index %d out of bounds", ref.FromCol)
	}
	if row.IsRedacted(int(ref.FromCol)) {
		return source.Cell{}, sl.Kindf(sl.MalformedReference, "bindle: local from cell is redacted")
	}
	return row.Cells[ref.FromCol], nil
}

func validateNotaries(b *Bindle, n *nugget.Nugget) error {
	for _, np := range n.Notaries {
		chain, ok := b.nuggets[np.ChainID]
		if !ok {
			return sl.Kindf(sl.MalformedNotarizedRow, "bindle: nugget %d notarizes against unknown chain %d", n.ID.ID, np.ChainID)
		}
		params := chain.ID.Info.ChainParams
		if params == nil {
			return sl.Kindf(sl.MalformedNotarizedRow, "bindle: nugget %d's chain %d has no chain params", n.ID.ID, np.ChainID)
		}
		cp := chainParamsFrom(params)
		for _, nr := range np.Rows() {
			blockNo := cp.BlockNoForUTC(nr.Utc)
			block, ok := chain.Paths.Row(blockNo)
			if !ok {
				return sl.Kindf(sl.MalformedNotarizedRow, "bindle: chain %d missing block %d for utc %d", np.ChainID, blockNo, nr.Utc)
			}
			if block.InputHash != nr.CargoHash {
				return sl.Kindf(sl.HashConflict, "bindle: chain %d block %d input hash disagrees with notarized cargo hash", np.ChainID, blockNo)
			}
		}
	}
	return nil
}

func chainParamsFrom(ref *nugget.ChainParamsRef) notary.ChainParams {
	return notary.ChainParams{InceptionUTC: ref.InceptionUTC, BlockDurationMillis: ref.BlockDurationMillis}
}
