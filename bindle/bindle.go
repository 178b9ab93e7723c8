// Package bindle implements Bindle/Bundle: the multi-nugget container
// format that replaces the legacy morsel.
package bindle

import (
	"sort"
	"strings"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/nugget"
)

// Bindle is an immutable, fully cross-validated collection of Nuggets,
// indexed by their bindle-local numeric id.
type Bindle struct {
	ids     []uint32 // ascending
	nuggets map[uint32]*nugget.Nugget
}

// New sorts nuggets by id, checks global alias/URI uniqueness and strict
// id ascension, then runs the cross-nugget validation engine.
func New(nuggets []*nugget.Nugget) (*Bindle, error) {
	if len(nuggets) == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "bindle: no nuggets given")
	}
	sorted := make([]*nugget.Nugget, len(nuggets))
	copy(sorted, nuggets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.ID < sorted[j].ID.ID })

	byID := make(map[uint32]*nugget.Nugget, len(sorted))
	aliases := make(map[string]bool)
	uris := make(map[string]bool)
	ids := make([]uint32, len(sorted))
	for i, n := range sorted {
		if i > 0 && sorted[i].ID.ID <= sorted[i-1].ID.ID {
			return nil, sl.Kindf(sl.MalformedBindle, "bindle: ledger ids must be strictly increasing")
		}
		alias := strings.TrimSpace(n.ID.Info.Alias)
		if alias == "" {
			return nil, sl.Kindf(sl.MalformedBindle, "bindle: ledger %d has an empty alias", n.ID.ID)
		}
		if aliases[alias] {
			return nil, sl.Kindf(sl.MalformedBindle, "bindle: duplicate alias %q", alias)
		}
		aliases[alias] = true
		if uri := n.ID.Info.Uri; uri != "" {
			if uris[uri] {
				return nil, sl.Kindf(sl.MalformedBindle, "bindle: duplicate uri %q", uri)
			}
			uris[uri] = true
		}
		byID[n.ID.ID] = n
		ids[i] = n.ID.ID
	}

	b := &Bindle{ids: ids, nuggets: byID}
	if err := validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Ids returns the bindle-local numeric ids, ascending.
func (b *Bindle) Ids() []uint32 {
	out := make([]uint32, len(b.ids))
	copy(out, b.ids)
	return out
}

// Nugget returns the nugget with the given id.
func (b *Bindle) Nugget(id uint32) (*nugget.Nugget, bool) {
	n, ok := b.nuggets[id]
	return n, ok
}
