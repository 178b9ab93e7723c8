package nugget

import (
	"github.com/crums-io/skipledger-go/multipath"
	"github.com/crums-io/skipledger-go/notary"
	"github.com/crums-io/skipledger-go/path"
	"github.com/crums-io/skipledger-go/source"
	"github.com/crums-io/skipledger-go/xref"
)

// Builder incrementally assembles one Nugget.
type Builder struct {
	id        LedgerId
	mpBuilder *multipath.Builder
	src       *source.Pack
	notaries  []*notary.Pack
	refs      []*xref.ForeignRefs
}

// NewBuilder starts a Builder for id.
func NewBuilder(id LedgerId) *Builder {
	return &Builder{id: id, mpBuilder: multipath.NewBuilder()}
}

// AddPath adds p to the nugget's MultiPath under construction, returning
// the highest row number shared with paths already added.
func (b *Builder) AddPath(p *path.Path) (uint64, error) {
	return b.mpBuilder.AddPath(p)
}

// SetSource attaches the ledger's source pack.
func (b *Builder) SetSource(src *source.Pack) { b.src = src }

// CoversRow reports whether the MultiPath under construction already
// knows row n's hash.
func (b *Builder) CoversRow(n uint64) bool { return b.mpBuilder.CoversRow(n) }

// HighestCommonNo returns the highest row number p shares with the paths
// already added, without mutating the builder.
func (b *Builder) HighestCommonNo(p *path.Path) uint64 { return b.mpBuilder.HighestCommonNo(p) }

// AddNotaryPack attaches a notary pack for one chain.
func (b *Builder) AddNotaryPack(np *notary.Pack) { b.notaries = append(b.notaries, np) }

// AddForeignRefs attaches a foreign-ref pack for one foreign ledger.
func (b *Builder) AddForeignRefs(fr *xref.ForeignRefs) { b.refs = append(b.refs, fr) }

// Build finalizes the MultiPath and runs Nugget's validation.
func (b *Builder) Build() (*Nugget, error) {
	mp, err := b.mpBuilder.Build()
	if err != nil {
		return nil, err
	}
	return New(b.id, mp, b.src, b.notaries, b.refs)
}
