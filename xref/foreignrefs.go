package xref

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
)

// ForeignRefs is a strictly sorted, duplicate-free set of References
// against one foreign ledger.
type ForeignRefs struct {
	ForeignID uint32
	Refs      []Reference
}

// Builder incrementally collects References for one foreign ledger:
// strict sort order, no duplicates, and — when the foreign ledger is
// commitsOnly (a timechain) — only commit-hash references are legal.
type Builder struct {
	foreignID   uint32
	commitsOnly bool
	refs        []Reference
}

// NewBuilder starts a ForeignRefs.Builder against foreignID. commitsOnly
// must reflect whether that foreign ledger's LedgerInfo.commitsOnly()
// holds.
func NewBuilder(foreignID uint32, commitsOnly bool) *Builder {
	return &Builder{foreignID: foreignID, commitsOnly: commitsOnly}
}

// Add inserts ref in sorted position. Fails with MalformedReference on a
// duplicate, an out-of-order insert this builder can't silently fix
// (duplicates only — ordering is enforced by insertion position), or a
// commit-hash-only violation against a commitsOnly foreign ledger.
func (b *Builder) Add(ref Reference) error {
	if b.commitsOnly && ref.ToCol != ColCommitHash {
		return sl.Kindf(sl.MalformedReference, "xref: foreign ledger %d is commits-only; to_col must be %d, got %d", b.foreignID, ColCommitHash, ref.ToCol)
	}
	i := 0
	for i < len(b.refs) && b.refs[i].Less(ref) {
		i++
	}
	if i < len(b.refs) && b.refs[i].equal(ref) {
		return sl.Kindf(sl.MalformedReference, "xref: duplicate reference %+v", ref)
	}
	b.refs = append(b.refs, Reference{})
	copy(b.refs[i+1:], b.refs[i:])
	b.refs[i] = ref
	return nil
}

// Build finalizes the collected references.
func (b *Builder) Build() *ForeignRefs {
	out := make([]Reference, len(b.refs))
	copy(out, b.refs)
	return &ForeignRefs{ForeignID: b.foreignID, Refs: out}
}

// Write encodes the pack: foreign id, ref count, then each reference.
func (fr *ForeignRefs) Write(w io.Writer) error {
	if err := sl.WriteUint32(w, fr.ForeignID); err != nil {
		return err
	}
	if err := sl.WriteUint32(w, uint32(len(fr.Refs))); err != nil {
		return err
	}
	for _, ref := range fr.Refs {
		if err := ref.write(w); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a ForeignRefs framed by Write, re-validating strict order
// and no duplicates.
func Read(r io.Reader) (*ForeignRefs, error) {
	foreignID, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	refs := make([]Reference, count)
	for i := range refs {
		ref, err := readReference(r)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}
	for i := 1; i < len(refs); i++ {
		if !refs[i-1].Less(refs[i]) {
			return nil, sl.Kindf(sl.MalformedReference, "xref: references not strictly sorted at index %d", i)
		}
	}
	return &ForeignRefs{ForeignID: foreignID, Refs: refs}, nil
}
