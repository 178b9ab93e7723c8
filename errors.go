package skipledger

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/xerrors"
)

// Kind is the closed set of error categories a conforming implementation
// may raise. Every fatal validation failure surfacing out of this module
// is taggable with exactly one Kind.
type Kind int

const (
	// KindNone marks an error that does not belong to the taxonomy (or
	// hasn't been classified); KindOf returns this for plain errors.
	KindNone Kind = iota
	// SerialFormat: malformed, truncated, or structurally invalid bytes.
	SerialFormat
	// HashConflict: two sources assert incompatible hashes for the same
	// coordinate. Fatal; never auto-recovered.
	HashConflict
	// MalformedBindle: self-consistent bytes that violate a cross-
	// component rule.
	MalformedBindle
	// MalformedNugget is a MalformedBindle subkind.
	MalformedNugget
	// MalformedReference is a MalformedBindle subkind.
	MalformedReference
	// MalformedNotarizedRow is a MalformedBindle subkind.
	MalformedNotarizedRow
	// RowNotFound: a row query fell outside [1, size].
	RowNotFound
	// OutOfBounds: a cell/index query fell outside its valid range.
	OutOfBounds
	// Io: an underlying filesystem error.
	Io
	// IllegalEdit: an attempted change to an immutable LedgerId property.
	IllegalEdit
)

func (k Kind) String() string {
	switch k {
	case SerialFormat:
		return "SerialFormat"
	case HashConflict:
		return "HashConflict"
	case MalformedBindle:
		return "MalformedBindle"
	case MalformedNugget:
		return "MalformedNugget"
	case MalformedReference:
		return "MalformedReference"
	case MalformedNotarizedRow:
		return "MalformedNotarizedRow"
	case RowNotFound:
		return "RowNotFound"
	case OutOfBounds:
		return "OutOfBounds"
	case Io:
		return "Io"
	case IllegalEdit:
		return "IllegalEdit"
	default:
		return "None"
	}
}

// isMalformedSubkind reports whether k is one of the MalformedBindle
// subkinds, which must also satisfy errors.Is(err, MalformedBindle).
func isMalformedSubkind(k Kind) bool {
	switch k {
	case MalformedNugget, MalformedReference, MalformedNotarizedRow:
		return true
	default:
		return false
	}
}

// kindMark is a marker error associated 1:1 with a Kind, registered with
// cockroachdb/errors so that errors.Is continues to work after wrapping.
type kindMark struct{ k Kind }

func (m kindMark) Error() string { return "kind:" + m.k.String() }

// WithKind wraps err (never nil — callers pass a message or sentinel
// error) so that KindOf(result) == kind and errors.Is(result, kind-mark)
// holds. When kind is one of the Malformed* subkinds, the result also
// satisfies errors.Is(result, MalformedBindle), matching the spec's
// "subkinds of MalformedBindle" rule.
func WithKind(kind Kind, err error) error {
	if err == nil {
		err = errors.Newf("skipledger: %s", kind)
	}
	wrapped := errors.Mark(err, kindMark{kind})
	if isMalformedSubkind(kind) {
		wrapped = errors.Mark(wrapped, kindMark{MalformedBindle})
	}
	return wrapped
}

// Kindf is WithKind with a formatted message, the common case.
func Kindf(kind Kind, format string, args ...interface{}) error {
	return WithKind(kind, errors.Newf(format, args...))
}

// KindOf extracts the Kind attached by WithKind/Kindf, or KindNone if err
// was never tagged.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range allKinds {
		if errors.Is(err, kindMark{k}) {
			return k
		}
	}
	return KindNone
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kindMark{kind})
}

// The Malformed* subkinds precede MalformedBindle, which they also carry,
// so that KindOf reports the most specific kind.
var allKinds = []Kind{
	SerialFormat, HashConflict, MalformedNugget, MalformedReference,
	MalformedNotarizedRow, MalformedBindle, RowNotFound, OutOfBounds,
	Io, IllegalEdit,
}

// Plain structural sentinels, in xerrors style: these never need
// cross-cutting classification beyond SerialFormat and are compared with
// errors.Is directly, or wrapped with WithKind(SerialFormat, ...) at the
// point they escape a decoder.
var (
	ErrWrongHashLen    = xerrors.New("skipledger: value is not exactly 32 bytes")
	ErrTruncated       = xerrors.New("skipledger: not enough bytes to decode")
	ErrNegativeCount   = xerrors.New("skipledger: negative or zero count")
	ErrOutOfOrder      = xerrors.New("skipledger: counts/rows not strictly ascending")
	ErrNotAllConsumed  = xerrors.New("skipledger: not all bytes were consumed")
	ErrUnknownVersion  = xerrors.New("skipledger: unrecognized format version")
	ErrBadMagic        = xerrors.New("skipledger: bad file magic")
)
