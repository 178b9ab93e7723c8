// Package skipledger contains the primitives shared by every component of
// the skip-ledger and bindle packaging system: the fixed-size Hash type,
// canonical big-endian byte encoding helpers, the key/value storage
// abstraction used by ledger backends, and the closed set of error Kinds
// raised across the module.
package skipledger

import "crypto/sha256"

// HashSize is the fixed width of every hash value in the system.
const HashSize = sha256.Size

// Hash is an opaque 32-byte SHA-256 digest.
type Hash [HashSize]byte

// Sentinel is the all-zero hash standing in for row 0, which is never
// materialized as an actual Row.
var Sentinel Hash

// IsSentinel reports whether h is the all-zero sentinel hash.
func (h Hash) IsSentinel() bool {
	return h == Sentinel
}

// Bytes returns a fresh copy of the hash bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// Sum computes the SHA-256 digest of the concatenation of the given byte
// slices, without allocating an intermediate concatenated buffer.
func Sum(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash.Hash.Write never errors
	}
	var ret Hash
	copy(ret[:], h.Sum(nil))
	return ret
}

// HashFromBytes copies b (which must be exactly HashSize long) into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, WithKind(SerialFormat, ErrWrongHashLen)
	}
	copy(h[:], b)
	return h, nil
}
