package source

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	sl "github.com/crums-io/skipledger-go"
)

// SaltSeed is the 32-byte secret seed per-cell salts are derived from.
// It is assumed to be supplied externally; this package never persists
// or logs it.
type SaltSeed [32]byte

// CellSalt derives the 32-byte salt for (rowNo, col) as a keyed hash of
// row_no || col_no under seed, using blake2b-256 as a MAC rather than a
// keyless content hash, since a salt must be unforgeable without the
// seed.
func (seed SaltSeed) CellSalt(rowNo uint64, col int) sl.Hash {
	mac, err := blake2b.New256(seed[:])
	if err != nil {
		// blake2b.New256 only errors on an over-long key; our key is
		// always exactly 32 bytes.
		panic(err)
	}
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], rowNo)
	binary.BigEndian.PutUint32(buf[8:], uint32(col))
	mac.Write(buf[:])
	var out sl.Hash
	copy(out[:], mac.Sum(nil))
	return out
}
