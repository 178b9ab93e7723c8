package ledger

import (
	"sync"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/rowmath"
)

// SkipLedger is the storage contract every backend (in-memory, file-
// backed) must satisfy: append-only growth, O(1) row lookup, and
// deterministic row hashing. path.Get/path.Skip/path.State are built on
// top of this interface rather than being methods on it, so the ledger
// package itself never needs to import the path package.
type SkipLedger interface {
	// Size returns the current row count.
	Size() uint64
	// AppendRows appends each 32-byte input hash in the concatenation
	// inputHashes, computing and persisting each new row's level hashes.
	// Fails with SerialFormat if len(inputHashes) is not a multiple of 32.
	AppendRows(inputHashes []byte) (uint64, error)
	// GetRow returns the row at n. Fails with RowNotFound if n is outside
	// [1, Size()].
	GetRow(n uint64) (*Row, error)
	// RowHash returns sl.Sentinel for n == 0, else the hash of row n.
	RowHash(n uint64) (sl.Hash, error)
}

// MemStore is a simple in-memory SkipLedger, storing every row in full
// (uncondensed) form: a trivial backing slice, with the ledger's
// append/read contract layered on top.
type MemStore struct {
	mu   sync.Mutex
	rows []*Row // 1-indexed: rows[0] is row 1
}

// NewMemStore returns an empty in-memory ledger.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.rows))
}

func (m *MemStore) AppendRows(inputHashes []byte) (uint64, error) {
	if len(inputHashes)%sl.HashSize != 0 {
		return 0, sl.Kindf(sl.SerialFormat, "ledger: input hash buffer length %d is not a multiple of %d", len(inputHashes), sl.HashSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	count := len(inputHashes) / sl.HashSize
	for i := 0; i < count; i++ {
		var ih sl.Hash
		copy(ih[:], inputHashes[i*sl.HashSize:(i+1)*sl.HashSize])
		n := uint64(len(m.rows) + 1)
		p := rowmath.SkipCount(n)
		levels := make([]sl.Hash, p)
		for k := 0; k < p; k++ {
			off := uint64(1) << uint(k)
			pred := n - off
			if pred == 0 {
				levels[k] = sl.Sentinel
			} else {
				levels[k] = m.rows[pred-1].Hash()
			}
		}
		row := &Row{
			RowNo:     n,
			InputHash: ih,
			Levels:    NewFullLevelsPointer(levels),
		}
		m.rows = append(m.rows, row)
	}
	return uint64(len(m.rows)), nil
}

func (m *MemStore) GetRow(n uint64) (*Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 || n > uint64(len(m.rows)) {
		return nil, sl.Kindf(sl.RowNotFound, "ledger: row %d out of range [1,%d]", n, len(m.rows))
	}
	return m.rows[n-1], nil
}

func (m *MemStore) RowHash(n uint64) (sl.Hash, error) {
	if n == 0 {
		return sl.Sentinel, nil
	}
	row, err := m.GetRow(n)
	if err != nil {
		return sl.Hash{}, err
	}
	return row.Hash(), nil
}
