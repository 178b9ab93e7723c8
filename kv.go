package skipledger

// KVReader is a key/value reader, the storage-side contract SkipLedger
// file backends are built against.
type KVReader interface {
	// Get retrieves the value for key, or nil if absent.
	Get(key []byte) []byte
	// Has reports presence without paying for the value (some backends
	// can answer this cheaper than a full Get).
	Has(key []byte) bool
}

// KVWriter is a key/value writer. Set with a nil value deletes the key.
type KVWriter interface {
	Set(key, value []byte)
}

// KVIterator iterates a set of key/value pairs in unspecified order.
type KVIterator interface {
	Iterate(func(k, v []byte) bool)
}

// KVStore composes the three above, the minimum a ledger storage backend
// must provide.
type KVStore interface {
	KVReader
	KVWriter
	KVIterator
}

// MemKVStore is a trivial in-memory KVStore backed by a Go map.
type MemKVStore map[string][]byte

func NewMemKVStore() MemKVStore { return make(MemKVStore) }

func (m MemKVStore) Get(k []byte) []byte { return m[string(k)] }

func (m MemKVStore) Has(k []byte) bool {
	_, ok := m[string(k)]
	return ok
}

func (m MemKVStore) Set(k, v []byte) {
	if len(v) == 0 {
		delete(m, string(k))
		return
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	m[string(k)] = cp
}

func (m MemKVStore) Iterate(f func(k, v []byte) bool) {
	for k, v := range m {
		if !f([]byte(k), v) {
			return
		}
	}
}

// Concat concatenates the bytes of a mixed list of byte-able parts.
func Concat(parts ...interface{}) []byte {
	items := make([][]byte, len(parts))
	total := 0
	for i, p := range parts {
		var b []byte
		switch v := p.(type) {
		case []byte:
			b = v
		case byte:
			b = []byte{v}
		case string:
			b = []byte(v)
		case Hash:
			b = v[:]
		case interface{ Bytes() []byte }:
			b = v.Bytes()
		default:
			panic("skipledger.Concat: unsupported type")
		}
		items[i] = b
		total += len(b)
	}
	out := make([]byte, 0, total)
	for _, b := range items {
		out = append(out, b...)
	}
	return out
}
