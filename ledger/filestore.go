package ledger

import (
	"bytes"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/ristretto"
	hkv "github.com/iotaledger/hive.go/core/kvstore"
	hbadger "github.com/iotaledger/hive.go/core/kvstore/badger"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/rowmath"
)

// cellStoreAdaptor maps a prefixed partition of a hive.go KVStore onto
// sl.KVStore: nil on ErrKeyNotFound, panic (wrapped with skipledger's own
// Io Kind) on any other error.
type cellStoreAdaptor struct {
	kvs    hkv.KVStore
	prefix []byte
}

func newCellStoreAdaptor(kvs hkv.KVStore, prefix []byte) *cellStoreAdaptor {
	return &cellStoreAdaptor{kvs: kvs, prefix: prefix}
}

func (a *cellStoreAdaptor) makeKey(k []byte) []byte {
	if len(a.prefix) == 0 {
		return k
	}
	return sl.Concat(a.prefix, k)
}

func (a *cellStoreAdaptor) Get(key []byte) []byte {
	v, err := a.kvs.Get(a.makeKey(key))
	if err != nil {
		if err == hkv.ErrKeyNotFound {
			return nil
		}
		panic(sl.WithKind(sl.Io, err))
	}
	return v
}

func (a *cellStoreAdaptor) Has(key []byte) bool {
	v, err := a.kvs.Has(a.makeKey(key))
	if err != nil {
		panic(sl.WithKind(sl.Io, err))
	}
	return v
}

func (a *cellStoreAdaptor) Set(key, value []byte) {
	var err error
	if len(value) == 0 {
		err = a.kvs.Delete(a.makeKey(key))
	} else {
		err = a.kvs.Set(a.makeKey(key), value)
	}
	if err != nil {
		panic(sl.WithKind(sl.Io, err))
	}
}

func (a *cellStoreAdaptor) Iterate(fun func(k, v []byte) bool) {
	err := a.kvs.Iterate(a.prefix, func(key hkv.Key, value hkv.Value) bool {
		return fun(key[len(a.prefix):], value)
	})
	if err != nil {
		panic(sl.WithKind(sl.Io, err))
	}
}

var (
	sizeKey = []byte("size")
	cellPfx = byte('c')
	metaPfx = byte('m')
)

// FileStore is a badger-backed SkipLedger. It persists only the input
// hash and the non-redundant level hashes of every row (level 0 is
// always the direct predecessor's hash, recomputed on read rather than
// stored), and fronts reads with a ristretto cache of decoded Rows so
// repeat GetRow calls stay close to O(1) without re-parsing cells.
type FileStore struct {
	mu    sync.Mutex
	raw   *badgerdb.DB
	cells sl.KVStore
	meta  sl.KVStore
	cache *ristretto.Cache
	size  uint64
}

// OpenFileStore opens (creating if necessary) a badger database at dir as
// a SkipLedger backing store.
func OpenFileStore(dir string) (*FileStore, error) {
	db, err := hbadger.CreateDB(dir)
	if err != nil {
		return nil, sl.WithKind(sl.Io, err)
	}
	kvs := hbadger.New(db)
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 26, // 64 MiB of decoded rows
		BufferItems: 64,
	})
	if err != nil {
		return nil, sl.WithKind(sl.Io, err)
	}
	fs := &FileStore{
		raw:   db,
		cells: newCellStoreAdaptor(kvs, []byte{cellPfx}),
		meta:  newCellStoreAdaptor(kvs, []byte{metaPfx}),
		cache: cache,
	}
	if sz := fs.meta.Get(sizeKey); sz != nil {
		n, err := readUint64(sz)
		if err != nil {
			return nil, err
		}
		fs.size = n
	}
	return fs, nil
}

// Close releases the underlying badger handle and the row cache.
func (fs *FileStore) Close() error {
	fs.cache.Close()
	return fs.raw.Close()
}

func (fs *FileStore) Size() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.size
}

// cellKey is the storage key for the dense cell block of row n: the
// input hash cell followed by SkipCount(n)-1 extra level-hash cells
// (level 0 is the direct predecessor and is never duplicated on disk).
func cellKey(n uint64) []byte {
	return uint64Bytes(n)
}

func (fs *FileStore) AppendRows(inputHashes []byte) (uint64, error) {
	if len(inputHashes)%sl.HashSize != 0 {
		return 0, sl.Kindf(sl.SerialFormat, "ledger: input hash buffer length %d is not a multiple of %d", len(inputHashes), sl.HashSize)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	count := len(inputHashes) / sl.HashSize
	startSize := fs.size
	newSize := fs.size
	for i := 0; i < count; i++ {
		var ih sl.Hash
		copy(ih[:], inputHashes[i*sl.HashSize:(i+1)*sl.HashSize])
		n := newSize + 1
		p := rowmath.SkipCount(n)
		levels := make([]sl.Hash, p)
		for k := 0; k < p; k++ {
			off := uint64(1) << uint(k)
			pred := n - off
			if pred == 0 {
				levels[k] = sl.Sentinel
				continue
			}
			h, err := fs.rowHashLocked(pred)
			if err != nil {
				fs.size = startSize
				return 0, err
			}
			levels[k] = h
		}
		row := &Row{RowNo: n, InputHash: ih, Levels: NewFullLevelsPointer(levels)}
		fs.cells.Set(cellKey(n), encodeRowCells(row))
		fs.cache.Set(n, row, int64(sl.HashSize*(1+p)))
		newSize = n
		// Later rows of this call read this one as a predecessor.
		fs.size = newSize
	}
	fs.size = newSize
	fs.meta.Set(sizeKey, uint64Bytes(newSize))
	return newSize, nil
}

func (fs *FileStore) GetRow(n uint64) (*Row, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.getRowLocked(n)
}

func (fs *FileStore) getRowLocked(n uint64) (*Row, error) {
	if n < 1 || n > fs.size {
		return nil, sl.Kindf(sl.RowNotFound, "ledger: row %d out of range [1,%d]", n, fs.size)
	}
	if v, ok := fs.cache.Get(n); ok {
		return v.(*Row), nil
	}
	raw := fs.cells.Get(cellKey(n))
	if raw == nil {
		return nil, sl.Kindf(sl.Io, "ledger: row %d missing from store", n)
	}
	predHash, err := fs.rowHashLocked(n - 1)
	if err != nil {
		return nil, err
	}
	row, err := decodeRowCells(n, raw, predHash)
	if err != nil {
		return nil, err
	}
	fs.cache.Set(n, row, int64(len(raw)))
	return row, nil
}

func (fs *FileStore) RowHash(n uint64) (sl.Hash, error) {
	if n == 0 {
		return sl.Sentinel, nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.rowHashLocked(n)
}

func (fs *FileStore) rowHashLocked(n uint64) (sl.Hash, error) {
	if n == 0 {
		return sl.Sentinel, nil
	}
	row, err := fs.getRowLocked(n)
	if err != nil {
		return sl.Hash{}, err
	}
	return row.Hash(), nil
}

// encodeRowCells / decodeRowCells serialize a row's dense cell block:
// input hash, then the non-redundant level hashes (every level except 0,
// which is always the preceding row's own hash).
func encodeRowCells(r *Row) []byte {
	p := rowmath.SkipCount(r.RowNo)
	buf := make([]byte, 0, sl.HashSize*p)
	buf = append(buf, r.InputHash[:]...)
	for k := 1; k < p; k++ {
		h, _ := r.Levels.LevelHash(k)
		buf = append(buf, h[:]...)
	}
	return buf
}

// decodeRowCells rebuilds a Row from its persisted cell block plus the
// predecessor's hash (level 0 is never stored — see encodeRowCells).
func decodeRowCells(n uint64, raw []byte, predHash sl.Hash) (*Row, error) {
	p := rowmath.SkipCount(n)
	want := sl.HashSize * p
	if len(raw) != want {
		return nil, sl.Kindf(sl.SerialFormat, "ledger: row %d cell block has %d bytes, want %d", n, len(raw), want)
	}
	var ih sl.Hash
	copy(ih[:], raw[:sl.HashSize])
	levels := make([]sl.Hash, p)
	levels[0] = predHash
	for k := 1; k < p; k++ {
		copy(levels[k][:], raw[sl.HashSize*k:sl.HashSize*(k+1)])
	}
	row := &Row{RowNo: n, InputHash: ih, Levels: NewFullLevelsPointer(levels)}
	return row, nil
}

func uint64Bytes(n uint64) []byte {
	var b bytes.Buffer
	_ = sl.WriteUint64(&b, n)
	return b.Bytes()
}

func readUint64(b []byte) (uint64, error) {
	return sl.ReadUint64(bytes.NewReader(b))
}
