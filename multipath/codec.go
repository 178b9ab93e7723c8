package multipath

import (
	"io"

	sl "github.com/crums-io/skipledger-go"
	"github.com/crums-io/skipledger-go/path"
)

// Write encodes mp as MULTI_PATH: u32 BE path count, then each member
// path's self-delimiting PathPack encoding in order.
func (mp *MultiPath) Write(w io.Writer) error {
	if err := sl.WriteUint32(w, uint32(len(mp.paths))); err != nil {
		return err
	}
	for _, p := range mp.paths {
		if err := path.Pack(p, w); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a MultiPath framed by Write, re-running New's full
// construction validation on the recovered paths.
func Read(r io.Reader) (*MultiPath, error) {
	count, err := sl.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, sl.Kindf(sl.SerialFormat, "multipath: path count must be positive")
	}
	paths := make([]*path.Path, count)
	for i := range paths {
		p, err := path.Unpack(r)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return New(paths)
}
