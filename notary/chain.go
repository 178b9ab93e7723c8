// Package notary implements ChainParams, NotarizedRow, and NotaryPack:
// witness proofs tying a ledger row's commitment hash to a timechain
// block's cargo hash.
package notary

// ChainParams fixes how a timechain partitions UTC time into blocks. A
// LedgerId of type TIMECHAIN carries one of these.
type ChainParams struct {
	// InceptionUTC is the UTC (ms epoch) of block 1's window start.
	InceptionUTC int64
	// BlockDurationMillis is the fixed width of each block's UTC window.
	BlockDurationMillis int64
}

// BlockNoForUTC returns the block number whose window contains utc.
func (cp ChainParams) BlockNoForUTC(utc int64) uint64 {
	if utc < cp.InceptionUTC {
		return 0
	}
	return uint64((utc-cp.InceptionUTC)/cp.BlockDurationMillis) + 1
}
