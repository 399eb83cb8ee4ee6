package consensus

import "github.com/pkg/errors"

const (
	// OneMegaByte is 1,000,000 bytes.
	OneMegaByte = 1000000

	// MaxTxSize is the maximum allowed size for a transaction, in bytes.
	MaxTxSize = OneMegaByte

	// LegacyMaxBlockSize is the maximum allowed block size before the size
	// limit became configurable.
	LegacyMaxBlockSize = OneMegaByte

	// DefaultMaxBlockSize is the default setting for the maximum allowed
	// block size, in bytes.
	DefaultMaxBlockSize = 32 * OneMegaByte

	// MaxBlockSigopsPerMb is the maximum allowed number of signature check
	// operations per MB in a block (network rule), for blocks above
	// LegacyMaxBlockSize.
	MaxBlockSigopsPerMb = 20000

	// MaxTxSigOpsCount is the maximum allowed number of signature check
	// operations per transaction.
	MaxTxSigOpsCount = 20000

	// CoinbaseMaturity is the number of new blocks a coinbase output must
	// wait for before it can be spent (network rule).
	CoinbaseMaturity = 100
)

const (
	// LocktimeVerifySequence interprets sequence numbers as relative
	// lock-time constraints (BIP68).
	LocktimeVerifySequence = 1 << iota

	// LocktimeMedianTimePast uses GetMedianTimePast() instead of the block
	// time as the sequence-lock end point.
	LocktimeMedianTimePast
)

// GetMaxBlockSigOpsCount computes the maximum number of sigop operations a
// block of blockSize bytes may contain. Blocks at or below the legacy size
// limit use the fixed per-transaction cap instead, which callers should fall
// back to when this returns an error.
func GetMaxBlockSigOpsCount(blockSize uint64) (uint64, error) {
	if blockSize <= LegacyMaxBlockSize {
		return 0, errors.New("block size at or below the legacy limit does not use the scaled sigop cap")
	}
	roundedUp := 1 + ((blockSize - 1) / OneMegaByte)
	return roundedUp * MaxBlockSigopsPerMb, nil
}
