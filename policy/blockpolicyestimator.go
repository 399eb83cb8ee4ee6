package policy

import (
	"io"

	"github.com/btcforge/chaincore/model/mempool"
	"github.com/btcforge/chaincore/util"
)

const (
	// MinFeerate below this feerate, transactions aren't tracked at all.
	MinFeerate = 10
	// MaxFeerate above this feerate, transactions are lumped into one bucket.
	MaxFeerate = 1e7
	// InfFeerate is used as the upper bucket boundary that catches every
	// remaining feerate above MaxFeerate.
	InfFeerate = 1e99
	// FeeSpacing is the multiplicative width of each feerate bucket.
	FeeSpacing = 1.1
	// MaxBlockConfirms is the longest confirmation target tracked.
	MaxBlockConfirms = 25
	// DefaultDecay is the per-block decay applied to the moving averages.
	DefaultDecay = 0.998
	// SufficientFeeTxs is the number of transactions per bucket range
	// required before a feerate estimate is trusted.
	SufficientFeeTxs = 0.1
	// SuccessPct is the confirmation success rate required of an estimate.
	SuccessPct = 0.85
)

// txStatsInfo remembers where in the fee-tracking buckets an in-mempool
// transaction was recorded, so it can be un-recorded on removal.
type txStatsInfo struct {
	blockHeight uint
	bucketIndex uint
}

// BlockPolicyEstimator tracks historical feerate-versus-confirmation-delay
// data so a feerate can be recommended for a target number of confirmations.
type BlockPolicyEstimator struct {
	minTrackedFee  util.FeeRate
	bestSeenHeight uint
	mapMemPoolTxs  map[*mempool.TxEntry]txStatsInfo
	feeStats       *TxConfirmStats
	trackedTxs     uint
	untrackedTxs   uint
}

// NewBlockPolicyEstimator builds an estimator that ignores transactions
// below minTrackedFeeRate.
func NewBlockPolicyEstimator(minTrackedFeeRate util.FeeRate) *BlockPolicyEstimator {
	e := &BlockPolicyEstimator{
		mapMemPoolTxs: make(map[*mempool.TxEntry]txStatsInfo),
	}

	e.minTrackedFee = minTrackedFeeRate
	if e.minTrackedFee.SataoshisPerK < MinFeerate {
		e.minTrackedFee.SataoshisPerK = MinFeerate
	}

	var buckets []float64
	for bound := float64(e.minTrackedFee.GetFeePerK()); bound <= MaxFeerate; bound *= FeeSpacing {
		buckets = append(buckets, bound)
	}
	buckets = append(buckets, InfFeerate)
	e.feeStats = NewTxConfirmStats(buckets, MaxBlockConfirms, DefaultDecay)

	return e
}

// ProcessTransaction registers a transaction that just entered the mempool
// for fee tracking, provided it isn't below the minimum tracked feerate and
// doesn't have unconfirmed parents (which would confound the estimate).
func (e *BlockPolicyEstimator) ProcessTransaction(entry *mempool.TxEntry, height uint, validFeeEstimate bool) {
	if _, ok := e.mapMemPoolTxs[entry]; ok {
		return
	}
	if height < e.bestSeenHeight {
		return
	}
	e.bestSeenHeight = height

	if !validFeeEstimate {
		e.untrackedTxs++
		return
	}
	if len(entry.ParentTx) > 0 {
		// Only track transactions that entered the mempool without
		// unconfirmed parents; ancestor feerates confound the estimate.
		e.untrackedTxs++
		return
	}

	feeRate := entry.GetFeeRate()
	if feeRate.SataoshisPerK < e.minTrackedFee.SataoshisPerK {
		return
	}

	bucket := e.feeStats.NewTx(height, float64(feeRate.SataoshisPerK))
	e.mapMemPoolTxs[entry] = txStatsInfo{blockHeight: height, bucketIndex: bucket}
	e.trackedTxs++
}

// RemoveTx drops a mempool transaction from fee tracking, either because it
// confirmed (already accounted for by ProcessBlockTx) or was evicted.
func (e *BlockPolicyEstimator) RemoveTx(entry *mempool.TxEntry) {
	info, ok := e.mapMemPoolTxs[entry]
	if !ok {
		return
	}
	e.feeStats.RemoveTx(info.blockHeight, e.bestSeenHeight, info.bucketIndex)
	delete(e.mapMemPoolTxs, entry)
}

// ProcessBlockTx records a confirmed transaction's confirmation delay.
// Returns true if the transaction was being tracked.
func (e *BlockPolicyEstimator) ProcessBlockTx(blockHeight uint, entry *mempool.TxEntry) bool {
	info, ok := e.mapMemPoolTxs[entry]
	if !ok {
		return false
	}

	blocksToConfirm := int(blockHeight) - int(info.blockHeight)
	if blocksToConfirm <= 0 {
		delete(e.mapMemPoolTxs, entry)
		return false
	}

	e.feeStats.Record(blocksToConfirm, float64(entry.GetFeeRate().SataoshisPerK))
	delete(e.mapMemPoolTxs, entry)
	return true
}

// ProcessBlock updates fee-tracking moving averages with the transactions
// that just confirmed in a new block.
func (e *BlockPolicyEstimator) ProcessBlock(blockHeight uint, entries []*mempool.TxEntry) {
	if blockHeight <= e.bestSeenHeight {
		return
	}
	e.bestSeenHeight = blockHeight

	for _, entry := range entries {
		e.ProcessBlockTx(blockHeight, entry)
	}

	e.feeStats.UpdateMovingAverages()
}

// EstimateFee estimates the feerate needed for a transaction to confirm
// within confTarget blocks.
func (e *BlockPolicyEstimator) EstimateFee(confTarget int) util.FeeRate {
	if confTarget <= 0 || uint(confTarget) > e.feeStats.GetMaxConfirms() {
		return util.FeeRate{}
	}

	median := e.feeStats.EstimateMedianVal(confTarget, SufficientFeeTxs, SuccessPct, true, e.bestSeenHeight)
	if median < 0 {
		return util.FeeRate{}
	}
	return util.FeeRate{SataoshisPerK: int64(median)}
}

func (e *BlockPolicyEstimator) Serialize(writer io.Writer) error {
	return e.feeStats.Serialize(writer)
}

func (e *BlockPolicyEstimator) Deserialize(reader io.Reader) error {
	return e.feeStats.Deserialize(reader)
}

var feeEstimator *BlockPolicyEstimator

// GetFeeEstimatorInstance returns the process-wide fee estimator,
// initializing it with the configured minimum relay feerate on first use.
func GetFeeEstimatorInstance() *BlockPolicyEstimator {
	if feeEstimator == nil {
		feeEstimator = NewBlockPolicyEstimator(util.FeeRate{SataoshisPerK: int64(DefaultBlockMinTxFee)})
	}
	return feeEstimator
}

func init() {
	mempool.RegisterFeeEstimator(func() mempool.FeeEstimator {
		return GetFeeEstimatorInstance()
	})
}
