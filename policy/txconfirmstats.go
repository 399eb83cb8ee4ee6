package policy

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/btcforge/chaincore/util"
	"github.com/pkg/errors"
)

// TxConfirmStats tracks how many blocks it takes transactions at a given
// feerate to confirm, so a feerate can be estimated for a target
// confirmation count. Transactions are grouped into feerate buckets; each
// bucket keeps a decayed moving average of confirmation counts per target
// and of transactions still sitting unconfirmed in the mempool.
//
// The tracking of unconfirmed (mempool) transactions is independent of the
// historical tracking of transactions that have already confirmed.
type TxConfirmStats struct {
	// buckets holds the upper bound feerate for each bucket, ascending.
	buckets []float64

	// txCtAvg[bucket] is the decayed moving average transaction count.
	txCtAvg []float64
	// curBlockTxCt[bucket] accumulates the current block's transaction count.
	curBlockTxCt []int

	// confAvg[confirms-1][bucket] is the decayed moving average of
	// transactions confirmed within confirms blocks.
	confAvg [][]float64
	// curBlockConf[confirms-1][bucket] accumulates the current block's count.
	curBlockConf [][]int

	// avg[bucket] is the decayed moving average feerate sum.
	avg []float64
	// curBlockVal[bucket] accumulates the current block's feerate sum.
	curBlockVal []float64

	// decay is the per-block decay factor applied to the moving averages.
	decay float64

	// unconfTxs[blockHeight%len][bucket] counts mempool transactions that
	// entered at that block height and are still unconfirmed.
	unconfTxs [][]int
	// oldUnconfTxs[bucket] counts transactions unconfirmed for longer than
	// the tracked window.
	oldUnconfTxs []int
}

// NewTxConfirmStats initializes the data structures. Called by the fee
// estimator's constructor with default values.
//   - defaultBuckets: ascending upper limits for the feerate bucket boundaries
//   - maxConfirms: max number of confirmation targets to track
//   - decay: how much to decay the historical moving average per block
func NewTxConfirmStats(defaultBuckets []float64, maxConfirms uint, decay float64) *TxConfirmStats {
	t := &TxConfirmStats{decay: decay}
	t.buckets = append([]float64(nil), defaultBuckets...)
	numBuckets := len(t.buckets)

	t.confAvg = make([][]float64, maxConfirms)
	t.curBlockConf = make([][]int, maxConfirms)
	t.unconfTxs = make([][]int, maxConfirms)
	for j := uint(0); j < maxConfirms; j++ {
		t.confAvg[j] = make([]float64, numBuckets)
		t.curBlockConf[j] = make([]int, numBuckets)
		t.unconfTxs[j] = make([]int, numBuckets)
	}

	t.oldUnconfTxs = make([]int, numBuckets)
	t.curBlockTxCt = make([]int, numBuckets)
	t.txCtAvg = make([]float64, numBuckets)
	t.curBlockVal = make([]float64, numBuckets)
	t.avg = make([]float64, numBuckets)

	return t
}

// bucketIndex returns the index of the lowest bucket whose upper bound is
// >= val.
func (t *TxConfirmStats) bucketIndex(val float64) int {
	idx := sort.SearchFloat64s(t.buckets, val)
	if idx >= len(t.buckets) {
		idx = len(t.buckets) - 1
	}
	return idx
}

// ClearCurrent resets the curBlock counters to start tallying a new block.
func (t *TxConfirmStats) ClearCurrent(blockHeight uint) {
	for j := range t.buckets {
		unconfVec := t.unconfTxs[int(blockHeight)%len(t.unconfTxs)]
		t.oldUnconfTxs[j] += unconfVec[j]
		unconfVec[j] = 0

		for i := range t.curBlockConf {
			t.curBlockConf[i][j] = 0
		}

		t.curBlockVal[j] = 0
		t.curBlockTxCt[j] = 0
	}
}

// Record records a new transaction data point in the current block's stats.
// blocksToConfirm is 1-based and must be >= 1. val is the transaction's
// feerate.
func (t *TxConfirmStats) Record(blocksToConfirm int, val float64) {
	if blocksToConfirm < 1 {
		return
	}

	bucket := t.bucketIndex(val)
	for i := blocksToConfirm; i <= len(t.curBlockConf); i++ {
		t.curBlockConf[i-1][bucket]++
	}

	t.curBlockTxCt[bucket]++
	t.curBlockVal[bucket] += val
}

// UpdateMovingAverages decays the historical moving averages and folds in
// the data gathered from the current block.
func (t *TxConfirmStats) UpdateMovingAverages() {
	for j := range t.buckets {
		for i := range t.confAvg {
			t.confAvg[i][j] = t.confAvg[i][j]*t.decay + float64(t.curBlockConf[i][j])
		}
		t.avg[j] = t.avg[j]*t.decay + t.curBlockVal[j]
		t.txCtAvg[j] = t.txCtAvg[j]*t.decay + float64(t.curBlockTxCt[j])
	}
}

func (t *TxConfirmStats) GetMaxConfirms() uint {
	return uint(len(t.confAvg))
}

// EstimateMedianVal calculates a feerate estimate. It finds the lowest
// value bucket (or range of buckets, combined to gather enough data points)
// whose transactions still have sufficient likelihood of confirming within
// confTarget confirmations.
//   - sufficientTxVal: required average number of transactions per block in
//     a bucket range
//   - successBreakPoint: the success probability required
//   - requireGreater: true to return the lowest feerate such that all higher
//     values pass successBreakPoint; false to return the highest feerate
//     such that all lower values fail it
//
// Returns -1 on error conditions.
func (t *TxConfirmStats) EstimateMedianVal(confTarget int, sufficientTxVal,
	successBreakPoint float64, requireGreater bool, nBlockHeight uint) float64 {

	nConf := 0.0
	totalNum := 0.0
	extraNum := 0
	maxBucketIndex := len(t.buckets) - 1

	startBucket := 0
	step := 1
	if requireGreater {
		startBucket = maxBucketIndex
		step = -1
	}

	curNearBucket := startBucket
	bestNearBucket := startBucket
	curFarBucket := startBucket
	bestFarBucket := startBucket
	foundAnswer := false
	bins := len(t.unconfTxs)

	for bucket := startBucket; bucket >= 0 && bucket <= maxBucketIndex; bucket += step {
		curFarBucket = bucket
		nConf += t.confAvg[confTarget-1][bucket]
		totalNum += t.txCtAvg[bucket]

		for confct := confTarget; confct < int(t.GetMaxConfirms()); confct++ {
			row := (int(nBlockHeight) - confct) % bins
			if row < 0 {
				row += bins
			}
			extraNum += t.unconfTxs[row][bucket]
		}
		extraNum += t.oldUnconfTxs[bucket]

		if totalNum >= sufficientTxVal/(1-t.decay) {
			curPct := nConf / (totalNum + float64(extraNum))

			if requireGreater && curPct < successBreakPoint {
				break
			}
			if !requireGreater && curPct > successBreakPoint {
				break
			}

			foundAnswer = true
			nConf = 0
			totalNum = 0
			extraNum = 0
			bestFarBucket = curFarBucket
			bestNearBucket = curNearBucket
			curNearBucket = bucket + step
		}
	}

	median := -1.0
	txSum := 0.0

	minBucket := bestFarBucket
	maxBucket := bestFarBucket
	if bestNearBucket < bestFarBucket {
		minBucket = bestNearBucket
	}
	if bestNearBucket > bestFarBucket {
		maxBucket = bestNearBucket
	}

	for i := minBucket; i <= maxBucket; i++ {
		txSum += t.txCtAvg[i]
	}

	if foundAnswer && txSum != 0 {
		txSum /= 2
		for j := minBucket; j <= maxBucket; j++ {
			if t.txCtAvg[j] < txSum {
				txSum -= t.txCtAvg[j]
			} else {
				median = t.avg[j] / t.txCtAvg[j]
				break
			}
		}
	}

	return median
}

// NewTx records a new transaction entering the mempool and returns the
// bucket it was placed in, so RemoveTx can later undo the bookkeeping.
func (t *TxConfirmStats) NewTx(nBlockHeight uint, val float64) uint {
	bucket := t.bucketIndex(val)
	blockIndex := int(nBlockHeight) % len(t.unconfTxs)
	t.unconfTxs[blockIndex][bucket]++
	return uint(bucket)
}

// RemoveTx removes a transaction from mempool tracking stats.
func (t *TxConfirmStats) RemoveTx(entryHeight, nBestSeenHeight, bucketIndex uint) {
	blocksAgo := int(nBestSeenHeight) - int(entryHeight)
	if nBestSeenHeight == 0 {
		blocksAgo = 0
	}
	if blocksAgo < 0 {
		return
	}

	if blocksAgo >= len(t.unconfTxs) {
		if t.oldUnconfTxs[bucketIndex] > 0 {
			t.oldUnconfTxs[bucketIndex]--
		}
	} else {
		blockIndex := int(entryHeight) % len(t.unconfTxs)
		if t.unconfTxs[blockIndex][bucketIndex] > 0 {
			t.unconfTxs[blockIndex][bucketIndex]--
		}
	}
}

func writeFloatSlice(writer io.Writer, v []float64) error {
	if err := util.WriteVarLenInt(writer, uint64(len(v))); err != nil {
		return err
	}
	for _, e := range v {
		if err := binary.Write(writer, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}

func readFloatSlice(reader io.Reader) ([]float64, error) {
	size, err := util.ReadVarLenInt(reader)
	if err != nil {
		return nil, err
	}
	v := make([]float64, 0, size)
	for i := uint64(0); i < size; i++ {
		var e float64
		if err := binary.Read(reader, binary.LittleEndian, &e); err != nil {
			return nil, err
		}
		v = append(v, e)
	}
	return v, nil
}

func (t *TxConfirmStats) Serialize(writer io.Writer) error {
	if err := binary.Write(writer, binary.LittleEndian, t.decay); err != nil {
		return err
	}
	if err := writeFloatSlice(writer, t.buckets); err != nil {
		return err
	}
	if err := writeFloatSlice(writer, t.avg); err != nil {
		return err
	}
	if err := writeFloatSlice(writer, t.txCtAvg); err != nil {
		return err
	}

	if err := util.WriteVarLenInt(writer, uint64(len(t.confAvg))); err != nil {
		return err
	}
	for _, row := range t.confAvg {
		if err := writeFloatSlice(writer, row); err != nil {
			return err
		}
	}
	return nil
}

func (t *TxConfirmStats) Deserialize(reader io.Reader) error {
	var fileDecay float64
	if err := binary.Read(reader, binary.LittleEndian, &fileDecay); err != nil {
		return err
	}
	if fileDecay <= 0 || fileDecay >= 1 {
		return errors.New("corrupt estimates file: decay must be between 0 and 1 (non-inclusive)")
	}

	fileBuckets, err := readFloatSlice(reader)
	if err != nil {
		return err
	}
	numBuckets := len(fileBuckets)
	if numBuckets <= 1 || numBuckets > 1000 {
		return errors.New("corrupt estimates file: must have between 2 and 1000 feerate buckets")
	}

	fileAvg, err := readFloatSlice(reader)
	if err != nil {
		return err
	}
	if len(fileAvg) != numBuckets {
		return errors.New("corrupt estimates file: mismatch in feerate average bucket count")
	}

	fileTxCtAvg, err := readFloatSlice(reader)
	if err != nil {
		return err
	}
	if len(fileTxCtAvg) != numBuckets {
		return errors.New("corrupt estimates file: mismatch in tx count bucket count")
	}

	size, err := util.ReadVarLenInt(reader)
	if err != nil {
		return err
	}
	fileConfAvg := make([][]float64, 0, size)
	for i := uint64(0); i < size; i++ {
		row, err := readFloatSlice(reader)
		if err != nil {
			return err
		}
		fileConfAvg = append(fileConfAvg, row)
	}
	maxConfirms := len(fileConfAvg)
	if maxConfirms <= 0 || maxConfirms > 6*24*7 {
		return errors.New("corrupt estimates file: must maintain estimates for between 1 and 1008 (one week) confirms")
	}
	for i := 0; i < maxConfirms; i++ {
		if len(fileConfAvg[i]) != numBuckets {
			return errors.New("corrupt estimates file: mismatch in feerate conf average bucket count")
		}
	}

	t.decay = fileDecay
	t.buckets = fileBuckets
	t.avg = fileAvg
	t.confAvg = fileConfAvg
	t.txCtAvg = fileTxCtAvg

	t.curBlockConf = make([][]int, maxConfirms)
	t.unconfTxs = make([][]int, maxConfirms)
	for i := 0; i < maxConfirms; i++ {
		t.curBlockConf[i] = make([]int, numBuckets)
		t.unconfTxs[i] = make([]int, numBuckets)
	}
	t.curBlockTxCt = make([]int, numBuckets)
	t.curBlockVal = make([]float64, numBuckets)
	t.oldUnconfTxs = make([]int, numBuckets)

	return nil
}
