package mempool

import (
	"sync"

	"github.com/btcforge/chaincore/model/outpoint"
	"github.com/btcforge/chaincore/model/tx"
	"github.com/btcforge/chaincore/util"
	"github.com/google/btree"
)

var Gpool *TxMempool

// OrphanTx is a transaction that referenced an input not yet known to the
// mempool or UTXO set, kept around until its missing parent arrives.
type OrphanTx struct {
	Tx     *tx.Tx
	NodeID int64
	Time   int64
}

// TxMempool is safe for concurrent write And read access.
type TxMempool struct {
	sync.RWMutex
	// current mempool best feerate for one transaction.
	fee util.FeeRate
	// poolData store the tx in the mempool
	poolData map[util.Hash]*TxEntry
	//NextTx key is txPrevout, value is tx.
	nextTx map[outpoint.OutPoint]*TxEntry
	//RootTx contain all root transaction in mempool.
	rootTx                  map[util.Hash]*TxEntry
	txByAncestorFeeRateSort btree.BTree
	timeSortData            btree.BTree
	usageSize               int64
	checkFrequency          float64
	// sum of all mempool tx's size.
	totalTxSize uint64
	//transactionsUpdated mempool update transaction total number when create mempool late.
	transactionsUpdated uint64

	// RejectedTxs remembers txids rejected during this session so they are
	// not repeatedly reprocessed as they arrive from peers.
	RejectedTxs map[util.Hash]struct{}
	// OrphanTransactions holds transactions whose inputs were not found,
	// keyed by their own hash.
	OrphanTransactions map[util.Hash]*OrphanTx
	// OrphanTransactionsByPrev indexes OrphanTransactions by the outpoints
	// they are waiting on.
	OrphanTransactionsByPrev map[outpoint.OutPoint][]*OrphanTx

	feeEstimator FeeEstimator
}

// FeeEstimator receives notice when a tracked transaction leaves the pool for
// any reason, so its fee-versus-confirmation-delay history stays accurate.
// Satisfied by policy.BlockPolicyEstimator; kept as an interface here so this
// package never has to import policy.
type FeeEstimator interface {
	RemoveTx(entry *TxEntry)
}

// SetFeeEstimator wires a fee estimator into the pool's removal path.
func (t *TxMempool) SetFeeEstimator(fe FeeEstimator) {
	t.feeEstimator = fe
}

// Mempool removal reasons, mirroring MemPoolRemovalReason.
const (
	UNKNOWN = iota
	EXPIRY
	SIZELIMIT
	REORG
	BLOCK
	CONFLICT
	REPLACED
)

func NewTxMempool() *TxMempool {
	t := &TxMempool{}
	t.fee = util.FeeRate{SataoshisPerK: 1}
	t.nextTx = make(map[outpoint.OutPoint]*TxEntry)
	t.poolData = make(map[util.Hash]*TxEntry)
	t.timeSortData = *btree.New(32)
	t.rootTx = make(map[util.Hash]*TxEntry)
	t.txByAncestorFeeRateSort = *btree.New(32)
	t.RejectedTxs = make(map[util.Hash]struct{})
	t.OrphanTransactions = make(map[util.Hash]*OrphanTx)
	t.OrphanTransactionsByPrev = make(map[outpoint.OutPoint][]*OrphanTx)
	return t
}

func InitMempool() {
	Gpool = NewTxMempool()
	if defaultFeeEstimator != nil {
		Gpool.SetFeeEstimator(defaultFeeEstimator())
	}
}

// defaultFeeEstimator, when set, supplies the fee estimator wired into every
// mempool InitMempool creates. Set once from process init to avoid this
// package importing policy directly.
var defaultFeeEstimator func() FeeEstimator

// RegisterFeeEstimator lets the policy package register itself as the
// mempool's default fee estimator without introducing an import cycle.
func RegisterFeeEstimator(f func() FeeEstimator) {
	defaultFeeEstimator = f
}

// GetInstance returns the process-wide mempool, initializing it on first use.
func GetInstance() *TxMempool {
	if Gpool == nil {
		InitMempool()
	}
	return Gpool
}

// SetInstance replaces the process-wide mempool, used when swapping in a
// freshly rebuilt pool after a reorg.
func SetInstance(pool *TxMempool) {
	Gpool = pool
}

// GetCheckFrequency returns how often (0..1) the mempool runs its full
// internal consistency check.
func (t *TxMempool) GetCheckFrequency() float64 {
	return t.checkFrequency
}

// GetMinFee returns the minimum feerate an incoming transaction must meet
// once the mempool has grown past sizeLimit bytes.
func (t *TxMempool) GetMinFee(sizeLimit uint64) *util.FeeRate {
	t.RLock()
	defer t.RUnlock()
	if uint64(t.usageSize) < sizeLimit {
		return util.NewFeeRate(0)
	}
	return util.NewFeeRate(t.fee.SataoshisPerK)
}

// Size returns the number of transactions currently held.
func (t *TxMempool) Size() int {
	return len(t.poolData)
}

// AllowFreeThreshold is the priority a transaction needs in order to be
// relayed/mined for free: one coin aged 144 blocks (about one day) in a
// 250-byte transaction.
func AllowFreeThreshold() float64 {
	return (float64(util.COIN) * 144) / 250
}

// AllowFree reports whether priority is high enough for a free (very
// low-fee) transaction to bypass the relay-priority gate.
func AllowFree(priority float64) bool {
	return priority > AllowFreeThreshold()
}

// DynamicMemoryUsage returns the pool's tracked memory footprint, used by
// the flush controller to size the coins cache against the mempool budget.
func (t *TxMempool) DynamicMemoryUsage() int64 {
	t.RLock()
	defer t.RUnlock()
	return t.usageSize
}
