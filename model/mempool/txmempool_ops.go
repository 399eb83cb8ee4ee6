package mempool

import (
	"errors"

	"github.com/btcforge/chaincore/model/outpoint"
	"github.com/btcforge/chaincore/model/tx"
	"github.com/btcforge/chaincore/model/utxo"
	"github.com/btcforge/chaincore/util"
	"github.com/google/btree"
)

// FindTx looks up a transaction entry by hash, without locking.
func (t *TxMempool) FindTx(hash util.Hash) *TxEntry {
	return t.poolData[hash]
}

// HaveTransaction reports whether txn is already tracked.
func (t *TxMempool) HaveTransaction(txn *tx.Tx) bool {
	_, ok := t.poolData[txn.GetHash()]
	return ok
}

// GetAllTxEntryWithoutLock returns the pool's backing map directly.
func (t *TxMempool) GetAllTxEntryWithoutLock() map[util.Hash]*TxEntry {
	return t.poolData
}

// GetAllTxEntry is the locked form of GetAllTxEntryWithoutLock.
func (t *TxMempool) GetAllTxEntry() map[util.Hash]*TxEntry {
	t.RLock()
	defer t.RUnlock()
	return t.poolData
}

// GetRootTx returns a snapshot of the pool's parentless entries.
func (t *TxMempool) GetRootTx() map[util.Hash]TxEntry {
	root := make(map[util.Hash]TxEntry, len(t.rootTx))
	for hash, entry := range t.rootTx {
		root[hash] = *entry
	}
	return root
}

// GetAllSpentOutWithoutLock returns the pool's outpoint-to-spender map directly.
func (t *TxMempool) GetAllSpentOutWithoutLock() map[outpoint.OutPoint]*TxEntry {
	return t.nextTx
}

// HasSpentOut reports whether o is already spent by a pooled transaction.
// Callers that don't already hold the pool's lock should take an RLock first.
func (t *TxMempool) HasSpentOut(o *outpoint.OutPoint) bool {
	_, ok := t.nextTx[*o]
	return ok
}

// HasSPentOutWithoutLock returns the entry spending o, or nil.
func (t *TxMempool) HasSPentOutWithoutLock(o *outpoint.OutPoint) *TxEntry {
	return t.nextTx[*o]
}

// GetCoin returns the pooled, unconfirmed output referenced by point, or nil
// if it isn't produced by any transaction currently in the pool.
func (t *TxMempool) GetCoin(point *outpoint.OutPoint) *utxo.Coin {
	entry, ok := t.poolData[point.Hash]
	if !ok {
		return nil
	}
	if int(point.Index) >= entry.Tx.GetOutsCount() {
		return nil
	}
	return utxo.NewMempoolCoin(entry.Tx.GetTxOut(int(point.Index)))
}

// GetPoolAllTxSize reports the summed size of every pooled transaction.
func (t *TxMempool) GetPoolAllTxSize(withLock bool) uint64 {
	if withLock {
		t.RLock()
		defer t.RUnlock()
	}
	return t.totalTxSize
}

// StatisticIncrease adds entry to the descendant totals of each given
// ancestor and adds each given descendant to entry's own descendant totals,
// used when re-inserting a transaction whose relationships were restored
// rather than recomputed.
func (t *TxMempool) StatisticIncrease(entry *TxEntry, ancestors, descendants map[*TxEntry]struct{}) {
	for a := range ancestors {
		a.UpdateDescendantState(1, entry.TxSize, entry.TxFee)
	}
	for d := range descendants {
		entry.UpdateDescendantState(1, d.TxSize, d.TxFee)
	}
}

// CalculateMemPoolAncestors walks backwards from originTx's inputs (or, if
// fSearchForParents is false, from the pool's already-recorded parents of an
// entry matching originTx) collecting every unconfirmed ancestor, enforcing
// the given package limits along the way.
func (t *TxMempool) CalculateMemPoolAncestors(originTx *tx.Tx, limitAncestorCount, limitAncestorSize,
	limitDescendantCount, limitDescendantSize uint64, fSearchForParents bool) (map[*TxEntry]struct{}, error) {

	setAncestors := make(map[*TxEntry]struct{})
	parents := make(map[*TxEntry]struct{})

	if fSearchForParents {
		for _, in := range originTx.GetIns() {
			if p, ok := t.poolData[in.PreviousOutPoint.Hash]; ok {
				parents[p] = struct{}{}
				if uint64(len(parents)+1) > limitAncestorCount {
					return nil, errors.New("too many unconfirmed parents")
				}
			}
		}
	} else if entry, ok := t.poolData[originTx.GetHash()]; ok {
		for p := range entry.ParentTx {
			parents[p] = struct{}{}
		}
	}

	totalSizeWithAncestors := int64(0)
	if entry, ok := t.poolData[originTx.GetHash()]; ok {
		totalSizeWithAncestors = int64(entry.TxSize)
	} else {
		totalSizeWithAncestors = int64(originTx.SerializeSize())
	}

	for len(parents) > 0 {
		var stageEntry *TxEntry
		for p := range parents {
			stageEntry = p
			break
		}
		delete(parents, stageEntry)
		setAncestors[stageEntry] = struct{}{}
		totalSizeWithAncestors += int64(stageEntry.TxSize)

		if uint64(stageEntry.SumTxSizeWithDescendants+int64(originTx.SerializeSize())) > limitDescendantSize {
			return nil, errors.New("exceeds descendant size limit for an ancestor")
		}
		if uint64(stageEntry.SumTxCountWithDescendants+1) > limitDescendantCount {
			return nil, errors.New("too many descendants for an ancestor")
		}
		if uint64(totalSizeWithAncestors) > limitAncestorSize {
			return nil, errors.New("exceeds ancestor size limit")
		}

		for grandParent := range stageEntry.ParentTx {
			if _, ok := setAncestors[grandParent]; !ok {
				parents[grandParent] = struct{}{}
			}
			if uint64(len(parents)+len(setAncestors)+1) > limitAncestorCount {
				return nil, errors.New("too many unconfirmed ancestors")
			}
		}
	}

	return setAncestors, nil
}

// CalculateMemPoolAncestorsWithLock is the locked, hash-addressed form of
// CalculateMemPoolAncestors used by callers that only have a txid on hand.
func (t *TxMempool) CalculateMemPoolAncestorsWithLock(hash *util.Hash) map[*TxEntry]struct{} {
	t.RLock()
	defer t.RUnlock()
	entry, ok := t.poolData[*hash]
	if !ok {
		return make(map[*TxEntry]struct{})
	}
	noLimit := ^uint64(0)
	ancestors, _ := t.CalculateMemPoolAncestors(entry.Tx, noLimit, noLimit, noLimit, noLimit, true)
	return ancestors
}

// CalculateDescendants walks forward through entry's children, returning
// entry together with every transaction that (transitively) spends one of
// its outputs.
func (t *TxMempool) CalculateDescendants(entry *TxEntry) map[*TxEntry]struct{} {
	descendants := make(map[*TxEntry]struct{})
	stage := map[*TxEntry]struct{}{entry: {}}

	for len(stage) > 0 {
		var it *TxEntry
		for e := range stage {
			it = e
			break
		}
		delete(stage, it)
		descendants[it] = struct{}{}

		for child := range it.ChildTx {
			if _, ok := descendants[child]; !ok {
				stage[child] = struct{}{}
			}
		}
	}
	return descendants
}

// CalculateDescendantsWithLock is the locked, hash-addressed form of
// CalculateDescendants.
func (t *TxMempool) CalculateDescendantsWithLock(hash *util.Hash) map[*TxEntry]struct{} {
	t.RLock()
	defer t.RUnlock()
	entry, ok := t.poolData[*hash]
	if !ok {
		return make(map[*TxEntry]struct{})
	}
	return t.CalculateDescendants(entry)
}

// AddTx inserts entry into every index the pool keeps, wiring its direct
// parent/child edges and folding its size/fee into the running ancestor set.
func (t *TxMempool) AddTx(entry *TxEntry, ancestors map[*TxEntry]struct{}) error {
	hash := entry.Tx.GetHash()
	t.poolData[hash] = entry

	for _, in := range entry.Tx.GetIns() {
		t.nextTx[*in.PreviousOutPoint] = entry
		if parent, ok := t.poolData[in.PreviousOutPoint.Hash]; ok {
			entry.UpdateParent(parent, true)
			parent.UpdateChild(entry, true)
		}
	}

	if len(entry.ParentTx) == 0 {
		t.rootTx[hash] = entry
	}

	var sumSize, sumSigOps int64
	var sumFee int64
	for ancestor := range ancestors {
		sumSize += int64(ancestor.TxSize)
		sumSigOps += int64(ancestor.SigOpCount)
		sumFee += ancestor.TxFee
		ancestor.UpdateDescendantState(1, entry.TxSize, entry.TxFee)
	}
	entry.UpdateAncestorState(len(ancestors), int(sumSize), int(sumSigOps), sumFee)

	t.timeSortData.ReplaceOrInsert(entry)
	t.txByAncestorFeeRateSort.ReplaceOrInsert((*EntryAncestorFeeRateSort)(entry))

	t.usageSize += entry.GetUsageSize()
	t.totalTxSize += uint64(entry.TxSize)
	t.transactionsUpdated++

	return nil
}

// removeUnchecked drops entry from every index without touching its
// relatives' bookkeeping; callers are expected to have already adjusted
// ancestor/descendant statistics via updateForRemoveFromMempool.
func (t *TxMempool) removeUnchecked(entry *TxEntry, reason int) {
	hash := entry.Tx.GetHash()

	for _, in := range entry.Tx.GetIns() {
		delete(t.nextTx, *in.PreviousOutPoint)
	}
	for child := range entry.ChildTx {
		child.UpdateParent(entry, false)
	}
	for parent := range entry.ParentTx {
		parent.UpdateChild(entry, false)
	}

	delete(t.poolData, hash)
	delete(t.rootTx, hash)
	t.timeSortData.Delete(entry)
	t.txByAncestorFeeRateSort.Delete((*EntryAncestorFeeRateSort)(entry))

	if t.feeEstimator != nil {
		t.feeEstimator.RemoveTx(entry)
	}

	t.usageSize -= entry.GetUsageSize()
	t.totalTxSize -= uint64(entry.TxSize)
	t.transactionsUpdated++
}

// updateForRemoveFromMempool subtracts the entries being removed from the
// ancestor/descendant totals of whichever of their relatives survive.
func (t *TxMempool) updateForRemoveFromMempool(entriesToRemove map[*TxEntry]struct{}, updateDescendants bool) {
	if updateDescendants {
		for removeIt := range entriesToRemove {
			descendants := t.CalculateDescendants(removeIt)
			for d := range descendants {
				if d == removeIt {
					continue
				}
				if _, ok := entriesToRemove[d]; ok {
					continue
				}
				t.txByAncestorFeeRateSort.Delete((*EntryAncestorFeeRateSort)(d))
				d.UpdateAncestorState(-1, -removeIt.TxSize, -removeIt.SigOpCount, -removeIt.TxFee)
				t.txByAncestorFeeRateSort.ReplaceOrInsert((*EntryAncestorFeeRateSort)(d))
			}
		}
	}
	noLimit := ^uint64(0)
	for removeIt := range entriesToRemove {
		ancestors, _ := t.CalculateMemPoolAncestors(removeIt.Tx, noLimit, noLimit, noLimit, noLimit, false)
		for parent := range ancestors {
			if _, ok := entriesToRemove[parent]; ok {
				continue
			}
			parent.UpdateDescendantState(-1, -removeIt.TxSize, -removeIt.TxFee)
		}
	}
}

// RemoveStaged removes every entry in stage, first propagating the removal
// into whichever ancestor/descendant statistics survive it.
func (t *TxMempool) RemoveStaged(stage map[*TxEntry]struct{}, updateDescendants bool, reason int) {
	t.updateForRemoveFromMempool(stage, updateDescendants)
	for entry := range stage {
		t.removeUnchecked(entry, reason)
	}
}

// removeTxRecursive removes origTx (if pooled) and, if it isn't, whichever
// pooled transactions spend one of its outputs, along with all of their
// descendants. Used when a transaction disappears from the mempool for
// reasons other than confirmation (a conflicting reorg, non-standardness).
func (t *TxMempool) removeTxRecursive(origTx *tx.Tx, reason int) {
	toRemove := make(map[*TxEntry]struct{})
	if entry, ok := t.poolData[origTx.GetHash()]; ok {
		toRemove[entry] = struct{}{}
	} else {
		for i := 0; i < origTx.GetOutsCount(); i++ {
			o := outpoint.OutPoint{Hash: origTx.GetHash(), Index: uint32(i)}
			if spender, ok := t.nextTx[o]; ok {
				toRemove[spender] = struct{}{}
			}
		}
	}

	allRemoves := make(map[*TxEntry]struct{})
	for entry := range toRemove {
		for d := range t.CalculateDescendants(entry) {
			allRemoves[d] = struct{}{}
		}
	}
	t.RemoveStaged(allRemoves, false, reason)
}

// RemoveTxRecursive is the locked form of removeTxRecursive.
func (t *TxMempool) RemoveTxRecursive(origTx *tx.Tx, reason int) {
	t.Lock()
	defer t.Unlock()
	t.removeTxRecursive(origTx, reason)
}

// removeConflicts removes whichever pooled transactions spend the same
// inputs as txn, recursively, since txn (now mined) has made them
// unconfirmable double-spends.
func (t *TxMempool) removeConflicts(txn *tx.Tx) {
	for _, in := range txn.GetIns() {
		conflict, ok := t.nextTx[*in.PreviousOutPoint]
		if !ok || conflict.Tx.GetHash() == txn.GetHash() {
			continue
		}
		t.removeTxRecursive(conflict.Tx, CONFLICT)
	}
}

// RemoveTxSelf removes exactly the given transactions (as mined into a
// connected block) along with fixing up any surviving descendants' ancestor
// statistics, then clears out anything left conflicting with them.
func (t *TxMempool) RemoveTxSelf(txs []*tx.Tx) {
	t.Lock()
	defer t.Unlock()

	for _, txn := range txs {
		if entry, ok := t.poolData[txn.GetHash()]; ok {
			t.RemoveStaged(map[*TxEntry]struct{}{entry: {}}, true, BLOCK)
		}
		t.removeConflicts(txn)
	}
}

// AddOrphanTx records a transaction with an unresolved input, to be
// reconsidered once its missing parent arrives.
func (t *TxMempool) AddOrphanTx(txn *tx.Tx, nodeID int64) {
	t.Lock()
	defer t.Unlock()

	hash := txn.GetHash()
	if _, ok := t.OrphanTransactions[hash]; ok {
		return
	}
	orphan := &OrphanTx{Tx: txn, NodeID: nodeID, Time: util.GetTimeSec()}
	t.OrphanTransactions[hash] = orphan
	for _, in := range txn.GetIns() {
		prev := *in.PreviousOutPoint
		t.OrphanTransactionsByPrev[prev] = append(t.OrphanTransactionsByPrev[prev], orphan)
	}
}

// EraseOrphanTx drops the orphan identified by hash. When removeChildren is
// set, orphans that themselves depend on it are also erased.
func (t *TxMempool) EraseOrphanTx(hash util.Hash, removeChildren bool) {
	t.Lock()
	defer t.Unlock()
	t.eraseOrphanTx(hash, removeChildren)
}

func (t *TxMempool) eraseOrphanTx(hash util.Hash, removeChildren bool) {
	orphan, ok := t.OrphanTransactions[hash]
	if !ok {
		return
	}
	for _, in := range orphan.Tx.GetIns() {
		prev := *in.PreviousOutPoint
		list := t.OrphanTransactionsByPrev[prev]
		for i, o := range list {
			if o == orphan {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(t.OrphanTransactionsByPrev, prev)
		} else {
			t.OrphanTransactionsByPrev[prev] = list
		}
	}
	delete(t.OrphanTransactions, hash)

	if !removeChildren {
		return
	}
	for i := 0; i < orphan.Tx.GetOutsCount(); i++ {
		o := outpoint.OutPoint{Hash: hash, Index: uint32(i)}
		for _, child := range t.OrphanTransactionsByPrev[o] {
			t.eraseOrphanTx(child.Tx.GetHash(), true)
		}
	}
}

// CleanOrphan discards every tracked orphan transaction, used when a fresh
// mempool is swapped in after a reorg.
func (t *TxMempool) CleanOrphan() {
	t.Lock()
	defer t.Unlock()
	t.OrphanTransactions = make(map[util.Hash]*OrphanTx)
	t.OrphanTransactionsByPrev = make(map[outpoint.OutPoint][]*OrphanTx)
}

// expire removes every pooled transaction that entered before time,
// together with its descendants.
func (t *TxMempool) expire(time int64) {
	toRemove := make(map[*TxEntry]struct{})
	t.timeSortData.Ascend(func(i btree.Item) bool {
		entry := i.(*TxEntry)
		if entry.GetTime() >= time {
			return false
		}
		toRemove[entry] = struct{}{}
		return true
	})

	stage := make(map[*TxEntry]struct{})
	for entry := range toRemove {
		for d := range t.CalculateDescendants(entry) {
			stage[d] = struct{}{}
		}
	}
	t.RemoveStaged(stage, false, EXPIRY)
}

// trimToSize repeatedly evicts the package with the lowest ancestor feerate
// until the pool's memory usage is at or below sizelimit.
func (t *TxMempool) trimToSize(sizelimit int64) {
	for len(t.poolData) > 0 && t.usageSize > sizelimit {
		worst := t.txByAncestorFeeRateSort.Max()
		if worst == nil {
			return
		}
		entry := (*TxEntry)(worst.(*EntryAncestorFeeRateSort))
		stage := t.CalculateDescendants(entry)
		t.RemoveStaged(stage, false, SIZELIMIT)
	}
}

// LimitSize expires transactions older than minTime and, if the pool is
// still over sizelimit bytes, trims lowest-ancestor-feerate packages until
// it fits. It reports whether hash (typically a transaction just admitted)
// was itself evicted by either pass.
func (t *TxMempool) LimitSize(sizelimit int64, minTime int64, hash util.Hash) bool {
	t.expire(minTime)
	t.trimToSize(sizelimit)
	_, stillPresent := t.poolData[hash]
	return !stillPresent
}
