package chain

import (
	"errors"

	"github.com/btcforge/chaincore/conf"
	"github.com/btcforge/chaincore/log"
	"github.com/btcforge/chaincore/model/blockindex"
	"github.com/btcforge/chaincore/model/chainparams"
	"github.com/btcforge/chaincore/model/consensus"
	"github.com/btcforge/chaincore/model/pow"
	"github.com/btcforge/chaincore/model/script"
	"github.com/btcforge/chaincore/model/versionbits"
	"github.com/btcforge/chaincore/persist"
	"github.com/btcforge/chaincore/util"
	"github.com/google/btree"
	"gopkg.in/eapache/queue.v1"
)

// branchItem orders candidate tips by chain work, breaking ties by sequence
// id so the btree gives a total order matching insertion time.
type branchItem struct {
	index *blockindex.BlockIndex
}

func (b branchItem) Less(than btree.Item) bool {
	other := than.(branchItem)
	cmp := b.index.ChainWork.Cmp(&other.index.ChainWork)
	if cmp != 0 {
		return cmp < 0
	}
	return b.index.SequenceID < other.index.SequenceID
}

// Chain An in-memory blIndexed chain of blocks.
type Chain struct {
	active      []*blockindex.BlockIndex
	branch      btree.BTree
	branchIndex map[util.Hash]*blockindex.BlockIndex // candidate tips, keyed by hash
	waitForTx   map[util.Hash]*blockindex.BlockIndex
	orphan      map[util.Hash][]*blockindex.BlockIndex // preHash : *index
	indexMap    map[util.Hash]*blockindex.BlockIndex   // selfHash :*index
	newestBlock *blockindex.BlockIndex
	receiveID   uint64
	params      *chainparams.BitcoinParams
}

var globalChain *Chain
var HashAssumeValid util.Hash

func GetInstance() *Chain {
	if globalChain == nil {
		panic("globalChain do not init")
	}
	// fmt.Println("gchain======%#v", globalChain)
	return globalChain
}

func InitGlobalChain() {
	if globalChain == nil {
		globalChain = NewChain()
		globalChain.params = chainparams.ActiveNetParams
	}
	if len(conf.Cfg.Chain.AssumeValid) > 0 {
		hash, err := util.GetHashFromStr(conf.Cfg.Chain.AssumeValid)
		if err != nil {
			panic("AssumeValid config err")
		}
		HashAssumeValid = *hash
	} else {
		HashAssumeValid = chainparams.ActiveNetParams.DefaultAssumeValid
	}
}
func NewChain() *Chain {

	// return NewFakeChain()
	return &Chain{
		branch:      *btree.New(32),
		branchIndex: make(map[util.Hash]*blockindex.BlockIndex),
	}
}
func (c *Chain) GetParams() *chainparams.BitcoinParams {
	return c.params
}

//InitLoad load the maps of the chain
func (c *Chain) InitLoad(indexMap map[util.Hash]*blockindex.BlockIndex, branch []*blockindex.BlockIndex) {
	c.indexMap = indexMap
	c.branch = *btree.New(32)
	c.branchIndex = make(map[util.Hash]*blockindex.BlockIndex)
	for _, bi := range branch {
		c.insertToBranch(bi)
	}
}

// ClearActive drops the active chain tip list, used before a reindex
// repopulates it from scratch.
func (c *Chain) ClearActive() {
	c.active = nil
	c.newestBlock = nil
}

// Genesis Returns the blIndex entry for the genesis block of this chain,
// or nullptr if none.
func (c *Chain) Genesis() *blockindex.BlockIndex {
	if len(c.active) > 0 {
		return c.active[0]
	}

	return nil
}

func (c *Chain) GetReceivedID() uint64 {
	c.receiveID++
	return c.receiveID - 1
}

// FindHashInActive finds blockindex from active
func (c *Chain) FindHashInActive(hash util.Hash) *blockindex.BlockIndex {
	bi, ok := c.indexMap[hash]
	if ok {
		if c.Contains(bi) {
			return bi
		}
		return nil
	}

	return nil
}

// FindBlockIndex finds blockindex from blockIndexMap
func (c *Chain) FindBlockIndex(hash util.Hash) *blockindex.BlockIndex {
	//fmt.Println("FindBlockIndex======", len(c.indexMap))
	bi, ok := c.indexMap[hash]
	if ok {
		//log.Trace("current chain Tip header height : %d", bi.Height)
		return bi
	}

	return nil
}

// Tip Returns the blIndex entry for the tip of this chain, or nullptr if none.
func (c *Chain) Tip() *blockindex.BlockIndex {
	if len(c.active) > 0 {
		return c.active[len(c.active)-1]
	}

	return nil
}

func (c *Chain) TipHeight() int32 {
	if len(c.active) > 0 {
		return int32(c.active[len(c.active)-1].Height)
	}

	return 0
}

func (c *Chain) GetSpendHeight(hash *util.Hash) int32 {
	index, ok := c.indexMap[*hash]
	if ok {
		return int32(index.Height) + 1
	}

	return -1
}

func (c *Chain) GetBlockScriptFlags(pindex *blockindex.BlockIndex) uint32 {
	// TODO: AssertLockHeld(cs_main);
	// var sc sync.RWMutex
	// sc.Lock()
	// defer sc.Unlock()

	// BIP16 didn't become active until Apr 1 2012
	/** Activation time for P2SH (April 1st 2012) */
	var flags uint32
	P2SHActivationTime := 1333234914
	//nBIP16SwitchTime := 1333238400
	if pindex.GetMedianTimePast() >= int64(P2SHActivationTime) {
		flags = script.ScriptVerifyP2SH
	} else {
		flags = script.ScriptVerifyNone
	}
	//fStrictPayToScriptHash := int(pindex.GetBlockTime()) >= nBIP16SwitchTime
	param := c.params
	// Start enforcing the DERSIG (BIP66) rule

	if int32(pindex.Height)+1 >= param.BIP66Height {
		flags |= script.ScriptVerifyDersig
	}

	// Start enforcing CHECKLOCKTIMEVERIFY (BIP65) rule
	if int32(pindex.Height)+1 >= param.BIP65Height {
		flags |= script.ScriptVerifyCheckLockTimeVerify
	}

	// Start enforcing CSV (BIP68, BIP112 and BIP113) rule.
	//if pindex.Height+1 >= param.CSVHeight {
	//	flags |= script.ScriptVerifyCheckSequenceVerify
	//}
	// Start enforcing BIP112 (CHECKSEQUENCEVERIFY) using versionbits logic.
	if versionbits.VersionBitsState(pindex, param, consensus.DeploymentCSV, versionbits.VBCache) == versionbits.ThresholdActive {
		flags |= script.ScriptVerifyCheckSequenceVerify
	}

	// If the UAHF is enabled, we start accepting replay protected txns
	if chainparams.IsUAHFEnabled(int32(pindex.Height)) {
		flags |= script.ScriptVerifyStrictEnc
		flags |= script.ScriptEnableSigHashForkID
	}

	// If the Cash HF is enabled, we start rejecting transaction that use a high
	// s in their signature. We also make sure that signature that are supposed
	// to fail (for instance in multisig or other forms of smart contracts) are
	// null.
	//if pindex.IsCashHFEnabled(param) {
	//	flags |= script.ScriptVerifyLowS
	//	flags |= script.ScriptVerifyNullFail
	//}
	if chainparams.IsDAAEnabled(int32(pindex.Height)) {
		flags |= script.ScriptVerifyLowS
		flags |= script.ScriptVerifyNullFail
	}
	//The monolith HF enable a set of opcodes.
	if chainparams.IsMonolithEnabled(pindex.GetMedianTimePast()) {
		flags |= script.ScriptEnableMonolithOpcodes
	}
	//if chainparams.IsMagneticAnomalyEnable(pindex.GetMedianTimePast()) {
	//	flags |= script.ScriptEnableCheckDataSig
	//	flags |= script.ScriptVerifySigPushOnly
	//	flags |= script.ScriptVerifyCleanStack
	//}
	// We make sure this node will have replay protection during the next hard
	// fork.
	if chainparams.IsReplayProtectionEnabled(pindex.GetMedianTimePast()) {
		flags |= script.ScriptEnableReplayProtection
	}

	return flags
}

// GetIndex Returns the blIndex entry at a particular height in this chain, or nullptr
// if no such height exists.
func (c *Chain) GetIndex(height int32) *blockindex.BlockIndex {
	if height < 0 || height >= int32(len(c.active)) {
		return nil
	}

	return c.active[height]
}

// Equal Compare two chains efficiently.

func (c *Chain) Equal(dst *Chain) bool {
	if dst == nil {
		return false
	}
	return len(c.active) == len(dst.active) &&
		c.active[len(c.active)-1] == dst.active[len(dst.active)-1]
}

// Contains /** Efficiently check whether a block is present in this chain
func (c *Chain) Contains(index *blockindex.BlockIndex) bool {
	if index == nil {
		return false
	}
	return c.GetIndex(int32(index.Height)) == index
}

// Next Find the successor of a block in this chain, or nullptr if the given
// index is not found or is the tip.
func (c *Chain) Next(index *blockindex.BlockIndex) *blockindex.BlockIndex {
	if index == nil {
		return nil
	}
	if c.Contains(index) {
		return c.GetIndex(int32(index.Height) + 1)
	}
	return nil
}

// Height Return the maximal height in the chain. Is equal to chain.Tip() ?
// chain.Tip()->nHeight : -1.
func (c *Chain) Height() int32 {
	chainLen := int32(len(c.active))
	if chainLen > 0 {
		return chainLen - 1
	}
	return 0
}

// SetTip Set/initialize a chain with a given tip.
func (c *Chain) SetTip(index *blockindex.BlockIndex) {
	if index == nil {
		c.active = []*blockindex.BlockIndex{}
		return
	}

	tmp := make([]*blockindex.BlockIndex, index.Height+1)
	copy(tmp, c.active)
	c.active = tmp
	for index != nil && c.active[index.Height] != index {
		c.active[index.Height] = index
		index = index.Prev
	}
}

// SetTip Set/initialize a chain with a given tip.
// func (c *Chain) SetTip1(index *blockindex.BlockIndex) {
// 	if index == nil {
// 		c.active = []*blockindex.BlockIndex{}
// 		return
// 	}
// 	endHeight := index.Height
// 	tmp := make([]*blockindex.BlockIndex, 0)
// 	if int(index.Height) > len(c.active){
//
// 	}
// 	forkHeight := index.Height
// 	for index != nil {
// 		if c.Contains(index){
// 			forkHeight = index.Height
// 			break
// 		}
// 		tmp = append(tmp, index)
// 		index = index.Prev
// 	}
// 	// todo update active
// }

// GetAncestor gets ancestor from active chain.
func (c *Chain) GetAncestor(height int32) *blockindex.BlockIndex {
	if len(c.active) >= int(height) {
		return c.active[height]
	}
	return nil
}

// GetLocator get a series blockHash, which slice contain blocks sort
// by height from Highest to lowest.
func (c *Chain) GetLocator(index *blockindex.BlockIndex) *BlockLocator {
	step := 1
	blockHashList := make([]util.Hash, 0, 32)
	if index == nil {
		index = c.Tip()
		log.Trace("GetLocator Tip hash: %s,  height: %d",
			index.GetBlockHash().String(), index.Height)
	}
	for {
		blockHashList = append(blockHashList, *index.GetBlockHash())
		if index.Height == 0 {
			break
		}
		height := index.Height - step
		if height < 0 {
			height = 0
		}
		if c.Contains(index) {
			index = c.GetIndex(int32(height))
		} else {
			index = index.GetAncestor(height)
		}
		log.Trace("GetLocator contain hash : %s, height : %d .",
			index.GetBlockHash().String(), index.Height)
		if len(blockHashList) > 10 {
			step *= 2
		}
	}
	return NewBlockLocator(blockHashList)
}

// FindFork Find the last common block between this chain and a block blIndex entry.
func (c *Chain) FindFork(blIndex *blockindex.BlockIndex) *blockindex.BlockIndex {
	if blIndex == nil {
		return nil
	}

	if int32(blIndex.Height) > c.Height() {
		blIndex = blIndex.GetAncestor(int(c.Height()))
	}

	for blIndex != nil && !c.Contains(blIndex) {
		blIndex = blIndex.Prev
	}
	return blIndex
}

// ParentInBranch finds blockindex'parent in branch
func (c *Chain) ParentInBranch(pindex *blockindex.BlockIndex) bool {
	if pindex == nil {
		return false
	}
	_, ok := c.branchIndex[pindex.Header.HashPrevBlock]
	return ok
}

// InBranch finds blockindex in branch
func (c *Chain) InBranch(pindex *blockindex.BlockIndex) bool {
	if pindex == nil {
		return false
	}
	_, ok := c.branchIndex[*pindex.GetBlockHash()]
	return ok
}

// insertToBranch adds bis to the candidate-tip set, ordered by chain work
// (ties broken by sequence id) so FindMostWorkChain is an O(log n) max
// lookup instead of a full resort.
func (c *Chain) insertToBranch(bis *blockindex.BlockIndex) {
	c.branch.ReplaceOrInsert(branchItem{index: bis})
	c.branchIndex[*bis.GetBlockHash()] = bis
}

func (c *Chain) AddToBranch(bis *blockindex.BlockIndex) error {
	if bis == nil {
		return errors.New("nil blockIndex")
	}
	if bis.Prev == nil && !bis.IsGenesis(c.params) {
		return errors.New("no blockIndexPrev")
	}

	q := queue.New()
	q.Add(bis)
	// Recursively process any descendant blocks that now may be eligible to
	// be connected.
	for q.Length() > 0 {
		qindex := q.Remove()
		pindex := qindex.(*blockindex.BlockIndex)
		if !pindex.IsGenesis(c.params) {
			pindex.ChainTxCount = pindex.Prev.ChainTxCount + pindex.TxCount
		} else {
			pindex.ChainTxCount = pindex.TxCount
		}
		if c.InBranch(pindex) {
			// pindex's SequenceID is part of its sort key in c.branch; it must
			// be pulled out before its key changes, per google/btree's
			// contract that an item's Less ordering may not change while it
			// is a member.
			c.RemoveFromBranch(pindex)
			pindex.SequenceID = int32(c.GetReceivedID())
			c.insertToBranch(pindex)
		} else {
			pindex.SequenceID = int32(c.GetReceivedID())
			c.insertToBranch(pindex)
		}
		preHash := pindex.GetBlockHash()
		childList, ok := c.orphan[*preHash]
		if ok {
			for _, child := range childList {
				q.Add(child)
			}
			delete(c.orphan, *preHash)
		}
	}
	return nil
}

func (c *Chain) RemoveFromBranch(bis *blockindex.BlockIndex) error {
	if bis == nil {
		return errors.New("nil blockIndex")
	}
	c.branch.Delete(branchItem{index: bis})
	delete(c.branchIndex, *bis.GetBlockHash())
	return nil
}

func (c *Chain) FindMostWorkChain() *blockindex.BlockIndex {
	item := c.branch.Max()
	if item == nil {
		return nil
	}
	return item.(branchItem).index
}

func (c *Chain) AddToIndexMap(bi *blockindex.BlockIndex) error {
	// We assign the sequence id to blocks only when the full data is available,
	// to avoid miners withholding blocks but broadcasting headers, to get a
	// competitive advantage.
	if bi == nil {
		return errors.New("nil blockIndex")
	}
	bi.SequenceID = 0
	bi.TimeMax = bi.Header.Time
	blockProof := pow.GetBlockProof(bi)
	bi.ChainWork = *blockProof
	hash := bi.GetBlockHash()

	c.indexMap[*hash] = bi
	log.Debug("AddToIndexMap:%s", hash.String())
	pre, ok := c.indexMap[bi.Header.HashPrevBlock]
	if ok {
		bi.Prev = pre
		bi.Height = pre.Height + 1
	}
	if pre != nil {
		if pre.TimeMax > bi.TimeMax {
			bi.TimeMax = pre.TimeMax
		}
		bi.ChainWork = *bi.ChainWork.Add(&bi.ChainWork, &pre.ChainWork)
	}
	bi.RaiseValidity(blockindex.BlockValidTree)
	gPersist := persist.GetInstance()
	gPersist.AddDirtyBlockIndex(bi)
	return nil
}

func (c *Chain) AddToOrphan(bi *blockindex.BlockIndex) error {
	bh := bi.Header
	childList, ok := c.orphan[bh.HashPrevBlock]
	if !ok {
		childList = make([]*blockindex.BlockIndex, 0, 1)
	}
	childList = append(childList, bi)
	c.orphan[bh.HashPrevBlock] = childList
	return nil
}

func (c *Chain) ChainOrphanLen() int32 {
	var orphanLen int32
	for _, childList := range c.orphan {
		orphanLen += int32(len(childList))
	}

	return orphanLen
}

// MarkBlockFailed flags index itself as invalid and evicts it from the
// candidate-tip set.
func (c *Chain) MarkBlockFailed(index *blockindex.BlockIndex) {
	index.AddStatus(blockindex.BlockFailed)
	persist.GetInstance().AddDirtyBlockIndex(index)
	c.RemoveFromBranch(index)
}

// MarkBlockFailedParent flags index as descending from a failed block and
// evicts it from the candidate-tip set.
func (c *Chain) MarkBlockFailedParent(index *blockindex.BlockIndex) {
	index.AddStatus(blockindex.BlockFailedParent)
	persist.GetInstance().AddDirtyBlockIndex(index)
	c.RemoveFromBranch(index)
}

// isDescendant reports whether candidate descends from ancestor (or is
// ancestor itself), walking Prev pointers.
func isDescendant(candidate, ancestor *blockindex.BlockIndex) bool {
	for walk := candidate; walk != nil; walk = walk.Prev {
		if walk == ancestor {
			return true
		}
		if walk.Height <= ancestor.Height {
			break
		}
	}
	return false
}

// ClearBlockFailureFlags undoes MarkBlockFailed/MarkBlockFailedParent on
// index and every block index descending from it, re-admitting the ones
// that are otherwise eligible back into the candidate-tip set.
func (c *Chain) ClearBlockFailureFlags(index *blockindex.BlockIndex) {
	for _, candidate := range c.indexMap {
		if !candidate.Failed() || !isDescendant(candidate, index) {
			continue
		}
		candidate.SubStatus(blockindex.BlockFailed | blockindex.BlockFailedParent)
		persist.GetInstance().AddDirtyBlockIndex(candidate)
		if candidate.IsValid(blockindex.BlockValidTransactions) && candidate.ChainTxCount != 0 {
			c.insertToBranch(candidate)
		}
	}
}

// RescanBranchCandidates re-admits every known, non-failed block index with
// full transaction data into the candidate-tip set. Used after a reorg
// forced by InvalidateBlock leaves the previous best tip's ancestors
// without a home in the candidate set.
func (c *Chain) RescanBranchCandidates() {
	for _, index := range c.indexMap {
		if index.Failed() {
			continue
		}
		if index.IsValid(blockindex.BlockValidTransactions) && index.ChainTxCount != 0 {
			c.insertToBranch(index)
		}
	}
}

// RaisePrecious moves index ahead of any equal-work competing tip by
// assigning it a fresh, higher sequence id and re-inserting it into the
// candidate-tip set.
func (c *Chain) RaisePrecious(index *blockindex.BlockIndex) {
	c.RemoveFromBranch(index)
	index.SequenceID = int32(c.GetReceivedID())
	persist.GetInstance().AddDirtyBlockIndex(index)
	if index.IsValid(blockindex.BlockValidTransactions) && index.ChainTxCount != 0 {
		c.insertToBranch(index)
	}
}
