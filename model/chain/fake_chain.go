package chain

import (
	"github.com/btcforge/chaincore/model/blockindex"
	"github.com/btcforge/chaincore/model/chainparams"
	"github.com/btcforge/chaincore/util"
	"github.com/google/btree"
)

func NewFakeChain() *Chain {
	c := Chain{
		active:      make([]*blockindex.BlockIndex, 0),
		branch:      *btree.New(32),
		branchIndex: make(map[util.Hash]*blockindex.BlockIndex),
		waitForTx:   make(map[util.Hash]*blockindex.BlockIndex),
		orphan:      make(map[util.Hash][]*blockindex.BlockIndex, 0),
		indexMap:    make(map[util.Hash]*blockindex.BlockIndex),
		newestBlock: nil,
		receiveID:   0,
	}
	c.params = chainparams.ActiveNetParams

	genbi := blockindex.NewBlockIndex(&c.params.GenesisBlock.Header)
	c.active = append(c.active, genbi)
	c.insertToBranch(genbi)

	return &c
}
