package disk

import (
	"testing"

	"github.com/btcforge/chaincore/model/block"
	"github.com/btcforge/chaincore/model/blockindex"
	"github.com/btcforge/chaincore/persist"
	"github.com/btcforge/chaincore/util"
)

func resetGlobalsForPruneTest() {
	GlobalBlockFileInfoMap = make(BlockFileInfoMap)
	GlobalBlockIndexMap = make(BlockIndexMap)
	GlobalBlocksUnlinkedMap = make(map[*blockindex.BlockIndex]*blockindex.BlockIndex)
	GlobalSetDirtyFileInfo = make(map[int]bool)
	GlobalLastBlockFile = 0
	persist.InitPersistGlobal()
}

func newIndexedBlock(hashSeed string, file int) *blockindex.BlockIndex {
	blkHeader := block.NewBlockHeader()
	bIndex := blockindex.NewBlockIndex(blkHeader)
	bIndex.BlockHash = *util.HashFromString(hashSeed)
	bIndex.File = file
	bIndex.DataPos = 100
	bIndex.UndoPos = 100
	return bIndex
}

func TestPruneOneBlockFileMarksNodesAndClearsFileInfo(t *testing.T) {
	resetGlobalsForPruneTest()

	a := newIndexedBlock("00000000000001bcd6b635a1249dfbe76c0d001592a7219a36cd9bbd002c7238", 3)
	b := newIndexedBlock("00000000000001bcd6b635a1249dfbe76c0d001592a7219a36cd9bbd002c7239", 4)
	GlobalBlockIndexMap[a.BlockHash] = a
	GlobalBlockIndexMap[b.BlockHash] = b
	GlobalBlocksUnlinkedMap[a] = b

	info := block.NewBlockFileInfo()
	info.AddBlock(10, 0)
	GlobalBlockFileInfoMap[3] = info

	pruneOneBlockFile(3)

	if a.HaveData() {
		t.Fatalf("pruned node should report missing data")
	}
	if a.File != 0 || a.DataPos != 0 || a.UndoPos != 0 {
		t.Fatalf("pruned node should have its disk position reset, got file=%d datapos=%d undopos=%d",
			a.File, a.DataPos, a.UndoPos)
	}
	if b.File != 4 {
		t.Fatalf("node stored in a different file should be untouched")
	}
	if _, stillLinked := GlobalBlocksUnlinkedMap[a]; stillLinked {
		t.Fatalf("pruned node should be dropped from the unlinked-blocks map")
	}
	if !GlobalSetDirtyFileInfo[3] {
		t.Fatalf("expected file 3 to be marked dirty for the next flush")
	}
	if GlobalBlockFileInfoMap[3].Blocks != 0 {
		t.Fatalf("expected file info to be zeroed after pruning")
	}

	gPersist := persist.GetInstance()
	if _, dirty := gPersist.GlobalDirtyBlockIndex[a.BlockHash]; !dirty {
		t.Fatalf("expected pruned node to be queued for its next block-index write")
	}
}

func TestPruneFilesBelowSkipsFilesNearTip(t *testing.T) {
	resetGlobalsForPruneTest()
	GlobalLastBlockFile = 2

	oldInfo := block.NewBlockFileInfo()
	oldInfo.AddBlock(10, 0)
	oldInfo.Size = 1000
	GlobalBlockFileInfoMap[0] = oldInfo

	recentInfo := block.NewBlockFileInfo()
	recentInfo.AddBlock(500, 0)
	recentInfo.Size = 1000
	GlobalBlockFileInfoMap[1] = recentInfo

	pruned := pruneFilesBelow(100)

	if !pruned[0] {
		t.Fatalf("expected file 0 (heightLast=10) to be selected for pruning")
	}
	if pruned[1] {
		t.Fatalf("file 1 (heightLast=500) is above the cutoff and must survive")
	}
}

func TestCalculateCurrentUsage(t *testing.T) {
	resetGlobalsForPruneTest()

	first := block.NewBlockFileInfo()
	first.Size = 1000
	first.UndoSize = 200
	GlobalBlockFileInfoMap[0] = first

	second := block.NewBlockFileInfo()
	second.Size = 500
	GlobalBlockFileInfoMap[1] = second

	if got := calculateCurrentUsage(); got != 1700 {
		t.Fatalf("expected total usage 1700, got %d", got)
	}
}
