package chainstate

import (
	"container/list"
	"os"
	"time"

	"github.com/btcforge/chaincore/conf"
	"github.com/btcforge/chaincore/errcode"
	"github.com/btcforge/chaincore/log"
	"github.com/btcforge/chaincore/logic/lblock"
	"github.com/btcforge/chaincore/logic/lchain"
	"github.com/btcforge/chaincore/model/block"
	"github.com/btcforge/chaincore/model/blockindex"
	"github.com/btcforge/chaincore/model/chain"
	"github.com/btcforge/chaincore/persist"
	"github.com/btcforge/chaincore/persist/blkdb"
	"github.com/btcforge/chaincore/persist/disk"
	"github.com/btcforge/chaincore/util"
)

// RewindBlockIndex walks every blk*.dat file on disk and re-runs block
// acceptance against the current chain, rebuilding the block index. Used to
// recover from a corrupted index or to pick up blocks after a schema change.
func RewindBlockIndex() (err error) {
	blkFiles, err := disk.GetBlkFiles()
	if err != nil {
		log.Error("chainstate: get blk files failed, err:%s", err)
	}

	log.Info("Start reindexing")

	for index, filePath := range blkFiles {
		dbp := block.NewDiskBlockPos(int32(index), uint32(0))
		err = loadExternalBlockFile(filePath, dbp)
	}
	blkdb.GetInstance().WriteReindexing(false)
	conf.Cfg.Reindex = false
	log.Info("Reindexing finished")

	return err
}

func loadExternalBlockFile(filePath string, dbp *block.DiskBlockPos) (err error) {
	mapBlocksUnknownParent := make(map[util.Hash]*list.List)
	log.Info("file: %s", filePath)
	mchain := chain.GetInstance()
	params := mchain.GetParams()
	nLoaded := 0

	nStartTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		log.Error("loadExternalBlockFile: %s", err)
		return
	}

	fileSize := uint32(fileInfo.Size())
	for dbp.Pos < fileSize {
		log.Info("pos: %d", dbp.Pos)
		blk, ok := disk.ReadBlockFromDiskByPos(*dbp, params)
		if !ok {
			log.Error("fail to read block from pos<%d, %d>", dbp.File, dbp.Pos)
			return errcode.New(errcode.FailedToReadBlock)
		}

		blkHash := blk.GetHash()
		blkPreHash := blk.Header.HashPrevBlock

		if blkHash != *params.GenesisHash && nil == mchain.FindBlockIndex(blkPreHash) {
			log.Info("Out of order block %s, parent %s not known",
				blkHash.String(),
				blkPreHash.String())
			if dbp != nil {
				_, exist := mapBlocksUnknownParent[blkPreHash]
				if !exist {
					mapBlocksUnknownParent[blkPreHash] = list.New()
				}
				mapBlocksUnknownParent[blkPreHash].PushBack(dbp)
			}
			continue
		}

		if blkIndex := mchain.FindBlockIndex(blkHash); blkIndex == nil || !blkIndex.HasData() {
			persist.CsMain.Lock()
			fNewBlock := false
			_, _, err = lblock.AcceptBlock(blk, true, dbp, &fNewBlock)
			if err != nil {
				break
			}

			nLoaded++
			persist.CsMain.Unlock()
		} else if blkIndex := mchain.FindBlockIndex(blkHash); blkHash != *params.GenesisHash && blkIndex.Height%1000 == 0 {
			log.Info("already had block %s at height %d", blkHash.String(), blkIndex.Height)
		}

		// Activate the genesis block so normal node progress can continue
		if blkHash == *params.GenesisHash {
			err = lchain.ActivateBestChain(blk)
			if err != nil {
				log.Error("Activate the genesis block failed")
				break
			}
		}

		// Recursively process earlier encountered successors of this block
		queue := list.New()
		queue.PushBack(blkHash)
		for queue.Len() > 0 {
			val := queue.Remove(queue.Front())
			head, _ := val.(util.Hash)
			itemList, ok := mapBlocksUnknownParent[head]
			if !ok {
				continue
			}
			for itemList.Len() > 0 {
				val := itemList.Remove(itemList.Front())
				diskBlkPos, _ := val.(*block.DiskBlockPos)

				blk, ok := disk.ReadBlockFromDiskByPos(*diskBlkPos, params)
				if !ok {
					log.Error("when process successors, fail to read block from pos<%d, %d>", diskBlkPos.File, diskBlkPos.Pos)
					continue
				}
				hash := blk.GetHash()
				log.Info("Processing out of order child %s of %s", hash.String(), blkHash.String())
				persist.CsMain.Lock()
				fNewBlock := false
				_, _, err = lblock.AcceptBlock(blk, true, diskBlkPos, &fNewBlock)
				if err == nil {
					nLoaded++
					queue.PushBack(blk.GetHash())
				} else {
					log.Error("Error accept out of order block: %s", hash.String())
				}
				persist.CsMain.Unlock()
			}
		}

		dbp.Pos = dbp.Pos + uint32(blk.EncodeSize()) + 4
		nLoaded++
	}
	log.Info("end-pos: %d", dbp.Pos)
	log.Info("file size: %d", fileInfo.Size())

	nEndTime := time.Now()
	if nLoaded > 0 {
		log.Info("Loaded %d blocks from external file in %f seconds", nLoaded, nEndTime.Sub(nStartTime).Seconds())
	}

	return
}

// UnloadBlockIndex discards the in-memory block index and file-info tables,
// the first step of a reindex before RewindBlockIndex repopulates them.
func UnloadBlockIndex() {
	persist.CsMain.Lock()
	defer persist.CsMain.Unlock()

	persistGlobal := persist.GetInstance()
	persistGlobal.GlobalBlockFileInfo = make([]*block.BlockFileInfo, 0, 1000)
	persistGlobal.GlobalDirtyFileInfo = make(map[int32]bool)
	persistGlobal.GlobalDirtyBlockIndex = make(map[util.Hash]*blockindex.BlockIndex)
	persistGlobal.GlobalMapBlocksUnlinked = make(map[*blockindex.BlockIndex][]*blockindex.BlockIndex)
	persistGlobal.GlobalLastBlockFile = 0
	persistGlobal.GlobalBlockSequenceID = 1

	indexMap := make(map[util.Hash]*blockindex.BlockIndex)
	branch := make([]*blockindex.BlockIndex, 0, 20)
	globalChain := chain.GetInstance()
	globalChain.InitLoad(indexMap, branch)
	globalChain.ClearActive()
}
