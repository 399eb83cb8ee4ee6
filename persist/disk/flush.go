package disk

import (
	"fmt"
	"os"
	"time"

	"github.com/btcforge/chaincore/conf"
	"github.com/btcforge/chaincore/log"
	"github.com/btcforge/chaincore/model/block"
	"github.com/btcforge/chaincore/model/blockindex"
	"github.com/btcforge/chaincore/model/chain"
	"github.com/btcforge/chaincore/model/mempool"
	"github.com/btcforge/chaincore/model/utxo"
	"github.com/btcforge/chaincore/persist"
	"github.com/btcforge/chaincore/persist/blkdb"
)

// FlushMode selects how aggressively FlushStateToDisk writes out state. It
// mirrors the four-level policy of the original node: cheap writes happen
// often, the expensive coins-cache flush only when the cache is over
// budget, on a timer, or when the caller demands it unconditionally.
type FlushMode int

const (
	FlushStateNone FlushMode = iota
	FlushStateIfNeeded
	FlushStatePeriodic
	FlushStateAlways
)

const (
	databaseWriteInterval = 60 * time.Second
	databaseFlushInterval = 24 * time.Hour
	minBlockCoinsDBUsage  = 10 * 1024 * 1024
	maxBlockCoinsDBUsage  = 200 * 1024 * 1024
)

var lastWrite, lastFlush, lastSetChain time.Time

// FlushStateToDisk finalizes any in-flight block/undo files, batches the
// dirty file-info and block-index entries into a single DB write together
// with the last-block-file pointer, deletes any block files the prune
// policy selected, and finally flushes the tip coins cache to the coins DB.
// manualPruneHeight, when positive, requests pruning up to that height
// regardless of the automatic size target.
func FlushStateToDisk(mode FlushMode, manualPruneHeight int32) error {
	now := time.Now()
	if lastWrite.IsZero() {
		lastWrite = now
	}
	if lastFlush.IsZero() {
		lastFlush = now
	}
	if lastSetChain.IsZero() {
		lastSetChain = now
	}

	var filesToPrune map[int]bool
	fFlushForPrune := false
	if conf.Cfg.Prune.Enable && (manualPruneHeight > 0 || shouldCheckForPruning()) {
		if manualPruneHeight > 0 {
			filesToPrune = findFilesToPruneManual(manualPruneHeight)
		} else {
			filesToPrune = findFilesToPrune(conf.Cfg.Prune.TargetSizeMB * 1024 * 1024)
		}
		if len(filesToPrune) > 0 {
			fFlushForPrune = true
		}
	}

	cacheSize := utxo.GetUtxoCacheInstance().DynamicMemoryUsage()
	mempoolUsage := mempool.GetInstance().DynamicMemoryUsage()
	mempoolSizeMax := int64(conf.Cfg.Mempool.MaxMemPoolSize)
	dbCacheBudget := conf.Cfg.Prune.DBCacheBytes
	if dbCacheBudget <= 0 {
		dbCacheBudget = 450 * 1024 * 1024
	}
	totalSpace := dbCacheBudget + max64(mempoolSizeMax-mempoolUsage, 0)

	fCacheLarge := mode == FlushStatePeriodic && cacheSize > minInt64(
		max64(totalSpace/2, totalSpace-minBlockCoinsDBUsage),
		max64((9*totalSpace)/10, totalSpace-maxBlockCoinsDBUsage))
	fCacheCritical := mode == FlushStateIfNeeded && cacheSize > totalSpace
	fPeriodicWrite := mode == FlushStatePeriodic && now.Sub(lastWrite) > databaseWriteInterval
	fPeriodicFlush := mode == FlushStatePeriodic && now.Sub(lastFlush) > databaseFlushInterval
	fDoFullFlush := mode == FlushStateAlways || fCacheLarge || fCacheCritical || fPeriodicFlush || fFlushForPrune

	if fDoFullFlush || fPeriodicWrite {
		fileInfo := make(map[int32]*block.BlockFileInfo, len(GlobalSetDirtyFileInfo))
		for fileNum := range GlobalSetDirtyFileInfo {
			fileInfo[int32(fileNum)] = GlobalBlockFileInfoMap[fileNum]
			delete(GlobalSetDirtyFileInfo, fileNum)
		}

		gPersist := persist.GetInstance()
		blockIndexes := make([]*blockindex.BlockIndex, 0, len(gPersist.GlobalDirtyBlockIndex))
		for hash, bIndex := range gPersist.GlobalDirtyBlockIndex {
			blockIndexes = append(blockIndexes, bIndex)
			delete(gPersist.GlobalDirtyBlockIndex, hash)
		}

		if err := blkdb.GetInstance().WriteBatchSync(fileInfo, GlobalLastBlockFile, blockIndexes); err != nil {
			return fmt.Errorf("flush: failed to write block index database: %w", err)
		}

		if fFlushForPrune {
			unlinkPrunedFiles(filesToPrune)
		}
		lastWrite = now
	}

	if fDoFullFlush {
		if !utxo.GetUtxoCacheInstance().Flush() {
			return fmt.Errorf("flush: failed to write coin database")
		}
		lastFlush = now
	}

	if fDoFullFlush || ((mode == FlushStateAlways || mode == FlushStatePeriodic) &&
		now.Sub(lastSetChain) > databaseWriteInterval) {
		lastSetChain = now
	}

	return nil
}

func shouldCheckForPruning() bool {
	tip := chain.GetInstance().Tip()
	return tip != nil && conf.Cfg.Prune.TargetSizeMB > 0
}

// findFilesToPruneManual selects every complete block file whose highest
// block height falls below both the requested height and the
// MinBlocksKeep cushion under the tip.
func findFilesToPruneManual(manualPruneHeight int32) map[int]bool {
	tip := chain.GetInstance().Tip()
	if tip == nil {
		return nil
	}
	lastBlockWeCanPrune := manualPruneHeight
	if cushion := int32(tip.Height) - conf.Cfg.Prune.MinBlocksKeep; cushion < lastBlockWeCanPrune {
		lastBlockWeCanPrune = cushion
	}
	return pruneFilesBelow(lastBlockWeCanPrune)
}

// findFilesToPrune selects complete block files below the automatic size
// target, never touching anything within MinBlocksKeep of the tip.
func findFilesToPrune(targetBytes uint64) map[int]bool {
	tip := chain.GetInstance().Tip()
	if tip == nil || targetBytes == 0 {
		return nil
	}
	lastBlockWeCanPrune := int32(tip.Height) - conf.Cfg.Prune.MinBlocksKeep
	currentUsage := calculateCurrentUsage()
	buffer := uint64(BlockFileChunkSize + UndoFileChunkSize)
	if currentUsage+buffer < targetBytes {
		return nil
	}

	pruned := make(map[int]bool)
	for fileNumber := 0; fileNumber < GlobalLastBlockFile; fileNumber++ {
		info := GlobalBlockFileInfoMap[fileNumber]
		if info == nil || info.Size == 0 {
			continue
		}
		if currentUsage+buffer < targetBytes {
			break
		}
		if int32(info.HeightLast) > lastBlockWeCanPrune {
			continue
		}
		pruneOneBlockFile(fileNumber)
		pruned[fileNumber] = true
		currentUsage -= uint64(info.Size) + uint64(info.UndoSize)
	}
	return pruned
}

func pruneFilesBelow(lastBlockWeCanPrune int32) map[int]bool {
	pruned := make(map[int]bool)
	for fileNumber := 0; fileNumber < GlobalLastBlockFile; fileNumber++ {
		info := GlobalBlockFileInfoMap[fileNumber]
		if info == nil || info.Size == 0 || int32(info.HeightLast) > lastBlockWeCanPrune {
			continue
		}
		pruneOneBlockFile(fileNumber)
		pruned[fileNumber] = true
	}
	return pruned
}

func calculateCurrentUsage() uint64 {
	var total uint64
	for _, info := range GlobalBlockFileInfoMap {
		total += uint64(info.Size) + uint64(info.UndoSize)
	}
	return total
}

// pruneOneBlockFile marks every indexed node stored in fileNumber as
// missing data, drops them from the unlinked-blocks map, and zeroes the
// file's bookkeeping entry so the next flush deletes it on disk.
func pruneOneBlockFile(fileNumber int) {
	gPersist := persist.GetInstance()
	for _, bIndex := range GlobalBlockIndexMap {
		if bIndex.File != fileNumber {
			continue
		}
		bIndex.MarkPruned()
		gPersist.AddDirtyBlockIndex(bIndex)

		for prev, child := range GlobalBlocksUnlinkedMap {
			if child == bIndex {
				delete(GlobalBlocksUnlinkedMap, prev)
			}
		}
	}

	GlobalBlockFileInfoMap[fileNumber] = block.NewBlockFileInfo()
	GlobalSetDirtyFileInfo[fileNumber] = true
}

func unlinkPrunedFiles(filesToPrune map[int]bool) {
	for fileNumber := range filesToPrune {
		pos := block.DiskBlockPos{File: int32(fileNumber), Pos: 0}
		blkPath := GetBlockPosFilename(pos, "blk")
		revPath := GetBlockPosFilename(pos, "rev")
		if err := os.Remove(blkPath); err != nil && !os.IsNotExist(err) {
			log.Error("disk: failed to unlink pruned block file %s: %v", blkPath, err)
		}
		if err := os.Remove(revPath); err != nil && !os.IsNotExist(err) {
			log.Error("disk: failed to unlink pruned undo file %s: %v", revPath, err)
		}
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
