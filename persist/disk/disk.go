package disk

import (
	"github.com/btcforge/chaincore/model/block"
	"github.com/btcforge/chaincore/conf"

	"io"
	"os"
	blogs "github.com/astaxie/beego/logs"
	"github.com/btcforge/chaincore/log"

	"fmt"
	"github.com/btcforge/chaincore/model/chainparams"
	"github.com/btcforge/chaincore/model/pow"
	"github.com/btcforge/chaincore/model/blockindex"
	"bytes"
)

func OpenBlockFile(pos *block.DiskBlockPos, fReadOnly bool) *os.File {
	return OpenDiskFile(*pos, "blk", fReadOnly)
}

func OpenUndoFile(pos block.DiskBlockPos, fReadOnly bool) *os.File {
	return OpenDiskFile(pos, "rev", fReadOnly)
}

func OpenDiskFile(pos block.DiskBlockPos, prefix string, fReadOnly bool) *os.File {
	if pos.IsNull() {
		return nil
	}
	path := GetBlockPosFilename(pos, prefix)
	os.MkdirAll(GetBlockPosParentFilename(), os.ModePerm)

	flags := os.O_RDWR | os.O_CREATE
	if fReadOnly {
		flags = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		blogs.Info("Unable to open file %s: %v\n", path, err)
		return nil
	}
	if pos.Pos > 0 {
		if _, err := file.Seek(int64(pos.Pos), 0); err != nil {
			blogs.Info("Unable to seek to position %d of %s\n", pos.Pos, path)
			file.Close()
			return nil
		}
	}

	return file
}

// WriteBlockToDisk appends blk to the block file pos points at and
// records the byte offset it was written at back into pos.
func WriteBlockToDisk(blk *block.Block, pos *block.DiskBlockPos) bool {
	file := OpenBlockFile(pos, false)
	if file == nil {
		blogs.Error("WriteBlockToDisk: OpenBlockFile failed")
		return false
	}
	defer file.Close()

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		blogs.Error("WriteBlockToDisk: seek failed: %v", err)
		return false
	}
	pos.Pos = uint32(offset)

	if err := blk.Serialize(file); err != nil {
		blogs.Error("WriteBlockToDisk: Serialize failed: %v", err)
		return false
	}
	return true
}

func GetBlockPosFilename(pos block.DiskBlockPos, prefix string) string {
	return conf.GetDataPath() + "/blocks/" + fmt.Sprintf("%s%05d.dat", prefix, pos.File)
}

func GetBlockPosParentFilename() string {
	return conf.GetDataPath() + "/blocks/"
}


func ReadBlockFromDiskByPos(pos block.DiskBlockPos, param *chainparams.BitcoinParams) (*block.Block,bool) {
	// Open history file to read
	file := OpenBlockFile(&pos, true)
	if file == nil {
		blogs.Error("ReadBlockFromDisk: OpenBlockFile failed for %s", pos.ToString())
		return nil, false
	}
	defer file.Close()

	// Read block
	blk := block.NewBlock()
	if err := blk.Unserialize(file); err != nil {
		blogs.Error("%s: Deserialize or I/O error - %s at %s", log.TraceLog(), err.Error(), pos.ToString())
		return nil, false
	}

	// Check the header
	pow := pow.Pow{}
	blkHash := blk.GetHash()
	if !pow.CheckProofOfWork(&blkHash, blk.Header.Bits, param) {
		blogs.Error(fmt.Sprintf("ReadBlockFromDisk: Errors in block header at %s", pos.ToString()))
		return nil, false
	}
	return blk, true
}


func ReadBlockFromDisk(pindex *blockindex.BlockIndex, param *chainparams.BitcoinParams) (*block.Block, bool) {
	blk, ret := ReadBlockFromDiskByPos(pindex.GetBlockPos(), param)
	if !ret{
		return nil, false
	}
	hash := pindex.GetBlockHash()
	pos := pindex.GetBlockPos()
	blkHash := blk.GetHash()
	if !bytes.Equal(blkHash[:], hash[:]) {
		blogs.Error(fmt.Sprintf("ReadBlockFromDisk(CBlock&, CBlockIndex*): GetHash()"+
			"doesn't match index for %s at %s", pindex.ToString(), pos.ToString()))
		return blk, false
	}
	return blk, true
}