package block

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcforge/chaincore/util"
)

type BlockHeader struct {
	Version       int32
	HashPrevBlock util.Hash
	MerkleRoot    util.Hash
	Time          uint32
	Bits          uint32
	Nonce         uint32
}

const blockHeaderLength = 16 + util.Hash256Size*2

func NewBlockHeader() *BlockHeader {
	return &BlockHeader{}
}

func (bh *BlockHeader) IsNull() bool {
	return bh.Bits == 0
}

func (bh *BlockHeader) GetBlockTime() int64 {
	return int64(bh.Time)
}

func (bh *BlockHeader) GetHash() util.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderLength))
	bh.Serialize(buf)
	return util.DoubleSha256Hash(buf.Bytes())
}

func (bh *BlockHeader) SetNull() {
	*bh = BlockHeader{}
}

func (bh *BlockHeader) Serialize(w io.Writer) error {
	if err := util.BinarySerializer.PutUint32(w, binary.LittleEndian, uint32(bh.Version)); err != nil {
		return err
	}
	if _, err := bh.HashPrevBlock.Serialize(w); err != nil {
		return err
	}
	if _, err := bh.MerkleRoot.Serialize(w); err != nil {
		return err
	}
	if err := util.BinarySerializer.PutUint32(w, binary.LittleEndian, bh.Time); err != nil {
		return err
	}
	if err := util.BinarySerializer.PutUint32(w, binary.LittleEndian, bh.Bits); err != nil {
		return err
	}
	return util.BinarySerializer.PutUint32(w, binary.LittleEndian, bh.Nonce)
}

func (bh *BlockHeader) Deserialize(r io.Reader) error {
	version, err := util.BinarySerializer.Uint32(r, binary.LittleEndian)
	if err != nil {
		return err
	}
	bh.Version = int32(version)
	if _, err := bh.HashPrevBlock.Unserialize(r); err != nil {
		return err
	}
	if _, err := bh.MerkleRoot.Unserialize(r); err != nil {
		return err
	}
	if bh.Time, err = util.BinarySerializer.Uint32(r, binary.LittleEndian); err != nil {
		return err
	}
	if bh.Bits, err = util.BinarySerializer.Uint32(r, binary.LittleEndian); err != nil {
		return err
	}
	bh.Nonce, err = util.BinarySerializer.Uint32(r, binary.LittleEndian)
	return err
}

func (bh *BlockHeader) String() string {
	blockHash := bh.GetHash()
	return fmt.Sprintf("Block version : %d, hashPrevBlock : %s, hashMerkleRoot : %s,"+
		"Time : %d, Bits : %d, nonce : %d, BlockHash : %s\n", bh.Version, bh.HashPrevBlock.String(),
		bh.MerkleRoot.String(), bh.Time, bh.Bits, bh.Nonce, blockHash.String())
}
