package block

import (
	"io"
	"unsafe"
	"github.com/btcforge/chaincore/model/tx"
	"github.com/btcforge/chaincore/util"
)

type Block struct {
	Header BlockHeader
	Txs    []*tx.Tx
	// Checked records whether CheckBlock has already run and passed for
	// this block, so a block seen twice (e.g. once as part of a peer's
	// headers-first download and again during connect) isn't re-verified.
	Checked bool
}

func (bl *Block) GetBlockHeader() BlockHeader {
	return bl.Header
}

func (bl *Block) SetNull() {
	bl.Header.SetNull()
	bl.Txs = nil
}

func (bl *Block) Serialize(w io.Writer) error {
	if err := bl.Header.Serialize(w); err != nil {
		return err
	}
	if err := util.WriteVarInt(w, uint64(len(bl.Txs))); err != nil {
		return err
	}
	for _, Tx := range bl.Txs {
		if err := Tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

func (bl *Block) Unserialize(r io.Reader) error {

	if err := bl.Header.Deserialize(r); err != nil {
		return err
	}
	count, err := util.ReadVarInt(r)
	if err != nil {
		return err
	}
	bl.Txs = nil
	for i := uint64(0); i < count; i++ {
		txn := tx.NewEmptyTx()
		if err := txn.Unserialize(r); err != nil {
			return err
		}
		bl.Txs = append(bl.Txs, txn)
	}
	return nil
}

func (bl *Block) SerializeSize() uint {
	size := uint(unsafe.Sizeof(BlockHeader{}))
	for _, Tx := range bl.Txs {
		size += uint(Tx.SerializeSize())
	}
	return size
}

func NewBlock() *Block {
	return &Block{}
}