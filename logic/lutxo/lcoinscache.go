package lutxo

import (
	"github.com/btcforge/chaincore/model/outpoint"
	"github.com/btcforge/chaincore/model/utxo"
	"github.com/btcforge/chaincore/util"
)

// maxOutIndexScan bounds the brute-force output-index scan AccessByTxid
// falls back to; real transactions never come close to this many outputs.
const maxOutIndexScan = 11000

// AccessByTxid finds any still-unspent coin created by the transaction with
// the given hash, trying output indexes in order until it finds one that
// hasn't been spent. Most transactions have very few outputs, so this is
// cheap in practice despite not knowing the index up front.
func AccessByTxid(cache utxo.CacheView, hash *util.Hash) *utxo.Coin {
	out := outpoint.NewOutPoint(*hash, 0)
	for out.Index < maxOutIndexScan {
		coin := cache.GetCoin(out)
		if coin != nil && !coin.IsSpent() {
			return coin
		}
		out.Index++
	}
	return nil
}
