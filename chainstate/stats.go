// Package chainstate exposes maintenance operations over the on-disk chain
// state: UTXO-set statistics and block-file reindexing.
package chainstate

import (
	"github.com/btcforge/chaincore/logic/lchain"
	"github.com/btcforge/chaincore/model/utxo"
)

// UTXOStats reports aggregate statistics about the current UTXO set.
type UTXOStats = lchain.UTXOStats

// CollectUTXOStats walks the coins database backing cdb and reports the
// current best block, its height, and a hash over the raw coin records. The
// transaction-output count and total amount are not computed.
func CollectUTXOStats(cdb utxo.CoinsDB) (*UTXOStats, error) {
	return lchain.GetUTXOStats(cdb)
}
