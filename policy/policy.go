// Package policy holds the standardness rules that gate relay and mining
// admission, distinct from the consensus rules that gate block validity.
// Transactions failing these checks are still consensus-valid and may
// appear in blocks; the mempool and miner just decline to build on them.
package policy

import (
	"github.com/btcforge/chaincore/model/consensus"
	"github.com/btcforge/chaincore/model/script"
	"github.com/btcforge/chaincore/model/tx"
	"github.com/btcforge/chaincore/model/utxo"
)

const (
	/*MaxTxSigOpsCount allowed number of signature check operations per transaction. */
	MaxTxSigOpsCount uint64 = 20000
	/*OneMegaByte 1MB */
	OneMegaByte uint64 = 1000000

	/*DefaultMaxGeneratedBlockSize default for -blockMaxsize, which controls the maximum size of block the
	 * mining code will create **/
	DefaultMaxGeneratedBlockSize uint64 = 2 * OneMegaByte

	DefaultMaxBlockSize = 8 * OneMegaByte

	/*DefaultBlockPrioritySize default for -blockPrioritySize, maximum space for zero/low-fee transactions*/
	DefaultBlockPrioritySize uint64 = 0

	/*DefaultBlockMinTxFee default for -blockMinTxFee, which sets the minimum feeRate for a transaction
	 * in blocks created by mining code **/
	DefaultBlockMinTxFee uint = 1000

	/*MaxP2SHSigOps maximum number of signature check operations in an IsStandard() P2SH script*/
	MaxP2SHSigOps uint = 15

	/*MaxStandardTxSigOps the maximum number of sigops we're willing to relay/mine in a single tx */
	MaxStandardTxSigOps = uint(MaxTxSigOpsCount / 5)

	/*DefaultMaxMemPoolSize default for -maxMemPool, maximum megabytes of memPool memory usage */
	DefaultMaxMemPoolSize uint = 300

	/*MaxStandardP2WSHStackItems the maximum number of witness stack items in a standard P2WSH script */
	MaxStandardP2WSHStackItems uint = 100

	/*MaxStandardP2WSHStackItemSize the maximum size of each witness stack item in a standard P2WSH script */
	MaxStandardP2WSHStackItemSize uint = 80

	/*MaxStandardP2WSHScriptSize the maximum size of a standard witnessScript */
	MaxStandardP2WSHScriptSize uint = 3600

	/*MandatoryScriptVerifyFlags mandatory script verification flags that all new blocks must comply with for
	 * them to be valid. (but old blocks may not comply with) Currently just P2SH,
	 * but in the future other flags may be added, such as a soft-fork to enforce
	 * strict DER encoding.
	 *
	 * Failing one of these tests may trigger a DoS ban - see CheckInputs() for
	 * details.
	 */
	MandatoryScriptVerifyFlags = script.MandatoryScriptVerifyFlags

	/*StandardScriptVerifyFlags standard script verification flags that standard transactions will comply
	 * with. However scripts violating these flags may still be present in valid
	 * blocks and we must accept those blocks.
	 */
	StandardScriptVerifyFlags = script.StandardScriptVerifyFlags

	/*StandardNotMandatoryVerifyFlags for convenience, standard but not mandatory verify flags. */
	StandardNotMandatoryVerifyFlags = script.StandardNotMandatoryVerifyFlags

	/*StandardLockTimeVerifyFlags used as the flags parameter to sequence and LockTime checks in
	 * non-core code. */
	StandardLockTimeVerifyFlags uint = consensus.LocktimeVerifySequence | consensus.LocktimeMedianTimePast
)

// IsStandardTx checks whether tx uses only standard transaction forms; the
// actual per-field rules live on the transaction and output types
// themselves so mempool admission and this package agree on one answer.
func IsStandardTx(t *tx.Tx) (bool, string) {
	return t.IsStandard()
}

// AreInputsStandard checks a transaction's inputs against the coins they
// spend to mitigate two denial-of-service angles: scriptSigs stuffed with
// data the scriptPubKey never consumes, and P2SH redeem scripts with an
// excessive number of expensive CHECKSIG/CHECKMULTISIG operations.
func AreInputsStandard(t *tx.Tx, cache utxo.CacheView) bool {
	if t.IsCoinBase() {
		return true
	}

	for _, vin := range t.GetIns() {
		coin := cache.GetCoin(vin.PreviousOutPoint)
		if coin == nil {
			return false
		}
		prevScriptPubKey := coin.GetScriptPubKey()

		_, _, isStandard := prevScriptPubKey.IsStandardScriptPubKey()
		if !isStandard {
			return false
		}

		if prevScriptPubKey.IsPayToScriptHash() {
			if uint(vin.GetScriptSig().GetP2SHSigOpCount()) > MaxP2SHSigOps {
				return false
			}
		}
	}
	return true
}
