package lscript

import (
	"bytes"

	"github.com/btcforge/chaincore/errcode"
	"github.com/btcforge/chaincore/model/opcodes"
	"github.com/btcforge/chaincore/model/script"
	"github.com/btcforge/chaincore/model/tx"
	"github.com/btcforge/chaincore/util"
	"github.com/btcforge/chaincore/util/amount"
)

// Checker abstracts the per-input signature and lock-time checks used while
// verifying a scriptSig against a scriptPubKey. Swapping the Checker changes
// how those checks are carried out without touching the template-matching
// logic in VerifyScript.
type Checker interface {
	CheckSig(transaction *tx.Tx, signature []byte, pubKey []byte, scriptCode *script.Script,
		nIn int, money amount.Amount, flags uint32) (bool, error)
	CheckLockTime(lockTime int64, txLockTime int64, sequence uint32) bool
	CheckSequence(sequence int64, txToSequence int64, txVersion uint32) bool
}

// VerifyScript checks that scriptSig satisfies scriptPubKey for input nIn of
// transaction. It resolves the standard script templates (bare pubkey,
// P2PKH, bare multisig, and P2SH wrapping any of those); anything outside
// those templates is rejected rather than interpreted as general script.
func VerifyScript(transaction *tx.Tx, scriptSig *script.Script, scriptPubKey *script.Script, nIn int,
	money amount.Amount, flags uint32, checker Checker) error {
	if flags&script.ScriptVerifySigPushOnly != 0 && !scriptSig.IsPushOnly() {
		return errcode.New(errcode.ScriptErrSigPushOnly)
	}
	pushes, err := pushedData(scriptSig.ParsedOpCodes)
	if err != nil {
		return err
	}
	return verifyTemplate(transaction, pushes, scriptPubKey, nIn, money, flags, checker)
}

func pushedData(ops []opcodes.ParsedOpCode) ([][]byte, error) {
	out := make([][]byte, 0, len(ops))
	for _, op := range ops {
		if op.OpValue > opcodes.OP_16 {
			return nil, errcode.New(errcode.ScriptErrSigPushOnly)
		}
		out = append(out, op.Data)
	}
	return out, nil
}

func verifyTemplate(transaction *tx.Tx, pushes [][]byte, scriptPubKey *script.Script, nIn int,
	money amount.Amount, flags uint32, checker Checker) error {
	pubKeyType, pubKeys, isStandard := scriptPubKey.IsStandardScriptPubKey()
	if !isStandard {
		return errcode.New(errcode.ScriptErrInvalidOpCode)
	}

	switch pubKeyType {
	case script.ScriptPubkey:
		if len(pushes) != 1 {
			return errcode.New(errcode.ScriptErrInvalidStackOperation)
		}
		return checkOneSig(transaction, pushes[0], pubKeys[0], scriptPubKey, nIn, money, flags, checker)

	case script.ScriptPubkeyHash:
		if len(pushes) != 2 {
			return errcode.New(errcode.ScriptErrInvalidStackOperation)
		}
		if !bytes.Equal(util.Hash160(pushes[1]), pubKeys[0]) {
			return errcode.New(errcode.ScriptErrEqualVerify)
		}
		return checkOneSig(transaction, pushes[0], pushes[1], scriptPubKey, nIn, money, flags, checker)

	case script.ScriptMultiSig:
		return checkMultiSig(transaction, pushes, pubKeys, scriptPubKey, nIn, money, flags, checker)

	case script.ScriptHash:
		if len(pushes) < 1 {
			return errcode.New(errcode.ScriptErrInvalidStackOperation)
		}
		redeemBytes := pushes[len(pushes)-1]
		if !bytes.Equal(util.Hash160(redeemBytes), pubKeys[0]) {
			return errcode.New(errcode.ScriptErrEqualVerify)
		}
		redeemScript := script.NewScriptRaw(redeemBytes)
		return verifyTemplate(transaction, pushes[:len(pushes)-1], redeemScript, nIn, money, flags, checker)

	default:
		return errcode.New(errcode.ScriptErrInvalidOpCode)
	}
}

func checkOneSig(transaction *tx.Tx, sig []byte, pubKey []byte, scriptCode *script.Script, nIn int,
	money amount.Amount, flags uint32, checker Checker) error {
	ok, err := checker.CheckSig(transaction, sig, pubKey, scriptCode, nIn, money, flags)
	if err != nil {
		return err
	}
	if !ok {
		return errcode.New(errcode.ScriptErrCheckSigVerify)
	}
	return nil
}

// checkMultiSig walks the provided signatures against the redeem's ordered
// public keys, honoring the historical CHECKMULTISIG off-by-one that
// consumes an extra leading stack element.
func checkMultiSig(transaction *tx.Tx, pushes [][]byte, pubKeys [][]byte, scriptCode *script.Script, nIn int,
	money amount.Amount, flags uint32, checker Checker) error {
	if len(pushes) < 1 {
		return errcode.New(errcode.ScriptErrInvalidStackOperation)
	}
	sigs := pushes[1:]
	required := int(pubKeys[0][0])
	keys := pubKeys[1 : len(pubKeys)-1]

	if len(sigs) < required {
		return errcode.New(errcode.ScriptErrInvalidStackOperation)
	}

	keyIndex := 0
	for _, sig := range sigs {
		if len(sig) == 0 {
			continue
		}
		matched := false
		for keyIndex < len(keys) {
			ok, err := checker.CheckSig(transaction, sig, keys[keyIndex], scriptCode, nIn, money, flags)
			keyIndex++
			if err != nil {
				return err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return errcode.New(errcode.ScriptErrCheckMultiSigVerify)
		}
	}
	return nil
}
