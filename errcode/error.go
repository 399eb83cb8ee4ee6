package errcode

import (
	"fmt"
)

const (
	MempoolErrorBase = iota * 1000
	ScriptErrorBase
	TxErrorBase
	TxOutErrorBase
	ChainErrorBase
	BlockErrorBase
	BlockIndexErrorBase
	CoinErrorBase
	MessageErrorBase
	RpcErrorBase
	NetErrorBase
	PeerErrorBase
	ServiceErrorBase
	PersistErrorBase
	CryptoErrorBase
	ConsensusErrorBase
	DiskErrorBase
)

const errDescFmt string = "module: [%s], inner err desc: [%s]"

type ProjectError struct {
	Module string
	Code   int
	Desc   string
}

func (e ProjectError) Error() string {
	return fmt.Sprintf("module: %s, global errcode: %v,  desc: %s", e.Module, e.Code, e.Desc)
}

func getCodeAndName(errCode fmt.Stringer) (int, string) {
	code := 0
	name := ""

	switch t := errCode.(type) {
	case MemPoolErr:
		code = int(t)
		name = "mempool"
	case ChainErr:
		code = int(t)
		name = "chain"
	case DiskErr:
		code = int(t)
		name = "disk"
	case ScriptErr:
		code = int(t)
		name = "script"
	case TxErr:
		code = int(t)
		name = "transaction"
	case TxOutErr:
		code = int(t)
		name = "transaction"
	case RejectCode:
		code = int(t)
		name = "reject"
	default:
	}

	return code, name
}

func IsErrorCode(err error, errCode fmt.Stringer) bool {
	e, ok := err.(ProjectError)
	icode, _ := getCodeAndName(errCode)
	return ok && icode == e.Code
}

func New(errCode fmt.Stringer) error {
	code, name := getCodeAndName(errCode)

	return ProjectError{
		Module: name,
		Code:   code,
		Desc:   errCode.String(),
	}
}

// NewError builds a ProjectError carrying errCode's numeric code together
// with a caller-supplied reason, used where the machine-readable BIP-0061
// reject reason (e.g. "bad-txns-nonfinal") is more useful than errCode's own
// generic description.
func NewError(errCode fmt.Stringer, reason string) error {
	code, name := getCodeAndName(errCode)

	return ProjectError{
		Module: name,
		Code:   code,
		Desc:   reason,
	}
}

// MakeError is NewError with a formatted reason.
func MakeError(errCode fmt.Stringer, format string, args ...interface{}) error {
	return NewError(errCode, fmt.Sprintf(format, args...))
}

// IsRejectCode reports whether err was built from a RejectCode (via New or
// NewError) and, if so, returns the code and the reason string alongside it.
func IsRejectCode(err error) (RejectCode, string, bool) {
	e, ok := err.(ProjectError)
	if !ok || e.Module != "reject" {
		return 0, "", false
	}
	return RejectCode(e.Code), e.Desc, true
}
