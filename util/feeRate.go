package util

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/btcforge/chaincore/util/amount"
)

// COIN is the number of satoshis in one full coin, kept here alongside
// FeeRate for callers that only need the raw constant.
const COIN = int64(amount.COIN)

// FeeRate is a fee expressed in satoshis per kilobyte.
type FeeRate struct {
	SataoshisPerK int64
}

// NewFeeRate builds a FeeRate directly from a satoshis-per-kilobyte value.
func NewFeeRate(satoshisPerK int64) *FeeRate {
	return &FeeRate{SataoshisPerK: satoshisPerK}
}

// NewFeeRateWithSize derives a FeeRate from a fee paid for a given size.
func NewFeeRateWithSize(feePaid int64, bytes int64) *FeeRate {
	if bytes > math.MaxInt64 {
		panic("bytes is greater than MaxInt64")
	}
	if bytes > 0 {
		return NewFeeRate(feePaid * 1000 / bytes)
	}
	return NewFeeRate(0)
}

// GetFee returns the fee in satoshis for the given size in bytes.
func (feeRate *FeeRate) GetFee(bytes int) int64 {
	if bytes > math.MaxInt64 {
		panic("bytes is greater than MaxInt64")
	}
	size := int64(bytes)
	fee := feeRate.SataoshisPerK * size / 1000
	if fee == 0 && size != 0 {
		if feeRate.SataoshisPerK > 0 {
			fee = 1
		}
		if feeRate.SataoshisPerK < 0 {
			fee = -1
		}
	}
	return fee
}

// GetFeePerK returns the fee in satoshis for a size of 1000 bytes.
func (feeRate *FeeRate) GetFeePerK() int64 {
	return feeRate.GetFee(1000)
}

func (feeRate *FeeRate) String() string {
	return fmt.Sprintf("%d.%08d %s/kb",
		feeRate.SataoshisPerK/int64(amount.COIN),
		feeRate.SataoshisPerK%int64(amount.COIN),
		amount.CurrencyUnit)
}

// Less reports whether feeRate is strictly cheaper than b.
func (feeRate *FeeRate) Less(b FeeRate) bool {
	return feeRate.SataoshisPerK < b.SataoshisPerK
}

// SerializeSize returns the wire size of a FeeRate.
func (feeRate *FeeRate) SerializeSize() int {
	return 8
}

// Serialize writes the FeeRate as a little-endian int64.
func (feeRate *FeeRate) Serialize(writer io.Writer) error {
	return binary.Write(writer, binary.LittleEndian, feeRate.SataoshisPerK)
}

// Unserialize reads a FeeRate written by Serialize.
func Unserialize(reader io.Reader) (*FeeRate, error) {
	feeRate := new(FeeRate)
	var sataoshisPerK int64
	if err := binary.Read(reader, binary.LittleEndian, &sataoshisPerK); err != nil {
		return feeRate, err
	}
	feeRate.SataoshisPerK = sataoshisPerK
	return feeRate, nil
}
