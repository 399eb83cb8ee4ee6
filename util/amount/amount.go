// Package amount holds the satoshi-denominated value type shared by the
// transaction and UTXO models.
package amount

// Amount is a quantity of satoshis. 1 COIN == 100,000,000 satoshis.
type Amount int64

const (
	// COIN is the number of satoshis in one full coin.
	COIN Amount = 100000000
	// CENT is the number of satoshis in one hundredth of a coin.
	CENT Amount = 1000000
	// MaxMoney is the maximum number of satoshis that can ever exist.
	MaxMoney Amount = 21000000 * COIN
	// CurrencyUnit names the base currency, used in string formatting.
	CurrencyUnit = "BTC"
)

// MoneyRange reports whether v is a value a valid output/input may carry.
func MoneyRange(v Amount) bool {
	return v >= 0 && v <= MaxMoney
}

// ToBTC converts the amount to full coins.
func (a Amount) ToBTC() float64 {
	return float64(a) / float64(COIN)
}
