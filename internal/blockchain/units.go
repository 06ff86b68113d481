package blockchain

import "github.com/shopspring/decimal"

// SunPerTRX is the number of Sun (the smallest TRON unit) in one TRX.
const SunPerTRX = 1_000_000

var sunPerTRXDec = decimal.NewFromInt(SunPerTRX)

// ToSun converts a TRX amount to Sun, truncating sub-Sun precision.
func ToSun(trx decimal.Decimal) int64 {
	return trx.Mul(sunPerTRXDec).IntPart()
}

// FromSun converts a Sun amount to TRX.
func FromSun(sun int64) decimal.Decimal {
	return decimal.NewFromInt(sun).Div(sunPerTRXDec)
}
