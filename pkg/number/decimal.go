package number

import (
	"github.com/shopspring/decimal"
)

// MathPrecision is the scale rate math is carried at before amounts
// are truncated down to amount precision.
const MathPrecision = 16

// AmountPrecision is the scale of asset amounts and share units.
const AmountPrecision = 8

var (
	Zero = decimal.Zero
	One  = decimal.New(1, 0)

	bpsBase  = decimal.New(10000, 0)
	daysBase = decimal.New(365, 0)
)

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

// DivFloor divides a by b truncating the result toward zero at the
// given scale. decimal.Div rounds half away from zero, so the quotient
// is computed with extra digits first and then truncated.
func DivFloor(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.DivRound(b, scale+2).Truncate(scale)
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

func Floor(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Truncate(precision)
}

// FromBps converts an integer basis-point rate to its decimal ratio.
func FromBps(bps int64) decimal.Decimal {
	return DivFloor(decimal.New(bps, 0), bpsBase, MathPrecision)
}

// PeriodicRate derives the per-period rate from a basis-point APR.
func PeriodicRate(aprBps int64, periodsPerYear int64) decimal.Decimal {
	return DivFloor(FromBps(aprBps), decimal.New(periodsPerYear, 0), MathPrecision)
}

// DailyRate derives the simple apr/365 day rate from a basis-point APR.
func DailyRate(aprBps int64) decimal.Decimal {
	return DivFloor(FromBps(aprBps), daysBase, MathPrecision)
}
