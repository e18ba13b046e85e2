package amortize

import (
	"time"

	"github.com/shopspring/decimal"

	"termpool/pkg/number"
)

// CompoundFactor computes (1+r)^n iteratively one period at a time,
// truncating after each multiplication. The loop must stay iterative:
// a closed-form power would round differently and drift from the
// reference schedule.
func CompoundFactor(rate decimal.Decimal, periods int64) decimal.Decimal {
	onePlus := number.One.Add(rate)
	factor := number.One
	for i := int64(0); i < periods; i++ {
		factor = factor.Mul(onePlus).Truncate(number.MathPrecision)
	}

	return factor
}

// FixedPayment standard amortization payment
// payment = principal * r * (1+r)^n / ((1+r)^n - 1)
// and straight-line principal/n when the rate is zero.
func FixedPayment(principal, rate decimal.Decimal, periods int64) decimal.Decimal {
	if periods <= 0 {
		return decimal.Zero
	}

	if rate.IsZero() {
		return number.DivFloor(principal, decimal.New(periods, 0), number.AmountPrecision)
	}

	factor := CompoundFactor(rate, periods)
	numerator := principal.Mul(rate).Mul(factor)
	denominator := factor.Sub(number.One)

	return number.DivFloor(numerator, denominator, number.AmountPrecision)
}

// InterestPortion simple interest on the outstanding balance for one
// period, not compounding within the period.
func InterestPortion(remaining, rate decimal.Decimal) decimal.Decimal {
	return remaining.Mul(rate).Truncate(number.AmountPrecision)
}

// Split resolves one scheduled payment into total, interest and
// principal. The final payment is recomputed as exactly remaining plus
// interest so residual rounding dust from the fixed payment never
// survives the schedule.
func Split(remaining, fixedPayment, rate decimal.Decimal, final bool) (payment, interest, principal decimal.Decimal) {
	interest = InterestPortion(remaining, rate)
	if final {
		principal = remaining
		payment = remaining.Add(interest)
		return
	}

	payment = fixedPayment
	principal = payment.Sub(interest)
	return
}

// AccruedInterest simple apr/365 day-rate interest for early
// settlement; whole days only.
func AccruedInterest(remaining decimal.Decimal, aprBps int64, elapsedDays int64) decimal.Decimal {
	if elapsedDays <= 0 || remaining.Sign() <= 0 {
		return decimal.Zero
	}

	daily := number.DailyRate(aprBps)
	return remaining.Mul(daily).Mul(decimal.New(elapsedDays, 0)).Truncate(number.AmountPrecision)
}

// ElapsedDays whole days from boundary to now, never negative.
func ElapsedDays(boundary, now time.Time) int64 {
	if !now.After(boundary) {
		return 0
	}

	return int64(now.Sub(boundary) / (24 * time.Hour))
}

// BurnAmount proportional debt-unit burn for a principal repayment,
// measured against the balance before the payment applied.
func BurnAmount(debtBalance, principalPaid, remainingBefore decimal.Decimal) decimal.Decimal {
	if remainingBefore.Sign() <= 0 {
		return decimal.Zero
	}

	return number.DivFloor(debtBalance.Mul(principalPaid), remainingBefore, number.AmountPrecision)
}
