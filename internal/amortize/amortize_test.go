package amortize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termpool/pkg/number"
)

func TestCompoundFactor(t *testing.T) {
	// 1.01^2 stays within 16 digits, no truncation kicks in
	factor := CompoundFactor(number.Decimal("0.01"), 2)
	assert.Equal(t, "1.0201", factor.String())

	assert.Equal(t, "1", CompoundFactor(decimal.Zero, 12).String())
}

func TestFixedPaymentZeroRate(t *testing.T) {
	payment := FixedPayment(number.Decimal("1200"), decimal.Zero, 12)
	assert.Equal(t, "100", payment.String())
}

func TestFixedPaymentTwoPeriods(t *testing.T) {
	// 1000 at 1% per period over 2 periods:
	// payment = 1000*0.01*1.0201/0.0201 = 507.51243781 (floored)
	rate := number.Decimal("0.01")
	payment := FixedPayment(number.Decimal("1000"), rate, 2)
	require.Equal(t, "507.51243781", payment.String())

	remaining := number.Decimal("1000")

	_, interest, principal := Split(remaining, payment, rate, false)
	assert.Equal(t, "10", interest.String())
	assert.Equal(t, "497.51243781", principal.String())
	remaining = remaining.Sub(principal)
	require.Equal(t, "502.48756219", remaining.String())

	total, interest, principal := Split(remaining, payment, rate, true)
	assert.Equal(t, "5.02487562", interest.String())
	assert.Equal(t, remaining.String(), principal.String())
	assert.Equal(t, "507.51243781", total.String())
	assert.True(t, remaining.Sub(principal).IsZero())
}

func TestAmortizationSchedule(t *testing.T) {
	// 10000 at 800 bp over 12 monthly periods. The generic fixed
	// payment applied every period must walk remaining principal down
	// to zero up to truncation dust, and the recomputed final payment
	// must clear it exactly.
	principal := number.Decimal("10000")
	rate := number.PeriodicRate(800, 12)
	payment := FixedPayment(principal, rate, 12)

	assert.Equal(t, "869.88", payment.Round(2).String())

	remaining := principal
	for i := 0; i < 12; i++ {
		interest := InterestPortion(remaining, rate)
		remaining = remaining.Sub(payment.Sub(interest))
	}
	assert.True(t, remaining.Abs().LessThan(number.Decimal("0.000001")),
		"leftover %s should be truncation dust", remaining)

	// replay with the final period recomputed
	remaining = principal
	for i := 0; i < 12; i++ {
		final := i == 11
		total, interest, principalPaid := Split(remaining, payment, rate, final)
		if final {
			assert.Equal(t, remaining.Add(interest).String(), total.String())
		}
		remaining = remaining.Sub(principalPaid)
	}
	assert.True(t, remaining.IsZero(), "remaining %s should be exactly zero", remaining)
}

func TestAccruedInterest(t *testing.T) {
	remaining := number.Decimal("10000")

	assert.True(t, AccruedInterest(remaining, 800, 0).IsZero())

	// 365 bp makes the day rate exactly 0.0001
	assert.Equal(t, "30", AccruedInterest(remaining, 365, 30).String())
}

func TestElapsedDays(t *testing.T) {
	boundary := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), ElapsedDays(boundary, boundary))
	assert.Equal(t, int64(0), ElapsedDays(boundary, boundary.Add(23*time.Hour)))
	assert.Equal(t, int64(1), ElapsedDays(boundary, boundary.Add(36*time.Hour)))
	assert.Equal(t, int64(0), ElapsedDays(boundary, boundary.Add(-time.Hour)))
}

func TestBurnAmount(t *testing.T) {
	// with debt units 1:1 to remaining principal the burn equals the
	// principal retired
	burn := BurnAmount(number.Decimal("1000"), number.Decimal("100"), number.Decimal("1000"))
	assert.Equal(t, "100", burn.String())

	assert.True(t, BurnAmount(number.Decimal("1000"), number.Decimal("100"), decimal.Zero).IsZero())
}
