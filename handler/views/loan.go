package views

import (
	"termpool/core"

	"github.com/shopspring/decimal"
)

// Loan loan view
type Loan struct {
	core.Loan
	DebtUnits decimal.Decimal `json:"debt_units"`
	PaidCount int64           `json:"paid_count"`
}

// LoanFrom decorates a loan with its debt-unit balance and the number
// of payment rows recorded against it
func LoanFrom(loan *core.Loan, debtUnits decimal.Decimal, paidCount int64) *Loan {
	return &Loan{
		Loan:      *loan,
		DebtUnits: debtUnits,
		PaidCount: paidCount,
	}
}
