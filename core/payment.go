package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// PaymentKind payment record kind
type PaymentKind string

const (
	// PaymentKindScheduled regular periodic payment
	PaymentKindScheduled PaymentKind = "scheduled"
	// PaymentKindPayoff early full settlement
	PaymentKindPayoff PaymentKind = "payoff"
)

// PaymentRecord append-only payment history entry. Rows are never
// updated or removed.
type PaymentRecord struct {
	ID            uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	LoanID        uint64          `sql:"index:payment_loan_idx" json:"loan_id"`
	BorrowerID    string          `sql:"size:36;index:payment_borrower_idx" json:"borrower_id"`
	Seq           int64           `json:"seq"`
	Kind          PaymentKind     `sql:"size:16" json:"kind"`
	PaidAt        time.Time       `json:"paid_at"`
	PrincipalPaid decimal.Decimal `sql:"type:decimal(32,8)" json:"principal_paid"`
	InterestPaid  decimal.Decimal `sql:"type:decimal(32,8)" json:"interest_paid"`
	TotalPaid     decimal.Decimal `sql:"type:decimal(32,8)" json:"total_paid"`
	CreatedAt     time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IPaymentStore append-only payment history store
type IPaymentStore interface {
	Create(ctx context.Context, tx *db.DB, record *PaymentRecord) error
	ListByBorrower(ctx context.Context, borrowerID string, fromID uint64, limit int) ([]*PaymentRecord, error)
	CountByLoan(ctx context.Context, loanID uint64) (int64, error)
}
