package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

const (
	// PaymentPeriodDays one scheduled payment period
	PaymentPeriodDays = 30
	// PeriodsPerYear periods used for the per-period interest rate
	PeriodsPerYear = 12
)

// PaymentPeriod duration of one payment period
const PaymentPeriod = PaymentPeriodDays * 24 * time.Hour

// Loan one fixed-rate fixed-term amortized loan. A borrower holds at
// most one row; the row is reused for a new loan after the previous
// one closed. The APR is snapshotted at execution and never follows
// later base-rate changes.
type Loan struct {
	ID                 uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	BorrowerID         string          `sql:"size:36;unique_index:loan_borrower_idx" json:"borrower_id"`
	RequestID          uint64          `json:"request_id"`
	Principal          decimal.Decimal `sql:"type:decimal(32,8)" json:"principal"`
	RemainingPrincipal decimal.Decimal `sql:"type:decimal(32,8)" json:"remaining_principal"`
	AprBps             int64           `json:"apr_bps"`
	FixedPayment       decimal.Decimal `sql:"type:decimal(32,8)" json:"fixed_payment"`
	TermMonths         int64           `json:"term_months"`
	PaymentsRemaining  int64           `json:"payments_remaining"`
	StartedAt          time.Time       `json:"started_at"`
	NextPaymentDue     time.Time       `json:"next_payment_due"`
	Active             bool            `sql:"default:false" json:"active"`
	ClosedAt           sql.NullTime    `json:"closed_at,omitempty"`
	DueNotifiedAt      sql.NullTime    `json:"due_notified_at,omitempty"`
	OverdueNotifiedAt  sql.NullTime    `json:"overdue_notified_at,omitempty"`
	Version            int64           `sql:"default:0" json:"version"`
	CreatedAt          time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// LastPaymentBoundary start of the running payment period
func (l *Loan) LastPaymentBoundary() time.Time {
	return l.NextPaymentDue.Add(-PaymentPeriod)
}

// ILoanStore loan store interface
type ILoanStore interface {
	Save(ctx context.Context, tx *db.DB, loan *Loan) error
	Find(ctx context.Context, borrowerID string) (*Loan, error)
	Update(ctx context.Context, tx *db.DB, loan *Loan) error
	ListActive(ctx context.Context) ([]*Loan, error)
}

// NextPayment preview of the upcoming scheduled payment split
type NextPayment struct {
	Due       time.Time       `json:"due"`
	Amount    decimal.Decimal `json:"amount"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Final     bool            `json:"final"`
}

// PayoffQuote full early-settlement quote as of a point in time
type PayoffQuote struct {
	AsOf               time.Time       `json:"as_of"`
	ElapsedDays        int64           `json:"elapsed_days"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	AccruedInterest    decimal.Decimal `json:"accrued_interest"`
	Total              decimal.Decimal `json:"total"`
}

// IEngineService drives the request/approval/execution/payment/payoff
// state machine and is the only writer of loans, requests, payment
// history and debt balances.
type IEngineService interface {
	RequestLoan(ctx context.Context, borrowerID string, amount decimal.Decimal, termMonths int64, traceID string) (*BorrowRequest, error)
	Approve(ctx context.Context, requestID uint64, approverID string) (*BorrowRequest, error)
	Execute(ctx context.Context, requestID uint64, callerID string) (*Loan, error)
	MakePayment(ctx context.Context, borrowerID, payerID string) (*PaymentRecord, error)
	PayoffLoan(ctx context.Context, borrowerID, payerID string) (*PaymentRecord, error)
	LoanDetails(ctx context.Context, borrowerID string) (*Loan, error)
	NextPaymentDetails(ctx context.Context, borrowerID string) (*NextPayment, error)
	PayoffAmount(ctx context.Context, borrowerID string) (*PayoffQuote, error)
	PaymentHistory(ctx context.Context, borrowerID string, fromID uint64, limit int) ([]*PaymentRecord, error)
}
