package core

import (
	"context"
	"errors"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// ErrDebtUnderflow burning more units than the balance holds
var ErrDebtUnderflow = errors.New("debt balance underflow")

// DebtBalance non-transferable debt-accounting units per borrower.
// Minted 1:1 with principal at execution, burned proportionally to
// principal repaid, forced to zero at close or payoff. The store
// exposes mint/burn/query only; no transfer or approve surface exists.
type DebtBalance struct {
	ID         uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	BorrowerID string          `sql:"size:36;unique_index:debt_borrower_idx" json:"borrower_id"`
	Balance    decimal.Decimal `sql:"type:decimal(32,8)" json:"balance"`
	Version    int64           `sql:"default:0" json:"version"`
	CreatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IDebtStore restricted debt-unit ledger
type IDebtStore interface {
	Mint(ctx context.Context, tx *db.DB, borrowerID string, amount decimal.Decimal) error
	Burn(ctx context.Context, tx *db.DB, borrowerID string, amount decimal.Decimal) error
	BurnAll(ctx context.Context, tx *db.DB, borrowerID string) error
	Balance(ctx context.Context, borrowerID string) (decimal.Decimal, error)
	Sum(ctx context.Context) (decimal.Decimal, error)
}
