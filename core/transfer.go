package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Transfer kinds recorded in the money-movement journal.
const (
	TransferKindDeposit    = "deposit"
	TransferKindWithdrawal = "withdrawal"
	TransferKindAllocate   = "allocate"
	TransferKindDisburse   = "disburse"
	TransferKindPayment    = "payment"
	TransferKindReturn     = "return"
)

// Transfer one committed custody movement. Rows are written in the
// same database transaction as the state change they settle, so the
// journal never reflects an uncommitted operation.
type Transfer struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	TraceID   string          `sql:"size:36;unique_index:transfer_trace_idx" json:"trace_id,omitempty"`
	Kind      string          `sql:"size:24;index:transfer_kind_idx" json:"kind,omitempty"`
	FromID    string          `sql:"size:36" json:"from_id,omitempty"`
	ToID      string          `sql:"size:36" json:"to_id,omitempty"`
	AssetID   string          `sql:"size:36" json:"asset_id,omitempty"`
	Amount    decimal.Decimal `sql:"type:decimal(32,8)" json:"amount,omitempty"`
	Memo      string          `sql:"size:140" json:"memo,omitempty"`
}

// ITransferStore transfer journal interface, append-only
type ITransferStore interface {
	Create(ctx context.Context, tx *db.DB, transfer *Transfer) error
	List(ctx context.Context, fromID uint64, limit int) ([]*Transfer, error)
}
