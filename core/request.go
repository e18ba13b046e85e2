package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// BorrowRequest a borrow intent awaiting quorum. Ids are assigned by
// the database sequence, monotonically increasing and never reused.
// Voters is the distinct-approver membership set; ApprovalCount stays
// equal to its length. ExecutedAt is a one-way latch.
type BorrowRequest struct {
	ID            uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID       string          `sql:"size:36;unique_index:request_trace_idx" json:"trace_id"`
	BorrowerID    string          `sql:"size:36;index:request_borrower_idx" json:"borrower_id"`
	Amount        decimal.Decimal `sql:"type:decimal(32,8)" json:"amount"`
	TermMonths    int64           `json:"term_months"`
	Voters        pq.StringArray  `sql:"type:varchar(1024)" json:"voters"`
	ApprovalCount int64           `sql:"default:0" json:"approval_count"`
	ExecutedAt    sql.NullTime    `json:"executed_at,omitempty"`
	Version       int64           `sql:"default:0" json:"version"`
	CreatedAt     time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Executed reports whether the latch is set.
func (r *BorrowRequest) Executed() bool {
	return r.ExecutedAt.Valid
}

// IRequestStore borrow request store interface
type IRequestStore interface {
	Create(ctx context.Context, tx *db.DB, request *BorrowRequest) error
	Find(ctx context.Context, id uint64) (*BorrowRequest, error)
	Update(ctx context.Context, tx *db.DB, request *BorrowRequest) error
	List(ctx context.Context, fromID uint64, limit int) ([]*BorrowRequest, error)
}
