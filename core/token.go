package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Account internal custody balance of the underlying asset. The pool,
// the loan engine and every depositor/borrower each hold one row per
// asset.
type Account struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	UserID    string          `sql:"size:36;unique_index:account_user_asset_idx" json:"user_id"`
	AssetID   string          `sql:"size:36;unique_index:account_user_asset_idx" json:"asset_id"`
	Balance   decimal.Decimal `sql:"type:decimal(32,8)" json:"balance"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ITokenStore account store interface
type ITokenStore interface {
	Save(ctx context.Context, tx *db.DB, account *Account) error
	Find(ctx context.Context, userID, assetID string) (*Account, error)
	Update(ctx context.Context, tx *db.DB, account *Account) error
}

// ITokenService raw asset transfer primitive. A transfer fails
// atomically when the source balance cannot cover the amount; there
// are no partial moves.
type ITokenService interface {
	Transfer(ctx context.Context, tx *db.DB, fromID, toID string, amount decimal.Decimal) error
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Credit(ctx context.Context, tx *db.DB, userID string, amount decimal.Decimal) error
}
