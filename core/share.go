package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Share depositor ownership units in a vault
type Share struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	VaultID   uint64          `sql:"unique_index:share_vault_user_idx" json:"vault_id"`
	UserID    string          `sql:"size:36;unique_index:share_vault_user_idx" json:"user_id"`
	Units     decimal.Decimal `sql:"type:decimal(32,8)" json:"units"`
	Version   int64           `sql:"default:0" json:"version"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IShareStore share store interface
type IShareStore interface {
	Save(ctx context.Context, tx *db.DB, share *Share) error
	Find(ctx context.Context, vaultID uint64, userID string) (*Share, error)
	FindByUser(ctx context.Context, userID string) ([]*Share, error)
	Update(ctx context.Context, tx *db.DB, share *Share) error
	SumOfUnits(ctx context.Context, vaultID uint64) (decimal.Decimal, error)
}
