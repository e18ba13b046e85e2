package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Vault is the share-accounted liquidity pool for one asset. Managed
// assets split into the idle balance held in custody and the total
// currently allocated to loan engines; idle + allocated must equal
// managed assets after every operation.
type Vault struct {
	ID             uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	AssetID        string          `sql:"size:36;unique_index:vault_asset_idx" json:"asset_id"`
	TotalShares    decimal.Decimal `sql:"type:decimal(32,8)" json:"total_shares"`
	IdleBalance    decimal.Decimal `sql:"type:decimal(32,8)" json:"idle_balance"`
	TotalAllocated decimal.Decimal `sql:"type:decimal(32,8)" json:"total_allocated"`
	Version        int64           `sql:"default:0" json:"version"`
	CreatedAt      time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TotalManagedAssets idle plus allocated
func (v *Vault) TotalManagedAssets() decimal.Decimal {
	return v.IdleBalance.Add(v.TotalAllocated)
}

// Allocation tracks the principal one loan engine currently has drawn
// from a vault. Returned principal decreases it; interest never does.
type Allocation struct {
	ID          uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	VaultID     uint64          `sql:"unique_index:vault_engine_idx" json:"vault_id"`
	EngineID    string          `sql:"size:36;unique_index:vault_engine_idx" json:"engine_id"`
	Outstanding decimal.Decimal `sql:"type:decimal(32,8)" json:"outstanding"`
	Version     int64           `sql:"default:0" json:"version"`
	CreatedAt   time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IVaultStore vault store interface
type IVaultStore interface {
	Create(ctx context.Context, tx *db.DB, vault *Vault) error
	Find(ctx context.Context, assetID string) (*Vault, error)
	All(ctx context.Context) ([]*Vault, error)
	Update(ctx context.Context, tx *db.DB, vault *Vault) error
	FindAllocation(ctx context.Context, vaultID uint64, engineID string) (*Allocation, error)
	SaveAllocation(ctx context.Context, tx *db.DB, allocation *Allocation) error
	Allocations(ctx context.Context, vaultID uint64) ([]*Allocation, error)
}

// VaultStats point-in-time accounting snapshot
type VaultStats struct {
	AssetID            string          `json:"asset_id"`
	TotalShares        decimal.Decimal `json:"total_shares"`
	IdleBalance        decimal.Decimal `json:"idle_balance"`
	TotalAllocated     decimal.Decimal `json:"total_allocated"`
	TotalManagedAssets decimal.Decimal `json:"total_managed_assets"`
	SharePrice         decimal.Decimal `json:"share_price"`
}

// IStatsStore memoizes computed vault stats per vault version. Any
// vault write bumps the version, so stale entries are never served.
type IStatsStore interface {
	SaveStats(ctx context.Context, assetID string, version int64, stats *VaultStats) error
	FindStats(ctx context.Context, assetID string, version int64) (*VaultStats, error)
}

// VaultPosition one depositor's holding in a vault, valued at the
// current share price
type VaultPosition struct {
	AssetID string          `json:"asset_id"`
	Units   decimal.Decimal `json:"units"`
	Value   decimal.Decimal `json:"value"`
}

// VaultAudit cross-checks the vault row against the rows it accounts
// for. Healthy books keep both diffs at zero.
type VaultAudit struct {
	AssetID        string          `json:"asset_id"`
	TotalShares    decimal.Decimal `json:"total_shares"`
	SharesDiff     decimal.Decimal `json:"shares_diff"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	AllocationDiff decimal.Decimal `json:"allocation_diff"`
}

// Balanced reports whether every diff is zero.
func (a *VaultAudit) Balanced() bool {
	return a.SharesDiff.IsZero() && a.AllocationDiff.IsZero()
}

// IVaultService vault service interface.
//
// Deposit and Withdraw run their own transaction. Allocate and Return
// mutate inside the caller's transaction so a loan engine can settle a
// draw or a repayment together with its own records.
type IVaultService interface {
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, userID, recipientID string, units decimal.Decimal) (decimal.Decimal, error)
	Allocate(ctx context.Context, tx *db.DB, engineID string, amount decimal.Decimal) error
	Return(ctx context.Context, tx *db.DB, engineID string, principal, interest decimal.Decimal) error
	AvailableLiquidity(ctx context.Context) (decimal.Decimal, error)
	TotalManagedAssets(ctx context.Context) (decimal.Decimal, error)
	Stats(ctx context.Context) (*VaultStats, error)
	Positions(ctx context.Context, userID string) ([]*VaultPosition, error)
	Audit(ctx context.Context) ([]*VaultAudit, error)
}
