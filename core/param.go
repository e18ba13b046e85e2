package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Param keys accepted by the admin configuration surface.
const (
	ParamKeyThreshold = "threshold"
	ParamKeyBaseRate  = "base_rate_bps"
	ParamKeyMinAmount = "min_amount"
	ParamKeyMaxAmount = "max_amount"
	ParamKeyMinTerm   = "min_term_months"
	ParamKeyMaxTerm   = "max_term_months"
	ParamKeyGraceDays = "grace_days"
)

// EngineParams mutable engine configuration. BaseRateBps applies only
// to loans originated after a change; existing loans keep the APR
// snapshotted on their row.
type EngineParams struct {
	ID            uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	EngineID      string          `sql:"size:36;unique_index:param_engine_idx" json:"engine_id"`
	Threshold     int64           `sql:"default:1" json:"threshold"`
	BaseRateBps   int64           `json:"base_rate_bps"`
	MinAmount     decimal.Decimal `sql:"type:decimal(32,8)" json:"min_amount"`
	MaxAmount     decimal.Decimal `sql:"type:decimal(32,8)" json:"max_amount"`
	MinTermMonths int64           `json:"min_term_months"`
	MaxTermMonths int64           `json:"max_term_months"`
	GraceDays     int64           `json:"grace_days"`
	Version       int64           `sql:"default:0" json:"version"`
	CreatedAt     time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ParamChange append-only audit row for one configuration update
type ParamChange struct {
	ID        uint64         `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time      `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	EngineID  string         `sql:"size:36;index:param_log_engine_idx" json:"engine_id"`
	Actor     string         `sql:"size:36" json:"actor"`
	Key       string         `sql:"size:36" json:"key"`
	Content   types.JSONText `sql:"type:varchar(1024)" json:"content"`
}

// IParamStore engine parameter store interface
type IParamStore interface {
	Save(ctx context.Context, tx *db.DB, params *EngineParams) error
	Find(ctx context.Context, engineID string) (*EngineParams, error)
	Update(ctx context.Context, tx *db.DB, params *EngineParams) error
	CreateLog(ctx context.Context, tx *db.DB, change *ParamChange) error
	ListLogs(ctx context.Context, engineID string, limit int) ([]*ParamChange, error)
}

// IParamService administrator-only configuration surface
type IParamService interface {
	Params(ctx context.Context) (*EngineParams, error)
	UpdateParam(ctx context.Context, actorID, key, value string) (*EngineParams, error)
}
