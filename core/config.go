package core

import (
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config termpool config
type Config struct {
	App      App       `json:"app"`
	DB       db.Config `json:"db"`
	Redis    Redis     `json:"redis"`
	Notifier Notifier  `json:"notifier"`
	Genesis  Genesis   `json:"genesis"`
	Admins   []string  `json:"admins"`
}

// IsAdmin check if the user is admin
func (c *Config) IsAdmin(userID string) bool {
	if len(c.Admins) <= 0 {
		return false
	}

	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}

	return false
}

// App app config
type App struct {
	// AssetID is the single underlying asset the pool manages.
	AssetID string `json:"asset_id"`
	// VaultAccount is the custody account holding idle pool funds.
	VaultAccount string `json:"vault_account"`
	// EngineAccount is the loan engine identity; it carries the
	// protocol-internal capability and fronts allocated funds.
	EngineAccount string `json:"engine_account"`
	Location      string `json:"location"`
}

// Redis redis config
type Redis struct {
	Addr string `json:"addr"`
	DB   int    `json:"db"`
}

// Notifier webhook notifier config
type Notifier struct {
	Endpoint string `json:"endpoint"`
}

// Genesis seeds the engine parameter row and the approver set on
// first migration. Later changes go through the admin surface.
type Genesis struct {
	Threshold     uint8           `json:"threshold"`
	Members       []string        `json:"members"`
	BaseRateBps   int64           `json:"base_rate_bps"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	MinTermMonths int64           `json:"min_term_months"`
	MaxTermMonths int64           `json:"max_term_months"`
	GraceDays     int64           `json:"grace_days"`
}
