package param

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type paramStore struct {
	db *db.DB
}

// New new engine param store
func New(db *db.DB) core.IParamStore {
	return &paramStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.EngineParams{})
		if err := tx.AutoMigrate(core.EngineParams{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.ParamChange{}).AutoMigrate(core.ParamChange{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *paramStore) Save(ctx context.Context, tx *db.DB, params *core.EngineParams) error {
	return tx.Update().Where("engine_id=?", params.EngineID).FirstOrCreate(params).Error
}

func (s *paramStore) Find(ctx context.Context, engineID string) (*core.EngineParams, error) {
	var params core.EngineParams
	if err := s.db.View().Where("engine_id=?", engineID).First(&params).Error; err != nil {
		return nil, err
	}

	return &params, nil
}

func (s *paramStore) Update(ctx context.Context, tx *db.DB, params *core.EngineParams) error {
	version := params.Version
	params.Version++

	updates := map[string]interface{}{
		"threshold":       params.Threshold,
		"base_rate_bps":   params.BaseRateBps,
		"min_amount":      params.MinAmount,
		"max_amount":      params.MaxAmount,
		"min_term_months": params.MinTermMonths,
		"max_term_months": params.MaxTermMonths,
		"grace_days":      params.GraceDays,
		"version":         params.Version,
	}

	upd := tx.Update().Model(core.EngineParams{}).Where("id=? and version=?", params.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *paramStore) CreateLog(ctx context.Context, tx *db.DB, change *core.ParamChange) error {
	return tx.Update().Create(change).Error
}

func (s *paramStore) ListLogs(ctx context.Context, engineID string, limit int) ([]*core.ParamChange, error) {
	var changes []*core.ParamChange
	if err := s.db.View().Where("engine_id=?", engineID).Order("id desc").Limit(limit).Find(&changes).Error; err != nil {
		return nil, err
	}

	return changes, nil
}
