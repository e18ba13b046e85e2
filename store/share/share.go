package share

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

type shareStore struct {
	db *db.DB
}

// New new share store
func New(db *db.DB) core.IShareStore {
	return &shareStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Share{})
		if err := tx.AutoMigrate(core.Share{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *shareStore) Save(ctx context.Context, tx *db.DB, share *core.Share) error {
	return tx.Update().Where("vault_id=? and user_id=?", share.VaultID, share.UserID).FirstOrCreate(share).Error
}

func (s *shareStore) Find(ctx context.Context, vaultID uint64, userID string) (*core.Share, error) {
	var share core.Share
	if err := s.db.View().Where("vault_id=? and user_id=?", vaultID, userID).First(&share).Error; err != nil {
		return nil, err
	}

	return &share, nil
}

func (s *shareStore) FindByUser(ctx context.Context, userID string) ([]*core.Share, error) {
	var shares []*core.Share
	if err := s.db.View().Where("user_id=?", userID).Find(&shares).Error; err != nil {
		return nil, err
	}

	return shares, nil
}

func (s *shareStore) Update(ctx context.Context, tx *db.DB, share *core.Share) error {
	version := share.Version
	share.Version++

	updates := map[string]interface{}{
		"units":   share.Units,
		"version": share.Version,
	}

	upd := tx.Update().Model(core.Share{}).Where("id=? and version=?", share.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *shareStore) SumOfUnits(ctx context.Context, vaultID uint64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := s.db.View().Model(core.Share{}).Select("coalesce(sum(units), 0)").Where("vault_id=?", vaultID).Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}
