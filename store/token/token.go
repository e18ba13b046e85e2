package token

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type tokenStore struct {
	db *db.DB
}

// New new token account store
func New(db *db.DB) core.ITokenStore {
	return &tokenStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Account{})
		if err := tx.AutoMigrate(core.Account{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *tokenStore) Save(ctx context.Context, tx *db.DB, account *core.Account) error {
	return tx.Update().Where("user_id=? and asset_id=?", account.UserID, account.AssetID).FirstOrCreate(account).Error
}

func (s *tokenStore) Find(ctx context.Context, userID, assetID string) (*core.Account, error) {
	var account core.Account
	if err := s.db.View().Where("user_id=? and asset_id=?", userID, assetID).First(&account).Error; err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *tokenStore) Update(ctx context.Context, tx *db.DB, account *core.Account) error {
	version := account.Version
	account.Version++

	updates := map[string]interface{}{
		"balance": account.Balance,
		"version": account.Version,
	}

	upd := tx.Update().Model(core.Account{}).Where("id=? and version=?", account.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}
