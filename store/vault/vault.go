package vault

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type vaultStore struct {
	db *db.DB
}

// New new vault store
func New(db *db.DB) core.IVaultStore {
	return &vaultStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Vault{})
		if err := tx.AutoMigrate(core.Vault{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.Allocation{}).AutoMigrate(core.Allocation{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *vaultStore) Create(ctx context.Context, tx *db.DB, vault *core.Vault) error {
	return tx.Update().Where("asset_id=?", vault.AssetID).FirstOrCreate(vault).Error
}

func (s *vaultStore) Find(ctx context.Context, assetID string) (*core.Vault, error) {
	var vault core.Vault
	if err := s.db.View().Where("asset_id=?", assetID).First(&vault).Error; err != nil {
		return nil, err
	}

	return &vault, nil
}

func (s *vaultStore) All(ctx context.Context) ([]*core.Vault, error) {
	var vaults []*core.Vault
	if err := s.db.View().Find(&vaults).Error; err != nil {
		return nil, err
	}

	return vaults, nil
}

func (s *vaultStore) Update(ctx context.Context, tx *db.DB, vault *core.Vault) error {
	version := vault.Version
	vault.Version++

	updates := map[string]interface{}{
		"total_shares":    vault.TotalShares,
		"idle_balance":    vault.IdleBalance,
		"total_allocated": vault.TotalAllocated,
		"version":         vault.Version,
	}

	upd := tx.Update().Model(core.Vault{}).Where("id=? and version=?", vault.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *vaultStore) FindAllocation(ctx context.Context, vaultID uint64, engineID string) (*core.Allocation, error) {
	var allocation core.Allocation
	if err := s.db.View().Where("vault_id=? and engine_id=?", vaultID, engineID).First(&allocation).Error; err != nil {
		return nil, err
	}

	return &allocation, nil
}

func (s *vaultStore) SaveAllocation(ctx context.Context, tx *db.DB, allocation *core.Allocation) error {
	if allocation.ID == 0 {
		return tx.Update().Where("vault_id=? and engine_id=?", allocation.VaultID, allocation.EngineID).FirstOrCreate(allocation).Error
	}

	version := allocation.Version
	allocation.Version++

	updates := map[string]interface{}{
		"outstanding": allocation.Outstanding,
		"version":     allocation.Version,
	}

	upd := tx.Update().Model(core.Allocation{}).Where("id=? and version=?", allocation.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *vaultStore) Allocations(ctx context.Context, vaultID uint64) ([]*core.Allocation, error) {
	var allocations []*core.Allocation
	if err := s.db.View().Where("vault_id=?", vaultID).Find(&allocations).Error; err != nil {
		return nil, err
	}

	return allocations, nil
}
