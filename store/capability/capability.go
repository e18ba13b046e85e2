package capability

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type capabilityStore struct {
	db *db.DB
}

// New new capability store
func New(db *db.DB) core.ICapabilityStore {
	return &capabilityStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.CapabilityGrant{})
		if err := tx.AutoMigrate(core.CapabilityGrant{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *capabilityStore) Grant(ctx context.Context, grant *core.CapabilityGrant) error {
	return s.db.Update().Where("user_id=? and capability=?", grant.UserID, grant.Capability).FirstOrCreate(grant).Error
}

func (s *capabilityStore) Revoke(ctx context.Context, userID string, capability core.Capability) error {
	return s.db.Update().Where("user_id=? and capability=?", userID, capability).Delete(core.CapabilityGrant{}).Error
}

func (s *capabilityStore) Find(ctx context.Context, userID string, capability core.Capability) (*core.CapabilityGrant, error) {
	var grant core.CapabilityGrant
	if err := s.db.View().Where("user_id=? and capability=?", userID, capability).First(&grant).Error; err != nil {
		return nil, err
	}

	return &grant, nil
}

func (s *capabilityStore) ListUsers(ctx context.Context, capability core.Capability) ([]string, error) {
	var users []string
	if err := s.db.View().Model(core.CapabilityGrant{}).Where("capability=?", capability).Pluck("user_id", &users).Error; err != nil {
		return nil, err
	}

	return users, nil
}
