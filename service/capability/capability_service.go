package capability

import (
	"context"

	"termpool/core"

	"github.com/jinzhu/gorm"
)

type capabilityService struct {
	system       *core.System
	capabilities core.ICapabilityStore
}

// New new capability service
func New(system *core.System, capabilityStr core.ICapabilityStore) core.ICapabilityService {
	return &capabilityService{
		system:       system,
		capabilities: capabilityStr,
	}
}

func (s *capabilityService) HasCapability(ctx context.Context, userID string, capability core.Capability) (bool, error) {
	// operators from the config hold admin without a grant row
	if capability == core.CapabilityAdmin && s.system.IsAdmin(userID) {
		return true, nil
	}

	_, err := s.capabilities.Find(ctx, userID, capability)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *capabilityService) Members(ctx context.Context) ([]string, error) {
	return s.capabilities.ListUsers(ctx, core.CapabilityMember)
}
