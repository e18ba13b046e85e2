package core

import (
	"context"
	"time"
)

// Capability capability tag
type Capability string

const (
	// CapabilityAdmin administrator
	CapabilityAdmin Capability = "admin"
	// CapabilityMember approval-quorum member
	CapabilityMember Capability = "member"
	// CapabilityBorrower whitelisted borrower
	CapabilityBorrower Capability = "borrower"
	// CapabilityInternal protocol-internal caller
	CapabilityInternal Capability = "internal"
)

func (c Capability) String() string {
	return string(c)
}

// CheckCapability check capability tag
func CheckCapability(capability string) bool {
	return capability == string(CapabilityAdmin) ||
		capability == string(CapabilityMember) ||
		capability == string(CapabilityBorrower) ||
		capability == string(CapabilityInternal)
}

// CapabilityGrant one user holding one capability
type CapabilityGrant struct {
	ID         uint64     `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	UserID     string     `sql:"size:36;unique_index:idx_capabilities_user_cap" json:"user_id"`
	Capability Capability `sql:"size:24;unique_index:idx_capabilities_user_cap" json:"capability"`
	CreatedAt  time.Time  `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ICapabilityStore capability store interface
type ICapabilityStore interface {
	Grant(ctx context.Context, grant *CapabilityGrant) error
	Revoke(ctx context.Context, userID string, capability Capability) error
	Find(ctx context.Context, userID string, capability Capability) (*CapabilityGrant, error)
	ListUsers(ctx context.Context, capability Capability) ([]string, error)
}

// ICapabilityService capability checks consumed by the engine and the
// vault to gate privileged entry points
type ICapabilityService interface {
	HasCapability(ctx context.Context, userID string, capability Capability) (bool, error)
	Members(ctx context.Context) ([]string, error)
}
