package capability

import (
	"context"
	"fmt"
	"time"

	"termpool/core"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a capability store with a read-through cache. Grants
// change rarely and every gated operation looks one up.
func Cache(store core.ICapabilityStore, exp time.Duration) core.ICapabilityStore {
	return &cacheCapabilityStore{
		ICapabilityStore: store,
		cache:            gcache.New(512).LRU().Build(),
		sf:               &singleflight.Group{},
		exp:              exp,
	}
}

type cacheCapabilityStore struct {
	core.ICapabilityStore
	cache gcache.Cache
	sf    *singleflight.Group
	exp   time.Duration
}

func (s *cacheCapabilityStore) Grant(ctx context.Context, grant *core.CapabilityGrant) error {
	if err := s.ICapabilityStore.Grant(ctx, grant); err != nil {
		return err
	}
	s.cache.Remove(s.grantKey(grant.UserID, grant.Capability))
	return nil
}

func (s *cacheCapabilityStore) Revoke(ctx context.Context, userID string, capability core.Capability) error {
	if err := s.ICapabilityStore.Revoke(ctx, userID, capability); err != nil {
		return err
	}
	s.cache.Remove(s.grantKey(userID, capability))
	return nil
}

func (s *cacheCapabilityStore) Find(ctx context.Context, userID string, capability core.Capability) (*core.CapabilityGrant, error) {
	key := s.grantKey(userID, capability)
	if v, err := s.cache.Get(key); err == nil {
		if grant, ok := v.(*core.CapabilityGrant); ok {
			return grant, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		grant, err := s.ICapabilityStore.Find(ctx, userID, capability)
		if err != nil {
			return nil, err
		}
		if grant.ID > 0 {
			_ = s.cache.SetWithExpire(key, grant, s.exp)
		}
		return grant, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*core.CapabilityGrant), nil
}

func (s *cacheCapabilityStore) grantKey(userID string, capability core.Capability) string {
	return fmt.Sprintf("capability:%s:%s", userID, capability)
}
