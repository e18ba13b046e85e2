package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"termpool/core"

	"github.com/go-redis/redis"
)

type statsStore struct {
	Redis *redis.Client
}

// New new stats store
func New(redis *redis.Client) core.IStatsStore {
	return &statsStore{
		Redis: redis,
	}
}

func (s *statsStore) SaveStats(ctx context.Context, assetID string, version int64, stats *core.VaultStats) error {
	k := s.statsCacheKey(assetID, version)

	if s.Redis.Exists(k).Val() == 0 {
		raw, err := json.Marshal(stats)
		if err != nil {
			return err
		}

		s.Redis.Set(k, raw, time.Hour)
	}
	return nil
}

func (s *statsStore) FindStats(ctx context.Context, assetID string, version int64) (*core.VaultStats, error) {
	k := s.statsCacheKey(assetID, version)

	bs, e := s.Redis.Get(k).Bytes()
	if e != nil {
		return nil, e
	}

	var stats core.VaultStats
	if e := json.Unmarshal(bs, &stats); e != nil {
		return nil, e
	}

	return &stats, nil
}

func (s *statsStore) statsCacheKey(assetID string, version int64) string {
	return fmt.Sprintf("termpool:vault:stats:%s:%d", assetID, version)
}
