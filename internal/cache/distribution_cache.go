package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DistributionCache counts primary types per taxonomy in a Redis ZSET.
type DistributionCache interface {
	Increment(ctx context.Context, taxonomyID, typeID string) error
	Top(ctx context.Context, taxonomyID string, limit int) ([]DistributionEntry, error)
}

// DistributionEntry is one row of the type distribution.
type DistributionEntry struct {
	TypeID string `json:"typeId"`
	Count  int    `json:"count"`
	Rank   int    `json:"rank"`
}

type distributionCache struct {
	client *redis.Client
}

// NewDistributionCache creates a new distribution cache
func NewDistributionCache(client *redis.Client) DistributionCache {
	return &distributionCache{
		client: client,
	}
}

func (c *distributionCache) key(taxonomyID string) string {
	return fmt.Sprintf("taxonomy:%s:primary", taxonomyID)
}

func (c *distributionCache) Increment(ctx context.Context, taxonomyID, typeID string) error {
	return c.client.ZIncrBy(ctx, c.key(taxonomyID), 1, typeID).Err()
}

// Top returns the most common primary types. limit <= 0 returns all of them.
func (c *distributionCache) Top(ctx context.Context, taxonomyID string, limit int) ([]DistributionEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(taxonomyID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]DistributionEntry, len(results))
	for i, z := range results {
		entries[i] = DistributionEntry{
			TypeID: z.Member.(string),
			Count:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}
