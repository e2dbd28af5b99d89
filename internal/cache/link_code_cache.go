package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LinkCodeCache holds short-lived codes a child hands to a parent to prove
// consent to a link.
type LinkCodeCache interface {
	// Create stores code for childID unless the code is already taken.
	Create(ctx context.Context, code, childID string) (bool, error)
	// Consume returns the child behind code and deletes it. A missing or
	// expired code yields "".
	Consume(ctx context.Context, code string) (string, error)
	TTL() time.Duration
}

type linkCodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLinkCodeCache creates a link code cache whose codes expire after ttl
func NewLinkCodeCache(client *redis.Client, ttl time.Duration) LinkCodeCache {
	return &linkCodeCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *linkCodeCache) key(code string) string {
	return fmt.Sprintf("linkcode:%s", code)
}

func (c *linkCodeCache) TTL() time.Duration { return c.ttl }

func (c *linkCodeCache) Create(ctx context.Context, code, childID string) (bool, error) {
	return c.client.SetNX(ctx, c.key(code), childID, c.ttl).Result()
}

func (c *linkCodeCache) Consume(ctx context.Context, code string) (string, error) {
	childID, err := c.client.GetDel(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return childID, err
}
