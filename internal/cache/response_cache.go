package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"readingcompass/internal/model"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionContended is returned by Update when every attempt lost the race
// against another writer.
var ErrSessionContended = errors.New("assessment session is being modified concurrently")

const maxUpdateAttempts = 16

// ResponseCache holds in-progress assessment sessions.
type ResponseCache interface {
	Set(ctx context.Context, session *model.AssessmentSession) error
	Get(ctx context.Context, id string) (*model.AssessmentSession, error)
	Update(ctx context.Context, id string, fn func(*model.AssessmentSession) error) (*model.AssessmentSession, error)
	Delete(ctx context.Context, id string) error
}

type responseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache whose entries expire after ttl
// without activity.
func NewResponseCache(client *redis.Client, ttl time.Duration) ResponseCache {
	return &responseCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *responseCache) key(id string) string {
	return fmt.Sprintf("assessment:%s", id)
}

func (c *responseCache) Set(ctx context.Context, session *model.AssessmentSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

// Get returns nil, nil when the session does not exist or has expired.
func (c *responseCache) Get(ctx context.Context, id string) (*model.AssessmentSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.AssessmentSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return &session, nil
}

// Update applies fn to the stored session and writes it back under WATCH. If
// another writer commits first the transaction is retried, so fn may run more
// than once and always sees the latest copy. A missing session yields nil, nil
// without calling fn. Errors from fn abort the update unchanged.
func (c *responseCache) Update(ctx context.Context, id string, fn func(*model.AssessmentSession) error) (*model.AssessmentSession, error) {
	key := c.key(id)
	var updated *model.AssessmentSession

	txf := func(tx *redis.Tx) error {
		updated = nil
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		var session model.AssessmentSession
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("decode assessment %s: %w", id, err)
		}
		if err := fn(&session); err != nil {
			return err
		}
		out, err := json.Marshal(&session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &session
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := c.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionContended
}

func (c *responseCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
