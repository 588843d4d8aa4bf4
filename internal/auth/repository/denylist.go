package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "timetrack:auth:revoked:"

// Denylist records revoked token ids in Redis until the token would have
// expired anyway.
type Denylist struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewDenylist(rdb redis.UniversalClient, prefix string) *Denylist {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Denylist{rdb: rdb, prefix: prefix}
}

// Revoke stores tokenID for ttl. A non-positive ttl means the token has
// already expired and nothing is stored.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, d.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *Denylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}
