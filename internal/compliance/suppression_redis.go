package compliance

import (
	"context"
	"fmt"

	platformredis "holly/internal/platform/redis"
)

// suppressionKey is the Redis set holding suppressed destinations. A set keeps
// membership checks O(1) and shares the list across process instances.
const suppressionKey = "holly:suppression"

// RedisSuppressionList implements SuppressionList on a shared Redis set.
type RedisSuppressionList struct {
	client *platformredis.Client
}

func NewRedisSuppressionList(client *platformredis.Client) *RedisSuppressionList {
	return &RedisSuppressionList{client: client}
}

func (s *RedisSuppressionList) IsSuppressed(ctx context.Context, destination string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, suppressionKey, destination).Result()
	if err != nil {
		return false, fmt.Errorf("suppression lookup: %w", err)
	}
	return ok, nil
}

func (s *RedisSuppressionList) Add(ctx context.Context, destination string) error {
	if err := s.client.SAdd(ctx, suppressionKey, destination).Err(); err != nil {
		return fmt.Errorf("suppression add: %w", err)
	}
	return nil
}

func (s *RedisSuppressionList) Remove(ctx context.Context, destination string) error {
	if err := s.client.SRem(ctx, suppressionKey, destination).Err(); err != nil {
		return fmt.Errorf("suppression remove: %w", err)
	}
	return nil
}
