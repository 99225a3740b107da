// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/velora/velora/internal/platform/constants"
)

// AttemptLimiter throttles repeated failed verification attempts per
// account. Implementations must be safe for concurrent use.
type AttemptLimiter interface {
	// Allow records one attempt for key and reports whether the attempt is
	// within budget. A limiter failure should fail open; verification codes
	// expire on their own.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the attempt counter for key after a success.
	Reset(ctx context.Context, key string) error
}

// RedisAttemptLimiter counts attempts in Redis with a sliding expiry
// window, so the budget survives process restarts and is shared across
// instances.
type RedisAttemptLimiter struct {
	client *redis.Client
}

// NewRedisAttemptLimiter creates an AttemptLimiter backed by Redis.
func NewRedisAttemptLimiter(client *redis.Client) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client}
}

func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := constants.RedisPrefixVerifyAttempts + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis_attempt_limiter_incr_failed: %w", err)
	}

	// Start the window on the first attempt only.
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, VerifyAttemptWindow).Err(); err != nil {
			return false, fmt.Errorf("redis_attempt_limiter_expire_failed: %w", err)
		}
	}

	return count <= MaxVerifyAttempts, nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	redisKey := constants.RedisPrefixVerifyAttempts + key

	if err := l.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("redis_attempt_limiter_reset_failed: %w", err)
	}

	return nil
}
