// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

// Package redis provides a managed Redis client for the Velora application.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It manages the physical
// Redis connection; domain code that needs Redis (such as the verification
// attempt limiter) receives the client and builds its own keyspace on top.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// dialTimeout is the maximum time allowed to establish a connection.
	dialTimeout = 5 * time.Second
	// readTimeout bounds individual read operations.
	readTimeout = 3 * time.Second
	// writeTimeout bounds individual write operations.
	writeTimeout = 3 * time.Second
	// poolSize caps concurrent connections to Redis.
	poolSize = 10
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// NewClient creates and validates a new Redis client.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - redisURL: A redis:// connection URL.
//   - logger: Structured logger for client-level events.
func NewClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout
	options.PoolSize = poolSize

	client := redis.NewClient(options)

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis client connected", slog.String("addr", options.Addr))

	return client, nil
}

// Ping verifies that the Redis connection is healthy.
func Ping(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
