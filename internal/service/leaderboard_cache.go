package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
)

// LeaderboardCache keeps computed contest standings in Redis for a short
// TTL. A nil Redis client turns every operation into a no-op, so the rest
// of the service layer never has to care whether caching is enabled.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl, logger: logger}
}

func leaderboardKey(contestID uuid.UUID) string {
	return fmt.Sprintf("contest:leaderboard:%s", contestID)
}

// Get returns the cached standings for a contest, or false on a miss.
// Cache errors are treated as misses.
func (c *LeaderboardCache) Get(ctx context.Context, contestID uuid.UUID) ([]domain.LeaderboardEntry, bool) {
	if c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, leaderboardKey(contestID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("Leaderboard cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return entries, true
}

// Set stores the standings under the cache TTL
func (c *LeaderboardCache) Set(ctx context.Context, contestID uuid.UUID, entries []domain.LeaderboardEntry) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("Failed to encode leaderboard for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, leaderboardKey(contestID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Leaderboard cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached standings after a score change
func (c *LeaderboardCache) Invalidate(ctx context.Context, contestID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, leaderboardKey(contestID)).Err(); err != nil {
		c.logger.Warn("Leaderboard cache invalidation failed", zap.Error(err))
	}
}
