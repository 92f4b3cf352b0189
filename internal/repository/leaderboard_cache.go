package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"colourwars/internal/domain"
	"colourwars/internal/logger"
	"colourwars/internal/service"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardVersionKey = "colourwars:leaderboard:version"
	leaderboardKeyPrefix  = "colourwars:leaderboard:"
)

// CachedStore puts a redis read-through cache in front of the leaderboard query.
// Rating writes bump a version key so stale pages are never served after a settlement.
type CachedStore struct {
	service.AccountStore
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient parses REDIS_URL and checks the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("REDIS_URL is empty")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewCachedStore(store service.AccountStore, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{AccountStore: store, rdb: rdb, ttl: ttl}
}

func (s *CachedStore) ApplyRatingDelta(ctx context.Context, userID int64, delta int) (int, error) {
	rating, err := s.AccountStore.ApplyRatingDelta(ctx, userID, delta)
	if err != nil {
		return rating, err
	}
	if err := s.rdb.Incr(ctx, leaderboardVersionKey).Err(); err != nil {
		logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
	return rating, nil
}

func (s *CachedStore) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	key, err := s.pageKey(ctx, limit)
	if err != nil {
		logger.Warn("leaderboard cache unavailable", "error", err)
		return s.AccountStore.GetLeaderboard(ctx, limit)
	}

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var entries []domain.LeaderboardEntry
		if json.Unmarshal(raw, &entries) == nil {
			return entries, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn("leaderboard cache read failed", "error", err)
	}

	entries, err := s.AccountStore.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(entries); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			logger.Warn("leaderboard cache write failed", "error", err)
		}
	}
	return entries, nil
}

func (s *CachedStore) pageKey(ctx context.Context, limit int) (string, error) {
	version, err := s.rdb.Get(ctx, leaderboardVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		version, err = 0, nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sv%d:%d", leaderboardKeyPrefix, version, limit), nil
}
