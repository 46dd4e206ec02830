// internal/store/cache_redis.go
//
// Read-through Redis cache for Leaderboard.
// Keys:
//   wordscramble:lb:gen                      generation, bumped by SaveScore
//   wordscramble:lb:<gen>:<since>:<limit>    JSON rows, expire after ttl

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const genKey = "wordscramble:lb:gen"

// redisCache serves Leaderboard from Redis and invalidates on every
// SaveScore by bumping a generation counter that is part of each key.
// Redis failures fall through to the wrapped store.
type redisCache struct {
	Store
	rdb *redis.Client
	ttl time.Duration
}

// WithRedisCache wraps st with a leaderboard cache.
func WithRedisCache(st Store, rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisCache{Store: st, rdb: rdb, ttl: ttl}
}

func (c *redisCache) key(ctx context.Context, since time.Time, limit int) (string, error) {
	gen, err := c.rdb.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("wordscramble:lb:%d:%d:%d", gen, millis(since), limit), nil
}

func (c *redisCache) Leaderboard(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	key, err := c.key(ctx, since, limit)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard cache: gen")
		return c.Store.Leaderboard(ctx, since, limit)
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var out []Entry
		if err := json.Unmarshal(val, &out); err == nil {
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("leaderboard cache: get")
	}

	out, err := c.Store.Leaderboard(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("leaderboard cache: set")
		}
	}
	return out, nil
}

func (c *redisCache) SaveScore(ctx context.Context, s Score) (Score, error) {
	saved, err := c.Store.SaveScore(ctx, s)
	if err != nil {
		return Score{}, err
	}
	if err := c.rdb.Incr(ctx, genKey).Err(); err != nil {
		log.Warn().Err(err).Msg("leaderboard cache: invalidate")
	}
	return saved, nil
}
