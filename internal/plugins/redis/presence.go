package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "presence:users"

// PresenceStore mirrors "recently alive" users in a redis ZSET, scored by
// last heartbeat. It is advisory UI state: routing never consults it, and
// losing it costs nothing but a stale online indicator.
type PresenceStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresenceStore(rdb *redis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{rdb: rdb, ttl: ttl}
}

// Heartbeat refreshes the user's liveness score.
func (p *PresenceStore) Heartbeat(ctx context.Context, user string, ttl time.Duration) error {
	err := p.rdb.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: user,
	}).Err()
	if err != nil {
		return err
	}
	// bound the whole set's lifetime so an idle deployment does not leak it
	return p.rdb.Expire(ctx, presenceKey, ttl*2).Err()
}

func (p *PresenceStore) IsOnline(ctx context.Context, user string) (bool, error) {
	score, err := p.rdb.ZScore(ctx, presenceKey, user).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	threshold := time.Now().Add(-p.ttl).Unix()
	return int64(score) >= threshold, nil
}

func (p *PresenceStore) Online(ctx context.Context) ([]string, error) {
	threshold := time.Now().Add(-p.ttl).Unix()
	// drop stale members first, then read what is left
	p.rdb.ZRemRangeByScore(ctx, presenceKey, "-inf", strconv.FormatInt(threshold-1, 10))
	return p.rdb.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(threshold, 10),
		Max: "+inf",
	}).Result()
}

func (p *PresenceStore) Clear(ctx context.Context, user string) error {
	return p.rdb.ZRem(ctx, presenceKey, user).Err()
}
