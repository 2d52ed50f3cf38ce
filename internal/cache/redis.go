package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ziadkadry99/naflume/internal/logger"
)

const redisOpTimeout = 2 * time.Second

// Redis is a Store backed by a shared Redis instance so that several
// server replicas reuse each other's upstream lookups. Values are stored as
// JSON with a native Redis expiry. Failures are logged and read as misses.
type Redis[V any] struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// DialRedis connects to addr and verifies the connection with a PING.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedis creates a Redis-backed store. Keys are namespaced with prefix.
func NewRedis[V any](rdb *goredis.Client, prefix string, ttl time.Duration, log *logger.Logger) *Redis[V] {
	if log == nil {
		log = logger.Nop()
	}
	return &Redis[V]{rdb: rdb, prefix: prefix, ttl: ttl, log: log.With("component", "redis_cache")}
}

func (r *Redis[V]) key(k string) string { return r.prefix + k }

func (r *Redis[V]) Get(key string) (V, bool) {
	var zero V
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.log.Warn("redis get failed", "key", key, "error", err)
		}
		return zero, false
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		r.log.Warn("redis value undecodable", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

func (r *Redis[V]) Set(key string, value V) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.log.Warn("redis value unencodable", "key", key, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.rdb.Set(ctx, r.key(key), raw, r.ttl).Err(); err != nil {
		r.log.Warn("redis set failed", "key", key, "error", err)
	}
}
