package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRemote is an L3 implementation backed by a Redis-compatible
// knowledge backend. Keys are prefixed with the cache namespace, and
// entries carry the (long-horizon) L3 TTL. Every backend error is
// logged and converted to absence, per the RemoteStore contract.
type RedisRemote[T any] struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisRemoteConfig configures a RedisRemote.
type RedisRemoteConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// NewRedisRemote creates a Redis-backed L3 for the given namespace.
// The connection is not probed here; an unreachable backend simply
// makes every operation degrade to absence.
func NewRedisRemote[T any](cfg RedisRemoteConfig, namespace string, logger *zap.Logger) *RedisRemote[T] {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisRemote[T]{
		client:    client,
		namespace: namespace,
		ttl:       cfg.TTL,
		logger:    logger.With(zap.String("component", "cache.remote")),
	}
}

func (r *RedisRemote[T]) key(key string) string {
	return r.namespace + ":" + key
}

// Available pings the backend with a short timeout.
func (r *RedisRemote[T]) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err() == nil
}

// Get returns the entry for key, or false on absence, expiry, or any
// backend failure.
func (r *RedisRemote[T]) Get(ctx context.Context, key string) (*Entry[T], bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("remote get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		r.logger.Warn("remote entry unparsable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &entry, true
}

// Set stores the entry under key with the L3 TTL, best effort.
func (r *RedisRemote[T]) Set(ctx context.Context, key string, entry *Entry[T]) {
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("remote marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		r.logger.Warn("remote set failed", zap.String("key", key), zap.Error(err))
	}
}

// Remove deletes key, best effort.
func (r *RedisRemote[T]) Remove(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Warn("remote delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear scans and deletes every key under this namespace, best effort.
func (r *RedisRemote[T]) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.namespace+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.Warn("remote clear delete failed",
				zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("remote clear scan failed", zap.Error(err))
	}
}

// Close releases the underlying client.
func (r *RedisRemote[T]) Close() error {
	return r.client.Close()
}

var _ RemoteStore[any] = (*RedisRemote[any])(nil)
