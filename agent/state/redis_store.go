package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a direct Redis connection.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR" split_words:"true" required:"true"`
	Password string `envconfig:"PASSWORD" split_words:"true"`
	DB       int    `envconfig:"DB" split_words:"true" default:"0"`
}

// RedisStore persists snapshots as JSON strings through go-redis.
type RedisStore struct {
	rdb redis.Cmdable
	o   storeOptions
}

var _ Store = (*RedisStore)(nil)

// NewRedisClient opens a client for cfg.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

func NewRedisStore(rdb redis.Cmdable, opts ...StoreOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb, o: o}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	key, err := storeKey(s.o.keyPrefix, sessionID)
	if err != nil {
		return nil, err
	}

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeSnapshot(data)
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	key, err := storeKey(s.o.keyPrefix, snap.SessionID)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, payload, s.o.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := storeKey(s.o.keyPrefix, sessionID)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
