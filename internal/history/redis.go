package history

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list holding entries, newest at the head.
const DefaultRedisKey = "bpassist:history"

// RedisStore keeps entries in a capped Redis list.
type RedisStore struct {
	client *backend.Client
	key    string
	max    int
	ttl    time.Duration
}

type Option func(*RedisStore)

// WithTTL expires the whole list ttl after the last append. Zero disables
// expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(s *RedisStore) {
		s.key = key
	}
}

// WithMaxEntries caps the list length.
func WithMaxEntries(n int) Option {
	return func(s *RedisStore) {
		if n > 0 {
			s.max = n
		}
	}
}

// NewRedis creates a store with its own client.
func NewRedis(address, password string, db int, opts ...Option) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(rdb, opts...)
}

// NewRedisFromClient creates a store on an existing client.
func NewRedisFromClient(client *backend.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    DefaultRedisKey,
		max:    MaxEntries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(NewEntry(e))
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, int64(s.max-1))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	vals, err := s.client.LRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list from redis: %w", err)
	}

	out := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
