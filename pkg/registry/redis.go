package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/observability"
)

// DefaultRedisKey is the key the index is mirrored to.
const DefaultRedisKey = "kvtools:registry"

// RedisIndexStore mirrors the published index to a Redis string key so a UI
// running on another host can read it.
type RedisIndexStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisIndexStore creates a store using client. An empty key defaults to
// DefaultRedisKey.
func NewRedisIndexStore(client redis.UniversalClient, key string) *RedisIndexStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisIndexStore{client: client, key: key}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "connect to redis at %s", addr)
	}
	return client, nil
}

// Key returns the Redis key the index is stored under.
func (s *RedisIndexStore) Key() string {
	return s.key
}

// Location describes the store in the form reported by Publish.
func (s *RedisIndexStore) Location() string {
	return "redis:" + s.key
}

// Publish SETs the encoded index, replacing any previous value.
func (s *RedisIndexStore) Publish(ctx context.Context, ix *Index) (string, error) {
	err := s.publish(ctx, ix)
	observability.Registry().OnPublish(ctx, s.Location(), err)
	if err != nil {
		return "", err
	}
	return s.Location(), nil
}

func (s *RedisIndexStore) publish(ctx context.Context, ix *Index) error {
	data, err := EncodeIndex(ix)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Load GETs and decodes the index.
func (s *RedisIndexStore) Load(ctx context.Context) (*Index, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kverrors.New(kverrors.ErrCodeNotFound, "index not published: %s", s.Location())
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return DecodeIndex(data)
}

// Close closes the underlying client.
func (s *RedisIndexStore) Close() error {
	return s.client.Close()
}

var _ IndexStore = (*RedisIndexStore)(nil)
