package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"broker-scout/internal/models"
)

// DefaultPrefix namespaces run status keys.
const DefaultPrefix = "broker-scout:run:"

// RedisStatusStore stores run status in Redis, one key per place.
type RedisStatusStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	closer func() error
}

// NewRedisStatusStore initializes a Redis-backed StatusStore.
func NewRedisStatusStore(addr, prefix string, ttl time.Duration) *RedisStatusStore {
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStatusStoreWithClient(client, prefix, ttl)
	s.closer = client.Close
	return s
}

// NewRedisStatusStoreWithClient builds a store on an existing client.
func NewRedisStatusStoreWithClient(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStatusStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStatusStore{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks the connection.
func (s *RedisStatusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client if the store owns it.
func (s *RedisStatusStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// SetStatus writes the status record to Redis.
func (s *RedisStatusStore) SetStatus(ctx context.Context, status models.CrawlStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(status.Place), payload, s.ttl).Err()
}

// GetStatus reads the status record from Redis.
func (s *RedisStatusStore) GetStatus(ctx context.Context, place string) (models.CrawlStatus, bool, error) {
	val, err := s.client.Get(ctx, s.key(place)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.CrawlStatus{}, false, nil
		}
		return models.CrawlStatus{}, false, err
	}

	var status models.CrawlStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return models.CrawlStatus{}, false, err
	}
	return status, true, nil
}

func (s *RedisStatusStore) key(place string) string {
	return s.prefix + PlaceKey(place)
}
