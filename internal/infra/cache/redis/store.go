package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	cachedomain "github.com/bryanwahyu/risknet/internal/domain/cache"
)

const keyPrefix = "risknet:assessment:"

// Store implements cache.Store on Redis. Entries are JSON blobs with the TTL
// delegated to Redis; last writer wins per fingerprint.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx2).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context, fingerprint string) (*domain.AssessmentResult, error) {
	raw, err := s.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, cachedomain.ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var r domain.AssessmentResult
	if err := json.Unmarshal(raw, &r); err != nil {
		// corrupt entry, treat as miss
		_ = s.client.Del(ctx, keyPrefix+fingerprint).Err()
		return nil, cachedomain.ErrMiss
	}
	return &r, nil
}

func (s *Store) Put(ctx context.Context, fingerprint string, r *domain.AssessmentResult, ttl time.Duration) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+fingerprint, raw, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, fingerprint string) error {
	return s.client.Del(ctx, keyPrefix+fingerprint).Err()
}

// Flush drops every cached assessment via SCAN, never FLUSHDB: the database
// may be shared.
func (s *Store) Flush(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		dropped int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 200).Result()
		if err != nil {
			return dropped, err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return dropped, err
			}
			dropped += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return dropped, nil
		}
	}
}

func (s *Store) Stats(ctx context.Context) (*cachedomain.Stats, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 200).Result()
		if err != nil {
			return nil, err
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return &cachedomain.Stats{Backend: "redis", Entries: count}, nil
}
