// Package redisstore implements the primary record store on Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/numline-systems/numline-ingest/internal/models"
	"github.com/numline-systems/numline-ingest/internal/store"
)

const keyPrefix = "record:"

// Store holds canonical phone records as JSON values keyed by E164 number.
// Creation uses SET NX so the store itself rejects a second record for the
// same key; records written here are never updated.
type Store struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("exists check for %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) PutIfAbsent(ctx context.Context, rec *models.PhoneRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.E164Number, err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+rec.E164Number, data, 0).Result()
	if err != nil {
		return fmt.Errorf("put record %s: %w", rec.E164Number, err)
	}
	if !ok {
		return store.ErrKeyExists
	}
	return nil
}

// Get fetches a canonical record, or nil if none exists. Used by readiness
// tooling and tests; the pipeline itself never reads records back.
func (s *Store) Get(ctx context.Context, key string) (*models.PhoneRecord, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", key, err)
	}

	var rec models.PhoneRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return &rec, nil
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
