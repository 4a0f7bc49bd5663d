// Package tokenstore provides server-side storage for issued bearer
// tokens, so a token can be revoked before its signature expires.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound covers tokens that were never issued, expired out of the
// store, or were revoked.
var ErrNotFound = errors.New("token not found or expired")

// Record is the data stored per token hash.
type Record struct {
	Subject   string    `json:"subject"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps token records in Redis with per-key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "bearer:"}, nil
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

// SaveToken stores a record for the hashed token until expiresAt.
func (s *RedisStore) SaveToken(ctx context.Context, tokenHash string, rec Record, expiresAt time.Time) error {
	rec.CreatedAt = time.Now()
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := s.client.Set(ctx, s.key(tokenHash), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Lookup returns the record for a hashed token.
func (s *RedisStore) Lookup(ctx context.Context, tokenHash string) (Record, error) {
	jsonData, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup token: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(jsonData), &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal token record: %w", err)
	}
	return rec, nil
}

// Revoke deletes a hashed token. Revoking an unknown token is not an error.
func (s *RedisStore) Revoke(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
