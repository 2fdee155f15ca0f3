// Package redis provides the Redis backed store used to replay responses of retried mutating requests.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "idempotency:"
	placeholder = "processing|"
)

var (
	// ErrRequestInFlight is returned when another request holding the same key has not finished yet
	ErrRequestInFlight = errors.New("request with the same idempotency key is still being processed")

	// ErrKeyReused is returned when a key is presented again for a different request
	ErrKeyReused = errors.New("idempotency key was already used for a different request")
)

// CachedResponse is the stored outcome of a completed request.
// Fingerprint identifies the request that produced it, e.g. "POST /api/v1/contacts".
type CachedResponse struct {
	Fingerprint string `json:"fingerprint"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore keeps one entry per owner and Idempotency-Key
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewIdempotencyStore creates a new Redis idempotency store
func NewIdempotencyStore(logger *slog.Logger, client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Reserve claims the key for the request identified by fingerprint. It returns the cached response when
// the key already completed, ErrRequestInFlight when it is claimed but unfinished, ErrKeyReused when the
// key belongs to a different request and (nil, nil) when the caller now owns it.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID, key, fingerprint string) (*CachedResponse, error) {
	fullKey := s.key(ownerID, key)

	set, err := s.client.SetNX(ctx, fullKey, placeholder+fingerprint, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if set {
		return nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return s.Reserve(ctx, ownerID, key, fingerprint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if pending, ok := strings.CutPrefix(string(existing), placeholder); ok {
		if pending != fingerprint {
			return nil, ErrKeyReused
		}
		return nil, ErrRequestInFlight
	}

	var cached CachedResponse
	if err := json.Unmarshal(existing, &cached); err != nil {
		s.logger.Warn("Discarding unreadable idempotency entry", "key", fullKey, "error", err)
		if delErr := s.client.Del(ctx, fullKey).Err(); delErr != nil {
			return nil, fmt.Errorf("failed to discard idempotency key: %w", delErr)
		}
		return s.Reserve(ctx, ownerID, key, fingerprint)
	}
	if cached.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	return &cached, nil
}

// Complete stores the final response for a reserved key
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID, key string, resp *CachedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, s.key(ownerID, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Release frees a reserved key so the client can retry after a failed request
func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, s.key(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return keyPrefix + ownerID + ":" + key
}
