// Package idempotency caches the first response of a keyed request in Redis so
// retries replay it instead of repeating side effects.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pending = "\x00pending"

var (
	// ErrInFlight means another request with the same key has not finished yet.
	ErrInFlight = errors.New("idempotent request already in flight")
	ErrEmptyKey = errors.New("idempotency key required")
)

type Store interface {
	// Begin claims key. When a completed response exists it is returned with
	// found=true and the caller must replay it.
	Begin(ctx context.Context, key string) (cached []byte, found bool, err error)
	// Complete stores the response for key.
	Complete(ctx context.Context, key string, response []byte) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}

type Option func(*redisStore)

// WithTTL sets how long claims and responses are kept.
func WithTTL(ttl time.Duration) Option {
	return func(s *redisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *redisStore) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

type redisStore struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb goredis.UniversalClient, opts ...Option) Store {
	s := &redisStore{rdb: rdb, ttl: 24 * time.Hour, prefix: "formflow:idem"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *redisStore) key(k string) (string, error) {
	k = strings.TrimSpace(k)
	if k == "" {
		return "", ErrEmptyKey
	}
	return s.prefix + ":" + k, nil
}

func (s *redisStore) Begin(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := s.key(key)
	if err != nil {
		return nil, false, err
	}
	claimed, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if claimed {
		return nil, false, nil
	}
	raw, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, goredis.Nil) {
		// Expired between SETNX and GET; treat as a fresh claim attempt.
		return s.Begin(ctx, key)
	}
	if err != nil {
		return nil, false, err
	}
	if string(raw) == pending {
		return nil, false, ErrInFlight
	}
	return raw, true, nil
}

func (s *redisStore) Complete(ctx context.Context, key string, response []byte) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, k, response, s.ttl).Err()
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, k).Err()
}
