package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyNonces = "nonce"
	redisKeyTokens = "token"
)

type redisStore struct {
	client    *redis.Client
	keyPrefix string
	nonceTTL  time.Duration

	generateNonce func() (string, error)
}

// NewRedisStore creates a store backed by the Redis server at url
// (redis://[user:password@]host:port/db). Nonces expire through Redis TTLs.
func NewRedisStore(url, keyPrefix string, nonceTTL time.Duration) (*redisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return newRedisStore(redis.NewClient(opts), keyPrefix, nonceTTL), nil
}

func newRedisStore(client *redis.Client, keyPrefix string, nonceTTL time.Duration) *redisStore {
	return &redisStore{
		client:    client,
		keyPrefix: keyPrefix,
		nonceTTL:  nonceTTL,
	}
}

func (r *redisStore) nonceKey(nonce string) string {
	return fmt.Sprintf("%s:%s:%s", r.keyPrefix, redisKeyNonces, nonce)
}

func (r *redisStore) tokenKey(shop string) string {
	return fmt.Sprintf("%s:%s:%s", r.keyPrefix, redisKeyTokens, shop)
}

func (r *redisStore) StoreNonce(ctx context.Context, shop string) (string, error) {
	gen := generateNonce
	if r.generateNonce != nil {
		gen = r.generateNonce
	}
	for {
		nonce, err := gen()
		if err != nil {
			return "", err
		}
		ok, err := r.client.SetNX(ctx, r.nonceKey(nonce), shop, r.nonceTTL).Result()
		if err != nil {
			return "", fmt.Errorf("failed to store nonce: %w", err)
		}
		if ok {
			return nonce, nil
		}
	}
}

func (r *redisStore) ConsumeNonce(ctx context.Context, nonce string) (string, bool, error) {
	shop, err := r.client.GetDel(ctx, r.nonceKey(nonce)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return shop, true, nil
}

func (r *redisStore) GetToken(ctx context.Context, shop string) (*Token, bool, error) {
	b, err := r.client.Get(ctx, r.tokenKey(shop)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get token: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &tok, true, nil
}

func (r *redisStore) PutToken(ctx context.Context, shop string, tok *Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := r.client.Set(ctx, r.tokenKey(shop), b, 0).Err(); err != nil {
		return fmt.Errorf("failed to put token: %w", err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
