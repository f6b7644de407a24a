package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/joliest/shopify-install-proxy/internal/config"
)

// Token is the offline or online access token obtained for a shop.
type Token struct {
	AccessToken string    `json:"access_token"`
	Scope       string    `json:"scope,omitempty"`
	ObtainedAt  time.Time `json:"obtained_at"`
}

type TokenStore interface {
	GetToken(ctx context.Context, shop string) (*Token, bool, error)
	PutToken(ctx context.Context, shop string, tok *Token) error
}

// NonceStore issues single-use nonces bound to a shop. A nonce can be
// consumed at most once and only before it expires.
type NonceStore interface {
	StoreNonce(ctx context.Context, shop string) (string, error)
	ConsumeNonce(ctx context.Context, nonce string) (shop string, ok bool, err error)
}

type Store interface {
	TokenStore
	NonceStore
	Close() error
}

func New(conf *config.StoreConfig) (Store, error) {
	switch conf.Backend {
	case config.StoreBackendMemory:
		return NewMemoryStore(conf.NonceTTL), nil
	case config.StoreBackendRedis:
		return NewRedisStore(conf.RedisURL, conf.KeyPrefix, conf.NonceTTL)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", conf.Backend)
	}
}

// generateNonce returns 32 random bytes, base64url-encoded without padding.
func generateNonce() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}
