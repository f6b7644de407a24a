package issuer

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"

	"github.com/joliest/shopify-install-proxy/internal/constants"
)

func Algorithm() jwa.SignatureAlgorithm { return jwa.HS256() }

// State is the content of a verified state cookie.
type State struct {
	Nonce     string
	Shop      string
	ExpiresAt time.Time
}

// Issuer signs and verifies the state cookie that binds an authorization
// request to its callback.
type Issuer interface {
	Issue(nonce, shop string, now time.Time) (string, time.Time, error)
	Verify(token string, now time.Time) (*State, error)
}

type stateIssuer struct {
	key []byte
	ttl time.Duration
}

// New returns an Issuer keyed by secret. Issued states are valid for ttl.
func New(secret string, ttl time.Duration) Issuer {
	return &stateIssuer{
		key: []byte(secret),
		ttl: ttl,
	}
}

func (s *stateIssuer) Issue(nonce, shop string, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.ttl)

	tok, err := jwt.NewBuilder().
		Issuer(constants.ShopifyInstallProxy).
		Subject(shop).
		JwtID(nonce).
		IssuedAt(now).
		NotBefore(now).
		Expiration(exp).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build state: %w", err)
	}

	b, err := jwt.Sign(tok, jwt.WithKey(Algorithm(), s.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign state: %w", err)
	}

	logrus.WithField("state", logrus.Fields{
		"shop":      shop,
		"expiresAt": exp,
	}).Debug("state issued")

	return string(b), exp, nil
}

func (s *stateIssuer) Verify(token string, now time.Time) (*State, error) {
	tok, err := jwt.ParseString(token,
		jwt.WithKey(Algorithm(), s.key),
		jwt.WithIssuer(constants.ShopifyInstallProxy),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })))
	if err != nil {
		return nil, fmt.Errorf("invalid state: %w", err)
	}

	nonce, ok := tok.JwtID()
	if !ok || nonce == "" {
		return nil, fmt.Errorf("state has no nonce")
	}
	shop, ok := tok.Subject()
	if !ok || shop == "" {
		return nil, fmt.Errorf("state has no shop")
	}
	exp, ok := tok.Expiration()
	if !ok || !now.Before(exp) {
		return nil, fmt.Errorf("state expired")
	}

	return &State{
		Nonce:     nonce,
		Shop:      shop,
		ExpiresAt: exp,
	}, nil
}
