package server

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joliest/shopify-install-proxy/internal/logging"
	"github.com/joliest/shopify-install-proxy/internal/shopify"
	"github.com/joliest/shopify-install-proxy/internal/store"
)

const (
	exchangeSkipped  = "skipped"
	exchangeObtained = "obtained"
)

// tokenExchanger moves a shop from NoToken to TokenCached. Concurrent
// callbacks for the same shop share a single exchange.
type tokenExchanger struct {
	sh      shopify.Interface
	tokens  store.TokenStore
	timeout time.Duration
	group   singleflight.Group
}

func newTokenExchanger(sh shopify.Interface, tokens store.TokenStore, timeout time.Duration) *tokenExchanger {
	return &tokenExchanger{sh: sh, tokens: tokens, timeout: timeout}
}

// ensureToken exchanges code for an access token unless one is already
// cached for shop. It returns exchangeSkipped or exchangeObtained.
func (e *tokenExchanger) ensureToken(ctx context.Context, shop, code string) (string, error) {
	for retried := false; ; retried = true {
		ok, err := e.hasToken(ctx, shop)
		if err != nil {
			return "", err
		}
		if ok {
			return exchangeSkipped, nil
		}

		usedCode, shared, err := e.exchange(ctx, shop, code)
		if err == nil {
			logging.FromContext(ctx).WithField("shared", shared).Info("access token obtained")
			return exchangeObtained, nil
		}
		// A failed exchange of another callback's code says nothing about ours.
		if usedCode == code || retried {
			return "", err
		}
		logging.FromContext(ctx).WithError(err).Debug("shared exchange failed, retrying with own code")
	}
}

func (e *tokenExchanger) hasToken(ctx context.Context, shop string) (bool, error) {
	_, ok, err := e.tokens.GetToken(ctx, shop)
	if err != nil {
		return false, newRequestError(nil, msgInternal, fmt.Errorf("failed to look up token: %w", err))
	}
	return ok, nil
}

// exchange joins or starts the exchange in flight for shop and returns the
// code that exchange used. The exchange outlives the request that started
// it, bounded by the configured timeout, so joined callers are not failed by
// the first caller going away.
func (e *tokenExchanger) exchange(ctx context.Context, shop, code string) (string, bool, error) {
	ch := e.group.DoChan(shop, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		tok, err := e.sh.ExchangeCode(ctx, shop, code)
		if err != nil {
			return code, err
		}
		if err := e.tokens.PutToken(ctx, shop, tok); err != nil {
			return code, newRequestError(nil, msgInternal, fmt.Errorf("failed to store token: %w", err))
		}
		return code, nil
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		usedCode, _ := res.Val.(string)
		return usedCode, res.Shared, res.Err
	}
}
