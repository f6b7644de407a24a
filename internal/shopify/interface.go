package shopify

import (
	"context"
	"net/url"

	"github.com/joliest/shopify-install-proxy/internal/store"
)

type Interface interface {
	AuthorizeURL(shop, state, redirectURI string) string
	VerifyCallback(query url.Values) error
	ExchangeCode(ctx context.Context, shop, code string) (*store.Token, error)
	ListProducts(ctx context.Context, shop, accessToken string, filters url.Values) (*Response, error)
}
