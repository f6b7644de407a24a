package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/joliest/shopify-install-proxy/internal/config"
	"github.com/joliest/shopify-install-proxy/internal/constants"
	"github.com/joliest/shopify-install-proxy/internal/store"
)

const (
	pathAuthorize   = "/admin/oauth/authorize"
	pathAccessToken = "/admin/oauth/access_token"

	maxResponseSize = 10 << 20
)

type Client struct {
	conf            *config.ShopifyConfig
	httpClient      *http.Client
	baseURL         func(shop string) string
	nowFunc         func() time.Time
	maxResponseSize int64
}

type Option func(*Client)

// WithHTTPClient replaces the client used for calls to Shopify.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL replaces how the admin base URL of a shop is derived.
// The default is https://{shop}.
func WithBaseURL(f func(shop string) string) Option {
	return func(c *Client) { c.baseURL = f }
}

func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) { c.nowFunc = f }
}

func New(conf *config.ShopifyConfig, opts ...Option) *Client {
	c := &Client{
		conf:       conf,
		httpClient: &http.Client{Timeout: conf.Timeout},
		baseURL:    func(shop string) string { return "https://" + shop },
		nowFunc:    time.Now,

		maxResponseSize: maxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) oauth2Config(shop, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: c.conf.APIKey,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.baseURL(shop) + pathAuthorize,
			TokenURL: c.baseURL(shop) + pathAccessToken,
		},
		RedirectURL: redirectURI,
		// Shopify expects a comma-separated list in a single scope parameter.
		Scopes: []string{strings.Join(c.conf.Scopes, ",")},
	}
}

func (c *Client) AuthorizeURL(shop, state, redirectURI string) string {
	var opts []oauth2.AuthCodeOption
	if c.conf.OnlineAccessMode {
		opts = append(opts, oauth2.SetAuthURLParam(constants.QueryParamGrantOptions, constants.GrantOptionPerUser))
	}
	return c.oauth2Config(shop, redirectURI).AuthCodeURL(state, opts...)
}

func (c *Client) VerifyCallback(query url.Values) error {
	return VerifyHMAC(c.conf.APISecret, query)
}

func (c *Client) ExchangeCode(ctx context.Context, shop, code string) (*store.Token, error) {
	b, err := json.Marshal(map[string]string{
		"client_id":     c.conf.APIKey,
		"client_secret": c.conf.APISecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal access token request: %w", err)
	}

	tokenURL := c.oauth2Config(shop, "").Endpoint.TokenURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal access token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("access token response has no access_token")
	}

	return &store.Token{
		AccessToken: payload.AccessToken,
		Scope:       payload.Scope,
		ObtainedAt:  c.nowFunc(),
	}, nil
}

// Response is a successful Shopify API response, kept raw for passthrough.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (c *Client) ListProducts(ctx context.Context, shop, accessToken string, filters url.Values) (*Response, error) {
	u := fmt.Sprintf("%s/admin/api/%s/products.json", c.baseURL(shop), c.conf.APIVersion)
	if len(filters) > 0 {
		u += "?" + filters.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create products request: %w", err)
	}
	req.Header.Set(constants.HeaderAccessToken, accessToken)
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// do sends req and reads the whole response. Non-2xx responses are returned
// as *ProviderError. Bodies over maxResponseSize are an error, never
// truncated.
func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s %s: %w", req.Method, req.URL.Path, err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("response from %s %s exceeds %d bytes", req.Method, req.URL.Path, c.maxResponseSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			StatusCode:  resp.StatusCode,
			ContentType: contentType,
			Body:        body,
		}
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}
