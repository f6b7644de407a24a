package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func newValidConfig() Config {
	return Config{
		Shopify: ShopifyConfig{
			APIKey:    "test-api-key",
			APISecret: "test-api-secret",
		},
		App: AppConfig{
			ForwardingAddress: "https://abc.ngrok.io",
			FrontEndAddress:   "http://localhost:3000",
		},
	}
}

func TestConfig_ValidateAndInitialize(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(c *Config)
		expectedErrMsg string
		check          func(g *WithT, c *Config)
	}{
		{
			name: "defaults applied",
			check: func(g *WithT, c *Config) {
				g.Expect(c.Shopify.Scopes).To(Equal([]string{"write_products"}))
				g.Expect(c.Shopify.APIVersion).To(Equal("2024-10"))
				g.Expect(c.Shopify.AllowedShopDomains).To(Equal(DefaultAllowedShopDomains))
				g.Expect(c.Shopify.Timeout).To(Equal(10 * time.Second))
				g.Expect(c.Store.Backend).To(Equal(StoreBackendMemory))
				g.Expect(c.Store.KeyPrefix).To(Equal("shopify-install-proxy"))
				g.Expect(c.Store.NonceTTL).To(Equal(5 * time.Minute))
				g.Expect(c.Server.Addr).To(Equal(":8080"))
				g.Expect(c.Server.ShutdownTimeout).To(Equal(10 * time.Second))
				g.Expect(c.Server.CORSEnabled()).To(BeTrue())
			},
		},
		{
			name: "explicit values kept",
			modify: func(c *Config) {
				c.Shopify.Scopes = []string{"read_products", "write_orders"}
				c.Shopify.APIVersion = "2025-01"
				c.Store.Backend = StoreBackendRedis
				c.Store.RedisURL = "redis://localhost:6379/0"
				c.Store.NonceTTL = time.Minute
				c.Server.Addr = ":9090"
				c.Server.CORS = new(bool)
			},
			check: func(g *WithT, c *Config) {
				g.Expect(c.Shopify.Scopes).To(Equal([]string{"read_products", "write_orders"}))
				g.Expect(c.Shopify.APIVersion).To(Equal("2025-01"))
				g.Expect(c.Store.Backend).To(Equal(StoreBackendRedis))
				g.Expect(c.Store.NonceTTL).To(Equal(time.Minute))
				g.Expect(c.Server.Addr).To(Equal(":9090"))
				g.Expect(c.Server.CORSEnabled()).To(BeFalse())
			},
		},
		{
			name:           "missing api key",
			modify:         func(c *Config) { c.Shopify.APIKey = "" },
			expectedErrMsg: "shopify.apiKey must be set",
		},
		{
			name:           "missing api secret",
			modify:         func(c *Config) { c.Shopify.APISecret = "" },
			expectedErrMsg: "shopify.apiSecret must be set",
		},
		{
			name:           "missing forwarding address",
			modify:         func(c *Config) { c.App.ForwardingAddress = "" },
			expectedErrMsg: "app.forwardingAddress must be set",
		},
		{
			name:           "relative front end address",
			modify:         func(c *Config) { c.App.FrontEndAddress = "/landing" },
			expectedErrMsg: "app.frontEndAddress must be an absolute URL: /landing",
		},
		{
			name:           "negative nonce ttl",
			modify:         func(c *Config) { c.Store.NonceTTL = -time.Second },
			expectedErrMsg: "store.nonceTTL must be positive",
		},
		{
			name:           "redis backend without url",
			modify:         func(c *Config) { c.Store.Backend = StoreBackendRedis },
			expectedErrMsg: "store.redisURL must be set for the redis backend",
		},
		{
			name:           "unknown backend",
			modify:         func(c *Config) { c.Store.Backend = "etcd" },
			expectedErrMsg: "unsupported store.backend 'etcd', must be one of [memory, redis]",
		},
		{
			name:           "invalid shop domain regex",
			modify:         func(c *Config) { c.Shopify.AllowedShopDomains = []string{"[invalid"} },
			expectedErrMsg: "failed to build regex list for allowed shop domains: failed to compile regex '[invalid': error parsing regexp: missing closing ]: `[invalid`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			c := newValidConfig()
			if tt.modify != nil {
				tt.modify(&c)
			}

			err := c.ValidateAndInitialize()

			if tt.expectedErrMsg != "" {
				g.Expect(err).To(MatchError(tt.expectedErrMsg))
				return
			}
			g.Expect(err).NotTo(HaveOccurred())
			tt.check(g, &c)
		})
	}
}

func TestShopifyConfig_ValidateShopDomain(t *testing.T) {
	tests := []struct {
		name           string
		allowedDomains []string
		shop           string
		expected       bool
	}{
		{
			name:     "default accepts myshopify domain",
			shop:     "foo.myshopify.com",
			expected: true,
		},
		{
			name:     "default accepts hyphens",
			shop:     "my-cool-shop.myshopify.com",
			expected: true,
		},
		{
			name:     "default rejects other domains",
			shop:     "evil.example.com",
			expected: false,
		},
		{
			name:     "default rejects suffix tricks",
			shop:     "foo.myshopify.com.evil.com",
			expected: false,
		},
		{
			name:     "default rejects paths",
			shop:     "evil.com/foo.myshopify.com",
			expected: false,
		},
		{
			name:     "empty shop",
			shop:     "",
			expected: false,
		},
		{
			name:           "custom domains",
			allowedDomains: []string{`^shop\.example\.com$`},
			shop:           "shop.example.com",
			expected:       true,
		},
		{
			name:           "custom domains replace the default",
			allowedDomains: []string{`^shop\.example\.com$`},
			shop:           "foo.myshopify.com",
			expected:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			c := newValidConfig()
			c.Shopify.AllowedShopDomains = tt.allowedDomains
			g.Expect(c.ValidateAndInitialize()).To(Succeed())

			g.Expect(c.Shopify.ValidateShopDomain(tt.shop)).To(Equal(tt.expected))
		})
	}
}

func TestAppConfig_CallbackURL(t *testing.T) {
	g := NewWithT(t)

	a := &AppConfig{ForwardingAddress: "https://abc.ngrok.io/"}
	g.Expect(a.CallbackURL("/shopify/callback")).To(Equal("https://abc.ngrok.io/shopify/callback"))

	a.ForwardingAddress = "https://abc.ngrok.io"
	g.Expect(a.CallbackURL("/shopify/callback")).To(Equal("https://abc.ngrok.io/shopify/callback"))
}

func TestLoad(t *testing.T) {
	const configYAML = `
shopify:
  apiKey: file-api-key
  apiSecret: file-api-secret
  scopes: [read_products]
app:
  forwardingAddress: https://file.ngrok.io
  frontEndAddress: http://localhost:3000
store:
  nonceTTL: 2m
server:
  addr: ":9000"
`

	t.Run("file only", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		fileName := filepath.Join(dir, "config.yaml")
		g.Expect(os.WriteFile(fileName, []byte(configYAML), 0o600)).To(Succeed())

		c, err := load(fileName, true, filepath.Join(dir, ".env"))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(c.Shopify.APIKey).To(Equal("file-api-key"))
		g.Expect(c.Shopify.Scopes).To(Equal([]string{"read_products"}))
		g.Expect(c.App.ForwardingAddress).To(Equal("https://file.ngrok.io"))
		g.Expect(c.Store.NonceTTL).To(Equal(2 * time.Minute))
		g.Expect(c.Server.Addr).To(Equal(":9000"))
	})

	t.Run("environment overrides file", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		fileName := filepath.Join(dir, "config.yaml")
		g.Expect(os.WriteFile(fileName, []byte(configYAML), 0o600)).To(Succeed())
		t.Setenv("SHOPIFY_API_KEY", "env-api-key")
		t.Setenv("SHOPIFY_SCOPES", "read_products,write_products")
		t.Setenv("NGROK_ADDR", "https://env.ngrok.io")
		t.Setenv("STORE_NONCE_TTL", "30s")

		c, err := load(fileName, true, filepath.Join(dir, ".env"))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(c.Shopify.APIKey).To(Equal("env-api-key"))
		g.Expect(c.Shopify.APISecret).To(Equal("file-api-secret"))
		g.Expect(c.Shopify.Scopes).To(Equal([]string{"read_products", "write_products"}))
		g.Expect(c.App.ForwardingAddress).To(Equal("https://env.ngrok.io"))
		g.Expect(c.Store.NonceTTL).To(Equal(30 * time.Second))
	})

	t.Run("env file without config file", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		envContent := "SHOPIFY_API_KEY=dotenv-key\nSHOPIFY_API_SECRET=dotenv-secret\nNGROK_ADDR=https://dotenv.ngrok.io\nFRONT_END_ADDR=http://localhost:3000\n"
		g.Expect(os.WriteFile(envFile, []byte(envContent), 0o600)).To(Succeed())
		t.Cleanup(func() {
			for _, k := range []string{"SHOPIFY_API_KEY", "SHOPIFY_API_SECRET", "NGROK_ADDR", "FRONT_END_ADDR"} {
				os.Unsetenv(k)
			}
		})

		c, err := load(filepath.Join(dir, "missing.yaml"), false, envFile)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(c.Shopify.APIKey).To(Equal("dotenv-key"))
		g.Expect(c.Shopify.APISecret).To(Equal("dotenv-secret"))
		g.Expect(c.App.ForwardingAddress).To(Equal("https://dotenv.ngrok.io"))
		g.Expect(c.App.FrontEndAddress).To(Equal("http://localhost:3000"))
	})

	t.Run("required file missing", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		_, err := load(filepath.Join(dir, "missing.yaml"), true, filepath.Join(dir, ".env"))
		g.Expect(err).To(HaveOccurred())
		g.Expect(os.IsNotExist(err)).To(BeTrue())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		fileName := filepath.Join(dir, "config.yaml")
		g.Expect(os.WriteFile(fileName, []byte("shopify: ["), 0o600)).To(Succeed())

		_, err := load(fileName, true, filepath.Join(dir, ".env"))
		g.Expect(err).To(MatchError(ContainSubstring("failed to decode config file")))
	})

	t.Run("validation error", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		_, err := load(filepath.Join(dir, "missing.yaml"), false, filepath.Join(dir, ".env"))
		g.Expect(err).To(MatchError("shopify.apiKey must be set"))
	})

	t.Run("Load uses config file from environment", func(t *testing.T) {
		g := NewWithT(t)

		dir := t.TempDir()
		fileName := filepath.Join(dir, "config.yaml")
		g.Expect(os.WriteFile(fileName, []byte(configYAML), 0o600)).To(Succeed())
		t.Setenv("SHOPIFY_INSTALL_PROXY_CONFIG", fileName)

		c, err := Load()
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(c.Shopify.APIKey).To(Equal("file-api-key"))
	})
}
