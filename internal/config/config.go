package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/joliest/shopify-install-proxy/internal/constants"
)

const (
	envConfigFile     = "SHOPIFY_INSTALL_PROXY_CONFIG"
	defaultConfigFile = "/etc/shopify-install-proxy/config/config.yaml"
	defaultEnvFile    = ".env"
)

type Config struct {
	Shopify ShopifyConfig `yaml:"shopify" json:"shopify"`
	App     AppConfig     `yaml:"app" json:"app"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// Load reads the configuration file, then the .env file, then the process
// environment. Later sources override earlier ones.
func Load() (*Config, error) {
	fileName, required := defaultConfigFile, false
	if fn := os.Getenv(envConfigFile); fn != "" {
		fileName, required = fn, true
	}
	return load(fileName, required, defaultEnvFile)
}

func load(fileName string, required bool, envFile string) (*Config, error) {
	var cfg Config
	if err := cfg.decodeFile(fileName, required); err != nil {
		return nil, err
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file '%s': %w", envFile, err)
	}
	if err := cfg.decodeEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) decodeFile(fileName string, required bool) error {
	f, err := os.Open(fileName)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config file '%s': %w", fileName, err)
	}
	return nil
}

func (c *Config) decodeEnv() error {
	targets := []struct {
		prefix string
		target any
	}{
		{"shopify", &c.Shopify},
		{"", &c.App},
		{"store", &c.Store},
		{"server", &c.Server},
	}
	for _, s := range targets {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return fmt.Errorf("failed to process environment variables: %w", err)
		}
	}
	return nil
}

func (c *Config) ValidateAndInitialize() error {
	// Apply defaults.
	if len(c.Shopify.Scopes) == 0 {
		c.Shopify.Scopes = []string{constants.DefaultScope}
	}
	if c.Shopify.APIVersion == "" {
		c.Shopify.APIVersion = constants.DefaultAPIVersion
	}
	if len(c.Shopify.AllowedShopDomains) == 0 {
		c.Shopify.AllowedShopDomains = DefaultAllowedShopDomains
	}
	if c.Shopify.Timeout == 0 {
		c.Shopify.Timeout = defaultShopifyTimeout
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreBackendMemory
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = constants.ShopifyInstallProxy
	}
	if c.Store.NonceTTL == 0 {
		c.Store.NonceTTL = defaultNonceTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.CORS == nil {
		cors := true
		c.Server.CORS = &cors
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultServerShutdownTimeout
	}

	// Validate required fields.
	if c.Shopify.APIKey == "" {
		return fmt.Errorf("shopify.apiKey must be set")
	}
	if c.Shopify.APISecret == "" {
		return fmt.Errorf("shopify.apiSecret must be set")
	}
	if err := validateAbsoluteURL("app.forwardingAddress", c.App.ForwardingAddress); err != nil {
		return err
	}
	if err := validateAbsoluteURL("app.frontEndAddress", c.App.FrontEndAddress); err != nil {
		return err
	}
	if c.Store.NonceTTL < 0 {
		return fmt.Errorf("store.nonceTTL must be positive")
	}
	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redisURL must be set for the %s backend", StoreBackendRedis)
		}
	default:
		return fmt.Errorf("unsupported store.backend '%s', must be one of [%s, %s]",
			c.Store.Backend, StoreBackendMemory, StoreBackendRedis)
	}

	// Compile regular expressions.
	c.Shopify.regexAllowedShopDomains = nil
	for _, s := range c.Shopify.AllowedShopDomains {
		r, err := regexp.Compile(s)
		if err != nil {
			return fmt.Errorf("failed to build regex list for allowed shop domains: failed to compile regex '%s': %w", s, err)
		}
		c.Shopify.regexAllowedShopDomains = append(c.Shopify.regexAllowedShopDomains, r)
	}

	return nil
}

func validateAbsoluteURL(field, s string) error {
	if s == "" {
		return fmt.Errorf("%s must be set", field)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL: %s", field, s)
	}
	return nil
}
