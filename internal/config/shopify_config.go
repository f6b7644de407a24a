package config

import (
	"regexp"
	"time"
)

const (
	defaultShopifyTimeout = 10 * time.Second
)

// DefaultAllowedShopDomains matches the permanent *.myshopify.com domain every
// shop is reachable at.
var DefaultAllowedShopDomains = []string{`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`}

type ShopifyConfig struct {
	APIKey             string        `yaml:"apiKey" json:"apiKey" envconfig:"API_KEY"`
	APISecret          string        `yaml:"apiSecret" json:"-" envconfig:"API_SECRET"`
	Scopes             []string      `yaml:"scopes" json:"scopes" envconfig:"SCOPES"`
	APIVersion         string        `yaml:"apiVersion" json:"apiVersion" envconfig:"API_VERSION"`
	OnlineAccessMode   bool          `yaml:"onlineAccessMode" json:"onlineAccessMode" envconfig:"ONLINE_ACCESS_MODE"`
	AllowedShopDomains []string      `yaml:"allowedShopDomains" json:"allowedShopDomains" envconfig:"ALLOWED_SHOP_DOMAINS"`
	Timeout            time.Duration `yaml:"timeout" json:"timeout" envconfig:"TIMEOUT"`

	regexAllowedShopDomains []*regexp.Regexp
}

// ValidateShopDomain reports whether shop is a domain the proxy is willing to
// redirect to and call.
func (s *ShopifyConfig) ValidateShopDomain(shop string) bool {
	if shop == "" {
		return false
	}
	for _, r := range s.regexAllowedShopDomains {
		if r.MatchString(shop) {
			return true
		}
	}
	return false
}
