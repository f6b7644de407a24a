package config

import "strings"

type AppConfig struct {
	// ForwardingAddress is the public base URL Shopify redirects back to.
	ForwardingAddress string `yaml:"forwardingAddress" json:"forwardingAddress" envconfig:"NGROK_ADDR"`
	// FrontEndAddress is where the merchant's browser lands after install.
	FrontEndAddress string `yaml:"frontEndAddress" json:"frontEndAddress" envconfig:"FRONT_END_ADDR"`
}

func (a *AppConfig) CallbackURL(callbackPath string) string {
	return strings.TrimSuffix(a.ForwardingAddress, "/") + callbackPath
}
