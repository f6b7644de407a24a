package config

import "time"

const (
	defaultServerAddr            = ":8080"
	defaultServerShutdownTimeout = 10 * time.Second
)

type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr" envconfig:"ADDR"`
	CORS            *bool         `yaml:"cors" json:"cors" envconfig:"CORS"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// CORSEnabled reports whether the API answers cross-origin requests. It is
// on unless explicitly disabled.
func (s *ServerConfig) CORSEnabled() bool {
	return s.CORS == nil || *s.CORS
}
