package config

import "time"

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"

	defaultNonceTTL = 5 * time.Minute
)

type StoreConfig struct {
	Backend   string        `yaml:"backend" json:"backend" envconfig:"BACKEND"`
	RedisURL  string        `yaml:"redisURL" json:"-" envconfig:"REDIS_URL"`
	KeyPrefix string        `yaml:"keyPrefix" json:"keyPrefix" envconfig:"KEY_PREFIX"`
	NonceTTL  time.Duration `yaml:"nonceTTL" json:"nonceTTL" envconfig:"NONCE_TTL"`
}
