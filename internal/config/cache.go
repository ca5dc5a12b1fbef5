package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CacheConfig defines settings for the response cache middleware. When
// Enabled is false or no Redis client is configured, caching is disabled.
type CacheConfig struct {
	Enabled      bool          `envconfig:"ENABLED" default:"true"`
	Methods      []string      `envconfig:"METHODS" default:"GET"`
	TTL          time.Duration `envconfig:"TTL" default:"30s"`
	KeyStrategy  string        `envconfig:"KEY_STRATEGY" default:"route_query"`
	Prefix       string        `envconfig:"PREFIX" default:"cache"`
	MaxBodyBytes int           `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() (CacheConfig, error) {
	var cc CacheConfig
	err := envconfig.Process("CACHE", &cc)
	return cc, err
}

// MethodSet returns the cacheable methods upper-cased.
func (cc CacheConfig) MethodSet() map[string]bool {
	m := make(map[string]bool, len(cc.Methods))
	for _, p := range cc.Methods {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
