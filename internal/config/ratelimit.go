package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig drives the Redis token bucket in front of /v1.
type RateLimitConfig struct {
	Enabled        bool          `envconfig:"ENABLED" default:"true"`
	Capacity       int           `envconfig:"CAPACITY" default:"60"`
	RefillTokens   int           `envconfig:"REFILL_TOKENS" default:"1"`
	RefillInterval time.Duration `envconfig:"REFILL_INTERVAL" default:"1s"`
	TTL            time.Duration `envconfig:"TTL" default:"10m"`
	KeyStrategy    string        `envconfig:"KEY_STRATEGY" default:"ip_user_route"`
	Prefix         string        `envconfig:"PREFIX" default:"rl"`
	Debug          bool          `envconfig:"DEBUG" default:"false"`

	// Burst and RefillEvery are shorthands that override Capacity and
	// RefillTokens/RefillInterval when set.
	Burst       int           `envconfig:"BURST"`
	RefillEvery time.Duration `envconfig:"REFILL_EVERY"`
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables and normalizes them.
func LoadRateLimitConfig() (RateLimitConfig, error) {
	var rl RateLimitConfig
	if err := envconfig.Process("RATE_LIMIT", &rl); err != nil {
		return RateLimitConfig{}, err
	}
	rl.normalize()
	return rl, nil
}

func (rl *RateLimitConfig) normalize() {
	if rl.Burst > 0 {
		rl.Capacity = rl.Burst
	}
	if rl.RefillEvery > 0 {
		rl.RefillTokens = 1
		rl.RefillInterval = rl.RefillEvery
	}
	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	// a key must outlive a few refill intervals or the bucket resets early
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
}
