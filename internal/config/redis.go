package config

// Redis backs distributed rate limiting and HTTP response caching. When the
// server cannot be reached at startup NewRedisClient returns nil and callers
// degrade by disabling both.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// RedisConfig is read from REDIS_* variables. Addr is used unless both Host
// and Port are set.
type RedisConfig struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
	TLS      bool   `envconfig:"TLS" default:"false"`
}

// LoadRedisConfig reads REDIS_* variables.
func LoadRedisConfig() (RedisConfig, error) {
	var rc RedisConfig
	err := envconfig.Process("REDIS", &rc)
	return rc, err
}

// Address resolves the host:port the client dials.
func (rc RedisConfig) Address() string {
	if rc.Host != "" && rc.Port != "" {
		return rc.Host + ":" + rc.Port
	}
	return rc.Addr
}

// NewRedisClient builds a client from rc and pings it with a short timeout.
// The returned client is nil if the server is unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      rc.Address(),
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
