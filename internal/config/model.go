package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ledgerbook/client/internal/common"
)

// Config represents the application configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`

	logger *eventLogger
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionBackend string

const (
	SessionBackendFile   SessionBackend = "file"
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

type SessionConfig struct {
	Backend SessionBackend `mapstructure:"backend"`
	Path    string         `mapstructure:"path"` // Directory holding <host>.yaml token files
	Key     string         `mapstructure:"key"`  // Storage key for the token
	Redis   RedisConfig    `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) GetBaseURL() string {
	return strings.TrimSuffix(c.API.BaseURL, "/")
}

func (c *Config) GetHostname() string {
	return common.HostnameOf(c.API.BaseURL)
}

func (c *Config) SetBaseURL(baseURL string) error {
	if !common.IsValidBaseURL(baseURL) {
		return fmt.Errorf("invalid base url: %s", baseURL)
	}
	c.API.BaseURL = strings.TrimSuffix(baseURL, "/")
	return nil
}

func (c *Config) GetTimeout() time.Duration {
	if c.API.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.API.Timeout
}

func (c *Config) Validate() error {
	if !common.IsValidBaseURL(c.API.BaseURL) {
		return fmt.Errorf("api.base_url must be an absolute http(s) url, got %q", c.API.BaseURL)
	}

	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendRedis:
		if len(c.Session.Redis.Addr) == 0 {
			return fmt.Errorf("session.redis.addr is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %s", c.Session.Backend)
	}

	if len(c.Session.Key) == 0 {
		return fmt.Errorf("session.key must not be empty")
	}

	return nil
}
