package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Auth struct {
		SigningKey      string   `yaml:"signing_key"`
		SigningMethod   string   `yaml:"signing_method"`
		ContextKey      string   `yaml:"context_key"`
		TokenLookup     string   `yaml:"token_lookup"`
		AuthScheme      string   `yaml:"auth_scheme"`
		Issuer          string   `yaml:"issuer"`
		Audience        []string `yaml:"audience"`
		AccessTokenTTL  string   `yaml:"access_token_ttl"`
		RefreshTokenTTL string   `yaml:"refresh_token_ttl"`
		ResetTokenTTL   string   `yaml:"reset_token_ttl"`
	} `yaml:"auth"`

	URLs struct {
		Activation string `yaml:"activation"`
		Frontend   string `yaml:"frontend"`
	} `yaml:"urls"`

	Persistence PersistenceConfig `yaml:"persistence"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Notifications struct {
		// BroadcastInterval paces the daily fact mail. "0" disables it.
		BroadcastInterval string `yaml:"broadcast_interval"`
	} `yaml:"notifications"`

	Debug bool `yaml:"debug"`
}

// GetBroadcastInterval returns how often the fact broadcast runs. Zero or a
// negative value disables the scheduler.
func (c *Config) GetBroadcastInterval() time.Duration {
	return parseDurationOr(c.Notifications.BroadcastInterval, 24*time.Hour)
}

// PersistenceConfig carries database settings and satisfies the persistence
// client's config accessors
type PersistenceConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	Server      string `yaml:"server"`
	Database    string `yaml:"database"`
	PingTimeout string `yaml:"ping_timeout"`
	Debug       bool   `yaml:"debug"`
}

func (p PersistenceConfig) GetDriver() string {
	return p.Driver
}

func (p PersistenceConfig) GetDSN() string {
	return p.DSN
}

func (p PersistenceConfig) GetServer() string {
	return p.Server
}

func (p PersistenceConfig) GetDatabase() string {
	return p.Database
}

func (p PersistenceConfig) GetDebug() bool {
	return p.Debug
}

func (p PersistenceConfig) GetOtelIdentifier() string {
	return ""
}

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Set defaults if not specified
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Auth.SigningMethod == "" {
		config.Auth.SigningMethod = "HS256"
	}
	if config.Auth.ContextKey == "" {
		config.Auth.ContextKey = "user"
	}
	if config.Auth.AuthScheme == "" {
		config.Auth.AuthScheme = "Bearer"
	}
	if config.Auth.TokenLookup == "" {
		config.Auth.TokenLookup = "header:Authorization"
	}
	if config.Persistence.Driver == "" {
		config.Persistence.Driver = "sqlite"
	}
	if config.Persistence.DSN == "" {
		config.Persistence.DSN = "file::memory:?cache=shared"
	}
	if config.Metrics.Path == "" {
		config.Metrics.Path = "/metrics"
	}
	if config.URLs.Activation == "" {
		config.URLs.Activation = fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	}
	if config.URLs.Frontend == "" {
		config.URLs.Frontend = config.URLs.Activation
	}

	if config.Auth.SigningKey == "" {
		return nil, fmt.Errorf("auth.signing_key is required")
	}

	return config, nil
}

// The auth accessors satisfy the module's Config interface

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetSigningMethod() string {
	return c.Auth.SigningMethod
}

func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.Auth.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Auth.Audience
}

func (c *Config) GetAccessTokenTTL() time.Duration {
	return parseDurationOr(c.Auth.AccessTokenTTL, 15*time.Minute)
}

func (c *Config) GetRefreshTokenTTL() time.Duration {
	return parseDurationOr(c.Auth.RefreshTokenTTL, 7*24*time.Hour)
}

func (c *Config) GetResetTokenTTL() time.Duration {
	return parseDurationOr(c.Auth.ResetTokenTTL, 30*time.Minute)
}

func (c *Config) GetActivationURL() string {
	return c.URLs.Activation
}

func (c *Config) GetFrontendURL() string {
	return c.URLs.Frontend
}

func parseDurationOr(expr string, def time.Duration) time.Duration {
	if expr == "" {
		return def
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		return def
	}
	return dur
}
