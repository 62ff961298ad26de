// Package config loads the demo host's configuration from YAML with
// environment overrides for anything secret.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`

	Provider struct {
		ClientID           string   `yaml:"client_id"`
		ClientSecret       string   `yaml:"client_secret"`
		StateSecret        string   `yaml:"state_secret"` // base64, 32 bytes
		AccountsBaseURL    string   `yaml:"accounts_base_url"`
		APIBaseURL         string   `yaml:"api_base_url"`
		CallbackPath       string   `yaml:"callback_path"`
		Scopes             []string `yaml:"scopes"`
		AppName            string   `yaml:"app_name"`
		AppLogoURL         string   `yaml:"app_logo_url"`
		BackchannelTimeout string   `yaml:"backchannel_timeout"`
		CookieSecure       bool     `yaml:"cookie_secure"`
	} `yaml:"provider"`

	Correlation struct {
		// memory | redis | postgres
		Store string `yaml:"store"`
		TTL   string `yaml:"ttl"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"correlation"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		Secret     string `yaml:"secret"`
		TTL        string `yaml:"ttl"`
	} `yaml:"session"`
}

// Load reads the YAML file (when path is non-empty and exists), then applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Environment always wins over the file. Secrets should only ever arrive
// through here.
func (c *Config) applyEnv() {
	setStr(&c.App.Env, "SIGNON_APP_ENV")
	setStr(&c.App.LogLevel, "SIGNON_LOG_LEVEL")
	setStr(&c.Server.Addr, "SIGNON_ADDR")
	setStr(&c.Server.MetricsAddr, "SIGNON_METRICS_ADDR")
	setStr(&c.Provider.ClientID, "SIGNON_CLIENT_ID")
	setStr(&c.Provider.ClientSecret, "SIGNON_CLIENT_SECRET")
	setStr(&c.Provider.StateSecret, "SIGNON_STATE_SECRET")
	setStr(&c.Provider.AccountsBaseURL, "SIGNON_ACCOUNTS_BASE_URL")
	setStr(&c.Provider.APIBaseURL, "SIGNON_API_BASE_URL")
	setStr(&c.Correlation.Store, "SIGNON_CORRELATION_STORE")
	setStr(&c.Correlation.Redis.Addr, "SIGNON_REDIS_ADDR")
	setStr(&c.Correlation.Postgres.DSN, "SIGNON_POSTGRES_DSN")
	setStr(&c.Session.Secret, "SIGNON_SESSION_SECRET")

	if v := os.Getenv("SIGNON_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Correlation.Redis.DB = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Correlation.Store == "" {
		c.Correlation.Store = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "signon_demo_session"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "12h"
	}
}

// StateSecretBytes decodes the base64 state secret and checks its length.
func (c *Config) StateSecretBytes() ([]byte, error) {
	raw := strings.TrimSpace(c.Provider.StateSecret)
	if raw == "" {
		return nil, fmt.Errorf("config: provider.state_secret is not set; generate one with: signon keygen")
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("config: decode provider.state_secret: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("config: provider.state_secret must decode to 32 bytes, got %d", len(b))
	}
	return b, nil
}

// BackchannelTimeout parses the configured timeout, zero when unset.
func (c *Config) BackchannelTimeout() time.Duration {
	return parseDuration(c.Provider.BackchannelTimeout)
}

// CorrelationTTL parses the configured window, zero when unset.
func (c *Config) CorrelationTTL() time.Duration {
	return parseDuration(c.Correlation.TTL)
}

// SessionTTL parses the demo session lifetime.
func (c *Config) SessionTTL() time.Duration {
	if d := parseDuration(c.Session.TTL); d > 0 {
		return d
	}
	return 12 * time.Hour
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d
}

func setStr(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}
