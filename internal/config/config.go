// Package config loads and validates the adminboard YAML configuration.
// It applies defaults so the server can rely on fully populated values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
	DevMode bool   `yaml:"dev_mode"`
}

// DBConfig holds database settings.
type DBConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig holds process logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig holds session and remember-me settings.
type AuthConfig struct {
	JWTSecret         string   `yaml:"jwt_secret"`
	SessionCookie     string   `yaml:"session_cookie"`
	RememberCookie    string   `yaml:"remember_cookie"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes"`
	RememberTTLDays   int      `yaml:"remember_ttl_days"`
	ReservedUsernames []string `yaml:"reserved_usernames"`
}

// SessionTTL returns the session cookie lifetime.
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// RememberTTL returns the remember-me cookie lifetime.
func (c AuthConfig) RememberTTL() time.Duration {
	return time.Duration(c.RememberTTLDays) * 24 * time.Hour
}

// ExternalAPIConfig holds settings for the external log ingestion API.
type ExternalAPIConfig struct {
	Token             string `yaml:"token"`
	RateLimit         int    `yaml:"rate_limit"`
	RateWindowSeconds int    `yaml:"rate_window_seconds"`
}

// PushConfig holds web-push transport settings.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Contact         string `yaml:"contact"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-subscriber delivery timeout.
func (c PushConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds optional redis settings for rate limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config mirrors the adminboard.yaml schema.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	DB          DBConfig          `yaml:"db"`
	Log         LogConfig         `yaml:"log"`
	Auth        AuthConfig        `yaml:"auth"`
	ExternalAPI ExternalAPIConfig `yaml:"external_api"`
	Push        PushConfig        `yaml:"push"`
	Redis       RedisConfig       `yaml:"redis"`
}

// Load reads a YAML config file, applies env overrides and defaults, and
// validates the result. An empty path loads defaults plus env overrides only.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		b, errRead := os.ReadFile(path)
		if errRead != nil {
			return c, fmt.Errorf("config: read %s: %w", path, errRead)
		}
		if errDecode := yaml.Unmarshal(b, &c); errDecode != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, errDecode)
		}
	}
	applyEnvOverrides(&c)
	applyDefaults(&c)
	if errValidate := validate(&c); errValidate != nil {
		return Config{}, errValidate
	}
	return c, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the file.
func applyEnvOverrides(c *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"ADMINBOARD_DSN", &c.DB.DSN},
		{"ADMINBOARD_JWT_SECRET", &c.Auth.JWTSecret},
		{"ADMINBOARD_EXTERNAL_API_TOKEN", &c.ExternalAPI.Token},
		{"ADMINBOARD_VAPID_PUBLIC_KEY", &c.Push.VAPIDPublicKey},
		{"ADMINBOARD_VAPID_PRIVATE_KEY", &c.Push.VAPIDPrivateKey},
		{"ADMINBOARD_REDIS_ADDR", &c.Redis.Addr},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(value) != "" {
			*o.target = strings.TrimSpace(value)
		}
	}
}

func applyDefaults(c *Config) {
	if c.Server.Bind == "" {
		c.Server.Bind = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.DB.DSN == "" {
		c.DB.DSN = "adminboard.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
	if c.Auth.SessionCookie == "" {
		c.Auth.SessionCookie = "adminboard_session"
	}
	if c.Auth.RememberCookie == "" {
		c.Auth.RememberCookie = "adminboard_remember"
	}
	if c.Auth.SessionTTLMinutes == 0 {
		c.Auth.SessionTTLMinutes = 60
	}
	if c.Auth.RememberTTLDays == 0 {
		c.Auth.RememberTTLDays = 30
	}
	if c.ExternalAPI.RateLimit == 0 {
		c.ExternalAPI.RateLimit = 60
	}
	if c.ExternalAPI.RateWindowSeconds == 0 {
		c.ExternalAPI.RateWindowSeconds = 60
	}
	if c.Push.TimeoutSeconds == 0 {
		c.Push.TimeoutSeconds = 10
	}
}

func validate(c *Config) error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Auth.RememberTTL() <= c.Auth.SessionTTL() {
		return errors.New("config: remember_ttl_days must outlive session_ttl_minutes")
	}
	return nil
}
