// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Security SecurityConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig points at the upstream REST backend every page talks to.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds dashboard session settings.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Store  string // db or redis
}

// DatabaseConfig holds the local database used for sessions, drafts and the audit trail.
type DatabaseConfig struct {
	Driver string // sqlite or postgres
	DSN    string
}

// RedisConfig holds Redis connection settings for the redis session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// SecurityConfig holds CSRF and login throttling settings.
type SecurityConfig struct {
	CSRFEnabled    bool
	CSRFKey        string
	LoginRateLimit float64 // attempts per minute per client, 0 disables
	LoginRateBurst int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env        string
	Dev        bool
	Migrations bool
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads configuration from environment variables and an optional
// eventdesk.env file. It uses sensible defaults for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("eventdesk")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			Timeout: v.GetDuration("API_TIMEOUT"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			TTL:    v.GetDuration("SESSION_TTL"),
			Store:  strings.ToLower(v.GetString("SESSION_STORE")),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DB_DSN"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Security: SecurityConfig{
			CSRFEnabled:    v.GetBool("CSRF_ENABLED"),
			CSRFKey:        v.GetString("CSRF_KEY"),
			LoginRateLimit: v.GetFloat64("LOGIN_RATE_LIMIT"),
			LoginRateBurst: v.GetInt("LOGIN_RATE_BURST"),
		},
		App: AppConfig{
			Env:        v.GetString("APP_ENV"),
			Dev:        v.GetBool("DEV"),
			Migrations: v.GetBool("MIGRATIONS"),
		},
	}

	if cfg.Log.Format == "" {
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("API_BASE_URL", "http://localhost:5000")
	v.SetDefault("API_TIMEOUT", 10*time.Second)
	v.SetDefault("SESSION_SECRET", "devsessionsecret")
	v.SetDefault("SESSION_TTL", 12*time.Hour)
	v.SetDefault("SESSION_STORE", "db")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "eventdesk.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CSRF_ENABLED", true)
	v.SetDefault("CSRF_KEY", "0123456789abcdef0123456789abcdef")
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DEV", false)
	v.SetDefault("MIGRATIONS", true)
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	switch c.Session.Store {
	case "db", "redis":
	default:
		return fmt.Errorf("SESSION_STORE must be db or redis, got %q", c.Session.Store)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.IsProduction() {
		if len(c.Session.Secret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.Security.CSRFEnabled && len(c.Security.CSRFKey) != 32 {
			return errors.New("CSRF_KEY must be exactly 32 bytes")
		}
	}
	return nil
}
