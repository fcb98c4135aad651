package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	BackendURL       string        `mapstructure:"BACKEND_URL"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	SessionFile      string        `mapstructure:"SESSION_FILE"`
	HTTPTimeout      time.Duration `mapstructure:"HTTP_TIMEOUT"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	SlotCutoff       string        `mapstructure:"SLOT_CUTOFF"`
	Timezone         string        `mapstructure:"TIMEZONE"`
	DownloadDir      string        `mapstructure:"DOWNLOAD_DIR"`
	SandboxAddr      string        `mapstructure:"SANDBOX_ADDR"`
	SandboxJWTSecret string        `mapstructure:"SANDBOX_JWT_SECRET"`
	BookFromTomorrow bool          `mapstructure:"BOOK_FROM_TOMORROW"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("BACKEND_URL", "http://localhost:8001")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("SLOT_CUTOFF", "08:30")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("DOWNLOAD_DIR", ".")
	v.SetDefault("SANDBOX_ADDR", ":8001")
	v.SetDefault("BOOK_FROM_TOMORROW", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("BACKEND_URL")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("SESSION_FILE")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SLOT_CUTOFF")
	v.BindEnv("TIMEZONE")
	v.BindEnv("DOWNLOAD_DIR")
	v.BindEnv("SANDBOX_ADDR")
	v.BindEnv("SANDBOX_JWT_SECRET")
	v.BindEnv("BOOK_FROM_TOMORROW")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".diaglab-session.json"
	}
	return filepath.Join(home, ".diaglab", "session.json")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// APIBaseURL is the backend origin with the /api prefix every route lives under.
func (c *Config) APIBaseURL() string {
	return c.BackendURL + "/api"
}

// Cutoff parses SLOT_CUTOFF ("HH:MM") into an offset from midnight.
func (c *Config) Cutoff() (time.Duration, error) {
	t, err := time.Parse("15:04", c.SlotCutoff)
	if err != nil {
		return 0, fmt.Errorf("SLOT_CUTOFF must be HH:MM, got %q", c.SlotCutoff)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Location resolves TIMEZONE. "Local" and "" map to the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration can drive a client session.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("BACKEND_URL is not a valid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("BACKEND_URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("BACKEND_URL must include a host")
	}

	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must not be negative, got %d", c.RateLimitBurst)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}
