package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultAPIURL      = "https://admin-sdis88.mmi-stdie.fr/api"
	DefaultDownloadURL = "https://jsp-sdis88.mmi-stdie.fr/api"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env         string        `mapstructure:"env"`          // local, dev, production
	APIURL      string        `mapstructure:"api_url"`      // base URL for API calls
	DownloadURL string        `mapstructure:"download_url"` // public base URL for course files
	Origin      string        `mapstructure:"origin"`       // when set, responses must allow this origin
	DB          string        `mapstructure:"db"`           // SQLite file holding the token and quiz history
	LogFile     string        `mapstructure:"log_file"`     // TUI log destination; defaults next to the DB
	Timeout     time.Duration `mapstructure:"timeout"`      // per-request transport timeout
	Retry       Retry         `mapstructure:"retry"`        // opt-in retries for read-only commands
}

// Retry configures caller-side retries of transient failures.
type Retry struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// Load reads configuration from an optional config file, a .env file and
// JSP_* environment variables. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("jsp")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetDefault("env", "local")
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("download_url", DefaultDownloadURL)
	v.SetDefault("origin", "")
	v.SetDefault("db", "")
	v.SetDefault("log_file", "")
	v.SetDefault("timeout", "30s")
	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.initial_wait", "500ms")
	v.SetDefault("retry.max_wait", "5s")
	v.SetDefault("retry.multiplier", 2.0)

	v.SetEnvPrefix("JSP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url %q must be an http(s) URL", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	return nil
}

// configDir returns $XDG_CONFIG_HOME/jsp or ~/.config/jsp.
func configDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "jsp"), nil
}
