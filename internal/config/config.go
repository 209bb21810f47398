package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/VitStudio/ctump-pdf/internal/fetch"
	"github.com/VitStudio/ctump-pdf/internal/job"
)

// Config defines configuration for the ctump CLI.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	Concurrency    int           `yaml:"concurrency"`
	SegmentSize    int           `yaml:"segment_size"`
	ScratchDir     string        `yaml:"scratch_dir"`
	PublishURL     string        `yaml:"publish_url"`
	Progress       bool          `yaml:"progress"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	Retry          RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior for page fetches.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with the documented defaults.
func Default() Config {
	retry := fetch.DefaultRetryPolicy()
	opts := fetch.DefaultOptions()
	return Config{
		BaseURL:        opts.BaseURL,
		UserAgent:      "",
		Concurrency:    job.DefaultConcurrency,
		SegmentSize:    job.DefaultSegmentSize,
		Progress:       true,
		ConnectTimeout: opts.ConnectTimeout,
		ReadTimeout:    opts.ReadTimeout,
		Retry: RetryConfig{
			Attempts:   retry.MaxAttempts,
			Backoff:    retry.Base,
			MaxBackoff: retry.Cap,
		},
	}
}

// FetchOptions translates the config into fetch client options.
func (c Config) FetchOptions() fetch.Options {
	opts := fetch.DefaultOptions()
	opts.BaseURL = c.BaseURL
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	opts.ConnectTimeout = c.ConnectTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.Retry = fetch.RetryPolicy{
		MaxAttempts: c.Retry.Attempts,
		Base:        c.Retry.Backoff,
		Cap:         c.Retry.MaxBackoff,
	}
	return opts
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	BaseURL        string          `yaml:"base_url"`
	UserAgent      string          `yaml:"user_agent"`
	Concurrency    int             `yaml:"concurrency"`
	SegmentSize    int             `yaml:"segment_size"`
	ScratchDir     string          `yaml:"scratch_dir"`
	PublishURL     string          `yaml:"publish_url"`
	Progress       *bool           `yaml:"progress"`
	ConnectTimeout string          `yaml:"connect_timeout"`
	ReadTimeout    string          `yaml:"read_timeout"`
	Retry          yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.SegmentSize != 0 {
		cfg.SegmentSize = yc.SegmentSize
	}
	if yc.ScratchDir != "" {
		cfg.ScratchDir = yc.ScratchDir
	}
	if yc.PublishURL != "" {
		cfg.PublishURL = yc.PublishURL
	}
	if yc.Progress != nil {
		cfg.Progress = *yc.Progress
	}
	if yc.ConnectTimeout != "" {
		d, err := time.ParseDuration(yc.ConnectTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if yc.ReadTimeout != "" {
		d, err := time.ParseDuration(yc.ReadTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the CTUMP_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CTUMP_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CTUMP_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("CTUMP_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("CTUMP_SEGMENT_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_SEGMENT_SIZE: %w", err)
		}
		c.SegmentSize = n
	}
	if v := os.Getenv("CTUMP_SCRATCH_DIR"); v != "" {
		c.ScratchDir = v
	}
	if v := os.Getenv("CTUMP_PUBLISH_URL"); v != "" {
		c.PublishURL = v
	}
	if v := os.Getenv("CTUMP_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("CTUMP_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_CONNECT_TIMEOUT: %w", err)
		}
		c.ConnectTimeout = d
	}
	if v := os.Getenv("CTUMP_READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_READ_TIMEOUT: %w", err)
		}
		c.ReadTimeout = d
	}
	if v := os.Getenv("CTUMP_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("CTUMP_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("CTUMP_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CTUMP_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if c.SegmentSize <= 0 {
		return errors.New("config: segment_size must be positive")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.SegmentSize != 0 {
		c.SegmentSize = override.SegmentSize
	}
	if override.ScratchDir != "" {
		c.ScratchDir = override.ScratchDir
	}
	if override.PublishURL != "" {
		c.PublishURL = override.PublishURL
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.ConnectTimeout != 0 {
		c.ConnectTimeout = override.ConnectTimeout
	}
	if override.ReadTimeout != 0 {
		c.ReadTimeout = override.ReadTimeout
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
