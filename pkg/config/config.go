// Package config loads client, download and server settings from optional
// YAML/TOML/JSON files and GBIF_ environment variables.
package config

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/download"
	"github.com/Sternrassler/gbif-client/pkg/logging"
	"github.com/jinzhu/configor"
	"github.com/redis/go-redis/v9"
)

// EnvPrefix prefixes every environment variable, e.g. GBIF_BASEURL or
// GBIF_REDIS_ADDR.
const EnvPrefix = "GBIF"

// Credential environment variables. They are read on demand and never part
// of a loaded Config.
const (
	EnvUser     = "GBIF_USER"
	EnvPassword = "GBIF_PWD"
	EnvEmail    = "GBIF_EMAIL"
)

// Config is the application configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url" json:"base_url" default:"https://api.gbif.org/v1"`
	UserAgent        string        `yaml:"user_agent" json:"user_agent" default:"gbif-client/1.0 (+https://github.com/Sternrassler/gbif-client)"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout" default:"30s"`
	MaxRateLimitWait time.Duration `yaml:"max_rate_limit_wait" json:"max_rate_limit_wait" default:"10s"`

	Redis    RedisConfig        `yaml:"redis" json:"redis"`
	Retry    client.RetryPolicy `yaml:"retry" json:"retry"`
	Download DownloadConfig     `yaml:"download" json:"download"`
	Log      LogConfig          `yaml:"log" json:"log"`
	Server   ServerConfig       `yaml:"server" json:"server"`
}

// RedisConfig enables the shared response cache and cool-down state when
// Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// DownloadConfig holds download job defaults.
type DownloadConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" default:"10s"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" default:"1h"`
	Format       string        `yaml:"format" json:"format" default:"SIMPLE_CSV"`
}

// LogConfig selects the log level and output style.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" default:"info"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// ServerConfig configures the HTTP server of the serve command.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" default:"0.0.0.0:8080"`
}

// Load reads files in order (later files win), then applies GBIF_
// environment variables and defaults. Missing files are an error.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, errors.Wrapf(err, "config file %s", f)
		}
	}

	cfg := &Config{}
	loader := configor.New(&configor.Config{ENVPrefix: EnvPrefix, Silent: true})
	if err := loader.Load(cfg, files...); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values configor cannot check with tags.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base_url is required")
	case c.UserAgent == "":
		return errors.New("user_agent is required")
	case c.Timeout <= 0:
		return errors.Errorf("timeout must be > 0 (got %s)", c.Timeout)
	case c.Download.PollInterval <= 0:
		return errors.Errorf("download.poll_interval must be > 0 (got %s)", c.Download.PollInterval)
	case c.Download.Timeout <= 0:
		return errors.Errorf("download.timeout must be > 0 (got %s)", c.Download.Timeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return c.Retry.Validate()
}

// RedisClient returns a client for the configured Redis, or nil when none
// is configured.
func (c *Config) RedisClient() *redis.Client {
	if c.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// ClientConfig converts c into a client.Config using rdb, which may be nil.
func (c *Config) ClientConfig(rdb *redis.Client) client.Config {
	cfg := client.DefaultConfig(rdb, c.UserAgent)
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.Timeout
	cfg.MaxRateLimitWait = c.MaxRateLimitWait
	cfg.Retry = c.Retry
	return cfg
}

// LoggingConfig converts the log section. Output defaults to stderr.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// Credentials reads download credentials from GBIF_USER, GBIF_PWD and
// GBIF_EMAIL.
func Credentials() download.Credentials {
	return download.Credentials{
		Username: os.Getenv(EnvUser),
		Password: os.Getenv(EnvPassword),
		Email:    os.Getenv(EnvEmail),
	}
}
