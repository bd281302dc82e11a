package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/pulsr/internal/auth"
	"github.com/loykin/pulsr/internal/env"
	"github.com/loykin/pulsr/internal/logger"
	"github.com/loykin/pulsr/internal/source"
	ptls "github.com/loykin/pulsr/internal/tls"
	"github.com/spf13/viper"
)

// Defaults applied by Load when a key is absent.
const (
	DefaultInterval      = 1000 * time.Millisecond
	DefaultMetricsListen = ":9090"
	DefaultServerListen  = ":8080"
	DefaultBasePath      = "/"
)

// Config represents the top-level TOML structure.
//
//	env = ["HB_HOST=127.0.0.1"]
//
//	[monitor]
//	interval = "1s"
//	timeout  = "800ms"
//
//	[source]
//	type = "http"
//	url  = "http://${HB_HOST}:8080/heartbeat"
type Config struct {
	Env      []string      `mapstructure:"env"`
	EnvFiles []string      `mapstructure:"env_files"`
	UseOSEnv bool          `mapstructure:"use_os_env"`
	Monitor  MonitorConfig `mapstructure:"monitor"`
	Source   source.Spec   `mapstructure:"source"`
	Log      logger.Config `mapstructure:"log"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Server   ServerConfig  `mapstructure:"server"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Timeout bounds a single sampling call. Zero falls back to Interval.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SampleTimeout is the effective per-call bound.
func (m MonitorConfig) SampleTimeout() time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return m.Interval
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

type ServerConfig struct {
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
	// Refresh is how often the HTML status page reloads itself.
	Refresh time.Duration `mapstructure:"refresh"`
	TLS     ptls.Config   `mapstructure:"tls"`
	Auth    auth.Config   `mapstructure:"auth"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("use_os_env", true)
	v.SetDefault("monitor.interval", DefaultInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.color", true)
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("metrics.listen", DefaultMetricsListen)
	v.SetDefault("server.listen", DefaultServerListen)
	v.SetDefault("server.base_path", DefaultBasePath)
	v.SetDefault("server.refresh", time.Second)
}

// Default returns the configuration used when no file is given.
// Its source section is empty and must be filled before Validate passes.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	c.ApplyDerived()
	return &c
}

// Load reads a TOML file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read reads a TOML file and applies defaults without validating, so callers
// can layer overrides (command-line flags) before calling Validate.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.ApplyDerived()
	return &c, nil
}

// ApplyDerived fills zero values that Load would have defaulted. Call it
// again after overriding fields.
func (c *Config) ApplyDerived() {
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = DefaultInterval
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
}

// Validate checks the configuration. Errors name the offending key.
func (c *Config) Validate() error {
	if c.Monitor.Interval < 0 {
		return fmt.Errorf("monitor.interval: must be > 0, got %s", c.Monitor.Interval)
	}
	if c.Monitor.Timeout < 0 {
		return fmt.Errorf("monitor.timeout: must be >= 0, got %s", c.Monitor.Timeout)
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen: required when metrics are enabled")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path: must start with '/', got %q", c.Server.BasePath)
	}
	if err := c.Server.TLS.Validate(); err != nil {
		return fmt.Errorf("server.tls: %w", err)
	}
	if err := c.Server.Auth.Validate(); err != nil {
		return fmt.Errorf("server.auth: %w", err)
	}
	return nil
}

// Vars builds the variable set used for ${VAR} expansion and command
// environments. Precedence: OS env (when use_os_env) provides the base, then
// env_files in order, then the top-level env list.
func (c *Config) Vars() (*env.Env, error) {
	e := env.New()
	if c.UseOSEnv {
		e = env.FromOS()
	}
	for _, p := range c.EnvFiles {
		pairs, err := LoadEnvFile(p)
		if err != nil {
			return nil, fmt.Errorf("env_files: %w", err)
		}
		e = e.WithPairs(pairs)
	}
	return e.WithPairs(c.Env), nil
}

// LoadEnvFile parses a simple .env file and returns its "KEY=VALUE" entries
// in file order. Blank lines and lines starting with # are ignored; there is
// no export keyword and no quoting.
func LoadEnvFile(path string) ([]string, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i > 0 {
			out = append(out, strings.TrimSpace(line[:i])+"="+strings.TrimSpace(line[i+1:]))
		}
	}
	return out, nil
}
