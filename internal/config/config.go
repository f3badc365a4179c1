package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cwygoda/questions/internal/domain"
)

// Config holds application configuration.
type Config struct {
	Port     int            `toml:"port"`
	DBPath   string         `toml:"db_path"`
	Log      LogConfig      `toml:"log"`
	Links    LinksConfig    `toml:"links"`
	Divisors DivisorsConfig `toml:"divisors"`
	Worker   WorkerConfig   `toml:"worker"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or console
}

// LinksConfig configures outbound link probes.
type LinksConfig struct {
	ProbeTimeout    time.Duration `toml:"probe_timeout"`
	MaxConcurrency  int           `toml:"max_concurrency"` // 0 = unbounded
	FollowRedirects bool          `toml:"follow_redirects"`
	UserAgent       string        `toml:"user_agent"`
}

// DivisorsConfig configures the divisor search.
type DivisorsConfig struct {
	Workers int `toml:"workers"` // 0 = GOMAXPROCS
}

// WorkerConfig configures the background link-check job worker.
type WorkerConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
	BatchSize    int           `toml:"batch_size"`
	MaxRetries   int           `toml:"max_retries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:   8080,
		DBPath: DefaultDBPath(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Links: LinksConfig{
			ProbeTimeout:    domain.DefaultProbeTimeout,
			FollowRedirects: true,
			UserAgent:       "questions-linkcheck/1.0",
		},
		Worker: WorkerConfig{
			PollInterval: 5 * time.Second,
			BatchSize:    10,
			MaxRetries:   3,
		},
	}
}

// DefaultDBPath returns the default database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "questions", "jobs.db")
}

// DefaultConfigPath returns the default config file path using
// XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "questions", "config.toml")
}

// Load builds a Config from defaults, the TOML file at path and the
// environment, in that order. An empty path falls back to
// QUESTIONS_CONFIG, then DefaultConfigPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("QUESTIONS_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultConfigPath()
		}
	}

	if err := LoadFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// LoadFile decodes the TOML file at path over cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// ApplyEnv overrides cfg from QUESTIONS_* environment variables. Values
// that do not parse are ignored.
func ApplyEnv(cfg *Config) {
	if port := os.Getenv("QUESTIONS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if db := os.Getenv("QUESTIONS_DB"); db != "" {
		cfg.DBPath = db
	}
	if level := os.Getenv("QUESTIONS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if timeout := os.Getenv("QUESTIONS_PROBE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Links.ProbeTimeout = d
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.DBPath == "":
		return errors.New("db_path is required")
	case c.Links.ProbeTimeout < 0:
		return fmt.Errorf("links.probe_timeout %s is negative", c.Links.ProbeTimeout)
	case c.Worker.PollInterval <= 0:
		return fmt.Errorf("worker.poll_interval %s must be positive", c.Worker.PollInterval)
	case c.Worker.BatchSize <= 0:
		return fmt.Errorf("worker.batch_size %d must be positive", c.Worker.BatchSize)
	case c.Worker.MaxRetries <= 0:
		return fmt.Errorf("worker.max_retries %d must be positive", c.Worker.MaxRetries)
	}
	return nil
}
