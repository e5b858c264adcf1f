package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

const (
	// DefaultPollInterval is used when polling.interval is empty or invalid.
	DefaultPollInterval = time.Second
	// DefaultListenPort is the ops server port.
	DefaultListenPort = "9081"
)

type LogConfig struct {
	Level      string `yaml:"level" env:"BOTAPI_LOG_LEVEL"`
	File       string `yaml:"file" env:"BOTAPI_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TelegramConfig struct {
	Token    string `yaml:"token" env:"BOTAPI_TELEGRAM_TOKEN"`
	Host     string `yaml:"host" env:"BOTAPI_TELEGRAM_HOST"`
	ProxyURL string `yaml:"proxy_url" env:"BOTAPI_TELEGRAM_PROXY_URL"`
}

type PollingConfig struct {
	Interval       string   `yaml:"interval" env:"BOTAPI_POLLING_INTERVAL"`
	Timeout        int      `yaml:"timeout" env:"BOTAPI_POLLING_TIMEOUT"`
	Limit          int      `yaml:"limit" env:"BOTAPI_POLLING_LIMIT"`
	AllowedUpdates []string `yaml:"allowed_updates" env:"BOTAPI_POLLING_ALLOWED_UPDATES" env-separator:","`
	DevMode        bool     `yaml:"dev_mode" env:"BOTAPI_POLLING_DEV_MODE"`
}

// GetInterval returns the parsed poll interval, falling back to the default.
func (c *PollingConfig) GetInterval() time.Duration {
	if c.Interval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

type BotConfig struct {
	// RegisterCommands publishes /help and /start with setMyCommands on startup.
	RegisterCommands bool `yaml:"register_commands" env:"BOTAPI_BOT_REGISTER_COMMANDS"`
}

type Config struct {
	Log    LogConfig `yaml:"log"`
	Server struct {
		ListenPort string `yaml:"listen_port" env:"BOTAPI_SERVER_PORT"`
	} `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Polling  PollingConfig  `yaml:"polling"`
	Bot      BotConfig      `yaml:"bot"`
	Database struct {
		// Path of the SQLite offset store. Empty keeps the offset in memory only.
		Path string `yaml:"path" env:"BOTAPI_DATABASE_PATH"`
	} `yaml:"database"`
}

// Load loads configuration from the specified file path.
// It first loads the embedded default configuration, then merges the user config on top.
// Finally, it overrides values with environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			slog.Warn("config file not found, using defaults", "path", path)
		} else {
			expandedData := []byte(os.ExpandEnv(string(data)))
			if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			slog.Info("loaded user config", "path", path)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault loads the embedded default configuration.
func LoadDefault() (*Config, error) {
	return Load("")
}

// DefaultConfigBytes returns the raw embedded default configuration.
func DefaultConfigBytes() []byte {
	return defaultConfig
}

// Validate checks configuration for required fields and valid ranges.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}

	if c.Polling.Interval != "" {
		d, err := time.ParseDuration(c.Polling.Interval)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("polling.interval: invalid duration format %q: %w", c.Polling.Interval, err))
		case d <= 0:
			errs = append(errs, fmt.Errorf("polling.interval must be positive, got %s", d))
		}
	}
	if c.Polling.Timeout < 0 {
		errs = append(errs, fmt.Errorf("polling.timeout must not be negative, got %d", c.Polling.Timeout))
	}
	if c.Polling.Limit < 0 || c.Polling.Limit > 100 {
		errs = append(errs, fmt.Errorf("polling.limit must be between 0 and 100, got %d", c.Polling.Limit))
	}

	if c.Server.ListenPort != "" {
		if port, err := strconv.Atoi(c.Server.ListenPort); err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("server.listen_port must be a port number, got %q", c.Server.ListenPort))
		}
	}

	if c.Log.File != "" {
		if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
			errs = append(errs, errors.New("log rotation limits must not be negative"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
