package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ragchat/internal/storage"
)

// Config holds all application configuration
type Config struct {
	Answer  AnswerConfig  `mapstructure:"answer"`
	Storage StorageConfig `mapstructure:"storage"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AnswerConfig describes the remote answering service
type AnswerConfig struct {
	URL string `mapstructure:"url"`
	// Zero means no client-side timeout; the request resolves only when the
	// transport does.
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the durable store backing the chat history
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "bolt", "file" or "memory"
	Path   string `mapstructure:"path"`
	Key    string `mapstructure:"key"`
}

// UIConfig holds terminal presentation settings
type UIConfig struct {
	Markdown bool `mapstructure:"markdown"`
	ShowHint bool `mapstructure:"show_hint"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

const (
	DriverBolt   = storage.DriverBolt
	DriverFile   = storage.DriverFile
	DriverMemory = storage.DriverMemory

	// DefaultHistoryKey is the storage key of the persisted transcript.
	DefaultHistoryKey = "rag_chat_messages"

	envPrefix = "RAGCHAT"
)

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Answer: AnswerConfig{
			URL:     "http://127.0.0.1:8000",
			Timeout: 0,
		},
		Storage: StorageConfig{
			Driver: DriverBolt,
			Path:   expandHome("~/.ragchat/history.db"),
			Key:    DefaultHistoryKey,
		},
		UI: UIConfig{
			Markdown: true,
			ShowHint: true,
		},
		Logging: LoggingConfig{
			LogFile:  expandHome("~/.ragchat/ragchat.log"),
			Preserve: true,
			Level:    "info",
		},
	}
}

// SetDefaults registers the NewConfig values on v so that flags, env vars and
// the settings file all layer over the same baseline.
func SetDefaults(v *viper.Viper) {
	d := NewConfig()

	v.SetDefault("answer.url", d.Answer.URL)
	v.SetDefault("answer.timeout", d.Answer.Timeout)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key", d.Storage.Key)

	v.SetDefault("ui.markdown", d.UI.Markdown)
	v.SetDefault("ui.show_hint", d.UI.ShowHint)

	v.SetDefault("logging.log_file", d.Logging.LogFile)
	v.SetDefault("logging.preserve", d.Logging.Preserve)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Load reads configuration from cfgFile (when set, otherwise the default
// search paths), environment and whatever flags were bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath("./.ragchat")
		v.AddConfigPath(expandHome("~/.ragchat"))
		v.SetConfigType("yaml")
		v.SetConfigName("settings")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the search path is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Logging.LogFile = expandHome(cfg.Logging.LogFile)

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Answer.URL == "" {
		return fmt.Errorf("answer service URL cannot be empty")
	}
	if c.Answer.Timeout < 0 {
		return fmt.Errorf("answer timeout cannot be negative")
	}
	switch c.Storage.Driver {
	case DriverBolt, DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path cannot be empty for driver %q", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key cannot be empty")
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		return filepath.Join(getHomeDir(), path[1:])
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
