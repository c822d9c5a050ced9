// Package config loads server settings from flags, environment, an optional
// YAML file and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFileName = "vizd"
	DefaultPort           = 8001
	DefaultMaxUploadBytes = 100 << 20
	DefaultDatasetTTL     = 24 * time.Hour
)

// Config holds all configuration for the server.
// Priority: flags > env vars > config file > defaults
type Config struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	DatasetTTL     time.Duration `mapstructure:"dataset_ttl"`
	Verbose        bool          `mapstructure:"verbose"`

	Ollama   OllamaConfig   `mapstructure:"ollama"`
	Database DatabaseConfig `mapstructure:"database"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type DatabaseConfig struct {
	// URL is used by /api/db/connect when the request names no server.
	URL string `mapstructure:"url"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("allowed_origins", []string{
		"http://localhost:3000", "http://localhost:3001", "http://localhost:3002", "http://127.0.0.1:3000",
	})
	v.SetDefault("max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("dataset_ttl", DefaultDatasetTTL)
	v.SetDefault("verbose", false)
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3")
	v.SetDefault("database.url", "")
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads cfgFile, or vizd.yaml from the working directory when cfgFile is
// empty, then overlays environment variables (ollama.base_url reads
// OLLAMA_BASE_URL) and any flags already bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DatasetTTL < 0 {
		return fmt.Errorf("dataset_ttl must not be negative, got %s", c.DatasetTTL)
	}
	return nil
}
