package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName      string        `mapstructure:"app_name"`
	Env          string        `mapstructure:"app_env"`
	LogLevel     string        `mapstructure:"log_level"`
	DataDir      string        `mapstructure:"data_dir"`
	Dataset      string        `mapstructure:"dataset"`
	OutputFile   string        `mapstructure:"output_file"`
	SourcesFile  string        `mapstructure:"sources_file"`
	UserAgent    string        `mapstructure:"user_agent"`
	FetchSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout time.Duration `mapstructure:"-"`

	NormalizeMarkup bool `mapstructure:"normalize_markup"`

	StorageType    string `mapstructure:"storage_type"`
	BBoltPath      string `mapstructure:"bbolt_path"`
	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "agnews-dataset-prep")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", ".")
	v.SetDefault("dataset", "train")
	v.SetDefault("output_file", "documents.json")
	v.SetDefault("sources_file", "")
	v.SetDefault("user_agent", "agnews-dataset-prep/1.0")
	v.SetDefault("fetch_timeout_seconds", 30)
	v.SetDefault("normalize_markup", false)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/ledger.db")
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.FetchSeconds <= 0 {
		return nil, fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchSeconds) * time.Second

	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	cfg.Dataset = strings.ToLower(strings.TrimSpace(cfg.Dataset))
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("dataset must not be empty")
	}
	if strings.TrimSpace(cfg.OutputFile) == "" {
		return nil, fmt.Errorf("output_file must not be empty")
	}

	return &cfg, nil
}

// OutputPath returns the location of the JSON document file.
func (c *Config) OutputPath() string {
	return c.resolve(c.OutputFile)
}

// DataPath resolves a file name relative to the data directory.
// Absolute names are returned unchanged.
func (c *Config) DataPath(name string) string {
	return c.resolve(name)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
