package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Output  OutputConfig  `yaml:"output"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
}

type DatasetConfig struct {
	ID      string   `yaml:"id,omitempty"`
	Config  string   `yaml:"config,omitempty"`
	Splits  []string `yaml:"splits,omitempty"`
	BaseURL string   `yaml:"base_url,omitempty"`
	RowsURL string   `yaml:"rows_url,omitempty"`
	Layout  string   `yaml:"layout,omitempty"` // "flat" or "nested"
}

type FetchConfig struct {
	Strategy string        `yaml:"strategy,omitempty"` // "direct" or "rows"
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

type AuthConfig struct {
	TokenEnv         string `yaml:"token_env,omitempty"`
	FallbackTokenEnv string `yaml:"fallback_token_env,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file. A missing file at the default
// path is not an error; explicit paths must exist.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if strings.TrimSpace(cfg.Dataset.ID) == "" {
		cfg.Dataset.ID = "gaia-benchmark/GAIA"
	}
	if strings.TrimSpace(cfg.Dataset.Config) == "" {
		cfg.Dataset.Config = "2023"
	}
	if len(cfg.Dataset.Splits) == 0 {
		cfg.Dataset.Splits = []string{"validation", "test"}
	}
	if strings.TrimSpace(cfg.Dataset.Layout) == "" {
		cfg.Dataset.Layout = "flat"
	}
	if strings.TrimSpace(cfg.Fetch.Strategy) == "" {
		cfg.Fetch.Strategy = "direct"
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 60 * time.Second
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "output"
	}

	if v := strings.TrimSpace(os.Getenv("GAIA_FETCH_OUTPUT_DIR")); v != "" {
		cfg.Output.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("GAIA_FETCH_BASE_URL")); v != "" {
		cfg.Dataset.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GAIA_FETCH_ROWS_URL")); v != "" {
		cfg.Dataset.RowsURL = v
	}
}
