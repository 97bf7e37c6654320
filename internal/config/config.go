package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds catalog database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // openai, ollama, local
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	MaxChars  int    `yaml:"max_chars"`
	APIKeyEnv string `yaml:"api_key_env"` // openai only
	BaseURL   string `yaml:"base_url"`    // ollama only
	CacheSize int    `yaml:"cache_size"`
}

// ExtractionConfig configures the extraction backend and polling budget.
type ExtractionConfig struct {
	Endpoint         string `yaml:"endpoint"`
	PollIntervalSecs int    `yaml:"poll_interval_secs"`
	PollTimeoutSecs  int    `yaml:"poll_timeout_secs"`
}

// ScanConfig configures directory ingestion.
type ScanConfig struct {
	Workers int `yaml:"workers"` // 0 means runtime.NumCPU()
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Scan       ScanConfig       `yaml:"scan"`
}

// APIKey resolves the configured API key environment variable.
func (c *EmbeddingConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./zdb.yaml first, then ~/.config/zdb/config.yaml.
// If neither exists it returns defaults without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "zdb.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "zdb", "config.yaml"), nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "zdb.db"
	}
	return filepath.Join(home, ".local", "share", "zdb", "catalog.db")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Database: DatabaseConfig{Path: defaultDatabasePath()},
		Embedding: EmbeddingConfig{
			Provider: "local",
		},
		Extraction: ExtractionConfig{},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath()
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "local"
	}
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-3-small"
		}
		if cfg.Embedding.Dimension == 0 {
			cfg.Embedding.Dimension = 1536
		}
		if cfg.Embedding.APIKeyEnv == "" {
			cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "ollama":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "nomic-embed-text"
		}
		if cfg.Embedding.Dimension == 0 {
			cfg.Embedding.Dimension = 768
		}
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = "http://localhost:11434"
		}
	default:
		if cfg.Embedding.Dimension == 0 {
			cfg.Embedding.Dimension = 384
		}
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.MaxChars == 0 {
		cfg.Embedding.MaxChars = 8000
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Extraction.PollIntervalSecs == 0 {
		cfg.Extraction.PollIntervalSecs = 2
	}
	if cfg.Extraction.PollTimeoutSecs == 0 {
		cfg.Extraction.PollTimeoutSecs = 300
	}
}
