package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/consolidation"
	"github.com/AvazbekNurmatov/lex-ai/index"
)

// Environment variables that override values read from the config file.
const (
	EnvAPIKey         = "LEXAI_API_KEY"
	EnvEmbeddingHost  = "LEXAI_EMBEDDING_HOST"
	EnvEmbeddingModel = "LEXAI_EMBEDDING_MODEL"
)

// DefaultIndexPath is the badger directory used when none is configured.
const DefaultIndexPath = "./lexai-db"

type AppConfig struct {
	AI            ai.Config           `yaml:"ai"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	Index         IndexConfig         `yaml:"index"`
}

type ConsolidationConfig struct {
	MinWords int `yaml:"min_words"`
	PoolSize int `yaml:"pool_size"`
}

type IndexConfig struct {
	Path      string `yaml:"path"`
	BatchSize int    `yaml:"batch_size"`
	TopK      int    `yaml:"top_k"`
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		AI: *ai.DefaultConfig(),
		Consolidation: ConsolidationConfig{
			MinWords: consolidation.DefaultMinWords,
		},
		Index: IndexConfig{
			Path:      DefaultIndexPath,
			BatchSize: index.DefaultBatchSize,
			TopK:      index.DefaultTopK,
		},
	}
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return defaultConfig()
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides embedding settings from the process environment.
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		c.AI.EmbeddingHost = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.AI.EmbeddingModel = v
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()

	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = def.AI.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = def.AI.EmbeddingModel
	}
	if cfg.AI.BatchSize <= 0 {
		cfg.AI.BatchSize = def.AI.BatchSize
	}
	if cfg.AI.MaxRetries <= 0 {
		cfg.AI.MaxRetries = def.AI.MaxRetries
	}
	if cfg.AI.RetryDelay <= 0 {
		cfg.AI.RetryDelay = def.AI.RetryDelay
	}

	if cfg.Consolidation.MinWords <= 0 {
		cfg.Consolidation.MinWords = def.Consolidation.MinWords
	}
	if cfg.Consolidation.PoolSize < 0 {
		cfg.Consolidation.PoolSize = 0
	}

	if cfg.Index.Path == "" {
		cfg.Index.Path = def.Index.Path
	}
	if cfg.Index.BatchSize <= 0 {
		cfg.Index.BatchSize = def.Index.BatchSize
	}
	if cfg.Index.TopK <= 0 {
		cfg.Index.TopK = def.Index.TopK
	}
}
