package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"northdesk/internal/assistant"
	"northdesk/internal/llm"
	"northdesk/internal/observability"
	"northdesk/internal/rag"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Debug        bool          `yaml:"debug"`
}

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig         `yaml:"server"`
	LLM           llm.Config           `yaml:"llm"`
	Embedding     rag.EmbedderConfig   `yaml:"embedding"`
	Store         rag.StoreConfig      `yaml:"store"`
	Retriever     rag.RetrieverConfig  `yaml:"retriever"`
	Chunker       rag.ChunkerConfig    `yaml:"chunker"`
	Assistant     assistant.Config     `yaml:"assistant"`
	Observability observability.Config `yaml:"observability"`
}

// Default returns the configuration used when no file or environment
// overrides are present. It targets a local Ollama with an on-disk
// vector store.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		LLM: llm.Config{
			Provider: "ollama",
			Model:    "llama3.1",
		},
		Store: rag.StoreConfig{
			PersistPath: "./data",
		},
		Observability: observability.DefaultConfig(),
	}
}

// Load reads configuration in layers: defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to env overrides.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// applyEnv overlays NORTHDESK_* environment variables onto cfg. Unset or
// malformed values leave the existing setting untouched.
func applyEnv(cfg *Config, getenv func(string) string) {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("NORTHDESK_HOST", &cfg.Server.Host)
	setInt("NORTHDESK_PORT", &cfg.Server.Port)
	setBool("NORTHDESK_DEBUG", &cfg.Server.Debug)

	setString("NORTHDESK_LLM_PROVIDER", &cfg.LLM.Provider)
	setString("NORTHDESK_LLM_MODEL", &cfg.LLM.Model)
	setString("NORTHDESK_LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("NORTHDESK_LLM_API_KEY", &cfg.LLM.APIKey)

	setString("NORTHDESK_EMBEDDING_MODEL", &cfg.Embedding.Model)
	setString("NORTHDESK_EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	setString("NORTHDESK_EMBEDDING_API_KEY", &cfg.Embedding.APIKey)

	setString("NORTHDESK_STORE_PATH", &cfg.Store.PersistPath)
	setString("NORTHDESK_STORE_COLLECTION", &cfg.Store.Collection)
	setInt("NORTHDESK_RETRIEVER_TOP_K", &cfg.Retriever.TopK)
	setInt("NORTHDESK_ASSISTANT_TOP_K", &cfg.Assistant.TopK)

	setString("NORTHDESK_LOG_LEVEL", &cfg.Observability.Logging.Level)
	setString("NORTHDESK_LOG_FORMAT", &cfg.Observability.Logging.Format)
	setBool("NORTHDESK_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
	setInt("NORTHDESK_METRICS_PORT", &cfg.Observability.Metrics.PrometheusPort)
	setBool("NORTHDESK_TRACING_ENABLED", &cfg.Observability.Tracing.Enabled)
	setString("NORTHDESK_TRACING_ENDPOINT", &cfg.Observability.Tracing.OTLPEndpoint)
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("openai provider requires an api key")
	}
	return nil
}
