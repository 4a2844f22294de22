// Package config provides configuration loading for brandguardd.
//
// Configuration is read from an optional YAML file and overridden by
// environment variables, with sensible defaults for everything.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/brandguard/internal/logging"
	"github.com/fyrsmithlabs/brandguard/internal/telemetry"
)

// Retrieval backend names.
const (
	BackendKeyword = "keyword"
	BackendChromem = "chromem"
)

// Generation provider names.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
)

// Config holds the complete brandguardd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     logging.Config    `koanf:"logging"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Generation  GenerationConfig  `koanf:"generation"`
	Telemetry   telemetry.Config  `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// GenerationTimeout bounds each external generation call. The
	// pipeline returns a structured timeout failure when it elapses.
	GenerationTimeout time.Duration `koanf:"generation_timeout"`
}

// RetrievalConfig selects and tunes the retrieval backend.
type RetrievalConfig struct {
	// Backend is "keyword" (in-memory token overlap) or "chromem"
	// (embedded vector store with dense similarity).
	Backend string `koanf:"backend"`

	// TopK is the default evidence bound per query.
	TopK int `koanf:"top_k"`
}

// VectorStoreConfig holds chromem-go settings, used when the retrieval
// backend is "chromem".
type VectorStoreConfig struct {
	// Path is the persistence directory. Empty means in-memory only.
	Path string `koanf:"path"`

	// Collection is the collection name documents are indexed into.
	Collection string `koanf:"collection"`
}

// EmbeddingsConfig holds the embedding endpoint settings, used when the
// retrieval backend is "chromem".
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// GenerationConfig holds generation collaborator settings.
type GenerationConfig struct {
	// Provider is "openai" or "mock".
	Provider string `koanf:"provider"`

	Model       string  `koanf:"model"`
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
	Seed        int64   `koanf:"seed"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.GenerationTimeout == 0 {
		cfg.Server.GenerationTimeout = 30 * time.Second
	}

	cfg.Logging.ApplyDefaults()

	if cfg.Retrieval.Backend == "" {
		cfg.Retrieval.Backend = BackendKeyword
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}

	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "brandguard_docs"
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}

	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderMock
	}

	cfg.Telemetry.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.GenerationTimeout <= 0 {
		return errors.New("generation timeout must be positive")
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}

	switch c.Retrieval.Backend {
	case BackendKeyword, BackendChromem:
	default:
		return fmt.Errorf("unknown retrieval backend: %s", c.Retrieval.Backend)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}

	switch c.Generation.Provider {
	case ProviderMock:
	case ProviderOpenAI:
		if c.Generation.Model == "" {
			return errors.New("generation model required for openai provider")
		}
		if c.Generation.APIKey == "" {
			return errors.New("generation api_key required for openai provider")
		}
	default:
		return fmt.Errorf("unknown generation provider: %s", c.Generation.Provider)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return err
	}

	return nil
}
