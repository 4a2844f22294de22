package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithFile_Defaults(t *testing.T) {
	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.GenerationTimeout != 30*time.Second {
		t.Errorf("Server.GenerationTimeout = %v, want 30s", cfg.Server.GenerationTimeout)
	}
	if cfg.Retrieval.Backend != BackendKeyword {
		t.Errorf("Retrieval.Backend = %q, want %q", cfg.Retrieval.Backend, BackendKeyword)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("Retrieval.TopK = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Generation.Provider != ProviderMock {
		t.Errorf("Generation.Provider = %q, want %q", cfg.Generation.Provider, ProviderMock)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadWithFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
retrieval:
  backend: keyword
  top_k: 5
logging:
  level: debug
  format: console
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("Retrieval.TopK = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithFile_EnvOverride(t *testing.T) {
	t.Setenv("BRANDGUARD_SERVER_PORT", "8081")
	t.Setenv("BRANDGUARD_RETRIEVAL_TOP_K", "7")

	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081 (env override)", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 7 {
		t.Errorf("Retrieval.TopK = %d, want 7 (env override)", cfg.Retrieval.TopK)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("rejects bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() with port 0, want error")
		}
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Retrieval.Backend = "psychic"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() with unknown backend, want error")
		}
	})

	t.Run("openai provider requires model and key", func(t *testing.T) {
		cfg := valid()
		cfg.Generation.Provider = ProviderOpenAI
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() openai without credentials, want error")
		}
		cfg.Generation.Model = "gpt-4o-mini"
		cfg.Generation.APIKey = "sk-test"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("rejects non-positive top_k", func(t *testing.T) {
		cfg := valid()
		cfg.Retrieval.TopK = -1
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() with negative top_k, want error")
		}
	})
}
