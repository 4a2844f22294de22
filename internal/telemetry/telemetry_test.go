package telemetry

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Endpoint != "localhost:4317" {
		t.Errorf("Endpoint = %q, want localhost:4317", cfg.Endpoint)
	}
	if cfg.ServiceName != "brandguardd" {
		t.Errorf("ServiceName = %q, want brandguardd", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1.0", cfg.SampleRate)
	}
	if cfg.Enabled {
		t.Error("telemetry should be disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled skips validation", Config{Enabled: false}, false},
		{"valid local insecure", Config{Enabled: true, Endpoint: "localhost:4317", SampleRate: 1.0, Insecure: true}, false},
		{"insecure remote rejected", Config{Enabled: true, Endpoint: "collector.example.com:4317", SampleRate: 1.0, Insecure: true}, true},
		{"sample rate above one", Config{Enabled: true, Endpoint: "localhost:4317", SampleRate: 1.5}, true},
		{"negative sample rate", Config{Enabled: true, Endpoint: "localhost:4317", SampleRate: -0.1}, true},
		{"missing endpoint", Config{Enabled: true, SampleRate: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
