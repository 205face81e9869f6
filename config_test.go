package spanlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	def := DefaultConfig()
	if cfg.QueueCapacity != def.QueueCapacity {
		t.Errorf("Expected default queue capacity %d, got %d", def.QueueCapacity, cfg.QueueCapacity)
	}
	if cfg.OverflowPolicy != Block {
		t.Errorf("Expected default policy Block, got %v", cfg.OverflowPolicy)
	}
	if cfg.BatchSize != def.BatchSize {
		t.Errorf("Expected default batch size %d, got %d", def.BatchSize, cfg.BatchSize)
	}
	// A zero MinLevel means trace: everything passes the gate.
	if cfg.MinLevel != LevelTrace {
		t.Errorf("Expected zero min level to stay trace, got %v", cfg.MinLevel)
	}
	// A zero BatchWindow stays 0: batching by size only, no timer.
	if cfg.BatchWindow != 0 {
		t.Errorf("Expected zero batch window to stay disabled, got %v", time.Duration(cfg.BatchWindow))
	}
}

func TestValidateRejectsNegatives(t *testing.T) {
	cases := []Config{
		{QueueCapacity: -1},
		{BatchSize: -2},
		{BatchWindow: Duration(-time.Second)},
		{RetryAttempts: -1},
		{RetryBackoff: Duration(-time.Millisecond)},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Case %d: expected validation error", i)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spanlog.toml")
	body := `
queue_capacity = 256
overflow_policy = "drop_oldest"
batch_size = 8
batch_window = "250ms"
retry_attempts = 5
retry_backoff = "20ms"
min_level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.QueueCapacity != 256 {
		t.Errorf("Expected queue_capacity 256, got %d", cfg.QueueCapacity)
	}
	if cfg.OverflowPolicy != DropOldest {
		t.Errorf("Expected drop_oldest, got %v", cfg.OverflowPolicy)
	}
	if cfg.BatchSize != 8 {
		t.Errorf("Expected batch_size 8, got %d", cfg.BatchSize)
	}
	if time.Duration(cfg.BatchWindow) != 250*time.Millisecond {
		t.Errorf("Expected batch_window 250ms, got %v", time.Duration(cfg.BatchWindow))
	}
	if cfg.RetryAttempts != 5 {
		t.Errorf("Expected retry_attempts 5, got %d", cfg.RetryAttempts)
	}
	if cfg.MinLevel != LevelDebug {
		t.Errorf("Expected min_level debug, got %v", cfg.MinLevel)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spanlog.toml")
	if err := os.WriteFile(path, []byte("batch_size = 4\n"), 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BatchSize != 4 {
		t.Errorf("Expected batch_size 4, got %d", cfg.BatchSize)
	}
	def := DefaultConfig()
	if cfg.QueueCapacity != def.QueueCapacity || cfg.MinLevel != def.MinLevel {
		t.Errorf("Expected untouched options to keep defaults, got %+v", cfg)
	}
}

func TestLoadConfigInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spanlog.toml")
	if err := os.WriteFile(path, []byte(`overflow_policy = "spill"`), 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for invalid overflow policy")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
