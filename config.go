package spanlog

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML configs can say "250ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the recognized configuration surface of the pipeline.
type Config struct {
	QueueCapacity  int            `toml:"queue_capacity"`
	OverflowPolicy OverflowPolicy `toml:"overflow_policy"`
	BatchSize      int            `toml:"batch_size"`
	// BatchWindow bounds how long a partial batch waits before export.
	// 0 disables the window: batches are cut by size only.
	BatchWindow Duration `toml:"batch_window"`
	RetryAttempts  int            `toml:"retry_attempts"`
	RetryBackoff   Duration       `toml:"retry_backoff"`
	MinLevel       Level          `toml:"min_level"`
}

// DefaultConfig returns the defaults used for any zero option.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:  1024,
		OverflowPolicy: Block,
		BatchSize:      16,
		BatchWindow:    Duration(100 * time.Millisecond),
		RetryAttempts:  3,
		RetryBackoff:   Duration(50 * time.Millisecond),
		MinLevel:       LevelInfo,
	}
}

// Validate rejects nonsensical values and fills zero values with defaults.
// BatchWindow and MinLevel are not back-filled: zero means window disabled
// and LevelTrace respectively.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must be >= 0, got %d", c.QueueCapacity)
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.OverflowPolicy == 0 {
		c.OverflowPolicy = def.OverflowPolicy
	}
	if c.OverflowPolicy != Block && c.OverflowPolicy != DropNewest && c.OverflowPolicy != DropOldest {
		return fmt.Errorf("unknown overflow policy: %d", c.OverflowPolicy)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be >= 0, got %d", c.BatchSize)
	}
	if c.BatchSize == 0 {
		c.BatchSize = def.BatchSize
	}
	if c.BatchWindow < 0 {
		return fmt.Errorf("batch_window must be >= 0, got %s", time.Duration(c.BatchWindow))
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must be >= 0, got %d", c.RetryAttempts)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff must be >= 0, got %s", time.Duration(c.RetryBackoff))
	}
	if c.MinLevel > LevelOff {
		return fmt.Errorf("unknown min_level: %d", c.MinLevel)
	}
	return nil
}

// LoadConfig reads a TOML configuration file and validates it. Options not
// present in the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
