package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExpiryWindow        = 5 * time.Minute
	DefaultKeyMin              = 10_000_000
	DefaultKeyMax              = 99_999_999
	DefaultMaxGenerateAttempts = 64
)

// AuthConfig captures the tunables of the two-step challenge.
type AuthConfig struct {
	ExpiryWindow        time.Duration `yaml:"expiryWindow"`
	KeyMin              int           `yaml:"keyMin"`
	KeyMax              int           `yaml:"keyMax"`
	MaxGenerateAttempts int           `yaml:"maxGenerateAttempts"`
	// AuditDBPath is the sqlite file for the attempt log. Empty disables it.
	AuditDBPath string      `yaml:"auditDBPath,omitempty"`
	Logger      *log.Logger `yaml:"-"`
}

// Default returns the reference configuration.
func Default() AuthConfig {
	cfg := AuthConfig{}
	setDefaults(&cfg)
	return cfg
}

// Load reads a YAML file, fills in defaults and validates the result.
func Load(path string) (*AuthConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AuthConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the bounds and durations for consistency.
func (c *AuthConfig) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if c.ExpiryWindow <= 0 {
		return fmt.Errorf("'expiryWindow' must be positive, got %v", c.ExpiryWindow)
	}
	if c.KeyMin <= 0 {
		return fmt.Errorf("'keyMin' must be positive, got %d", c.KeyMin)
	}
	if c.KeyMin > c.KeyMax {
		return fmt.Errorf("'keyMin' %d exceeds 'keyMax' %d", c.KeyMin, c.KeyMax)
	}
	if c.MaxGenerateAttempts <= 0 {
		return fmt.Errorf("'maxGenerateAttempts' must be positive, got %d", c.MaxGenerateAttempts)
	}
	return nil
}

// InRange reports whether v is a well-formed key.
func (c *AuthConfig) InRange(v int) bool {
	return v >= c.KeyMin && v <= c.KeyMax
}

func setDefaults(c *AuthConfig) {
	if c.ExpiryWindow == 0 {
		c.ExpiryWindow = DefaultExpiryWindow
	}
	if c.KeyMin == 0 {
		c.KeyMin = DefaultKeyMin
	}
	if c.KeyMax == 0 {
		c.KeyMax = DefaultKeyMax
	}
	if c.MaxGenerateAttempts == 0 {
		c.MaxGenerateAttempts = DefaultMaxGenerateAttempts
	}
}
