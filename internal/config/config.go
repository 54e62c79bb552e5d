package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devbush/stockdesk/internal/batch"
)

// Config represents the application configuration
type Config struct {
	API     APIConfig     `yaml:"api" json:"api"`
	Batch   BatchConfig   `yaml:"batch" json:"batch"`
	Display DisplayConfig `yaml:"display" json:"display"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Journal JournalConfig `yaml:"journal" json:"journal"`
}

// APIConfig locates and authenticates against the backend
type APIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Token   string `yaml:"token" json:"token"`
	Timeout string `yaml:"timeout" json:"timeout"`
	// Operator is recorded as the actor of history entries and transactions.
	Operator string `yaml:"operator" json:"operator"`
}

// BatchConfig holds bulk operation pacing
type BatchConfig struct {
	ChunkSize int    `yaml:"chunk_size" json:"chunk_size"`
	Delay     string `yaml:"delay" json:"delay"`
}

// DisplayConfig holds listing and dashboard defaults
type DisplayConfig struct {
	PageSize  int `yaml:"page_size" json:"page_size"`
	TrendDays int `yaml:"trend_days" json:"trend_days"`
	Top       int `yaml:"top" json:"top"`
}

// LoggingConfig controls diagnostic output
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// JournalConfig controls how long failed runs are kept for retry
type JournalConfig struct {
	TTL string `yaml:"ttl" json:"ttl"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: "10s",
		},
		Batch: BatchConfig{
			ChunkSize: batch.DefaultChunkSize,
			Delay:     "300ms",
		},
		Display: DisplayConfig{
			PageSize:  20,
			TrendDays: 7,
			Top:       5,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Journal: JournalConfig{
			TTL: "7d",
		},
	}
}

// AppDir returns the application directory (~/.stockdesk)
func AppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stockdesk"
	}
	return filepath.Join(home, ".stockdesk")
}

// JournalDir returns the directory holding journaled runs
func JournalDir() string {
	return filepath.Join(AppDir(), "runs")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(AppDir(), "config.yaml")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{AppDir(), JournalDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Load reads config from file, returns default if not exists
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads config from default path
func LoadDefault() (*Config, error) {
	return Load(ConfigPath())
}

// Save writes config to file. The file may hold a token, so it is private.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail later, mid-command.
func (c *Config) Validate() error {
	if c.Batch.ChunkSize < 1 {
		return fmt.Errorf("batch.chunk_size must be at least 1, got %d", c.Batch.ChunkSize)
	}
	if _, err := c.BatchDelay(); err != nil {
		return fmt.Errorf("batch.delay: %w", err)
	}
	if _, err := c.APITimeout(); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if _, err := c.JournalTTL(); err != nil {
		return fmt.Errorf("journal.ttl: %w", err)
	}
	if c.Display.PageSize < 1 {
		return fmt.Errorf("display.page_size must be at least 1, got %d", c.Display.PageSize)
	}
	return nil
}

// BatchDelay returns the inter-chunk delay as a duration
func (c *Config) BatchDelay() (time.Duration, error) {
	return ParseDuration(c.Batch.Delay)
}

// APITimeout returns the request timeout as a duration
func (c *Config) APITimeout() (time.Duration, error) {
	return ParseDuration(c.API.Timeout)
}

// JournalTTL returns how long journaled runs are kept
func (c *Config) JournalTTL() (time.Duration, error) {
	return ParseDuration(c.Journal.TTL)
}

var durationPattern = regexp.MustCompile(`^(\d+)(ms|s|m|h|d)$`)

// ParseDuration parses duration strings like "300ms", "10s", "24h", "7d".
// A bare "0" is accepted.
func ParseDuration(s string) (time.Duration, error) {
	if s == "0" {
		return 0, nil
	}
	matches := durationPattern.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid duration format: %q (use format like 300ms, 10s, 24h, 7d)", s)
	}

	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	switch unit {
	case "ms":
		return time.Duration(value) * time.Millisecond, nil
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}
