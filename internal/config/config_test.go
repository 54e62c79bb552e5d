package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Batch.ChunkSize != 10 {
		t.Errorf("Default chunk size = %d, want 10", cfg.Batch.ChunkSize)
	}
	if cfg.Batch.Delay != "300ms" {
		t.Errorf("Default delay = %s, want 300ms", cfg.Batch.Delay)
	}
	if cfg.Journal.TTL != "7d" {
		t.Errorf("Default journal TTL = %s, want 7d", cfg.Journal.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"300ms", 300 * time.Millisecond, false},
		{"10s", 10 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"0", 0, false},
		{"0s", 0, false},
		{"invalid", 0, true},
		{"-1s", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dur, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDuration(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if err == nil && dur != tt.want {
				t.Errorf("ParseDuration(%s) = %v, want %v", tt.input, dur, tt.want)
			}
		})
	}
}

func TestConfig_Save_Load(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://stock.example.com/api"
	cfg.Batch.ChunkSize = 25

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.API.BaseURL != "https://stock.example.com/api" {
		t.Errorf("Loaded base URL = %s", loaded.API.BaseURL)
	}
	if loaded.Batch.ChunkSize != 25 {
		t.Errorf("Loaded chunk size = %d, want 25", loaded.Batch.ChunkSize)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("batch:\n  chunk_size: 3\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Batch.ChunkSize != 3 {
		t.Errorf("chunk size = %d, want 3", cfg.Batch.ChunkSize)
	}
	if cfg.Batch.Delay != "300ms" {
		t.Errorf("delay = %s, want default 300ms", cfg.Batch.Delay)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.PageSize != 20 {
		t.Errorf("page size = %d, want default 20", cfg.Display.PageSize)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("batch: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Batch.ChunkSize = 0 }},
		{"bad delay", func(c *Config) { c.Batch.Delay = "soon" }},
		{"bad timeout", func(c *Config) { c.API.Timeout = "10" }},
		{"bad ttl", func(c *Config) { c.Journal.TTL = "week" }},
		{"zero page size", func(c *Config) { c.Display.PageSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("STOCKDESK_API_URL", "http://env.example.com")
	t.Setenv("STOCKDESK_CHUNK_SIZE", "4")
	t.Setenv("STOCKDESK_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.API.Token = "from-file"
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.API.BaseURL != "http://env.example.com" {
		t.Errorf("base URL = %s", cfg.API.BaseURL)
	}
	if cfg.Batch.ChunkSize != 4 {
		t.Errorf("chunk size = %d, want 4", cfg.Batch.ChunkSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.API.Token != "from-file" {
		t.Errorf("unset variable should keep file value, got %s", cfg.API.Token)
	}
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	t.Setenv("STOCKDESK_CHUNK_SIZE", "many")

	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("ApplyEnv() should reject a non-numeric chunk size")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("STOCKDESK_OPERATOR=dotenv-user\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKDESK_OPERATOR", "")
	os.Unsetenv("STOCKDESK_OPERATOR")

	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.API.Operator != "dotenv-user" {
		t.Errorf("operator = %q, want dotenv-user", cfg.API.Operator)
	}
}

func TestNewLogger(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "stockdesk.log")

	logger, closer, err := newLogger(&console, "warn", logPath)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}

	logger.Info().Msg("hidden")
	logger.Warn().Str("code", "P-001").Msg("visible")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", logger.GetLevel())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(console.String(), "visible") {
		t.Errorf("console output missing warn line: %q", console.String())
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"code":"P-001"`) {
		t.Errorf("log file should hold JSON lines, got %q", data)
	}
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	logger, _, err := newLogger(&bytes.Buffer{}, "loud", "")
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}

func TestAppDir(t *testing.T) {
	dir := AppDir()
	if dir == "" {
		t.Error("AppDir() returned empty string")
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".stockdesk")
	if dir != expected {
		t.Errorf("AppDir() = %s, want %s", dir, expected)
	}
	if JournalDir() != filepath.Join(expected, "runs") {
		t.Errorf("JournalDir() = %s", JournalDir())
	}
}
