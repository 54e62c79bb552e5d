package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "stockdesk"

// envOverrides are the STOCKDESK_* variables. Unset variables leave the
// file value alone.
type envOverrides struct {
	APIURL     string `envconfig:"API_URL"`
	APIToken   string `envconfig:"API_TOKEN"`
	APITimeout string `envconfig:"API_TIMEOUT"`
	Operator   string `envconfig:"OPERATOR"`
	ChunkSize  int    `envconfig:"CHUNK_SIZE"`
	Delay      string `envconfig:"DELAY"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	LogFile    string `envconfig:"LOG_FILE"`
	JournalTTL string `envconfig:"JOURNAL_TTL"`
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with any STOCKDESK_* environment variables.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	setString(&c.API.BaseURL, o.APIURL)
	setString(&c.API.Token, o.APIToken)
	setString(&c.API.Timeout, o.APITimeout)
	setString(&c.API.Operator, o.Operator)
	setString(&c.Batch.Delay, o.Delay)
	setString(&c.Logging.Level, o.LogLevel)
	setString(&c.Logging.File, o.LogFile)
	setString(&c.Journal.TTL, o.JournalTTL)
	if o.ChunkSize != 0 {
		c.Batch.ChunkSize = o.ChunkSize
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
