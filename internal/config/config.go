package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends selectable with the "store" key.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Store        string
	StateFile    string
	PGDSN        string
	Journal      string
	LogLevel     string
	MetricsAddr  string
	MaxRetries   int
	RetryBackoff time.Duration
	// Now overrides the engine clock when set.
	Now string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreFile)
	v.SetDefault("state-file", "./data/vaults.json")
	v.SetDefault("journal", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("metrics-addr", ":9102")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("vault")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Store:        strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		StateFile:    v.GetString("state-file"),
		PGDSN:        v.GetString("pg-dsn"),
		Journal:      v.GetString("journal"),
		LogLevel:     v.GetString("log-level"),
		MetricsAddr:  v.GetString("metrics-addr"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Now:          v.GetString("now"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreFile:
		if c.StateFile == "" {
			return fmt.Errorf("state-file is required for the file store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, file or postgres)", c.Store)
	}
	return nil
}
