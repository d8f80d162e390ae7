package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"elementalVault/internal/config"
	"elementalVault/internal/metrics"
	"elementalVault/internal/storage"
	"elementalVault/internal/storage/memory"
	"elementalVault/internal/storage/postgres"
	"elementalVault/internal/vault"
)

// app bundles what a subcommand needs to run engine operations.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    storage.Store
	engine   *vault.Engine
	registry *prometheus.Registry
	out      io.Writer
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	engine := vault.NewEngine(store, logger)
	engine.SetMetrics(metrics.NewEngineMetrics(reg))
	if cfg.Journal != "" {
		engine.SetEventSink(storage.NewJournalSink(cfg.Journal))
	}
	if cfg.Now != "" {
		now, err := config.ParseTimestamp(cfg.Now)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("parse now: %w", err)
		}
		engine.SetNowFunc(func() uint64 { return now })
	}

	logger.Debug("vaultctl ready",
		zap.String("store", cfg.Store),
		zap.String("state_file", cfg.StateFile),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("journal", cfg.Journal),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		engine:   engine,
		registry: reg,
		out:      cmd.OutOrStdout(),
	}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(logger), nil
	case config.StoreFile:
		s, err := memory.Open(cfg.StateFile, logger)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.NewStore(ctx, postgres.Config{
			DSN:          cfg.PGDSN,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// addressFlag reads a required address flag.
func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	addr, err := config.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

// amountFlag reads a required amount flag.
func amountFlag(cmd *cobra.Command, name string) (uint64, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return 0, fmt.Errorf("--%s is required", name)
	}
	amount, err := config.ParseAmount(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return amount, nil
}

// optionalVaultFlag reads a vault id that may be omitted.
func optionalVaultFlag(cmd *cobra.Command) (uint64, bool, error) {
	raw, _ := cmd.Flags().GetString("vault")
	if raw == "" {
		return 0, false, nil
	}
	id, err := config.ParseAmount(raw)
	if err != nil {
		return 0, false, fmt.Errorf("--vault: %w", err)
	}
	return id, true, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
