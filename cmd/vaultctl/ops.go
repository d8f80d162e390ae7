package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"elementalVault/internal/config"
	"elementalVault/internal/metrics"
	"elementalVault/internal/storage"
	"elementalVault/internal/storage/postgres"
)

func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Journal == "" {
		return fmt.Errorf("--journal is required")
	}
	typ, _ := cmd.Flags().GetString("type")

	events, err := storage.ReadJournal(cfg.Journal)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, ev := range events {
		if typ != "" && ev.Type != typ {
			continue
		}
		line, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(line)); err != nil {
			return err
		}
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	logger.Info("migrate start", zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	return postgres.Migrate(cfg.PGDSN, logger)
}

func runServeMetrics(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Store == config.StoreMemory {
		a.logger.Warn("serving metrics for an empty in-memory store")
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewVaultCollector(sampleVaults(a), 0, a.logger),
	)

	return metrics.NewPullService(a.cfg.MetricsAddr, a.registry, a.logger).Run(ctx)
}

func sampleVaults(a *app) metrics.SampleFunc {
	return func(ctx context.Context) ([]metrics.VaultSample, error) {
		vaults, err := a.engine.Vaults(ctx)
		if err != nil {
			return nil, err
		}
		samples := make([]metrics.VaultSample, 0, len(vaults))
		for _, s := range vaults {
			samples = append(samples, metrics.VaultSample{
				VaultCount:     s.Vault.VaultCount,
				Collected:      s.Vault.AmountCollected,
				Withdrawn:      s.Vault.AmountWithdrawn,
				Redeemed:       s.Vault.AmountRedeemed,
				Capacity:       s.Vault.VaultCapacity,
				CustodyBalance: s.CustodyBalance,
				OpenPositions:  s.Vault.OpenPositions,
			})
		}
		return samples, nil
	}
}
