package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"elementalVault/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vaultctl",
		Short:        "Operate time-boxed yield vaults",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("store", config.StoreFile, "state backend (memory, file, postgres)")
	pf.String("state-file", "./data/vaults.json", "state snapshot path for the file store")
	pf.String("pg-dsn", "", "Postgres DSN for the postgres store")
	pf.String("journal", "", "optional JSONL event journal path")
	pf.Int("max-retries", 5, "maximum retry attempts when connecting to Postgres")
	pf.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("now", "", "override the current time (unix seconds, unix ms or RFC3339)")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the vault registry",
		RunE:  runInit,
	}
	initCmd.Flags().String("caller", "", "signer address")
	root.AddCommand(initCmd)

	createCmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"update"},
		Short:   "Create a vault, or update one that has not taken deposits",
		RunE:    runCreate,
	}
	createCmd.Flags().String("caller", "", "signer address")
	createCmd.Flags().String("vault", "", "vault id (defaults to the next id)")
	addParamFlags(createCmd.Flags())
	root.AddCommand(createCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit into a vault",
		RunE:  runDeposit,
	}
	depositCmd.Flags().Uint64("vault", 0, "vault id")
	depositCmd.Flags().String("from", "", "depositor address")
	depositCmd.Flags().String("amount", "", "amount in base units")
	root.AddCommand(depositCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw collected funds as the vault authority",
		RunE:  runAuthorityWithdraw,
	}
	withdrawCmd.Flags().Uint64("vault", 0, "vault id")
	withdrawCmd.Flags().String("caller", "", "authority address")
	withdrawCmd.Flags().String("amount", "", "amount in base units")
	root.AddCommand(withdrawCmd)

	topupCmd := &cobra.Command{
		Use:   "topup",
		Short: "Show the custody shortfall, or pay into custody with --from and --amount",
		RunE:  runTopup,
	}
	topupCmd.Flags().Uint64("vault", 0, "vault id")
	topupCmd.Flags().String("from", "", "sender paying into vault custody")
	topupCmd.Flags().String("amount", "", "amount in base units to pay in")
	topupCmd.MarkFlagsRequiredTogether("from", "amount")
	root.AddCommand(topupCmd)

	redeemCmd := &cobra.Command{
		Use:   "redeem",
		Short: "Redeem a matured position with its yield",
		RunE:  runRedeem,
	}
	redeemCmd.Flags().Uint64("vault", 0, "vault id")
	redeemCmd.Flags().String("owner", "", "position owner address")
	root.AddCommand(redeemCmd)

	authorityCmd := &cobra.Command{
		Use:   "set-authority",
		Short: "Hand the vault authority to another address",
		RunE:  runSetAuthority,
	}
	authorityCmd.Flags().Uint64("vault", 0, "vault id")
	authorityCmd.Flags().String("caller", "", "current authority address")
	authorityCmd.Flags().String("new-authority", "", "new authority address")
	root.AddCommand(authorityCmd)

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close a fully redeemed vault and sweep its custody",
		RunE:  runClose,
	}
	closeCmd.Flags().Uint64("vault", 0, "vault id")
	closeCmd.Flags().String("caller", "", "authority address")
	root.AddCommand(closeCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show one vault or list all of them",
		RunE:  runShow,
	}
	showCmd.Flags().String("vault", "", "vault id (empty lists every vault)")
	showCmd.Flags().String("owner", "", "also show this owner's position")
	root.AddCommand(showCmd)

	fundCmd := &cobra.Command{
		Use:   "fund",
		Short: "Mint tokens into a custody account",
		RunE:  runFund,
	}
	fundCmd.Flags().String("mint", "", "token mint address")
	fundCmd.Flags().String("owner", "", "account owner address")
	fundCmd.Flags().String("amount", "", "amount in base units")
	root.AddCommand(fundCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a custody balance",
		RunE:  runBalance,
	}
	balanceCmd.Flags().String("mint", "", "token mint address")
	balanceCmd.Flags().String("owner", "", "account owner address")
	root.AddCommand(balanceCmd)

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event journal",
		RunE:  runEvents,
	}
	eventsCmd.Flags().String("type", "", "only events of this type")
	root.AddCommand(eventsCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations",
		RunE:  runMigrate,
	}
	root.AddCommand(migrateCmd)

	serveCmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve engine and vault metrics for Prometheus",
		RunE:  runServeMetrics,
	}
	serveCmd.Flags().String("metrics-addr", ":9102", "listen address")
	root.AddCommand(serveCmd)

	for _, c := range []*cobra.Command{depositCmd, withdrawCmd, topupCmd, redeemCmd, authorityCmd, closeCmd} {
		cobra.CheckErr(c.MarkFlagRequired("vault"))
	}

	return root
}

func addParamFlags(fs *pflag.FlagSet) {
	fs.String(config.FlagMint, "", "base mint address")
	fs.String(config.FlagAuthority, "", "authority address (defaults to the caller on create)")
	fs.String(config.FlagYieldBps, "", "yield in basis points (max 10000)")
	fs.String(config.FlagCapacity, "", "maximum total deposits")
	fs.String(config.FlagMinAmount, "", "minimum deposit")
	fs.String(config.FlagStart, "", "deposit window start (unix seconds, unix ms or RFC3339)")
	fs.String(config.FlagEnd, "", "deposit window end (unix seconds, unix ms or RFC3339)")
	fs.String(config.FlagWithdrawTimeframe, "", "lock after the window closes (seconds or duration like 168h)")
}

// newLogger builds the JSON logger for vaultctl. Log lines go to stderr so
// command results on stdout stay machine readable.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]interface{}{"service": "vaultctl"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
