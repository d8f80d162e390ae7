package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, StoreFile, cfg.Store)
	require.Equal(t, "./data/vaults.json", cfg.StateFile)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "vault.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("store: memory\nlog-level: warn\nmax-retries: 2\n"), 0o644))

	t.Setenv("VAULT_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-retries", 5, "")
	require.NoError(t, flags.Parse([]string{"--max-retries=9"}))

	cfg, err := Load(cfgFile, flags)
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.Store)
	require.Equal(t, "error", cfg.LogLevel)
	require.Equal(t, 9, cfg.MaxRetries)
}

func TestLoadRejectsBadStore(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VAULT_STORE", "redis")
	_, err := Load("", nil)
	require.Error(t, err)

	t.Setenv("VAULT_STORE", "postgres")
	_, err = Load("", nil)
	require.ErrorContains(t, err, "pg-dsn")
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"", 0},
		{"1700000000", 1_700_000_000},
		{"1700000000123", 1_700_000_000},
		{"2023-11-14T22:13:20Z", 1_700_000_000},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestParseSeconds(t *testing.T) {
	got, err := ParseSeconds("604800")
	require.NoError(t, err)
	require.Equal(t, uint64(604800), got)

	got, err = ParseSeconds("168h")
	require.NoError(t, err)
	require.Equal(t, uint64(604800), got)

	_, err = ParseSeconds("-1h")
	require.Error(t, err)
}

func TestParseParamsOnlyChangedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(FlagMint, "", "")
	flags.String(FlagAuthority, "", "")
	flags.String(FlagYieldBps, "", "")
	flags.String(FlagCapacity, "", "")
	flags.String(FlagMinAmount, "", "")
	flags.String(FlagStart, "", "")
	flags.String(FlagEnd, "", "")
	flags.String(FlagWithdrawTimeframe, "", "")

	require.NoError(t, flags.Parse([]string{
		"--mint=0x00000000000000000000000000000000000000aa",
		"--yield-bps=8000",
		"--start=1700000000000",
		"--withdraw-timeframe=168h",
	}))

	p, err := ParseParams(flags)
	require.NoError(t, err)
	require.NotNil(t, p.BaseMint)
	require.Equal(t, common.HexToAddress("0xaa"), *p.BaseMint)
	require.NotNil(t, p.YieldBps)
	require.Equal(t, uint16(8000), *p.YieldBps)
	require.NotNil(t, p.StartDate)
	require.Equal(t, uint64(1_700_000_000), *p.StartDate)
	require.NotNil(t, p.WithdrawTimeframe)
	require.Equal(t, uint64(604800), *p.WithdrawTimeframe)

	require.Nil(t, p.Authority)
	require.Nil(t, p.VaultCapacity)
	require.Nil(t, p.MinAmount)
	require.Nil(t, p.EndDate)
	require.ElementsMatch(t, []string{"vault_capacity", "min_amount", "end_date"}, p.Missing())
}

func TestParseParamsRejectsBadValues(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(FlagYieldBps, "", "")
	require.NoError(t, flags.Parse([]string{"--yield-bps=70000"}))
	_, err := ParseParams(flags)
	require.ErrorContains(t, err, FlagYieldBps)

	flags = pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(FlagMint, "", "")
	require.NoError(t, flags.Parse([]string{"--mint=nope"}))
	_, err = ParseParams(flags)
	require.ErrorContains(t, err, FlagMint)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
