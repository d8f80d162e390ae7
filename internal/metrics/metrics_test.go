package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.Observe("deposit", StatusOK, time.Now())
	m.Observe("deposit", StatusOK, time.Now())
	m.Observe("deposit", "capacity_exceeded", time.Now())
	m.AddAmount("deposit", 1500)
	m.AddAmount("deposit", 0)

	require.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("deposit", StatusOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("deposit", "capacity_exceeded")))
	require.Equal(t, 1500.0, testutil.ToFloat64(m.amounts.WithLabelValues("deposit")))
}

func TestEngineMetricsRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewEngineMetrics(reg)
	second := NewEngineMetrics(reg)

	first.Observe("close_vault", StatusOK, time.Now())
	require.Equal(t, 1.0, testutil.ToFloat64(second.operations.WithLabelValues("close_vault", StatusOK)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *EngineMetrics
	m.Observe("deposit", StatusOK, time.Now())
	m.AddAmount("deposit", 10)
}

func TestVaultCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewVaultCollector(func(context.Context) ([]VaultSample, error) {
		return []VaultSample{{VaultCount: 3, Collected: 2000, CustodyBalance: 500, OpenPositions: 2}}, nil
	}, 0, nil)
	reg.MustRegister(c)

	expected := `
# HELP vault_amount_collected Total deposited into the vault.
# TYPE vault_amount_collected gauge
vault_amount_collected{vault_count="3"} 2000
# HELP vault_open_positions Depositor positions not yet redeemed.
# TYPE vault_open_positions gauge
vault_open_positions{vault_count="3"} 2
# HELP vault_scrape_error 1 if the last vault scrape failed.
# TYPE vault_scrape_error gauge
vault_scrape_error 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"vault_amount_collected", "vault_open_positions", "vault_scrape_error"))
}

func TestVaultCollectorScrapeError(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewVaultCollector(func(context.Context) ([]VaultSample, error) {
		return nil, errors.New("store down")
	}, time.Second, nil))

	expected := `
# HELP vault_scrape_error 1 if the last vault scrape failed.
# TYPE vault_scrape_error gauge
vault_scrape_error 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "vault_scrape_error"))
}

func TestPullServiceHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)
	m.Observe("deposit", StatusOK, time.Now())

	srv := httptest.NewServer(NewPullService(":0", reg, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `vault_engine_operations_total{operation="deposit",status="ok"} 1`)
}
