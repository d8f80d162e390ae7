package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// VaultSample is the state of one vault at scrape time.
type VaultSample struct {
	VaultCount     uint64
	Collected      uint64
	Withdrawn      uint64
	Redeemed       uint64
	Capacity       uint64
	CustodyBalance uint64
	OpenPositions  uint64
}

// SampleFunc lists the current vaults.
type SampleFunc func(ctx context.Context) ([]VaultSample, error)

var (
	vaultLabels = []string{"vault_count"}

	collectedDesc = prometheus.NewDesc("vault_amount_collected", "Total deposited into the vault.", vaultLabels, nil)
	withdrawnDesc = prometheus.NewDesc("vault_amount_withdrawn", "Total taken out by the vault authority.", vaultLabels, nil)
	redeemedDesc  = prometheus.NewDesc("vault_amount_redeemed", "Total paid out to depositors.", vaultLabels, nil)
	capacityDesc  = prometheus.NewDesc("vault_capacity", "Maximum the vault accepts.", vaultLabels, nil)
	custodyDesc   = prometheus.NewDesc("vault_custody_balance", "Tokens currently held by the vault custody account.", vaultLabels, nil)
	positionsDesc = prometheus.NewDesc("vault_open_positions", "Depositor positions not yet redeemed.", vaultLabels, nil)
	scrapeErrDesc = prometheus.NewDesc("vault_scrape_error", "1 if the last vault scrape failed.", nil, nil)
)

// VaultCollector reads vault state on every scrape.
type VaultCollector struct {
	sample  SampleFunc
	timeout time.Duration
	logger  *zap.Logger
}

var _ prometheus.Collector = (*VaultCollector)(nil)

func NewVaultCollector(sample SampleFunc, timeout time.Duration, logger *zap.Logger) *VaultCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &VaultCollector{sample: sample, timeout: timeout, logger: logger}
}

func (c *VaultCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collectedDesc
	ch <- withdrawnDesc
	ch <- redeemedDesc
	ch <- capacityDesc
	ch <- custodyDesc
	ch <- positionsDesc
	ch <- scrapeErrDesc
}

func (c *VaultCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	samples, err := c.sample(ctx)
	if err != nil {
		c.logger.Warn("vault scrape failed", zap.Error(err))
		ch <- prometheus.MustNewConstMetric(scrapeErrDesc, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(scrapeErrDesc, prometheus.GaugeValue, 0)

	for _, s := range samples {
		id := strconv.FormatUint(s.VaultCount, 10)
		ch <- prometheus.MustNewConstMetric(collectedDesc, prometheus.GaugeValue, float64(s.Collected), id)
		ch <- prometheus.MustNewConstMetric(withdrawnDesc, prometheus.GaugeValue, float64(s.Withdrawn), id)
		ch <- prometheus.MustNewConstMetric(redeemedDesc, prometheus.GaugeValue, float64(s.Redeemed), id)
		ch <- prometheus.MustNewConstMetric(capacityDesc, prometheus.GaugeValue, float64(s.Capacity), id)
		ch <- prometheus.MustNewConstMetric(custodyDesc, prometheus.GaugeValue, float64(s.CustodyBalance), id)
		ch <- prometheus.MustNewConstMetric(positionsDesc, prometheus.GaugeValue, float64(s.OpenPositions), id)
	}
}
