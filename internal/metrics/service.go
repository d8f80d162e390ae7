package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PullService serves registered metrics for Prometheus to scrape.
type PullService struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func NewPullService(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) *PullService {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PullService{addr: addr, gatherer: gatherer, logger: logger}
}

// Handler returns the /metrics handler.
func (s *PullService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until ctx is done, then shuts the server down.
func (s *PullService) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:           s.addr,
		Handler:        s.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("metrics server listening", zap.String("addr", s.addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("metrics server stopped")
		return nil
	}
}
