package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/systmms/gsksync/internal/logging"
)

var (
	syncPassesTotal *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec

	// Registration guard
	metricsOnce sync.Once
)

// InitMetrics initializes all Prometheus metrics. Called once when the
// sync loop starts; one-shot commands never register anything.
func InitMetrics() {
	metricsOnce.Do(func() {
		syncPassesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gsksync_sync_passes_total",
				Help: "Total number of sync passes by outcome",
			},
			[]string{"secret", "direction", "result"},
		)

		syncDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gsksync_sync_duration_seconds",
				Help:    "Duration of sync passes in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"secret"},
		)
	})
}

// recordPass records one sync pass outcome. Safe to call before
// InitMetrics; it simply drops the observation.
func recordPass(secret string, direction Direction, result string, elapsed time.Duration) {
	if syncPassesTotal == nil {
		return
	}
	syncPassesTotal.WithLabelValues(secret, string(direction), result).Inc()
	syncDuration.WithLabelValues(secret).Observe(elapsed.Seconds())
}

// MetricsServer exposes Prometheus metrics and a health endpoint for a
// long-running sync loop.
type MetricsServer struct {
	server *http.Server
	logger *logging.Logger
}

// NewMetricsServer creates a metrics server listening on the given port.
func NewMetricsServer(port int, logger *logging.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in the background. A failure to bind is logged
// but never stops the sync loop itself.
func (s *MetricsServer) Start() {
	InitMetrics()
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("metrics server stopped: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
