package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_fetch_requests_total",
			Help: "Total number of result pages requested",
		},
		[]string{"engine", "mode", "status", "detection_src"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serprank_fetch_duration_seconds",
			Help:    "Duration of result page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"engine", "mode"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_fetch_bytes_total",
			Help: "Total bytes of result page HTML received",
		},
		[]string{"engine"},
	)

	PageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_page_failures_total",
			Help: "Result pages that could not be fetched or parsed",
		},
		[]string{"engine"},
	)

	KeywordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_keywords_total",
			Help: "Keywords searched, by whether the target domain was found",
		},
		[]string{"engine", "found"},
	)

	KeywordRank = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "serprank_keyword_rank",
			Help: "Last observed rank of the target domain per keyword (0 when not found)",
		},
		[]string{"engine", "keyword"},
	)
)

// Fetch describes one result page request.
type Fetch struct {
	Engine       string
	Mode         string // "direct" or "browser"
	StatusCode   int
	DetectionSrc string
	Bytes        int
	Duration     time.Duration
	Err          error
}

// RecordFetch updates the fetch metrics.
func RecordFetch(f Fetch) {
	status := strconv.Itoa(f.StatusCode)
	if f.StatusCode == 0 {
		status = "none"
	}
	if f.Err != nil && f.StatusCode == 0 {
		status = "error"
	}

	FetchRequestsTotal.WithLabelValues(f.Engine, f.Mode, status, f.DetectionSrc).Inc()
	FetchDuration.WithLabelValues(f.Engine, f.Mode).Observe(f.Duration.Seconds())
	FetchBytesTotal.WithLabelValues(f.Engine).Add(float64(f.Bytes))
}

// RecordPageFailure counts a page that was given up on.
func RecordPageFailure(engine string) {
	PageFailuresTotal.WithLabelValues(engine).Inc()
}

// RecordKeyword records the outcome of one keyword search.
func RecordKeyword(engine, keyword string, found bool, rank int) {
	KeywordsTotal.WithLabelValues(engine, strconv.FormatBool(found)).Inc()
	if !found {
		rank = 0
	}
	KeywordRank.WithLabelValues(engine, keyword).Set(float64(rank))
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Start begins listening on addr (e.g. ":9090") and exposes /metrics.
func Start(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()

	return &Server{srv: srv, ln: ln}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s == nil || s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
