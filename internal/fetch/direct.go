package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FranksOps/serprank/internal/bypass"
	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/pkg/httpclient"
	"github.com/FranksOps/serprank/pkg/useragent"
	"github.com/google/uuid"
)

// DirectConfig configures a Direct fetcher.
type DirectConfig struct {
	Timeout        time.Duration
	Fingerprint    fingerprint.Profile
	UAPool         *useragent.Pool
	AcceptLanguage string
	// Engine labels the metrics.
	Engine string
	Logger *slog.Logger
}

// Direct fetches pages with a single HTTP GET per URL. Each request carries
// a freshly drawn identity.
type Direct struct {
	client         *httpclient.Client
	uas            *useragent.Pool
	acceptLanguage string
	engine         string
	detectors      []bypass.Detector
	logger         *slog.Logger
}

var _ Fetcher = (*Direct)(nil)

// NewDirect builds the HTTP client and TLS transport once so connections
// and cookies are reused across the run.
func NewDirect(cfg DirectConfig) (*Direct, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, http.ProxyFromEnvironment)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 10,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Direct{
		client:         client,
		uas:            cfg.UAPool,
		acceptLanguage: cfg.AcceptLanguage,
		engine:         cfg.Engine,
		detectors:      bypass.DefaultDetectors(),
		logger:         cfg.Logger,
	}, nil
}

// Fetch GETs targetURL. A non-200 response returns the page together with a
// *StatusError.
func (d *Direct) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	start := time.Now()
	page := &Page{
		ID:        uuid.New().String(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	id := d.uas.Identity()
	id.AcceptLanguage = d.acceptLanguage
	req.Header = id.Headers()

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		metrics.RecordFetch(metrics.Fetch{Engine: d.engine, Mode: ModeDirect, Duration: time.Since(start), Err: err})
		return nil, fmt.Errorf("fetch: GET %s: %w", targetURL, err)
	}

	body, err := d.client.ReadBody(resp)
	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header
	page.HTML = string(body)
	page.Duration = time.Since(start)

	page.Blocked, page.DetectionSrc = bypass.Analyze(&bypass.Response{
		URL:        targetURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, d.detectors)
	if page.Blocked {
		d.logger.Warn("response looks like a block page", "url", targetURL, "status", resp.StatusCode, "source", page.DetectionSrc)
	}

	metrics.RecordFetch(metrics.Fetch{
		Engine:       d.engine,
		Mode:         ModeDirect,
		StatusCode:   resp.StatusCode,
		DetectionSrc: page.DetectionSrc,
		Bytes:        len(body),
		Duration:     page.Duration,
		Err:          err,
	})

	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return page, &StatusError{URL: targetURL, StatusCode: resp.StatusCode}
	}
	return page, nil
}

// Close releases idle connections.
func (d *Direct) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
