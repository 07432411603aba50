package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/FranksOps/serprank/internal/bypass"
	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/pkg/delay"
	"github.com/FranksOps/serprank/pkg/useragent"
)

// Browser defaults.
const (
	DefaultReadyTimeout = 10 * time.Second
	DefaultNavTimeout   = 30 * time.Second
	DefaultScrollSteps  = 5
)

// BrowserConfig configures a Browser fetcher.
type BrowserConfig struct {
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Headful  bool
	UAPool   *useragent.Pool
	// AcceptLanguage is sent with every navigation.
	AcceptLanguage string
	// ReadySelector is the results container waited for after navigation.
	ReadySelector string
	ReadyTimeout  time.Duration
	NavTimeout    time.Duration
	ScrollSteps   int
	Engine        string
	Logger        *slog.Logger
}

// Browser drives one headless Chrome tab for the whole run. It is not safe
// for concurrent use.
type Browser struct {
	cfg      BrowserConfig
	tab      context.Context
	cancel   []context.CancelFunc
	pauses   *delay.Sleeper
	logger   *slog.Logger
	once     sync.Once
	closeErr error
}

var (
	_ Fetcher = (*Browser)(nil)
	_ Visitor = (*Browser)(nil)
)

// NewBrowser launches Chrome and opens the session tab. The identity is
// drawn once and kept for the session.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = DefaultNavTimeout
	}
	if cfg.ScrollSteps <= 0 {
		cfg.ScrollSteps = DefaultScrollSteps
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := cfg.UAPool.Identity()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(id.UserAgent),
		chromedp.WindowSize(id.Viewport.Width, id.Viewport.Height),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		cfg.Logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	override := emulation.SetUserAgentOverride(id.UserAgent).WithPlatform(id.Platform)
	if cfg.AcceptLanguage != "" {
		override = override.WithAcceptLanguage(cfg.AcceptLanguage)
	}
	if err := chromedp.Run(tab, override); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("fetch: start browser: %w", err)
	}

	cfg.Logger.Info("browser session started", "user_agent", id.UserAgent, "viewport", id.Viewport.String(), "headless", !cfg.Headful)

	return &Browser{
		cfg:    cfg,
		tab:    tab,
		cancel: []context.CancelFunc{tabCancel, allocCancel},
		pauses: delay.New(),
		logger: cfg.Logger,
	}, nil
}

// bound derives a run context from parent that also ends when ctx does.
func bound(ctx, parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(parent, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Fetch navigates the session tab to targetURL, waits for the results
// container and returns the document's outer HTML. A container that never
// appears is logged and the HTML is returned anyway.
func (b *Browser) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	start := time.Now()
	page := &Page{
		ID:        uuid.New().String(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}

	runCtx, cancel := bound(ctx, b.tab, b.cfg.NavTimeout+b.cfg.ReadyTimeout)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(targetURL))
	if err != nil {
		metrics.RecordFetch(metrics.Fetch{Engine: b.cfg.Engine, Mode: ModeBrowser, Duration: time.Since(start), Err: err})
		return nil, fmt.Errorf("fetch: navigate %s: %w", targetURL, err)
	}
	if resp != nil {
		page.StatusCode = int(resp.Status)
	}

	var html string
	err = chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return b.waitReady(ctx, targetURL)
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	page.Duration = time.Since(start)
	if err != nil {
		metrics.RecordFetch(metrics.Fetch{Engine: b.cfg.Engine, Mode: ModeBrowser, StatusCode: page.StatusCode, Duration: page.Duration, Err: err})
		return nil, fmt.Errorf("fetch: read %s: %w", targetURL, err)
	}
	page.HTML = html

	page.Blocked, page.DetectionSrc = bypass.Analyze(&bypass.Response{
		URL:        targetURL,
		StatusCode: page.StatusCode,
		Body:       []byte(html),
	}, bypass.DefaultDetectors())
	if page.Blocked {
		b.logger.Warn("page looks like a block page", "url", targetURL, "source", page.DetectionSrc)
	}

	metrics.RecordFetch(metrics.Fetch{
		Engine:       b.cfg.Engine,
		Mode:         ModeBrowser,
		StatusCode:   page.StatusCode,
		DetectionSrc: page.DetectionSrc,
		Bytes:        len(html),
		Duration:     page.Duration,
	})
	return page, nil
}

func (b *Browser) waitReady(ctx context.Context, targetURL string) error {
	if b.cfg.ReadySelector == "" {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, b.cfg.ReadyTimeout)
	defer cancel()

	err := chromedp.WaitVisible(b.cfg.ReadySelector, chromedp.ByQuery).Do(waitCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	b.logger.Warn("results container did not appear", "url", targetURL, "selector", b.cfg.ReadySelector, "timeout", b.cfg.ReadyTimeout)
	return nil
}

// Visit opens targetURL in a new tab, scrolls through it in steps with
// short pauses, lingers and closes the tab.
func (b *Browser) Visit(ctx context.Context, targetURL string) error {
	tab, closeTab := chromedp.NewContext(b.tab)
	defer closeTab()

	runCtx, cancel := bound(ctx, tab, b.cfg.NavTimeout+time.Minute)
	defer cancel()

	steps := b.cfg.ScrollSteps
	actions := []chromedp.Action{chromedp.Navigate(targetURL)}
	for i := 1; i <= steps; i++ {
		script := fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %d / %d)", i, steps)
		actions = append(actions,
			chromedp.Evaluate(script, nil),
			chromedp.Sleep(b.pauses.Draw(500*time.Millisecond, 1500*time.Millisecond)),
		)
	}
	actions = append(actions, chromedp.Sleep(b.pauses.Draw(2*time.Second, 5*time.Second)))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("fetch: visit %s: %w", targetURL, err)
	}
	b.logger.Debug("visited result", "url", targetURL, "scroll_steps", steps)
	return nil
}

// Close shuts the tab and the browser process. It is safe to call more
// than once.
func (b *Browser) Close() error {
	b.once.Do(func() {
		err := chromedp.Cancel(b.tab)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		for _, cancel := range b.cancel {
			cancel()
		}
		if err != nil {
			b.closeErr = fmt.Errorf("fetch: close browser: %w", err)
		}
	})
	return b.closeErr
}
