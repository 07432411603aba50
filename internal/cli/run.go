package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/serprank/internal/config"
	"github.com/FranksOps/serprank/internal/fetch"
	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/internal/logging"
	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/internal/pipeline"
	"github.com/FranksOps/serprank/internal/report"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/FranksOps/serprank/internal/storage"
	"github.com/FranksOps/serprank/pkg/useragent"
)

func (a *app) run(ctx context.Context, cmd *cobra.Command) error {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(v, path)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: a.stdout})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if cfg.FileMissing {
		logger.Warn("config file not found, using flags and defaults", "path", path)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingDomain) || errors.Is(err, config.ErrMissingKeywords) {
			logger.Error("nothing to search", "err", err)
			return nil
		}
		return err
	}

	engine, err := serp.New(cfg.SearchEngine, serp.Options{
		Region:   cfg.Region,
		Language: cfg.Language,
		BaseURL:  a.baseURL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg, engine, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("closing fetcher", "err", err)
		}
	}()

	if cfg.MetricsPort > 0 {
		srv, err := metrics.Start(fmt.Sprintf(":%d", cfg.MetricsPort), logger)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Stop(context.WithoutCancel(ctx)) }()
		logger.Info("serving metrics", "addr", srv.Addr())
	}

	lo, hi := cfg.DelayBounds()
	p := pipeline.New(pipeline.Config{
		Domain:       cfg.Domain,
		Pages:        cfg.Pages,
		DelayMin:     lo,
		DelayMax:     hi,
		VisitMatches: cfg.VisitMatches,
	}, engine, fetcher, a.sleeper, logger)

	run, runErr := p.Run(ctx, cfg.Keywords)
	if runErr != nil {
		logger.Warn("exporting partial results", "completed", len(run.Results), "of", len(cfg.Keywords))
	}

	summary := report.Summarize(run)
	if err := publish(context.WithoutCancel(ctx), cfg, run, summary, logger); err != nil {
		return err
	}
	if err := printSummary(a.stdout, summary); err != nil {
		return err
	}
	return runErr
}

func newFetcher(cfg config.Config, engine serp.Engine, logger *slog.Logger) (fetch.Fetcher, error) {
	pool := useragent.NewPool(nil)
	lang := acceptLanguage(cfg.Language)

	if cfg.UseBrowser {
		return fetch.NewBrowser(fetch.BrowserConfig{
			UAPool:         pool,
			AcceptLanguage: lang,
			ReadySelector:  engine.ReadySelector(),
			Engine:         engine.Name(),
			Logger:         logger,
		})
	}

	profile, err := fingerprint.ParseProfile(cfg.TLSProfile)
	if err != nil {
		return nil, err
	}
	return fetch.NewDirect(fetch.DirectConfig{
		Timeout:        cfg.Timeout,
		Fingerprint:    profile,
		UAPool:         pool,
		AcceptLanguage: lang,
		Engine:         engine.Name(),
		Logger:         logger,
	})
}

// acceptLanguage turns an hl code such as "de" or "zh-CN" into an
// Accept-Language value with an English fallback.
func acceptLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, "en") {
		return "en-US,en;q=0.5"
	}
	return lang + ",en;q=0.5"
}

// publish writes the run to every configured sink. The sinks only read run.
func publish(ctx context.Context, cfg config.Config, run pipeline.RunReport, summary report.Summary, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		path, err := report.ExportXLSX(run.Results, cfg.Output, logger)
		if err != nil {
			return err
		}
		if path != "" {
			logger.Info("results exported", "path", path)
		}
		return nil
	})

	if cfg.History != "" {
		g.Go(func() error {
			return saveHistory(ctx, cfg.History, run.Records(), logger)
		})
	}

	if cfg.SummaryJSON != "" {
		g.Go(func() error {
			return writeSummaryFile(cfg.SummaryJSON, summary)
		})
	}

	return g.Wait()
}

func saveHistory(ctx context.Context, uri string, records []*storage.RankRecord, logger *slog.Logger) error {
	if len(records) == 0 {
		return nil
	}
	backend, err := OpenHistory(ctx, uri)
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := storage.SaveAll(ctx, backend, records); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	logger.Info("history saved", "records", len(records), "store", redact(uri))
	return nil
}

func writeSummaryFile(path string, summary report.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if err := report.WriteJSON(f, summary); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, s report.Summary) error {
	bold := color.New(color.Bold)
	fmt.Fprintln(w)
	bold.Fprintf(w, "Run %s finished in %.1fs\n", s.RunID, s.DurationSeconds)

	status := color.New(color.FgGreen)
	if s.Found == 0 {
		status = color.New(color.FgRed)
	}
	status.Fprintf(w, "%s found for %d of %d keywords\n", s.Domain, s.Found, s.Keywords)

	return report.WriteText(w, s)
}
