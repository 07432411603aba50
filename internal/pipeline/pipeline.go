// Package pipeline runs the keyword search loop: fetch result pages, extract
// entries, resolve the target's rank and pace requests with random delays.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/serprank/internal/analyzer"
	"github.com/FranksOps/serprank/internal/fetch"
	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/FranksOps/serprank/internal/storage"
)

// Config holds the per-run search parameters.
type Config struct {
	Domain       string
	Pages        int
	DelayMin     time.Duration
	DelayMax     time.Duration
	VisitMatches bool
}

// Sleeper pauses for a random duration in [lo, hi], returning early with
// the context's error when it is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, lo, hi time.Duration) (time.Duration, error)
}

// RunReport is the ordered outcome of one run, one result per searched
// keyword in input order.
type RunReport struct {
	RunID      string                   `json:"run_id"`
	Domain     string                   `json:"domain"`
	Engine     string                   `json:"engine"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Results    []analyzer.KeywordResult `json:"results"`
}

// Records converts the report into history records stamped with the run's
// finish time.
func (r RunReport) Records() []*storage.RankRecord {
	records := make([]*storage.RankRecord, 0, len(r.Results))
	for _, res := range r.Results {
		records = append(records, &storage.RankRecord{
			ID:              uuid.New().String(),
			RunID:           r.RunID,
			Keyword:         res.Keyword,
			Domain:          r.Domain,
			Engine:          r.Engine,
			Found:           res.Found,
			Rank:            res.Rank,
			Page:            res.Page,
			URL:             res.URL,
			CompetitorCount: len(res.Competitors),
			CreatedAt:       r.FinishedAt,
		})
	}
	return records
}

// Pipeline searches keywords one after another. It is not safe for
// concurrent use.
type Pipeline struct {
	cfg     Config
	engine  serp.Engine
	fetcher fetch.Fetcher
	sleeper Sleeper
	logger  *slog.Logger
}

// New creates a Pipeline. Pages below 1 are treated as 1.
func New(cfg Config, engine serp.Engine, fetcher fetch.Fetcher, sleeper Sleeper, logger *slog.Logger) *Pipeline {
	if cfg.Pages < 1 {
		cfg.Pages = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		engine:  engine,
		fetcher: fetcher,
		sleeper: sleeper,
		logger:  logger,
	}
}

// Run searches every keyword in order and returns the report. When ctx is
// cancelled the keywords completed so far are returned with ctx's error; the
// interrupted keyword is left out.
func (p *Pipeline) Run(ctx context.Context, keywords []string) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.New().String(),
		Domain:    p.cfg.Domain,
		Engine:    p.engine.Name(),
		StartedAt: time.Now().UTC(),
		Results:   make([]analyzer.KeywordResult, 0, len(keywords)),
	}
	p.logger.Info("starting run", "run_id", report.RunID, "domain", p.cfg.Domain, "engine", report.Engine, "keywords", len(keywords), "pages", p.cfg.Pages)

	var runErr error
	for i, kw := range keywords {
		res, err := p.SearchKeyword(ctx, kw)
		if err != nil {
			runErr = err
			break
		}
		report.Results = append(report.Results, res)
		metrics.RecordKeyword(report.Engine, res.Keyword, res.Found, res.Rank)

		if i == len(keywords)-1 {
			break
		}
		d, err := p.sleeper.Sleep(ctx, 2*p.cfg.DelayMin, 2*p.cfg.DelayMax)
		if err != nil {
			runErr = err
			break
		}
		p.logger.Info("waited before next keyword", "delay", d.Round(time.Millisecond))
	}

	report.FinishedAt = time.Now().UTC()
	if runErr != nil {
		p.logger.Warn("run interrupted", "run_id", report.RunID, "completed", len(report.Results), "err", runErr)
	}
	return report, runErr
}

// SearchKeyword walks result pages until the target domain is found or the
// page budget is spent. Page failures are logged and skipped; only context
// cancellation is returned as an error.
func (p *Pipeline) SearchKeyword(ctx context.Context, keyword string) (analyzer.KeywordResult, error) {
	res := analyzer.NewKeywordResult(keyword)
	log := p.logger.With("keyword", keyword)
	log.Info("searching keyword")

	for page := 1; page <= p.cfg.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return *res, err
		}

		entries, err := p.searchPage(ctx, keyword, page)
		if err != nil {
			if ctx.Err() != nil {
				return *res, ctx.Err()
			}
			log.Error("page failed", "page", page, "err", err)
			metrics.RecordPageFailure(p.engine.Name())

			d, err := p.sleeper.Sleep(ctx, p.cfg.DelayMax, 2*p.cfg.DelayMax)
			if err != nil {
				return *res, err
			}
			log.Info("backed off after failure", "page", page, "delay", d.Round(time.Millisecond))
			continue
		}

		if res.Resolve(entries, page, p.cfg.Domain) {
			log.Info("target found", "rank", res.Rank, "page", res.Page, "url", res.URL)
			p.visit(ctx, res.URL)
			return *res, nil
		}
		log.Debug("target not on page", "page", page, "entries", len(entries))

		if page == p.cfg.Pages {
			break
		}
		d, err := p.sleeper.Sleep(ctx, p.cfg.DelayMin, p.cfg.DelayMax)
		if err != nil {
			return *res, err
		}
		log.Info("waited before next page", "delay", d.Round(time.Millisecond))
	}

	log.Info("target not found", "pages", p.cfg.Pages, "competitors", len(res.Competitors))
	return *res, nil
}

// searchPage fetches and parses one result page. A panic while parsing is
// turned into an error so the page counts as failed.
func (p *Pipeline) searchPage(ctx context.Context, keyword string, page int) (entries []serp.Entry, err error) {
	target := p.engine.SearchURL(keyword, page)

	res, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, fmt.Errorf("pipeline: parse page %d: panic: %v", page, r)
		}
	}()
	return p.engine.Extract(res.HTML, page)
}

func (p *Pipeline) visit(ctx context.Context, target string) {
	if !p.cfg.VisitMatches {
		return
	}
	v, ok := p.fetcher.(fetch.Visitor)
	if !ok {
		p.logger.Debug("fetcher cannot visit pages, skipping", "url", target)
		return
	}
	if err := v.Visit(ctx, target); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("visit failed", "url", target, "err", err)
	}
}
