// Package serp builds search result page URLs and extracts ranked result
// entries from their HTML.
package serp

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageSize is the number of organic results per result page.
const PageSize = 10

// Engine names.
const (
	Google = "google"
	Bing   = "bing"
)

// ErrUnsupportedEngine is returned by New for an unknown engine name.
var ErrUnsupportedEngine = errors.New("serp: unsupported search engine")

// Entry is one organic result on a result page.
type Entry struct {
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Engine knows how to address and parse one search provider's result pages.
type Engine interface {
	Name() string
	// SearchURL returns the URL of the given 1-based result page.
	SearchURL(keyword string, page int) string
	// ReadySelector matches the results container a browser waits for.
	ReadySelector() string
	// Extract parses a result page into entries in page order.
	Extract(html string, page int) ([]Entry, error)
}

// Options configures engine construction.
type Options struct {
	// Region is the Google domain suffix, e.g. "com", "com.hk", "co.jp".
	Region string
	// Language is passed as the hl parameter.
	Language string
	// BaseURL overrides the scheme and host of search URLs.
	BaseURL string
	Logger  *slog.Logger
}

// Names lists the supported engine names.
func Names() []string {
	return []string{Google, Bing}
}

// New returns the engine registered under name.
func New(name string, opts Options) (Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Google:
		return NewGoogle(opts), nil
	case Bing:
		return NewBing(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, name)
	}
}

// Extract parses html with the named engine's default configuration.
// An unknown engine or unparsable document yields no entries and an error log.
func Extract(html string, page int, engine string, logger *slog.Logger) []Entry {
	if logger == nil {
		logger = slog.Default()
	}
	e, err := New(engine, Options{Logger: logger})
	if err != nil {
		logger.Error("cannot extract results", "engine", engine, "err", err)
		return nil
	}
	entries, err := e.Extract(html, page)
	if err != nil {
		logger.Error("cannot extract results", "engine", engine, "page", page, "err", err)
		return nil
	}
	return entries
}

// RankFor is the absolute rank of the index-th (0-based) result on the given
// 1-based page.
func RankFor(index, page int) int {
	return index + 1 + (page-1)*PageSize
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("serp: parse html: %w", err)
	}
	return doc, nil
}
