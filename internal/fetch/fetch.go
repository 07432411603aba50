// Package fetch retrieves search result pages, either with a plain HTTP
// client or through a headless Chrome session.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Fetch modes, used as the metrics "mode" label.
const (
	ModeDirect  = "direct"
	ModeBrowser = "browser"
)

// DefaultTimeout bounds a single direct request.
const DefaultTimeout = 10 * time.Second

// Page is a fetched result page.
type Page struct {
	ID           string
	URL          string
	StatusCode   int
	Headers      http.Header
	HTML         string
	Duration     time.Duration
	Blocked      bool
	DetectionSrc string
	FetchedAt    time.Time
}

// Fetcher retrieves the rendered HTML of a URL. Any returned error means
// the page could not be used.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
}

// Visitor opens a URL the way a reader would. Only the browser fetcher
// implements it.
type Visitor interface {
	Visit(ctx context.Context, url string) error
}

// StatusError reports a response other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.StatusCode)
}
