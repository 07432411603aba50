package serp

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NoTitle is used when a result block has no heading.
const NoTitle = "no title"

// GoogleSelectors is the container fallback chain, in priority order.
var GoogleSelectors = []string{
	"div.g",
	"div[data-hveid]",
	"div.MjjYud",
}

// GoogleEngine scrapes www.google.<region>.
type GoogleEngine struct {
	baseURL   string
	language  string
	selectors []string
	logger    *slog.Logger
}

// NewGoogle creates a Google engine. Region defaults to "com".
func NewGoogle(opts Options) *GoogleEngine {
	region := strings.TrimPrefix(strings.TrimSpace(opts.Region), ".")
	if region == "" {
		region = "com"
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://www.google." + region
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleEngine{
		baseURL:   strings.TrimRight(base, "/"),
		language:  opts.Language,
		selectors: GoogleSelectors,
		logger:    logger,
	}
}

func (g *GoogleEngine) Name() string { return Google }

func (g *GoogleEngine) ReadySelector() string { return "#search" }

func (g *GoogleEngine) SearchURL(keyword string, page int) string {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("start", strconv.Itoa((page-1)*PageSize))
	if g.language != "" {
		q.Set("hl", g.language)
	}
	return g.baseURL + "/search?" + q.Encode()
}

// Extract applies the selector chain and uses the first selector that
// matches anything. Blocks without a link are skipped but keep their index.
func (g *GoogleEngine) Extract(html string, page int) ([]Entry, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	var blocks *goquery.Selection
	var used string
	for _, sel := range g.selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			blocks, used = found, sel
			break
		}
	}
	if blocks == nil {
		g.logger.Warn("no result blocks matched", "engine", Google, "page", page, "selectors", g.selectors)
		return []Entry{}, nil
	}
	g.logger.Debug("result blocks matched", "engine", Google, "page", page, "selector", used, "count", blocks.Length())

	entries := make([]Entry, 0, blocks.Length())
	blocks.Each(func(i int, s *goquery.Selection) {
		link := s.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")

		title := NoTitle
		if h3 := s.Find("h3").First(); h3.Length() > 0 {
			title = strings.TrimSpace(h3.Text())
		}

		entries = append(entries, Entry{
			Rank:  RankFor(i, page),
			Title: title,
			URL:   UnwrapRedirect(href),
		})
	})
	return entries, nil
}

// UnwrapRedirect turns Google's "/url?q=<real>&sa=..." wrapper into <real>.
// Any other href is returned unchanged.
func UnwrapRedirect(href string) string {
	const prefix = "/url?q="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	if u, err := url.Parse(href); err == nil {
		if q := u.Query().Get("q"); q != "" {
			return q
		}
	}
	rest := strings.TrimPrefix(href, prefix)
	if i := strings.IndexByte(rest, '&'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
