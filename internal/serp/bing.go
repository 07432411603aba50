package serp

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BingResultSelector matches one organic Bing result.
const BingResultSelector = "li.b_algo"

// BingEngine scrapes www.bing.com.
type BingEngine struct {
	baseURL string
	logger  *slog.Logger
}

// NewBing creates a Bing engine. Region and language are not used.
func NewBing(opts Options) *BingEngine {
	base := opts.BaseURL
	if base == "" {
		base = "https://www.bing.com"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BingEngine{baseURL: strings.TrimRight(base, "/"), logger: logger}
}

func (b *BingEngine) Name() string { return Bing }

func (b *BingEngine) ReadySelector() string { return "#b_results" }

func (b *BingEngine) SearchURL(keyword string, page int) string {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("first", strconv.Itoa((page-1)*PageSize+1))
	return b.baseURL + "/search?" + q.Encode()
}

// Extract reads title and URL from each result's first anchor.
func (b *BingEngine) Extract(html string, page int) ([]Entry, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	items := doc.Find(BingResultSelector)
	if items.Length() == 0 {
		b.logger.Warn("no result blocks matched", "engine", Bing, "page", page, "selector", BingResultSelector)
	}

	entries := make([]Entry, 0, items.Length())
	items.Each(func(i int, s *goquery.Selection) {
		link := s.Find("a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		entries = append(entries, Entry{
			Rank:  RankFor(i, page),
			Title: strings.TrimSpace(link.Text()),
			URL:   href,
		})
	})
	return entries, nil
}
