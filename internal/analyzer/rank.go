package analyzer

import (
	"strings"

	"github.com/FranksOps/serprank/internal/serp"
)

// CompetitorEntry is a result that did not match the target domain.
type CompetitorEntry struct {
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// KeywordResult is the outcome of searching one keyword. Rank, Page and URL
// are zero-valued unless Found is true.
type KeywordResult struct {
	Keyword     string            `json:"keyword"`
	Found       bool              `json:"found"`
	Rank        int               `json:"rank,omitempty"`
	Page        int               `json:"page,omitempty"`
	URL         string            `json:"url,omitempty"`
	Competitors []CompetitorEntry `json:"competitors"`
}

// NewKeywordResult returns an empty, not-found result for keyword.
func NewKeywordResult(keyword string) *KeywordResult {
	return &KeywordResult{
		Keyword:     keyword,
		Competitors: []CompetitorEntry{},
	}
}

// MatchesDomain reports whether target occurs anywhere in resultURL.
//
// This is a plain substring test, not a hostname comparison: "ample.com"
// matches "https://example.com/". Callers that need exact host matching
// must compare parsed hosts themselves.
func MatchesDomain(resultURL, target string) bool {
	if target == "" {
		return false
	}
	return strings.Contains(resultURL, target)
}

// Resolve folds one page's entries into r. The first entry whose URL
// contains target is recorded as the match; every other entry, including
// later matches, is appended to Competitors in page order. It reports
// whether the match was recorded on this page.
func (r *KeywordResult) Resolve(entries []serp.Entry, page int, target string) bool {
	matchedHere := false
	for _, e := range entries {
		if !r.Found && MatchesDomain(e.URL, target) {
			r.Found = true
			r.Rank = e.Rank
			r.Page = page
			r.URL = e.URL
			matchedHere = true
			continue
		}
		r.Competitors = append(r.Competitors, CompetitorEntry{
			Rank:  e.Rank,
			Title: e.Title,
			URL:   e.URL,
		})
	}
	return matchedHere
}

// Consistent reports whether Found agrees with Rank, Page and URL being set.
func (r KeywordResult) Consistent() bool {
	set := r.Rank > 0 && r.Page > 0 && r.URL != ""
	return r.Found == set
}

// Clone returns a deep copy so callers can hand out results without
// sharing the competitor slice.
func (r KeywordResult) Clone() KeywordResult {
	out := r
	out.Competitors = make([]CompetitorEntry, len(r.Competitors))
	copy(out.Competitors, r.Competitors)
	return out
}
