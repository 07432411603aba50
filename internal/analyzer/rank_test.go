package analyzer

import (
	"testing"

	"github.com/FranksOps/serprank/internal/serp"
)

func entries(page int, urls ...string) []serp.Entry {
	out := make([]serp.Entry, len(urls))
	for i, u := range urls {
		out[i] = serp.Entry{Rank: serp.RankFor(i, page), Title: "t" + u, URL: u}
	}
	return out
}

func TestResolve_NotFound(t *testing.T) {
	r := NewKeywordResult("go tutorial")
	if r.Resolve(entries(1, "https://a.com/", "https://b.com/", "https://c.com/"), 1, "target.com") {
		t.Fatalf("expected no match")
	}

	if r.Found || r.Rank != 0 || r.Page != 0 || r.URL != "" {
		t.Errorf("expected empty match fields, got %+v", r)
	}
	if len(r.Competitors) != 3 {
		t.Fatalf("expected 3 competitors, got %d", len(r.Competitors))
	}
	for i, c := range r.Competitors {
		if c.Rank != i+1 {
			t.Errorf("competitor %d: rank %d, want %d", i, c.Rank, i+1)
		}
	}
	if !r.Consistent() {
		t.Errorf("expected consistent result")
	}
}

func TestResolve_FoundSecond(t *testing.T) {
	r := NewKeywordResult("go tutorial")
	matched := r.Resolve(entries(1, "https://a.com/", "https://www.target.com/go", "https://c.com/"), 1, "target.com")
	if !matched {
		t.Fatalf("expected match on page 1")
	}

	if !r.Found || r.Rank != 2 || r.Page != 1 || r.URL != "https://www.target.com/go" {
		t.Errorf("unexpected match: %+v", r)
	}
	if len(r.Competitors) != 2 {
		t.Fatalf("expected 2 competitors, got %d", len(r.Competitors))
	}
	if r.Competitors[0].Rank != 1 || r.Competitors[1].Rank != 3 {
		t.Errorf("competitors should keep page order and skip the match: %+v", r.Competitors)
	}
	if !r.Consistent() {
		t.Errorf("expected consistent result")
	}
}

func TestResolve_SecondMatchIsCompetitor(t *testing.T) {
	r := NewKeywordResult("k")
	r.Resolve(entries(1, "https://target.com/a", "https://target.com/b"), 1, "target.com")

	if r.Rank != 1 || r.URL != "https://target.com/a" {
		t.Errorf("expected the first match to be kept, got %+v", r)
	}
	if len(r.Competitors) != 1 || r.Competitors[0].URL != "https://target.com/b" {
		t.Errorf("expected the later match listed once as competitor, got %+v", r.Competitors)
	}
}

func TestResolve_AcrossPages(t *testing.T) {
	r := NewKeywordResult("k")
	r.Resolve(entries(1, "https://a.com/", "https://b.com/"), 1, "target.com")
	matched := r.Resolve(entries(2, "https://c.com/", "https://d.com/", "https://e.com/", "https://f.com/", "https://target.com/"), 2, "target.com")

	if !matched {
		t.Fatalf("expected match on page 2")
	}
	if r.Rank != 15 || r.Page != 2 {
		t.Errorf("expected rank 15 on page 2, got rank %d page %d", r.Rank, r.Page)
	}
	if len(r.Competitors) != 6 {
		t.Errorf("expected 6 competitors, got %d", len(r.Competitors))
	}
}

func TestMatchesDomain_Substring(t *testing.T) {
	tests := []struct {
		url, target string
		want        bool
	}{
		{"https://www.example.com/page", "example.com", true},
		{"https://example.com.evil.net/", "example.com", true},
		// Substring semantics: a shorter target matches inside a longer domain.
		{"https://example.com/", "ample.com", true},
		{"https://other.org/", "example.com", false},
		{"https://example.com/", "", false},
	}
	for _, tt := range tests {
		if got := MatchesDomain(tt.url, tt.target); got != tt.want {
			t.Errorf("MatchesDomain(%q, %q) = %v, want %v", tt.url, tt.target, got, tt.want)
		}
	}
}

func TestConsistent(t *testing.T) {
	bad := KeywordResult{Found: true, Rank: 3}
	if bad.Consistent() {
		t.Errorf("found without page and url should be inconsistent")
	}
	bad = KeywordResult{Found: false, Rank: 3, Page: 1, URL: "u"}
	if bad.Consistent() {
		t.Errorf("not found with match fields should be inconsistent")
	}
}

func TestClone(t *testing.T) {
	r := NewKeywordResult("k")
	r.Resolve(entries(1, "https://a.com/"), 1, "target.com")

	c := r.Clone()
	c.Competitors[0].Title = "changed"
	if r.Competitors[0].Title == "changed" {
		t.Errorf("clone shares competitor storage")
	}
}
