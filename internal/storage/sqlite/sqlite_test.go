package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/serprank/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	found := &storage.RankRecord{
		ID:              "rec-1",
		RunID:           "run-1",
		Keyword:         "seo tools",
		Domain:          "example.com",
		Engine:          "google",
		Found:           true,
		Rank:            7,
		Page:            1,
		URL:             "https://www.example.com/tools",
		CompetitorCount: 9,
		CreatedAt:       now.Add(-time.Hour),
	}
	missing := &storage.RankRecord{
		ID:              "rec-2",
		RunID:           "run-2",
		Keyword:         "seo tools",
		Domain:          "example.com",
		Engine:          "google",
		CompetitorCount: 30,
		CreatedAt:       now,
	}
	other := &storage.RankRecord{
		ID:        "rec-3",
		RunID:     "run-2",
		Keyword:   "rank tracker",
		Domain:    "example.com",
		Engine:    "bing",
		CreatedAt: now,
	}

	if err := storage.SaveAll(ctx, b, []*storage.RankRecord{found, missing, other}); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{Keyword: "seo tools"})
	if err != nil {
		t.Fatalf("Failed to query records: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(results))
	}
	if results[0].ID != "rec-2" {
		t.Errorf("Expected newest record first, got %s", results[0].ID)
	}

	got := results[1]
	if got.RunID != found.RunID || got.Domain != found.Domain || got.Engine != found.Engine {
		t.Errorf("Unexpected identity fields: %+v", got)
	}
	if !got.Found || got.Rank != 7 || got.Page != 1 || got.URL != found.URL {
		t.Errorf("Unexpected match fields: %+v", got)
	}
	if got.CompetitorCount != 9 {
		t.Errorf("Expected CompetitorCount 9, got %d", got.CompetitorCount)
	}
	if got.CreatedAt.Unix() != found.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", found.CreatedAt, got.CreatedAt)
	}

	boolTrue := true
	results, err = b.Query(ctx, storage.Filter{Found: &boolTrue})
	if err != nil {
		t.Fatalf("Failed to query with Found: %v", err)
	}
	if len(results) != 1 || results[0].ID != "rec-1" {
		t.Errorf("Expected only rec-1 for Found=true, got %v", results)
	}

	results, err = b.Query(ctx, storage.Filter{Engine: "bing"})
	if err != nil {
		t.Fatalf("Failed to query with Engine: %v", err)
	}
	if len(results) != 1 || results[0].ID != "rec-3" {
		t.Errorf("Expected only rec-3 for engine bing, got %v", results)
	}

	since := now.Add(-time.Minute)
	results, err = b.Query(ctx, storage.Filter{Since: &since})
	if err != nil {
		t.Fatalf("Failed to query with Since: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 records since a minute ago, got %d", len(results))
	}

	results, err = b.Query(ctx, storage.Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query with Limit/Offset: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 record, got %d", len(results))
	}

	results, err = b.Query(ctx, storage.Filter{Offset: 2})
	if err != nil {
		t.Fatalf("Failed to query with Offset only: %v", err)
	}
	if len(results) != 1 || results[0].ID != "rec-1" {
		t.Errorf("Expected oldest record after offset 2, got %v", results)
	}
}
