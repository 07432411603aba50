// Package storage defines the rank history record and the backend interface
// implemented by the sqlite, postgres and jsonbackend packages.
package storage

import (
	"context"
	"time"
)

// RankRecord is one keyword outcome from one run.
type RankRecord struct {
	ID              string    `json:"id"`
	RunID           string    `json:"run_id"`
	Keyword         string    `json:"keyword"`
	Domain          string    `json:"domain"`
	Engine          string    `json:"engine"`
	Found           bool      `json:"found"`
	Rank            int       `json:"rank"`
	Page            int       `json:"page"`
	URL             string    `json:"url"`
	CompetitorCount int       `json:"competitor_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Filter allows querying for specific RankRecords. Zero fields match
// everything.
type Filter struct {
	Keyword string
	Domain  string
	Engine  string
	Found   *bool
	Since   *time.Time
	Limit   int
	Offset  int
}

// Backend defines the interface for storing and querying rank history.
// Query returns newest records first.
type Backend interface {
	Save(ctx context.Context, record *RankRecord) error
	Query(ctx context.Context, filter Filter) ([]*RankRecord, error)
	Close() error
}

// SaveAll saves records in order and stops at the first error.
func SaveAll(ctx context.Context, b Backend, records []*RankRecord) error {
	for _, r := range records {
		if err := b.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
