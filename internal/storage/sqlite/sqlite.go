package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/serprank/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS rank_history (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	keyword TEXT NOT NULL,
	domain TEXT NOT NULL,
	engine TEXT NOT NULL,
	found BOOLEAN NOT NULL,
	rank INTEGER NOT NULL,
	page INTEGER NOT NULL,
	url TEXT NOT NULL,
	competitor_count INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS rank_history_keyword ON rank_history (keyword, created_at);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, r *storage.RankRecord) error {
	query := `
	INSERT INTO rank_history (
		id, run_id, keyword, domain, engine, found, rank, page, url, competitor_count, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		r.ID,
		r.RunID,
		r.Keyword,
		r.Domain,
		r.Engine,
		r.Found,
		r.Rank,
		r.Page,
		r.URL,
		r.CompetitorCount,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save %s: %w", r.Keyword, err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RankRecord, error) {
	query := `SELECT id, run_id, keyword, domain, engine, found, rank, page, url, competitor_count, created_at FROM rank_history WHERE 1=1`
	args := []any{}

	if filter.Keyword != "" {
		query += ` AND keyword = ?`
		args = append(args, filter.Keyword)
	}
	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, filter.Domain)
	}
	if filter.Engine != "" {
		query += ` AND engine = ?`
		args = append(args, filter.Engine)
	}
	if filter.Found != nil {
		query += ` AND found = ?`
		args = append(args, *filter.Found)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC, keyword ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var records []*storage.RankRecord
	for rows.Next() {
		var r storage.RankRecord
		err := rows.Scan(
			&r.ID, &r.RunID, &r.Keyword, &r.Domain, &r.Engine, &r.Found,
			&r.Rank, &r.Page, &r.URL, &r.CompetitorCount, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}

	return records, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
