package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/serprank/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
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
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS rank_history_keyword ON rank_history (keyword, created_at);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	_, err = pool.Exec(ctx, schema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, r *storage.RankRecord) error {
	query := `
	INSERT INTO rank_history (
		id, run_id, keyword, domain, engine, found, rank, page, url, competitor_count, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := b.pool.Exec(ctx, query,
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
		return fmt.Errorf("postgres: save %s: %w", r.Keyword, err)
	}

	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RankRecord, error) {
	query := `SELECT id, run_id, keyword, domain, engine, found, rank, page, url, competitor_count, created_at FROM rank_history WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Keyword != "" {
		query += fmt.Sprintf(` AND keyword = $%d`, paramCount)
		args = append(args, filter.Keyword)
		paramCount++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, paramCount)
		args = append(args, filter.Domain)
		paramCount++
	}
	if filter.Engine != "" {
		query += fmt.Sprintf(` AND engine = $%d`, paramCount)
		args = append(args, filter.Engine)
		paramCount++
	}
	if filter.Found != nil {
		query += fmt.Sprintf(` AND found = $%d`, paramCount)
		args = append(args, *filter.Found)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC, keyword ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
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
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}

	return records, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
