package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nao1215/estatewatch/internal/model"
)

// ErrNoDSN is returned by OpenPostgres when no connection string is configured.
var ErrNoDSN = errors.New("postgres DSN is not set")

// PostgresOptions configures PostgresStore behavior.
type PostgresOptions struct {
	// MaxConns bounds the pool size. Zero keeps the pgx default.
	MaxConns int
}

// PostgresStore is the Store backed by a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, opts PostgresOptions) (*PostgresStore, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = int32(opts.MaxConns) //nolint:gosec // bounded by config validation
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		price TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		stored_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_position ON listings(position);

	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		added_count INTEGER NOT NULL DEFAULT 0,
		removed_count INTEGER NOT NULL DEFAULT 0,
		report_json JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// FindAll returns the stored snapshot in crawl order.
func (s *PostgresStore) FindAll(ctx context.Context) (model.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
	SELECT id, price, description, address
	FROM listings
	ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	snapshot := model.Snapshot{}
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ID, &l.Price, &l.Description, &l.Address); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		snapshot = append(snapshot, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return snapshot, nil
}

// Replace deletes every stored listing and batch-inserts snapshot in one
// transaction.
func (s *PostgresStore) Replace(ctx context.Context, snapshot model.Snapshot) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM listings"); err != nil {
			return fmt.Errorf("failed to delete listings: %w", err)
		}

		listings := dedupeLast(snapshot)
		if len(listings) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		insertSQL := `
		INSERT INTO listings (id, position, price, description, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			address = EXCLUDED.address
		`
		for i, l := range listings {
			batch.Queue(insertSQL, l.ID, i, l.Price, l.Description, l.Address)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range listings {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("batch insert failed at row %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}
		return nil
	})
}

// SaveCycle stores a cycle report. Saving the same cycle ID twice overwrites it.
func (s *PostgresStore) SaveCycle(ctx context.Context, report *model.CycleReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle report: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
	INSERT INTO cycles (id, started_at, finished_at, status, added_count, removed_count, report_json)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		finished_at = EXCLUDED.finished_at,
		status = EXCLUDED.status,
		added_count = EXCLUDED.added_count,
		removed_count = EXCLUDED.removed_count,
		report_json = EXCLUDED.report_json
	`,
		report.ID,
		report.StartedAt,
		report.FinishedAt,
		report.Status(),
		len(report.Diff.Added),
		len(report.Diff.Removed),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle report: %w", err)
	}
	return nil
}

// ListCycles returns up to limit cycle reports, newest first.
func (s *PostgresStore) ListCycles(ctx context.Context, limit int) ([]*model.CycleReport, error) {
	query := "SELECT id, report_json::text FROM cycles ORDER BY started_at DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var reports []*model.CycleReport
	for rows.Next() {
		var id, reportJSON string
		if err := rows.Scan(&id, &reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan cycle report: %w", err)
		}

		var report model.CycleReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to decode cycle report %s: %w", id, err)
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}
