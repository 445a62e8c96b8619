package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/estatewatch/internal/model"
)

// SQLiteFileName is the database file name inside the data directory.
const SQLiteFileName = "estatewatch.db"

// timestampLayout is fixed-width so that stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is the embedded Store backed by a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// SQLiteOptions configures SQLiteStore behavior.
type SQLiteOptions struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultSQLiteOptions returns the default SQLite options.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenSQLite opens or creates the database in dbDir.
func OpenSQLite(dbDir string, opts SQLiteOptions) (*SQLiteStore, error) {
	dbPath := filepath.Join(dbDir, SQLiteFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	schema := `
	-- The current snapshot. position keeps crawl order.
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		price TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		stored_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_listings_position ON listings(position);

	-- One row per cycle; the full report is kept as JSON
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		added_count INTEGER NOT NULL DEFAULT 0,
		removed_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// FindAll returns the stored snapshot in crawl order.
func (s *SQLiteStore) FindAll(ctx context.Context) (model.Snapshot, error) {
	query := `
	SELECT id, price, description, address
	FROM listings
	ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
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

// Replace deletes every stored listing and inserts snapshot in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, snapshot model.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("failed to delete listings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO listings (id, position, price, description, address)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		position = excluded.position,
		price = excluded.price,
		description = excluded.description,
		address = excluded.address
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range dedupeLast(snapshot) {
		if _, err = stmt.ExecContext(ctx, l.ID, i, l.Price, l.Description, l.Address); err != nil {
			return fmt.Errorf("failed to insert listing %s: %w", l.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// SaveCycle stores a cycle report. Saving the same cycle ID twice overwrites it.
func (s *SQLiteStore) SaveCycle(ctx context.Context, report *model.CycleReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle report: %w", err)
	}

	query := `
	INSERT INTO cycles (id, started_at, finished_at, status, added_count, removed_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		status = excluded.status,
		added_count = excluded.added_count,
		removed_count = excluded.removed_count,
		report_json = excluded.report_json
	`

	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.StartedAt.UTC().Format(timestampLayout),
		report.FinishedAt.UTC().Format(timestampLayout),
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
func (s *SQLiteStore) ListCycles(ctx context.Context, limit int) ([]*model.CycleReport, error) {
	query := `
	SELECT id, report_json FROM cycles
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
