package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/estatewatch/internal/model"
)

// Storage driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Store is the snapshot and cycle history storage.
type Store interface {
	// FindAll returns the stored snapshot in stored order.
	// An empty store yields an empty snapshot, not an error.
	FindAll(ctx context.Context) (model.Snapshot, error)

	// Replace atomically swaps the stored snapshot for snapshot.
	// If a listing ID occurs more than once, the last occurrence is kept.
	Replace(ctx context.Context, snapshot model.Snapshot) error

	// SaveCycle appends a cycle report to the history.
	SaveCycle(ctx context.Context, report *model.CycleReport) error

	// ListCycles returns up to limit cycle reports, newest first.
	// A limit of zero or less returns every report. A stored report that
	// cannot be decoded fails the whole call.
	ListCycles(ctx context.Context, limit int) ([]*model.CycleReport, error)

	// Close releases the underlying connections.
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Config selects and configures a storage driver.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// DataDir is the directory holding the SQLite database file.
	DataDir string

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string

	// MaxConns bounds the postgres pool size. Zero keeps the pgx default.
	MaxConns int
}

// Open opens the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(cfg.DataDir, DefaultSQLiteOptions())
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, PostgresOptions{MaxConns: cfg.MaxConns})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// dedupeLast returns snapshot with repeated IDs removed, keeping the last
// occurrence of each ID at the position of that occurrence.
func dedupeLast(snapshot model.Snapshot) model.Snapshot {
	last := make(map[string]int, len(snapshot))
	for i, l := range snapshot {
		last[l.ID] = i
	}
	if len(last) == len(snapshot) {
		return snapshot
	}

	out := make(model.Snapshot, 0, len(last))
	for i, l := range snapshot {
		if last[l.ID] == i {
			out = append(out, l)
		}
	}
	return out
}
