package config

import (
	"errors"

	"github.com/nao1215/estatewatch/internal/schedule"
)

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoEndpoint is returned when no listing source endpoint is configured.
	ErrNoEndpoint = errors.New("no endpoint specified: set source.endpoint or ESTATEWATCH_ENDPOINT")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to keep the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidSchedule is returned when the cron expression cannot be parsed.
	ErrInvalidSchedule = schedule.ErrInvalidSchedule

	// ErrUnknownStorageDriver is returned for a storage driver other than
	// "sqlite" or "postgres".
	ErrUnknownStorageDriver = errors.New("unknown storage driver: must be sqlite or postgres")

	// ErrNoPostgresDSN is returned when the postgres driver is selected
	// without a connection string.
	ErrNoPostgresDSN = errors.New("postgres storage requires a DSN: set storage.postgres.dsn or ESTATEWATCH_POSTGRES_DSN")

	// ErrNoSMTPHost is returned when email notification has no SMTP host.
	ErrNoSMTPHost = errors.New("no SMTP host specified: set notify.email.host or use --dry-run")

	// ErrNoRecipients is returned when email notification has no recipient.
	ErrNoRecipients = errors.New("no mail recipients specified: set notify.email.to or use --dry-run")

	// ErrInvalidPostgresMaxConns is returned when the pool size is negative.
	ErrInvalidPostgresMaxConns = errors.New("invalid postgres max connections: must be non-negative")
)
