package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/estatewatch/internal/extract"
	"github.com/nao1215/estatewatch/internal/fetch"
	"github.com/nao1215/estatewatch/internal/notify"
	"github.com/nao1215/estatewatch/internal/schedule"
	"github.com/nao1215/estatewatch/internal/storage"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "estatewatch"

	// DefaultTimeout bounds each page request, including reading the body.
	DefaultTimeout = 60 * time.Second

	// DefaultSMTPPort is the mail submission port.
	DefaultSMTPPort = 587

	// DefaultSMTPTimeout bounds dialing and sending one notification.
	DefaultSMTPTimeout = 30 * time.Second

	// DefaultHistoryLimit is the number of cycles the history command lists.
	DefaultHistoryLimit = 20
)

// Config holds all configuration options for estatewatch.
// It is populated from defaults, the configuration file, the environment
// and CLI flags, then passed explicitly to the components that need it.
type Config struct {
	// Endpoint is the URL that every page request is POSTed to.
	Endpoint string

	// LinkBase is prepended to a listing ID to form its detail link
	// in notifications.
	LinkBase string

	// Timeout bounds each page request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string

	// MaxBodySize is the maximum accepted page response size in bytes.
	// Zero keeps the fetcher default.
	MaxBodySize int64

	// ProxyAddress routes page requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Cookie is a raw cookie string sent with every page request.
	Cookie string

	// Headers are extra headers sent with every page request.
	Headers map[string]string

	// Selectors override the default markup selectors. Empty fields keep
	// their default.
	Selectors extract.Selectors

	// Schedule is the cron expression used by the watch command.
	Schedule string

	// StorageDriver is "sqlite" or "postgres".
	StorageDriver string

	// DataDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/estatewatch on Linux).
	DataDir string

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string

	// PostgresMaxConns bounds the postgres pool. Zero keeps the pgx default.
	PostgresMaxConns int

	// SMTPHost, SMTPPort, SMTPUsername and SMTPPassword configure the
	// mail server notifications are sent through.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// SMTPTLSPolicy is "mandatory", "opportunistic" or "none".
	SMTPTLSPolicy string

	// SMTPTimeout bounds one notification send.
	SMTPTimeout time.Duration

	// MailFrom is the sender address. Empty falls back to SMTPUsername.
	MailFrom string

	// MailTo lists the notification recipients.
	MailTo []string

	// Verbose enables debug log output.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; neither means the plain text report.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// DryRun prints notifications to stdout instead of sending email.
	DryRun bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .estatewatch is searched in the current directory
	// and then in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		UserAgent:     fetch.DefaultUserAgent,
		MaxBodySize:   fetch.DefaultMaxBodySize,
		Schedule:      schedule.DefaultSchedule,
		StorageDriver: storage.DriverSQLite,
		DataDir:       XDGDataDir(),
		SMTPPort:      DefaultSMTPPort,
		SMTPTLSPolicy: notify.TLSMandatory,
		SMTPTimeout:   DefaultSMTPTimeout,
		Selectors:     extract.DefaultSelectors(),
	}
}

// XDGDataDir returns the XDG data directory for estatewatch.
// On Linux: ~/.local/share/estatewatch
// On macOS: ~/Library/Application Support/estatewatch
// On Windows: %LOCALAPPDATA%\estatewatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for estatewatch.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration needed to run a cycle.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrNoEndpoint
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if _, err := schedule.ParseSchedule(c.Schedule); err != nil {
		return err
	}

	if err := c.ValidateStorage(); err != nil {
		return err
	}

	// The dry-run notifier writes to stdout and needs no mail settings.
	if !c.DryRun {
		if c.SMTPHost == "" {
			return ErrNoSMTPHost
		}
		if len(c.MailTo) == 0 {
			return ErrNoRecipients
		}
	}

	return nil
}

// ValidateStorage checks only the storage settings. Commands that read
// the store without running a cycle use it instead of Validate.
func (c *Config) ValidateStorage() error {
	switch c.StorageDriver {
	case storage.DriverSQLite, "":
	case storage.DriverPostgres:
		if c.PostgresDSN == "" {
			return ErrNoPostgresDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageDriver, c.StorageDriver)
	}

	if c.PostgresMaxConns < 0 {
		return ErrInvalidPostgresMaxConns
	}
	return nil
}

// StorageConfig returns the settings passed to storage.Open.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver:      c.StorageDriver,
		DataDir:     c.DataDir,
		PostgresDSN: c.PostgresDSN,
		MaxConns:    c.PostgresMaxConns,
	}
}

// ClientConfig returns the settings passed to fetch.NewHTTPClient.
func (c *Config) ClientConfig() fetch.ClientConfig {
	return fetch.ClientConfig{
		Timeout:      c.Timeout,
		ProxyAddress: c.ProxyAddress,
		Cookie:       c.Cookie,
		Headers:      c.Headers,
	}
}

// EmailConfig returns the settings passed to notify.NewEmailNotifier.
func (c *Config) EmailConfig() notify.EmailConfig {
	return notify.EmailConfig{
		Host:      c.SMTPHost,
		Port:      c.SMTPPort,
		Username:  c.SMTPUsername,
		Password:  c.SMTPPassword,
		From:      c.MailFrom,
		To:        c.MailTo,
		TLSPolicy: c.SMTPTLSPolicy,
		Timeout:   c.SMTPTimeout,
	}
}
