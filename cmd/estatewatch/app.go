package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/estatewatch/internal/config"
	"github.com/nao1215/estatewatch/internal/cycle"
	"github.com/nao1215/estatewatch/internal/extract"
	"github.com/nao1215/estatewatch/internal/fetch"
	"github.com/nao1215/estatewatch/internal/log"
	"github.com/nao1215/estatewatch/internal/notify"
	"github.com/nao1215/estatewatch/internal/report"
	"github.com/nao1215/estatewatch/internal/storage"
)

// loadConfig builds the configuration from defaults, the configuration
// file, the environment and the persistent flags, in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if getBoolFlag(cmd, "verbose") {
		cfg.Verbose = true
	}
	if getBoolFlag(cmd, "log-json") {
		cfg.LogJSON = true
	}

	return cfg, nil
}

// getBoolFlag retrieves a boolean flag from the command or the root's
// persistent flags. A missing flag reads as false.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the secure logger selected by cfg and writing to w.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// reportFlags registers the report format and output flags on cmd.
func reportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output the report in JSON format")
	cmd.Flags().Bool("markdown", false, "Output the report in Markdown format")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
}

// applyReportFlags copies the report flags registered by reportFlags into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	return nil
}

// openReportOutput returns the destination for reports: cfg.ReportFile
// when set, stdout otherwise. The returned close function must be called.
func openReportOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports contain listing details, so only the owner may read them.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the report writer for the format selected in cfg.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// openStore opens the snapshot store selected in cfg.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	store, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger.Debug("store opened", "driver", cfg.StorageDriver, "data_dir", cfg.DataDir)
	return store, nil
}

// newNotifier returns the email notifier, or a notifier printing to
// stdout when cfg.DryRun is set.
func newNotifier(cfg *config.Config, stdout io.Writer) (notify.Notifier, error) {
	if cfg.DryRun {
		return notify.NewWriterNotifier(stdout), nil
	}

	n, err := notify.NewEmailNotifier(cfg.EmailConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to configure email: %w", err)
	}
	return n, nil
}

// newRunner wires the fetcher, store and notifier described by cfg into a
// cycle runner. The caller owns the returned store and must close it.
func newRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) (*cycle.Runner, storage.Store, error) {
	client, err := fetch.NewHTTPClient(cfg.ClientConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := fetch.New(client, cfg.Endpoint,
		fetch.WithExtractor(extract.New(extract.WithSelectors(cfg.Selectors))),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)

	notifier, err := newNotifier(cfg, stdout)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	runner := cycle.New(store, fetcher, notifier,
		cycle.WithLogger(logger),
		cycle.WithLinkBase(cfg.LinkBase),
	)
	return runner, store, nil
}

// closeStore closes store, logging a failure.
func closeStore(store storage.Store, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("failed to close store", "error", err)
	}
}
