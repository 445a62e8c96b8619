package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/estatewatch/internal/diff"
	"github.com/nao1215/estatewatch/internal/model"
	"github.com/nao1215/estatewatch/internal/notify"
)

// historyTimeout bounds the write of the cycle report to the history.
const historyTimeout = 10 * time.Second

// SnapshotFetcher retrieves the current snapshot from the listing source.
type SnapshotFetcher interface {
	FetchCurrentSnapshot(ctx context.Context) (model.Snapshot, error)
}

// SnapshotStore is the part of storage.Store used by a cycle.
type SnapshotStore interface {
	FindAll(ctx context.Context) (model.Snapshot, error)
	Replace(ctx context.Context, snapshot model.Snapshot) error
	SaveCycle(ctx context.Context, report *model.CycleReport) error
}

// Runner executes cycles against one store, fetcher and notifier.
type Runner struct {
	store    SnapshotStore
	fetcher  SnapshotFetcher
	notifier notify.Notifier

	// linkBase prefixes listing IDs in notification links.
	linkBase string

	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLinkBase sets the URL prefix for notification links.
func WithLinkBase(base string) Option {
	return func(r *Runner) {
		r.linkBase = base
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithIDGenerator replaces the random UUID cycle IDs.
func WithIDGenerator(newID func() string) Option {
	return func(r *Runner) {
		r.newID = newID
	}
}

// New creates a Runner.
func New(store SnapshotStore, fetcher SnapshotFetcher, notifier notify.Notifier, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// RunCycle runs one cycle. The returned report is never nil. When the cycle
// aborts, the error is also returned and recorded in report.Error; it wraps
// model.ErrPersistence, model.ErrFetch or model.ErrParse. A notification
// failure is only recorded in report.NotifyError.
func (r *Runner) RunCycle(ctx context.Context) (*model.CycleReport, error) {
	report := model.NewCycleReport(r.newID(), r.now())
	logger := r.logger.With("cycle", report.ID)

	err := r.run(ctx, logger, report)
	report.FinishedAt = r.now()
	if err != nil {
		report.Error = err.Error()
		logger.Error("cycle aborted", "error", err, "duration", report.Duration())
	} else {
		logger.Info("cycle finished",
			"status", report.Status(),
			"duration", report.Duration(),
		)
	}

	r.record(ctx, logger, report)
	return report, err
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, report *model.CycleReport) error {
	previous, err := r.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load stored snapshot: %w", model.ErrPersistence, err)
	}
	report.PreviousCount = len(previous)

	current, err := r.fetcher.FetchCurrentSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch current snapshot: %w", err)
	}
	report.CurrentCount = len(current)

	if dups := diff.DuplicateIDs(current); len(dups) > 0 {
		report.DuplicateIDs = dups
		logger.Warn("duplicate listing ids in fetched snapshot", "ids", dups)
	}

	result := diff.Compare(previous, current)
	report.Diff = result

	logger.Info("compared snapshots",
		"previous", len(previous),
		"current", len(current),
		"added", len(result.Added),
		"removed", len(result.Removed),
	)

	if result.Empty() {
		logger.Info("nothing changed, keeping stored snapshot")
	} else {
		if err := r.store.Replace(ctx, current); err != nil {
			return fmt.Errorf("%w: failed to replace stored snapshot: %w", model.ErrPersistence, err)
		}
		report.Replaced = true
	}

	if err := r.notify(ctx, result); err != nil {
		report.NotifyError = err.Error()
		logger.Error("notification failed", "error", err)
		return nil
	}
	report.Notified = true
	return nil
}

func (r *Runner) notify(ctx context.Context, result model.DiffResult) error {
	msg, err := notify.NewMessage(result, r.now(), r.linkBase)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotify, err)
	}
	if err := r.notifier.Notify(ctx, msg); err != nil {
		if errors.Is(err, model.ErrNotify) {
			return err
		}
		return fmt.Errorf("%w: %w", model.ErrNotify, err)
	}
	return nil
}

// record appends the report to the cycle history. Failures are only logged.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, report *model.CycleReport) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if err := r.store.SaveCycle(ctx, report); err != nil {
		logger.Warn("failed to record cycle history", "error", err)
	}
}
