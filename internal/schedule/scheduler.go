package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultSchedule runs a cycle every four hours, on the hour.
const DefaultSchedule = "0 */4 * * *"

// ErrInvalidSchedule is returned for a cron expression that cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid cron schedule")

// parser accepts standard 5-field expressions and descriptors like @hourly.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// ParseSchedule parses a standard cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
	}
	return schedule, nil
}

// Scheduler triggers a Job on a cron schedule.
type Scheduler struct {
	name     string
	expr     string
	schedule cron.Schedule
	job      Job
	logger   *slog.Logger

	cron  *cron.Cron
	group singleflight.Group

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entryID cron.EntryID
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithName sets the job name used in logs and as the single-flight key.
func WithName(name string) Option {
	return func(s *Scheduler) {
		if name != "" {
			s.name = name
		}
	}
}

// New creates a Scheduler running job on the cron expression expr.
func New(expr string, job Job, opts ...Option) (*Scheduler, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		name:     "cycle",
		expr:     expr,
		schedule: schedule,
		job:      job,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return s, nil
}

// Start begins triggering the job. Jobs started by the schedule receive a
// context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.expr, s.tick)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = entryID
	s.started = true

	s.cron.Start()

	s.logger.Info("scheduler started",
		"job", s.name,
		"schedule", s.expr,
		"next_run", s.Next().Format(time.RFC3339),
	)
	return nil
}

// Stop stops triggering new runs, cancels the context of a running job
// and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	stopped := s.cron.Stop()
	cancel()
	<-stopped.Done()

	s.logger.Info("scheduler stopped", "job", s.name)
}

// Next returns the next scheduled run time after now.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(time.Now())
}

// RunNow runs the job immediately. If a run is already in flight, RunNow
// waits for it and returns its result with joined set to true.
func (s *Scheduler) RunNow(ctx context.Context) (joined bool, err error) {
	executed := false
	_, err, _ = s.group.Do(s.name, func() (any, error) {
		executed = true
		return nil, s.job(ctx)
	})
	return !executed, err
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Info("scheduled run triggered", "job", s.name)

	joined, err := s.RunNow(ctx)
	switch {
	case joined:
		s.logger.Warn("previous run still in progress, skipped scheduled run", "job", s.name)
	case err != nil:
		s.logger.Error("scheduled run failed", "job", s.name, "error", err)
	}

	s.logger.Info("next run", "job", s.name, "at", s.Next().Format(time.RFC3339))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
