package cycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/estatewatch/internal/model"
	"github.com/nao1215/estatewatch/internal/notify"
)

// fakeStore is an in-memory SnapshotStore that records mutations.
type fakeStore struct {
	snapshot model.Snapshot
	cycles   []*model.CycleReport

	replaceCalls int
	findErr      error
	replaceErr   error
	saveErr      error
}

func (s *fakeStore) FindAll(context.Context) (model.Snapshot, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return append(model.Snapshot{}, s.snapshot...), nil
}

func (s *fakeStore) Replace(_ context.Context, snapshot model.Snapshot) error {
	s.replaceCalls++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.snapshot = append(model.Snapshot{}, snapshot...)
	return nil
}

func (s *fakeStore) SaveCycle(_ context.Context, report *model.CycleReport) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.cycles = append(s.cycles, report)
	return nil
}

type fakeFetcher struct {
	snapshot model.Snapshot
	err      error
}

func (f *fakeFetcher) FetchCurrentSnapshot(context.Context) (model.Snapshot, error) {
	return f.snapshot, f.err
}

type fakeNotifier struct {
	messages []notify.Message
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.messages = append(n.messages, msg)
	return n.err
}

func snapshotOf(ids ...string) model.Snapshot {
	s := make(model.Snapshot, len(ids))
	for i, id := range ids {
		s[i] = model.Listing{ID: id, Price: id + " TL"}
	}
	return s
}

var fixedTime = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestRunner(store *fakeStore, fetcher *fakeFetcher, notifier *fakeNotifier) *Runner {
	return New(store, fetcher, notifier,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLinkBase("https://example.com/Detay.aspx?id="),
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "cycle-test" }),
	)
}

func TestRunner_RunCycle(t *testing.T) {
	t.Parallel()

	t.Run("changed snapshot is stored and notified", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{snapshot: snapshotOf("1", "2", "3")}
		fetcher := &fakeFetcher{snapshot: snapshotOf("2", "3", "4")}
		notifier := &fakeNotifier{}

		report, err := newTestRunner(store, fetcher, notifier).RunCycle(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := strings.Join(store.snapshot.IDs(), ","); got != "2,3,4" {
			t.Errorf("stored snapshot = %s, want 2,3,4", got)
		}
		if store.replaceCalls != 1 {
			t.Errorf("expected 1 Replace call, got %d", store.replaceCalls)
		}
		if len(report.Diff.Added) != 1 || report.Diff.Added[0].ID != "4" {
			t.Errorf("unexpected added %+v", report.Diff.Added)
		}
		if len(report.Diff.Removed) != 1 || report.Diff.Removed[0].ID != "1" {
			t.Errorf("unexpected removed %+v", report.Diff.Removed)
		}
		if !report.Replaced || !report.Notified {
			t.Errorf("expected replaced and notified, got %+v", report)
		}
		if report.PreviousCount != 3 || report.CurrentCount != 3 {
			t.Errorf("unexpected counts %d/%d", report.PreviousCount, report.CurrentCount)
		}

		if len(notifier.messages) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
		}
		msg := notifier.messages[0]
		if msg.Subject != "19/10/2026 08:00:00 Data" {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
		if !strings.Contains(msg.HTMLBody, `href="https://example.com/Detay.aspx?id=4"`) {
			t.Errorf("expected link for added listing:\n%s", msg.HTMLBody)
		}
	})

	t.Run("unchanged snapshot is not stored but still notified", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{snapshot: snapshotOf("1", "2")}
		fetcher := &fakeFetcher{snapshot: snapshotOf("2", "1")}
		notifier := &fakeNotifier{}

		report, err := newTestRunner(store, fetcher, notifier).RunCycle(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if store.replaceCalls != 0 {
			t.Errorf("expected no Replace call, got %d", store.replaceCalls)
		}
		if report.Replaced {
			t.Error("expected Replaced to be false")
		}
		if len(notifier.messages) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
		}
		if !strings.Contains(notifier.messages[0].HTMLBody, "Sorry, Nothing Changed :(") {
			t.Errorf("expected nothing-changed message:\n%s", notifier.messages[0].HTMLBody)
		}
		if report.Status() != model.StatusUnchanged {
			t.Errorf("expected unchanged status, got %q", report.Status())
		}
	})

	t.Run("parse error aborts without storing or notifying", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{snapshot: snapshotOf("1")}
		fetcher := &fakeFetcher{err: errors.Join(model.ErrParse, errors.New("missing Data key"))}
		notifier := &fakeNotifier{}

		report, err := newTestRunner(store, fetcher, notifier).RunCycle(context.Background())
		if !errors.Is(err, model.ErrParse) {
			t.Fatalf("expected ErrParse, got %v", err)
		}
		if store.replaceCalls != 0 {
			t.Error("expected storage to be untouched")
		}
		if len(notifier.messages) != 0 {
			t.Error("expected no notification")
		}
		if report == nil || report.Error == "" {
			t.Fatal("expected failed report")
		}
		if got := strings.Join(store.snapshot.IDs(), ","); got != "1" {
			t.Errorf("stored snapshot changed to %s", got)
		}
	})

	t.Run("fetch error aborts without storing or notifying", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		fetcher := &fakeFetcher{err: errors.Join(model.ErrFetch, errors.New("status 503"))}
		notifier := &fakeNotifier{}

		_, err := newTestRunner(store, fetcher, notifier).RunCycle(context.Background())
		if !errors.Is(err, model.ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		if store.replaceCalls != 0 || len(notifier.messages) != 0 {
			t.Error("expected no side effects")
		}
	})

	t.Run("load failure aborts with ErrPersistence", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{findErr: errors.New("database is locked")}
		notifier := &fakeNotifier{}

		_, err := newTestRunner(store, &fakeFetcher{snapshot: snapshotOf("1")}, notifier).RunCycle(context.Background())
		if !errors.Is(err, model.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(notifier.messages) != 0 {
			t.Error("expected no notification")
		}
	})

	t.Run("replace failure aborts before notification", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{snapshot: snapshotOf("1"), replaceErr: errors.New("disk full")}
		notifier := &fakeNotifier{}

		report, err := newTestRunner(store, &fakeFetcher{snapshot: snapshotOf("2")}, notifier).RunCycle(context.Background())
		if !errors.Is(err, model.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(notifier.messages) != 0 {
			t.Error("expected no notification after persistence failure")
		}
		if report.Replaced {
			t.Error("expected Replaced to be false")
		}
	})

	t.Run("notify failure is recorded but not returned", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{snapshot: snapshotOf("1")}
		notifier := &fakeNotifier{err: errors.New("connection refused")}

		report, err := newTestRunner(store, &fakeFetcher{snapshot: snapshotOf("2")}, notifier).RunCycle(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.Replaced {
			t.Error("expected storage to keep the new snapshot")
		}
		if report.Notified {
			t.Error("expected Notified to be false")
		}
		if !strings.Contains(report.NotifyError, "connection refused") {
			t.Errorf("unexpected NotifyError %q", report.NotifyError)
		}
		if !strings.HasPrefix(report.NotifyError, model.ErrNotify.Error()) {
			t.Errorf("expected NotifyError to carry the notify category, got %q", report.NotifyError)
		}
		if report.Status() != model.StatusNotifyFailed {
			t.Errorf("unexpected status %q", report.Status())
		}
	})

	t.Run("duplicate ids are reported", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		report, err := newTestRunner(store, &fakeFetcher{snapshot: snapshotOf("1", "2", "1")}, &fakeNotifier{}).RunCycle(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.DuplicateIDs) != 1 || report.DuplicateIDs[0] != "1" {
			t.Errorf("unexpected duplicates %v", report.DuplicateIDs)
		}
	})

	t.Run("every cycle is recorded in history", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		runner := newTestRunner(store, &fakeFetcher{err: model.ErrFetch}, &fakeNotifier{})

		if _, err := runner.RunCycle(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(store.cycles) != 1 {
			t.Fatalf("expected 1 recorded cycle, got %d", len(store.cycles))
		}
		if store.cycles[0].ID != "cycle-test" || store.cycles[0].Error == "" {
			t.Errorf("unexpected recorded cycle %+v", store.cycles[0])
		}
		if store.cycles[0].FinishedAt.IsZero() {
			t.Error("expected finish time to be set")
		}
	})

	t.Run("history failure does not fail the cycle", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{saveErr: errors.New("readonly")}
		if _, err := newTestRunner(store, &fakeFetcher{snapshot: snapshotOf("1")}, &fakeNotifier{}).RunCycle(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("default id is a uuid", func(t *testing.T) {
		t.Parallel()

		runner := New(&fakeStore{}, &fakeFetcher{}, &fakeNotifier{},
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		report, err := runner.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.ID) != 36 {
			t.Errorf("expected UUID cycle id, got %q", report.ID)
		}
	})
}
