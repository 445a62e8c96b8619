package model

import (
	"testing"
	"time"
)

func TestDiffResult_Empty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		diff DiffResult
		want bool
	}{
		{name: "zero value", diff: DiffResult{}, want: true},
		{name: "empty slices", diff: DiffResult{Added: []Listing{}, Removed: []Listing{}}, want: true},
		{name: "added only", diff: DiffResult{Added: []Listing{{ID: "1"}}}, want: false},
		{name: "removed only", diff: DiffResult{Removed: []Listing{{ID: "1"}}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.diff.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshot_IDs(t *testing.T) {
	t.Parallel()

	s := Snapshot{{ID: "3"}, {ID: "1"}, {ID: "2"}}
	got := s.IDs()
	want := []string{"3", "1", "2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCycleReport_Status(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("failed wins over everything", func(t *testing.T) {
		t.Parallel()
		r := NewCycleReport("c1", start)
		r.Error = "boom"
		r.NotifyError = "smtp down"
		if r.Status() != "failed" {
			t.Errorf("expected failed, got %q", r.Status())
		}
	})

	t.Run("notify failure", func(t *testing.T) {
		t.Parallel()
		r := NewCycleReport("c2", start)
		r.NotifyError = "smtp down"
		if r.Status() != "notify failed" {
			t.Errorf("expected notify failed, got %q", r.Status())
		}
	})

	t.Run("unchanged and changed", func(t *testing.T) {
		t.Parallel()
		r := NewCycleReport("c3", start)
		if r.Status() != "unchanged" {
			t.Errorf("expected unchanged, got %q", r.Status())
		}
		r.Diff.Added = []Listing{{ID: "9"}}
		if r.Status() != "changed" {
			t.Errorf("expected changed, got %q", r.Status())
		}
	})

	t.Run("duration", func(t *testing.T) {
		t.Parallel()
		r := NewCycleReport("c4", start)
		if r.Duration() != 0 {
			t.Errorf("expected zero duration for running cycle, got %v", r.Duration())
		}
		r.FinishedAt = start.Add(1500 * time.Millisecond)
		if r.Duration() != 1500*time.Millisecond {
			t.Errorf("expected 1.5s, got %v", r.Duration())
		}
	})
}
