package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/estatewatch/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty Added/Removed sections are shown.
	showEmpty bool

	// verbose prints price, address and description of changed listings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with listing details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the cycle report in human-readable format.
func (w *SimpleWriter) Write(report *model.CycleReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "ESTATEWATCH CYCLE REPORT")
	w.writeHeader(&sb, report)
	w.writeListings(&sb, "ADDED", "+", report.Diff.Added)
	w.writeListings(&sb, "REMOVED", "-", report.Diff.Removed)
	if len(report.DuplicateIDs) > 0 {
		writeSection(&sb, "DUPLICATE IDS")
		for _, id := range report.DuplicateIDs {
			fmt.Fprintf(&sb, "  [!] %s\n", id)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs one line per cycle.
func (w *SimpleWriter) WriteHistory(reports []*model.CycleReport) (int, error) {
	var sb strings.Builder

	if len(reports) == 0 {
		sb.WriteString("No cycles recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-36s  %-23s  %-13s  %6s  %6s  %6s\n",
		"CYCLE", "STARTED", "STATUS", "TOTAL", "ADDED", "REMOVED")
	for _, r := range reports {
		fmt.Fprintf(&sb, "%-36s  %-23s  %-13s  %6d  %6d  %6d\n",
			r.ID,
			r.StartedAt.Format(timeLayout),
			r.Status(),
			r.CurrentCount,
			len(r.Diff.Added),
			len(r.Diff.Removed),
		)
		if w.verbose && r.Error != "" {
			fmt.Fprintf(&sb, "    error: %s\n", r.Error)
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteSnapshot outputs one line per stored listing.
func (w *SimpleWriter) WriteSnapshot(snapshot model.Snapshot) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d listing(s)\n\n", len(snapshot))
	for _, l := range snapshot {
		fmt.Fprintf(&sb, "  %-12s %-20s %s\n", l.ID, truncateString(l.Price, 20), truncateString(l.Address, 40))
		if w.verbose && l.Description != "" {
			fmt.Fprintf(&sb, "               %s\n", l.Description)
		}
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CycleReport) {
	fmt.Fprintf(sb, "Cycle:          %s\n", report.ID)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Previous:       %d listings\n", report.PreviousCount)
	fmt.Fprintf(sb, "Current:        %d listings\n", report.CurrentCount)
	fmt.Fprintf(sb, "Added/Removed:  +%d / -%d\n", len(report.Diff.Added), len(report.Diff.Removed))

	switch {
	case report.Error != "":
		fmt.Fprintf(sb, "Status:         FAILED - %s\n", report.Error)
	case report.NotifyError != "":
		fmt.Fprintf(sb, "Status:         NOTIFY FAILED - %s\n", report.NotifyError)
	case report.Diff.Empty():
		sb.WriteString("Status:         Nothing changed\n")
	default:
		sb.WriteString("Status:         Changed\n")
	}

	fmt.Fprintf(sb, "Stored:         %s\n", yesNo(report.Replaced))
	fmt.Fprintf(sb, "Notified:       %s\n", yesNo(report.Notified))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeListings(sb *strings.Builder, title, marker string, listings []model.Listing) {
	if len(listings) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, title)
	if len(listings) == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	for _, l := range listings {
		fmt.Fprintf(sb, "  [%s] %s\n", marker, l.ID)
		if !w.verbose {
			continue
		}
		if l.Price != "" {
			fmt.Fprintf(sb, "      Price: %s\n", l.Price)
		}
		if l.Address != "" {
			fmt.Fprintf(sb, "      Address: %s\n", l.Address)
		}
		if l.Description != "" {
			fmt.Fprintf(sb, "      Description: %s\n", l.Description)
		}
	}
	sb.WriteString("\n")
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max((70-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
