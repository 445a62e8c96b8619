package report

import (
	"io"

	"github.com/nao1215/estatewatch/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single cycle report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CycleReport) (int, error)

	// WriteHistory outputs a list of cycle reports, newest first.
	WriteHistory(reports []*model.CycleReport) (int, error)

	// WriteSnapshot outputs the listings of a snapshot.
	WriteSnapshot(snapshot model.Snapshot) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CycleReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(reports []*model.CycleReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(reports) })
}

// WriteSnapshot outputs the snapshot to all configured Writers.
func (m *MultiWriter) WriteSnapshot(snapshot model.Snapshot) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteSnapshot(snapshot) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for every timestamp in text and Markdown output.
const timeLayout = "2006-01-02 15:04:05 MST"

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
