package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/estatewatch/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// cycleJSON adds derived fields to a cycle report.
type cycleJSON struct {
	*model.CycleReport

	Status     string  `json:"status"`
	DurationMS float64 `json:"duration_ms"`
}

func newCycleJSON(report *model.CycleReport) cycleJSON {
	return cycleJSON{
		CycleReport: report,
		Status:      report.Status(),
		DurationMS:  float64(report.Duration().Microseconds()) / 1000,
	}
}

// Write outputs the cycle report in JSON format.
func (w *JSONWriter) Write(report *model.CycleReport) (int, error) {
	return w.writeJSON(newCycleJSON(report))
}

// WriteHistory outputs the cycle reports as a JSON array.
func (w *JSONWriter) WriteHistory(reports []*model.CycleReport) (int, error) {
	out := make([]cycleJSON, len(reports))
	for i, r := range reports {
		out[i] = newCycleJSON(r)
	}
	return w.writeJSON(out)
}

// WriteSnapshot outputs the snapshot as a JSON array of listings.
func (w *JSONWriter) WriteSnapshot(snapshot model.Snapshot) (int, error) {
	if snapshot == nil {
		snapshot = model.Snapshot{}
	}
	return w.writeJSON(snapshot)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
