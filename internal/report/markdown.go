package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/estatewatch/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the cycle report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CycleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeChart(md, report)
	w.writeAlert(md, report)
	w.writeListings(md, "Added", report.Diff.Added)
	w.writeListings(md, "Removed", report.Diff.Removed)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the cycle history as a table.
func (w *MarkdownWriter) WriteHistory(reports []*model.CycleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Cycle History")
	md.PlainText("")

	if len(reports) == 0 {
		md.PlainText("No cycles recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			"`" + r.ID + "`",
			r.StartedAt.Format(timeLayout),
			statusText(r),
			strconv.Itoa(r.CurrentCount),
			strconv.Itoa(len(r.Diff.Added)),
			strconv.Itoa(len(r.Diff.Removed)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Cycle", "Started", "Status", "Total", "Added", "Removed"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSnapshot outputs the stored listings as a table.
func (w *MarkdownWriter) WriteSnapshot(snapshot model.Snapshot) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Stored Listings")
	md.PlainText("")
	md.PlainTextf("%d listing(s)", len(snapshot))
	md.PlainText("")

	if len(snapshot) > 0 {
		md.Table(listingTable(snapshot))
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CycleReport) {
	md.H1("Estatewatch Cycle Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Cycle", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format(timeLayout)},
			{"Duration", report.Duration().String()},
			{"Previous listings", strconv.Itoa(report.PreviousCount)},
			{"Current listings", strconv.Itoa(report.CurrentCount)},
			{"Stored", yesNo(report.Replaced)},
			{"Notified", yesNo(report.Notified)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeChart writes a mermaid pie chart of added, removed and kept listings.
func (w *MarkdownWriter) writeChart(md *markdown.Markdown, report *model.CycleReport) {
	if report.Error != "" || report.CurrentCount+report.PreviousCount == 0 {
		return
	}

	added := len(report.Diff.Added)
	removed := len(report.Diff.Removed)
	kept := max(report.CurrentCount-added, 0)

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Listing Changes"),
		piechart.WithShowData(true),
	)
	if kept > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(kept))
	}
	if added > 0 {
		chart.LabelAndIntValue("Added", uint64(added))
	}
	if removed > 0 {
		chart.LabelAndIntValue("Removed", uint64(removed))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CycleReport) {
	switch {
	case report.Error != "":
		md.Cautionf("Cycle failed: %s", report.Error)
	case report.NotifyError != "":
		md.Warningf("Notification failed: %s", report.NotifyError)
	case len(report.DuplicateIDs) > 0:
		md.Importantf("%d listing ID(s) appeared more than once in the fetched snapshot.", len(report.DuplicateIDs))
	case report.Diff.Empty():
		md.Note("Nothing changed since the previous cycle.")
	default:
		md.Tip("Listings changed since the previous cycle.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeListings(md *markdown.Markdown, title string, listings []model.Listing) {
	if len(listings) == 0 {
		return
	}

	md.H2(title)
	md.PlainText("")
	md.Table(listingTable(listings))
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [estatewatch](https://github.com/nao1215/estatewatch)*")
}

func listingTable(listings []model.Listing) markdown.TableSet {
	rows := make([][]string, len(listings))
	for i, l := range listings {
		rows[i] = []string{
			l.ID,
			dash(truncateString(l.Price, 30)),
			dash(truncateString(l.Address, 40)),
			dash(truncateString(l.Description, 60)),
		}
	}
	return markdown.TableSet{
		Header: []string{"ID", "Price", "Address", "Description"},
		Rows:   rows,
	}
}

func statusText(report *model.CycleReport) string {
	switch report.Status() {
	case model.StatusFailed:
		return "❌ Failed"
	case model.StatusNotifyFailed:
		return "⚠️ Notify failed"
	case model.StatusUnchanged:
		return "✅ Unchanged"
	default:
		return "🔔 Changed"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
