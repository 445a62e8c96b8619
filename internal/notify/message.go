package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/nao1215/estatewatch/internal/model"
)

// Layouts of the notification timestamp.
const (
	// DateLayout formats the cycle time shown in the subject and heading.
	DateLayout = "02/01/2006 15:04:05"

	// subjectSuffix follows the timestamp in the subject and heading.
	subjectSuffix = " Data"

	// nothingChanged is the body heading when the diff is empty.
	nothingChanged = "Sorry, Nothing Changed :("
)

// Message is one rendered notification.
type Message struct {
	// Subject is the timestamped subject line.
	Subject string

	// HTMLBody is the HTML body.
	HTMLBody string

	// TextBody is a plain-text rendition of the same content.
	TextBody string
}

// entry is one listing link in the rendered body.
type entry struct {
	ID   string
	Link string
}

type bodyData struct {
	Heading string
	Changed bool
	Added   []entry
	Removed []entry
}

var bodyTemplate = template.Must(template.New("body").Parse(
	`<html><body><h2>{{.Heading}}</h2><br/>
{{- if .Changed}}
<h3>Added Data</h3>
{{- range .Added}}
<a href="{{.Link}}">{{.ID}}</a><br/>
{{- end}}
<br/><br/><h3>Removed Data</h3>
{{- range .Removed}}
<a href="{{.Link}}">{{.ID}}</a><br/>
{{- end}}
{{- else}}
<h3>Sorry, Nothing Changed :(</h3>
{{- end}}
</body></html>
`))

// NewMessage renders result as it was observed at the given time.
// Each listing link is linkBase followed by the listing ID.
func NewMessage(result model.DiffResult, at time.Time, linkBase string) (Message, error) {
	heading := at.Format(DateLayout) + subjectSuffix

	data := bodyData{
		Heading: heading,
		Changed: !result.Empty(),
		Added:   entries(result.Added, linkBase),
		Removed: entries(result.Removed, linkBase),
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render notification body: %w", err)
	}

	return Message{
		Subject:  heading,
		HTMLBody: buf.String(),
		TextBody: textBody(data),
	}, nil
}

func entries(listings []model.Listing, linkBase string) []entry {
	out := make([]entry, len(listings))
	for i, l := range listings {
		out[i] = entry{ID: l.ID, Link: linkBase + l.ID}
	}
	return out
}

func textBody(data bodyData) string {
	var sb strings.Builder
	sb.WriteString(data.Heading)
	sb.WriteString("\n\n")

	if !data.Changed {
		sb.WriteString(nothingChanged)
		sb.WriteString("\n")
		return sb.String()
	}

	writeSection := func(title string, list []entry) {
		sb.WriteString(title)
		sb.WriteString("\n")
		for _, e := range list {
			fmt.Fprintf(&sb, "  %s  %s\n", e.ID, e.Link)
		}
	}
	writeSection("Added Data", data.Added)
	sb.WriteString("\n")
	writeSection("Removed Data", data.Removed)
	return sb.String()
}
