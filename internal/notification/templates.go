package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/FikranSE/bookingapp/internal/domain"
)

const displayDateLayout = "Monday, 02 January 2006"

type bookingView struct {
	Heading      string
	Intro        string
	Kind         string
	Status       string
	ResourceName string
	DetailLabel  string
	Detail       string
	PurposeLabel string
	Purpose      string
	Date         string
	TimeRange    string
	PIC          string
	Section      string
	Notes        string
}

var htmlTemplate = template.Must(template.New("booking").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><b>{{.Kind}}</b></td><td>{{.ResourceName}}</td></tr>
    {{- if .Detail}}
    <tr><td><b>{{.DetailLabel}}</b></td><td>{{.Detail}}</td></tr>
    {{- end}}
    <tr><td><b>Date</b></td><td>{{.Date}}</td></tr>
    <tr><td><b>Time</b></td><td>{{.TimeRange}}</td></tr>
    {{- if .Purpose}}
    <tr><td><b>{{.PurposeLabel}}</b></td><td>{{.Purpose}}</td></tr>
    {{- end}}
    {{- if .PIC}}
    <tr><td><b>PIC</b></td><td>{{.PIC}}</td></tr>
    {{- end}}
    {{- if .Section}}
    <tr><td><b>Section</b></td><td>{{.Section}}</td></tr>
    {{- end}}
    <tr><td><b>Status</b></td><td>{{.Status}}</td></tr>
    {{- if .Notes}}
    <tr><td><b>Notes</b></td><td>{{.Notes}}</td></tr>
    {{- end}}
  </table>
</body>
</html>
`))

func statusSubject(kind domain.ResourceKind, status domain.EffectiveStatus) string {
	return fmt.Sprintf("%s Booking Status: %s", kind.Label(), status)
}

func createdSubject(kind domain.ResourceKind) string {
	return fmt.Sprintf("New %s Booking Request", kind.Label())
}

func reminderSubject(kind domain.ResourceKind, reminder domain.ReminderType, startTime string) string {
	if reminder == domain.ReminderStarting {
		return fmt.Sprintf("Reminder: %s Booking is starting now", kind.Label())
	}
	return fmt.Sprintf("Reminder: %s Booking starts at %s", kind.Label(), shortClock(startTime))
}

func newView(b *domain.Booking, heading, intro string) bookingView {
	v := bookingView{
		Heading:      heading,
		Intro:        intro,
		Status:       string(b.Effective),
		ResourceName: b.ResourceName,
		Detail:       b.ResourceDetail,
		Date:         b.BookingDate.Format(displayDateLayout),
		TimeRange:    shortClock(b.StartTime) + " - " + shortClock(b.EndTime),
		PIC:          b.PIC,
		Section:      b.Section,
		Notes:        b.Notes,
	}
	if b.Kind == domain.ResourceTransport {
		v.Kind = "Vehicle"
		v.DetailLabel = "Driver"
		v.PurposeLabel = "Destination"
		v.Purpose = b.Destination
	} else {
		v.Kind = "Room"
		v.DetailLabel = "Room type"
		v.PurposeLabel = "Agenda"
		v.Purpose = b.Agenda
	}
	return v
}

func render(v bookingView) (text, html string, err error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, v); err != nil {
		return "", "", fmt.Errorf("render email: %w", err)
	}
	return renderText(v), buf.String(), nil
}

func renderText(v bookingView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n%s\n\n", v.Heading, v.Intro)
	fmt.Fprintf(&sb, "%s: %s\n", v.Kind, v.ResourceName)
	if v.Detail != "" {
		fmt.Fprintf(&sb, "%s: %s\n", v.DetailLabel, v.Detail)
	}
	fmt.Fprintf(&sb, "Date: %s\n", v.Date)
	fmt.Fprintf(&sb, "Time: %s\n", v.TimeRange)
	if v.Purpose != "" {
		fmt.Fprintf(&sb, "%s: %s\n", v.PurposeLabel, v.Purpose)
	}
	if v.PIC != "" {
		fmt.Fprintf(&sb, "PIC: %s\n", v.PIC)
	}
	if v.Section != "" {
		fmt.Fprintf(&sb, "Section: %s\n", v.Section)
	}
	fmt.Fprintf(&sb, "Status: %s\n", v.Status)
	if v.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", v.Notes)
	}
	return sb.String()
}

// shortClock trims seconds from an HH:MM:SS value.
func shortClock(s string) string {
	if len(s) == len("15:04:05") && s[2] == ':' && s[5] == ':' {
		return s[:5]
	}
	return s
}
