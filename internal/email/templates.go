package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// viewingLocation is the zone viewing times are shown in.
var viewingLocation = loadZone("Europe/Zurich")

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type applicationAcceptedEmailData struct {
	baseEmailData
	ApplicantName string
}

type applicationRejectedEmailData struct {
	baseEmailData
	ApplicantName string
	Reason        string
}

type viewingInviteEmailData struct {
	baseEmailData
	ApplicantName string
	Slot          string
}

func renderApplicationAccepted(applicantName, portalURL string) (string, error) {
	data := applicationAcceptedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Zusage",
			Heading: "Herzlichen Glückwunsch",
			CTAURL:  portalURL,
		},
		ApplicantName: greetingName(applicantName),
	}
	if portalURL != "" {
		data.CTALabel = "Zum Mieterportal"
	}
	return renderEmailTemplate("application_accepted.html", data)
}

func renderApplicationRejected(applicantName, reason string) (string, error) {
	return renderEmailTemplate("application_rejected.html", applicationRejectedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Ihre Bewerbung",
			Heading: "Vielen Dank für Ihr Interesse",
		},
		ApplicantName: greetingName(applicantName),
		Reason:        reason,
	})
}

func renderViewingInvite(applicantName string, start, end *time.Time) (string, error) {
	return renderEmailTemplate("viewing_invite.html", viewingInviteEmailData{
		baseEmailData: baseEmailData{
			Title:   "Besichtigung",
			Heading: "Einladung zur Besichtigung",
		},
		ApplicantName: greetingName(applicantName),
		Slot:          formatSlot(start, end),
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func greetingName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Interessentin, Interessent"
	}
	return name
}

// formatSlot renders a viewing slot in Swiss notation. An empty string means
// the time is still to be arranged.
func formatSlot(start, end *time.Time) string {
	if start == nil {
		return ""
	}
	s := start.In(viewingLocation)
	out := s.Format("02.01.2006, 15:04")
	if end != nil {
		out += "–" + end.In(viewingLocation).Format("15:04")
	}
	return out + " Uhr"
}

func loadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
