package notify

import (
	"bytes"
	"embed"
	htmltmpl "html/template"
	"strings"
	texttmpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltmpl.Must(htmltmpl.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttmpl.Must(texttmpl.ParseFS(templateFS, "templates/*.txt"))
)

const (
	TemplateStatusChanged = "status_changed"
	TemplateEventCreated  = "event_created"
)

// Brand is the sender identity used in subjects, bodies and headers.
type Brand struct {
	Name string
	From string
}

// StatusData is the payload of the NGO status notification.
type StatusData struct {
	Email            string `json:"email"`
	OrganizationName string `json:"organizationName"`
	Status           string `json:"status"`
	RejectionReason  string `json:"rejectionReason,omitempty"`
}

// EventData is the payload of the event created notification.
type EventData struct {
	Email            string `json:"email"`
	OrganizationName string `json:"organizationName"`
	EventTitle       string `json:"eventTitle"`
	EventDate        string `json:"eventDate,omitempty"`
	EventTime        string `json:"eventTime,omitempty"`
	EventLocation    string `json:"eventLocation,omitempty"`
}

// RenderStatus builds the approved or rejected email. Any other status is
// ErrInvalidStatus.
func RenderStatus(b Brand, d StatusData) (Message, error) {
	if err := required(map[string]string{
		"email":            d.Email,
		"organizationName": d.OrganizationName,
		"status":           d.Status,
	}, "email", "organizationName", "status"); err != nil {
		return Message{}, err
	}

	var subject, name string
	switch d.Status {
	case "approved":
		subject, name = "Your NGO Account Has Been Approved", "status_approved"
	case "rejected":
		subject, name = "Your NGO Account Application Status", "status_rejected"
	default:
		return Message{}, ErrInvalidStatus
	}

	vars := struct {
		StatusData
		Brand string
	}{d, b.Name}
	msg, err := render(name, vars)
	if err != nil {
		return Message{}, err
	}
	msg.To = d.Email
	msg.Subject = subject
	msg.Headers = map[string]string{
		"X-Priority":        "1",
		"X-MSMail-Priority": "High",
		"Importance":        "high",
		"X-Mailer":          b.Name + " Notification System",
	}
	if b.From != "" {
		msg.Headers["List-Unsubscribe"] = "<mailto:" + b.From + "?subject=unsubscribe>"
	}
	return msg, nil
}

func RenderEventCreated(b Brand, d EventData) (Message, error) {
	if err := required(map[string]string{
		"email":            d.Email,
		"organizationName": d.OrganizationName,
		"eventTitle":       d.EventTitle,
	}, "email", "organizationName", "eventTitle"); err != nil {
		return Message{}, err
	}
	vars := struct {
		EventData
		Brand string
	}{d, b.Name}
	msg, err := render("event_created", vars)
	if err != nil {
		return Message{}, err
	}
	msg.To = d.Email
	msg.Subject = "New Event Created: " + d.EventTitle
	return msg, nil
}

func render(name string, vars any) (Message, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", vars); err != nil {
		return Message{}, err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", vars); err != nil {
		return Message{}, err
	}
	return Message{HTML: html.String(), Text: strings.TrimSpace(text.String())}, nil
}

func required(values map[string]string, order ...string) error {
	var missing []string
	for _, k := range order {
		if strings.TrimSpace(values[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}
