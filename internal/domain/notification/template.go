package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"qurux/internal/domain/booking"
)

//go:embed templates/*.html
var templateFS embed.FS

// Details is everything a status email shows. Values are escaped on render.
type Details struct {
	BookingID      string
	CustomerName   string
	ServiceName    string
	SalonName      string
	SalonAddress   string
	Date           string
	Time           string
	Price          string
	BookingLink    string
	RescheduleLink string
	Year           int
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Renderer struct {
	confirmation *template.Template
	rejection    *template.Template
}

func NewRenderer() (*Renderer, error) {
	confirmation, err := template.ParseFS(templateFS, "templates/booking_confirmation.html")
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}
	rejection, err := template.ParseFS(templateFS, "templates/booking_rejection.html")
	if err != nil {
		return nil, fmt.Errorf("parse rejection template: %w", err)
	}
	return &Renderer{confirmation: confirmation, rejection: rejection}, nil
}

// Render builds the email for status. Only Confirmed and Declined have one.
func (r *Renderer) Render(status booking.Status, to string, d Details) (*Message, error) {
	var (
		tpl     *template.Template
		subject string
	)
	switch status {
	case booking.StatusConfirmed:
		tpl = r.confirmation
		subject = fmt.Sprintf("Booking Confirmed: %s at %s", d.ServiceName, d.SalonName)
	case booking.StatusDeclined:
		tpl = r.rejection
		subject = fmt.Sprintf("Booking Update: %s at %s", d.ServiceName, d.SalonName)
	default:
		return nil, fmt.Errorf("no template for status %s", status)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render %s email: %w", status, err)
	}
	return &Message{To: to, Subject: headerSafe(subject), HTML: buf.String()}, nil
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
