package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGrid struct {
	key  string
	from *sgmail.Email
}

func NewSendGrid(apiKey, from, fromName string) *SendGrid {
	return &SendGrid{key: apiKey, from: sgmail.NewEmail(fromName, from)}
}

func (s *SendGrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	for k, v := range msg.Headers {
		m.SetHeader(k, v)
	}
	return m
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if s.key == "" || s.from.Address == "" {
		return fmt.Errorf("sendgrid: %w", ErrCredentials)
	}
	res, err := sendgrid.NewSendClient(s.key).SendWithContext(ctx, s.prepare(msg))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return &HTTPError{Provider: "sendgrid", StatusCode: res.StatusCode, Body: res.Body}
	}
	return nil
}
