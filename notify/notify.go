// Package notify sends transactional email through a pluggable transport and
// reports every attempt as a single Result.
package notify

import (
	"context"
	"errors"
)

// Message is a rendered email ready for a transport.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Headers map[string]string
}

// Sender delivers a message. Implementations must honour ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

var (
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrCredentials means the transport has no usable credentials configured.
	ErrCredentials = errors.New("invalid email credentials")
)

// MissingFieldsError lists required template fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields"
}
