// Package email sends confirmation messages over one authenticated SMTP session.
package email

import "context"

// Message is one confirmation email. From is fixed by the session.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Session is an open, authenticated connection. Close must be called once,
// whatever the outcome of the sends.
type Session interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
