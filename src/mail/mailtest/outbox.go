// Package mailtest provides an in-memory sink for account emails.
package mailtest

import (
	"context"
	"sync"

	"cashtrackr-server/src/mail"
)

type Kind string

const (
	Confirmation   Kind = "confirmation"
	ForgotPassword Kind = "forgot_password"
)

type Sent struct {
	Kind    Kind
	Message mail.Message
}

// Outbox records every message it is asked to send. When Err is set the
// message is still recorded and Err is returned.
type Outbox struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (o *Outbox) SendConfirmationEmail(_ context.Context, msg mail.Message) error {
	return o.record(Confirmation, msg)
}

func (o *Outbox) SendForgotPasswordEmail(_ context.Context, msg mail.Message) error {
	return o.record(ForgotPassword, msg)
}

func (o *Outbox) record(kind Kind, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, Sent{Kind: kind, Message: msg})
	return o.Err
}

func (o *Outbox) Sent() []Sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Sent(nil), o.sent...)
}

// LastToken returns the code of the most recent message sent to email.
func (o *Outbox) LastToken(email string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Message.Email == email {
			return o.sent[i].Message.Token, true
		}
	}
	return "", false
}
