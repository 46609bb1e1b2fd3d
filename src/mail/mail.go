// Package mail renders and delivers account emails.
package mail

import (
	"context"
	"fmt"

	"github.com/flosch/pongo2/v6"
)

// Message identifies the recipient and the code to deliver.
type Message struct {
	Name  string
	Email string
	Token string
}

// Envelope is a fully rendered email.
type Envelope struct {
	From    string
	To      string
	Subject string
	HTML    string
}

type Transport interface {
	Deliver(ctx context.Context, env Envelope) error
}

type Mailer struct {
	transport   Transport
	from        string
	frontendURL string
}

func NewMailer(transport Transport, from, frontendURL string) *Mailer {
	return &Mailer{transport: transport, from: from, frontendURL: frontendURL}
}

func (m *Mailer) SendConfirmationEmail(ctx context.Context, msg Message) error {
	return m.send(ctx, msg, "CashTrackr - Confirm your account", confirmationTemplate, "/auth/confirm-account")
}

func (m *Mailer) SendForgotPasswordEmail(ctx context.Context, msg Message) error {
	return m.send(ctx, msg, "CashTrackr - Reset your password", forgotPasswordTemplate, "/auth/reset-password")
}

func (m *Mailer) send(ctx context.Context, msg Message, subject string, tpl *pongo2.Template, path string) error {
	body, err := tpl.Execute(pongo2.Context{
		"name":  msg.Name,
		"token": msg.Token,
		"link":  m.frontendURL + path,
	})
	if err != nil {
		return fmt.Errorf("render %q: %w", subject, err)
	}

	env := Envelope{From: m.from, To: msg.Email, Subject: subject, HTML: body}
	if err := m.transport.Deliver(ctx, env); err != nil {
		return fmt.Errorf("deliver %q: %w", subject, err)
	}
	return nil
}
