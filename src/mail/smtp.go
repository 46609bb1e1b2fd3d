package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPTransport delivers through an SMTP relay with PLAIN auth when a user is
// set. STARTTLS is used whenever the relay offers it.
type SMTPTransport struct {
	Host     string
	Port     int
	User     string
	Password string
}

func (t SMTPTransport) Deliver(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newMessage(env)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(t.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if t.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.User),
			gomail.WithPassword(t.Password),
		)
	}

	client, err := gomail.NewClient(t.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", env.To, err)
	}
	return nil
}

// newMessage builds an HTML message with Date and Message-ID set. Non-ASCII
// headers are encoded by go-mail.
func newMessage(env Envelope) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(env.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", env.From, err)
	}
	if err := msg.To(env.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", env.To, err)
	}
	msg.Subject(env.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, env.HTML)
	return msg, nil
}
