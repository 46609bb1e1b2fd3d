package mail

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogTransport writes emails to the log instead of sending them. Used when
// no SMTP relay is configured.
type LogTransport struct{}

func (LogTransport) Deliver(_ context.Context, env Envelope) error {
	log.Info().Str("to", env.To).Str("subject", env.Subject).Msg("email not sent, no SMTP relay configured")
	log.Debug().Str("to", env.To).Str("body", env.HTML).Msg("email body")
	return nil
}
