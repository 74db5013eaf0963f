package email

import (
	"context"

	"github.com/studyhall/studyhall/internal/logging"
)

// ConsoleMailer logs messages instead of delivering them. Development
// default when no SendGrid key is configured.
type ConsoleMailer struct {
	log logging.Logger
}

func NewConsoleMailer(log logging.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

func (m *ConsoleMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info(ctx, "email (console)", "to", to, "subject", subject, "body", body)
	return nil
}
