package mailer

import (
	"go.uber.org/zap"

	"github.com/teamtodo/teamtodo-api/internal/logger"
)

// EmailSender delivers notification mail. Implementations are invoked
// fire-and-forget: a delivery failure never rolls back the state change
// that triggered it.
type EmailSender interface {
	Send(to, subject, text, html string) error
}

// LogSender writes outbound mail to the log instead of delivering it.
// Used in development and as the default until an SMTP sender is wired.
type LogSender struct{}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message.
func (s *LogSender) Send(to, subject, text, html string) error {
	logger.L().Info("outbound email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("text_bytes", len(text)),
		zap.Int("html_bytes", len(html)),
	)
	return nil
}

// Dispatch sends asynchronously, logging failures.
func Dispatch(sender EmailSender, to, subject, text, html string) {
	go func() {
		if err := sender.Send(to, subject, text, html); err != nil {
			logger.L().Warn("email delivery failed",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}
