package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes verification links to the log instead of sending mail.
// It is the development transport; the link is printed for the operator.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "mailer")}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "verification mail", "to", email, "link", link)
	return nil
}
