package memberauth

import (
	"context"
	"time"
)

// LogMailer writes outgoing mail to the logger instead of a wire. The default
// until a real delivery backend is configured.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(l Logger) *LogMailer {
	if l == nil {
		l = defLogger{}
	}
	return &LogMailer{logger: l}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.logger.Info("sending email notification", "to", to, "subject", subject, "body", htmlBody)
	return nil
}

var _ Mailer = &LogMailer{}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return NewLogMailer(nil)
	}
	return m
}

// sendAsync delivers a message in the background so notification latency and
// failures never leak into the request path. The send gets its own deadline
// detached from the request context.
func sendAsync(mailer Mailer, logger Logger, to, subject, htmlBody string) {
	if logger == nil {
		logger = defLogger{}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := mailer.Send(ctx, to, subject, htmlBody); err != nil {
			logger.Error("failed to deliver email notification", "to", to, "subject", subject, "error", err)
		}
	}()
}
