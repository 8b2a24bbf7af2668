package mailer

import "log/slog"

// LogMailer is the development fallback when email delivery is disabled.
// Codes still end up in the server log, never in any response body.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendOneTimeCode(toEmail, code string) error {
	slog.Info("email delivery disabled, one-time code not sent",
		slog.String("to", toEmail), slog.String("code", code))
	return nil
}

func (m *LogMailer) SendPasswordResetLink(toEmail, url string) error {
	slog.Info("email delivery disabled, reset link not sent",
		slog.String("to", toEmail), slog.String("url", url))
	return nil
}
