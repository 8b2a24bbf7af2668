package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/knadh/smtppool"
)

// SMTPMailer sends through a pooled SMTP connection.
type SMTPMailer struct {
	pool        *smtppool.Pool
	from        string
	sendTimeout time.Duration
}

func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	connections := cfg.Connections
	if connections <= 0 {
		connections = 2
	}
	sendTimeout := time.Duration(cfg.SendTimeout) * time.Second
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}

	pool, err := smtppool.New(smtppool.Opt{
		Host:            cfg.SMTPHost,
		Port:            cfg.SMTPPort,
		MaxConns:        connections,
		IdleTimeout:     sendTimeout,
		PoolWaitTimeout: sendTimeout,
		TLSConfig:       &tls.Config{ServerName: cfg.SMTPHost},
		Auth:            auth,
	})
	if err != nil {
		return nil, fmt.Errorf("init smtp pool: %w", err)
	}

	return &SMTPMailer{
		pool:        pool,
		from:        cfg.From,
		sendTimeout: sendTimeout,
	}, nil
}

func (m *SMTPMailer) SendOneTimeCode(toEmail, code string) error {
	html := fmt.Sprintf(`
		<p>Your login verification code is:</p>
		<h2 style="letter-spacing:2px;">%s</h2>
		<p>If you did not attempt to log in, please change your password.</p>
	`, code)
	return m.send(toEmail, "Fresh Farm Market - Login Code", html)
}

func (m *SMTPMailer) SendPasswordResetLink(toEmail, url string) error {
	html := fmt.Sprintf(`
		<p>A password reset was requested for your account.</p>
		<p><a href="%s">Reset your password</a> (the link expires in 15 minutes).</p>
		<p>If you did not request this, you can ignore this email.</p>
	`, url)
	return m.send(toEmail, "Fresh Farm Market - Reset Password", html)
}

func (m *SMTPMailer) send(to, subject, htmlContent string) error {
	e := smtppool.Email{
		To:      []string{to},
		From:    m.from,
		Subject: subject,
		HTML:    []byte(htmlContent),
		Headers: textproto.MIMEHeader{},
	}
	return m.pool.Send(e)
}
