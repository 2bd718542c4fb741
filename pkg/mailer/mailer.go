package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"safe-haven/pkg/config"
)

// Sender delivers transactional mail. Handlers depend on this interface so
// tests can run without an SMTP server.
type Sender interface {
	SendOTP(to, code string) error
	SendModerationNotice(to, title, status, reason string) error
}

// SMTP sends through a STARTTLS SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
	user   string
}

func NewSMTP(cfg config.SMTP) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		user:   cfg.Username,
	}
}

func (s *SMTP) SendOTP(to, code string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.user, s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Safe Haven Verification Code")
	m.SetBody("text/html", otpBody(code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}

func (s *SMTP) SendModerationNotice(to, title, status, reason string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.user, s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your report has been %s", status))
	m.SetBody("text/html", moderationBody(title, status, reason))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send moderation email: %w", err)
	}
	return nil
}

func otpBody(code string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #f4f4f4;">
  <h2 style="color: #333;">Welcome to Safe Haven Map!</h2>
  <p>Please use the following OTP to verify your email address:</p>
  <h1 style="color: #4CAF50; letter-spacing: 5px;">%s</h1>
  <p>This code will expire in 10 minutes.</p>
</div>`, code)
}

func moderationBody(title, status, reason string) string {
	body := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #f4f4f4;">
  <h2 style="color: #333;">Safe Haven Map</h2>
  <p>Your incident report <strong>%s</strong> has been <strong>%s</strong> by a moderator.</p>`, title, status)
	if reason != "" {
		body += fmt.Sprintf("\n  <p>Moderator note: %s</p>", reason)
	}
	return body + "\n</div>"
}
