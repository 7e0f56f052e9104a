package service

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer delivers the one-time codes of the reset and 2FA flows
type Mailer interface {
	SendPasswordReset(to, code string) error
	SendTwoFactorCode(to, code string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

// SMTPMailer sends plain text mail through an authenticated SMTP relay
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(c SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   c.From,
		dialer: gomail.NewDialer(c.Host, c.Port, c.From, c.Password),
	}
}

func (m *SMTPMailer) SendPasswordReset(to, code string) error {
	return m.send(to, "Password Reset Request",
		fmt.Sprintf("Your password reset code is: %v\n\nThis code will expire in %d minutes.", code, int(resetCodeTTL.Minutes())))
}

func (m *SMTPMailer) SendTwoFactorCode(to, code string) error {
	return m.send(to, "Your Two-Factor Authentication Code",
		fmt.Sprintf("Your verification code is: %v\n\nThis code will expire in %d minutes.", code, int(twoFactorCodeTTL.Minutes())))
}

func (m *SMTPMailer) send(to, subject, body string) error {
	if to == "" {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}
