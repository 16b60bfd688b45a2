package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/careloop/intake-api/internal/config"
)

type Service interface {
	Send(to, subject, body string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
