package email

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// SMTPConfig is read from SMTP_* environment variables, matching the
// deployment contract of the wider backend.
type SMTPConfig struct {
	Server   string `envconfig:"SERVER" default:"smtp.gmail.com"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM_EMAIL"`

	// Outbound messages per second allowed through to the relay.
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"5"`
}

func LoadSMTPConfig() (SMTPConfig, error) {
	var cfg SMTPConfig
	if err := envconfig.Process("smtp", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load SMTP config: %w", err)
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return cfg, nil
}

type smtpService struct {
	cfg     SMTPConfig
	dialer  *gomail.Dialer
	limiter *rate.Limiter
}

// NewSMTPService builds the gomail-backed sender. Missing credentials are
// not an error here: every Send then fails with a configuration error, and
// the processor's retry policy handles it like any other transport failure.
func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		cfg:     cfg,
		dialer:  gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

func (s *smtpService) Send(ctx context.Context, to, subject, body, kind string) error {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("smtp credentials not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.AddAlternative("text/html", GenerateHTML(subject, body, kind))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
