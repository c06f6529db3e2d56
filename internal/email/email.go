package email

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"
)

const sendTimeout = 15 * time.Second

// Sender delivers a plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the SMTP account used for outgoing mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// New returns an SMTP sender, or a console sender when no credentials are
// configured.
func New(cfg SMTPConfig) (Sender, error) {
	if cfg.Username == "" || cfg.Password == "" {
		log.Println("WARNING: SMTP credentials not set. Emails will be printed to the console.")
		return ConsoleSender{}, nil
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(sendTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.Username}, nil
}

// SMTPSender sends through a real SMTP server.
type SMTPSender struct {
	client *mail.Client
	from   string
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// ConsoleSender logs emails instead of sending them.
type ConsoleSender struct{}

func (ConsoleSender) Send(_ context.Context, to, subject, body string) error {
	log.Println("====================================================")
	log.Printf("--- NEW EMAIL (CONSOLE) ---")
	log.Printf("To: %s", to)
	log.Printf("Subject: %s", subject)
	log.Println("--- Body ---")
	log.Println(body)
	log.Println("====================================================")
	return nil
}

// SendLoginCode mails a one-time login code.
func SendLoginCode(ctx context.Context, s Sender, to, code string) error {
	body := fmt.Sprintf(
		"Your AgriTech login code is: %s\n\nThis code will expire in 10 minutes.",
		code,
	)
	return s.Send(ctx, to, "Your AgriTech login code", body)
}

// SendResetCode mails a password reset code.
func SendResetCode(ctx context.Context, s Sender, to, code string) error {
	body := fmt.Sprintf(
		"We received a request to reset your AgriTech password.\n\nYour reset code is: %s\n\nThis code will expire in 10 minutes. If you did not ask for it, ignore this email.",
		code,
	)
	return s.Send(ctx, to, "Reset your AgriTech password", body)
}
