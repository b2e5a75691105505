package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// SMTPConfig holds configuration for an authenticated SMTP relay such as
// Gmail with an app password.
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPSender sends emails over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *net.Dialer
	now    func() time.Time
	logger *logging.Logger
}

// NewSMTPSender creates a new SMTP email sender.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.Password) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &SMTPSender{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: 10 * time.Second},
		now:    time.Now,
		logger: logger,
	}
}

// Send delivers msg and returns the Message-ID it was sent with.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDDomain(s.cfg.FromEmail))
	raw, err := buildMIME(formatAddress(s.cfg.FromName, s.cfg.FromEmail), msg, messageID, s.now())
	if err != nil {
		return "", fmt.Errorf("notify: build smtp message: %w", err)
	}

	client, err := s.connect(ctx)
	if err != nil {
		s.logger.Error("smtp connect failed", "error", err, "host", s.cfg.Host)
		return "", err
	}
	defer client.Close()

	if err := client.Mail(s.cfg.FromEmail); err != nil {
		return "", fmt.Errorf("notify: smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		s.logger.Error("smtp recipient rejected", "error", err, "to", msg.To)
		return "", fmt.Errorf("notify: smtp RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("notify: smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("notify: smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("notify: smtp send failed: %w", err)
	}
	_ = client.Quit()

	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject, "message_id", messageID)
	return messageID, nil
}

// Verify dials the relay and authenticates without sending.
func (s *SMTPSender) Verify(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

func (s *SMTPSender) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("notify: smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("notify: smtp handshake: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			client.Close()
			return nil, fmt.Errorf("notify: smtp starttls: %w", err)
		}
	}
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("notify: smtp auth: %w", err)
	}
	return client, nil
}

var (
	_ EmailSender = (*SMTPSender)(nil)
	_ Verifier    = (*SMTPSender)(nil)
)
