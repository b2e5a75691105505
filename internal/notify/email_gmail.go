package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mulambwane/safari-forms/pkg/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig holds the configuration for the Gmail API sender.
type GmailConfig struct {
	// CredentialsJSON is a service account key with domain-wide delegation
	// for the sender mailbox.
	CredentialsJSON string
	FromEmail       string
	FromName        string
}

type gmailAPI interface {
	send(ctx context.Context, msg *gmail.Message) (*gmail.Message, error)
	verify(ctx context.Context) error
}

type gmailService struct {
	svc    *gmail.Service
	tokens oauth2.TokenSource
}

func (g gmailService) send(ctx context.Context, msg *gmail.Message) (*gmail.Message, error) {
	return g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
}

// verify fetches an access token; the send scope does not allow reading
// the mailbox, so a token is the strongest check available.
func (g gmailService) verify(context.Context) error {
	_, err := g.tokens.Token()
	return err
}

// GmailSender sends through the Gmail API as the configured mailbox.
type GmailSender struct {
	api       gmailAPI
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// NewGmailSender creates a GmailSender from service account credentials.
func NewGmailSender(ctx context.Context, cfg GmailConfig, logger *logging.Logger) (*GmailSender, error) {
	if cfg.CredentialsJSON == "" {
		return nil, fmt.Errorf("notify: gmail credentials JSON is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("notify: gmail sender address is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}

	jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("notify: gmail parse credentials: %w", err)
	}
	jwtConfig.Subject = cfg.FromEmail

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("notify: gmail create service: %w", err)
	}

	return &GmailSender{
		api:       gmailService{svc: svc, tokens: jwtConfig.TokenSource(ctx)},
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}, nil
}

// Send sends an email via the Gmail API.
func (g *GmailSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDDomain(g.fromEmail))
	raw, err := buildMIME(formatAddress(g.fromName, g.fromEmail), msg, messageID, time.Now())
	if err != nil {
		return "", fmt.Errorf("notify: build gmail message: %w", err)
	}

	sent, err := g.api.send(ctx, &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)})
	if err != nil {
		g.logger.Error("gmail send failed", "error", err, "to", msg.To)
		return "", fmt.Errorf("notify: gmail send failed: %w", err)
	}

	id := messageID
	if sent != nil && sent.Id != "" {
		id = sent.Id
	}
	g.logger.Info("email sent via gmail", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return id, nil
}

// Verify proves the service account credentials can be exchanged for a token.
func (g *GmailSender) Verify(ctx context.Context) error {
	if err := g.api.verify(ctx); err != nil {
		return fmt.Errorf("notify: gmail verify: %w", err)
	}
	return nil
}

var (
	_ EmailSender = (*GmailSender)(nil)
	_ Verifier    = (*GmailSender)(nil)
)
