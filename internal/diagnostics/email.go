// Package diagnostics checks that the configured mail transport can reach the
// business mailbox.
package diagnostics

import (
	"context"
	"errors"
	"fmt"

	"github.com/mulambwane/safari-forms/internal/notify"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// ErrTransportUnavailable is returned when no mail transport was built.
var ErrTransportUnavailable = errors.New("diagnostics: mail transport unavailable")

// Transport is the part of the dispatcher the email check needs.
type Transport interface {
	Sender() notify.EmailSender
	BusinessRecipient() string
	TransportError() error
}

// Credentials says which mail credentials are present, never their values.
type Credentials struct {
	HasUser bool `json:"hasUser"`
	HasPass bool `json:"hasPass"`
}

// EmailCheck verifies the transport and sends one plain-text test message.
type EmailCheck struct {
	transport Transport
	creds     Credentials
	subject   string
	logger    *logging.Logger
}

// NewEmailCheck creates an EmailCheck. businessName goes into the subject line.
func NewEmailCheck(transport Transport, creds Credentials, businessName string, logger *logging.Logger) *EmailCheck {
	if logger == nil {
		logger = logging.Default()
	}
	if businessName == "" {
		businessName = "Mulambwane Safaris"
	}
	return &EmailCheck{
		transport: transport,
		creds:     creds,
		subject:   "Email Test - " + businessName,
		logger:    logger,
	}
}

// Credentials returns the presence flags reported to callers.
func (c *EmailCheck) Credentials() Credentials { return c.creds }

// Run verifies the transport when it supports it, then sends the test
// message and returns its delivery id.
func (c *EmailCheck) Run(ctx context.Context) (string, error) {
	if c.transport == nil || c.transport.Sender() == nil {
		var cause error
		if c.transport != nil {
			cause = c.transport.TransportError()
		}
		c.logger.Error("email test: transport unavailable", "error", cause, "has_user", c.creds.HasUser, "has_pass", c.creds.HasPass)
		return "", ErrTransportUnavailable
	}
	sender := c.transport.Sender()

	if v, ok := sender.(notify.Verifier); ok {
		if err := v.Verify(ctx); err != nil {
			c.logger.Error("email test: verify failed", "error", err)
			return "", fmt.Errorf("verify: %w", err)
		}
	}

	id, err := sender.Send(ctx, notify.EmailMessage{
		To:      c.transport.BusinessRecipient(),
		Subject: c.subject,
		Body:    "This is a test email to verify the email system is working!",
	})
	if err != nil {
		c.logger.Error("email test: send failed", "error", err)
		return "", err
	}
	c.logger.Info("email test: sent", "message_id", id)
	return id, nil
}
