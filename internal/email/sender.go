// Package email renders and delivers applicant notification emails.
package email

import (
	"context"
	"time"

	"tenant_portal_backend/platform/config"
)

// Sender delivers applicant notifications.
type Sender interface {
	SendApplicationAcceptedEmail(ctx context.Context, toEmail, applicantName, portalURL string) error
	SendApplicationRejectedEmail(ctx context.Context, toEmail, applicantName, reason string) error
	SendViewingInviteEmail(ctx context.Context, toEmail, applicantName string, start, end *time.Time) error
}

// NoopSender drops every message. Used when email is disabled.
type NoopSender struct{}

func (NoopSender) SendApplicationAcceptedEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendApplicationRejectedEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendViewingInviteEmail(context.Context, string, string, *time.Time, *time.Time) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when email is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
