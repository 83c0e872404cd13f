package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendApplicationAcceptedEmail(ctx context.Context, toEmail, applicantName, portalURL string) error {
	content, err := renderApplicationAccepted(applicantName, portalURL)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectApplicationAccepted, content)
}

func (s *SMTPSender) SendApplicationRejectedEmail(ctx context.Context, toEmail, applicantName, reason string) error {
	content, err := renderApplicationRejected(applicantName, reason)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectApplicationRejected, content)
}

func (s *SMTPSender) SendViewingInviteEmail(ctx context.Context, toEmail, applicantName string, start, end *time.Time) error {
	content, err := renderViewingInvite(applicantName, start, end)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectViewingInvite, content)
}

var _ Sender = (*SMTPSender)(nil)
