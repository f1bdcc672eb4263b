package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/wmcproducts/partner-site/pkg/logging"
)

// ErrNoRecipients is returned when a notice has nobody to go to.
var ErrNoRecipients = errors.New("notify: no recipients configured")

// LeadNotice is what staff see about a new partner inquiry.
type LeadNotice struct {
	Name        string
	Company     string
	Email       string
	Phone       string
	CompanyType string // display label, empty when unset
	Message     string
}

// Service sends staff notifications through an EmailSender.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. Blank recipients are dropped.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	clean := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return &Service{
		email:      email,
		recipients: clean,
		logger:     logger,
	}
}

// NotifyNewLead emails every recipient about a new lead. Any failed
// recipient fails the whole notice.
func (s *Service) NotifyNewLead(ctx context.Context, n LeadNotice) error {
	if s.email == nil {
		return fmt.Errorf("notify: email sender not configured")
	}
	if len(s.recipients) == 0 {
		return ErrNoRecipients
	}

	name := n.Name
	if name == "" {
		name = "Website visitor"
	}
	subject := fmt.Sprintf("New Partner Inquiry - %s", name)
	if n.Company != "" {
		subject += fmt.Sprintf(" (%s)", n.Company)
	}
	body := fmt.Sprintf(`A new partner inquiry came in from the website.

Name: %s
Company: %s
Email: %s
Phone: %s
Company Type: %s

Message:
%s
`, name, orDash(n.Company), n.Email, orDash(n.Phone), orDash(n.CompanyType), n.Message)

	var errs []error
	for _, recipient := range s.recipients {
		msg := EmailMessage{
			To:      recipient,
			ReplyTo: n.Email,
			Subject: subject,
			Body:    body,
			HTML:    leadNoticeHTML(name, n),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send lead email", "error", err, "to", recipient)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("notify: lead email sent", "to", recipient)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d notification(s) failed: %w", len(errs), len(s.recipients), errors.Join(errs...))
	}
	return nil
}

func leadNoticeHTML(name string, n LeadNotice) string {
	row := func(label, value string) string {
		return fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
			label, value)
	}
	email := html.EscapeString(n.Email)
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">`)
	b.WriteString(`<h2 style="color: #1d4ed8;">New Partner Inquiry</h2>`)
	b.WriteString(`<table style="border-collapse: collapse; margin: 20px 0;">`)
	b.WriteString(row("Name", html.EscapeString(name)))
	b.WriteString(row("Company", html.EscapeString(orDash(n.Company))))
	b.WriteString(row("Email", fmt.Sprintf(`<a href="mailto:%s">%s</a>`, email, email)))
	b.WriteString(row("Phone", html.EscapeString(orDash(n.Phone))))
	b.WriteString(row("Company Type", html.EscapeString(orDash(n.CompanyType))))
	b.WriteString(`</table>`)
	b.WriteString(`<p style="white-space: pre-wrap;">`)
	b.WriteString(html.EscapeString(n.Message))
	b.WriteString(`</p></div>`)
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
