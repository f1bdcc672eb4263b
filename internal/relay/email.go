package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/internal/notify"
)

// Notifier is satisfied by *notify.Service.
type Notifier interface {
	NotifyNewLead(ctx context.Context, n notify.LeadNotice) error
}

// EmailRelay delivers leads straight through an email provider instead of a
// hosted form relay. The decoy field is not forwarded; providers have no
// use for it.
type EmailRelay struct {
	notifier Notifier
}

// NewEmailRelay wraps a notifier.
func NewEmailRelay(n Notifier) *EmailRelay {
	if n == nil {
		panic("relay: notifier required")
	}
	return &EmailRelay{notifier: n}
}

// Deliver renders the staff notice and sends it.
func (r *EmailRelay) Deliver(ctx context.Context, p leads.Payload) error {
	err := r.notifier.NotifyNewLead(ctx, notify.LeadNotice{
		Name:        p.Name,
		Company:     p.Company,
		Email:       p.Email,
		Phone:       p.Phone,
		CompanyType: p.CompanyType.Label(),
		Message:     p.Message,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, notify.ErrNoRecipients):
		// misconfiguration rather than a provider outage
		return fmt.Errorf("%w: no staff recipients configured", leads.ErrDeliveryFailed)
	default:
		return fmt.Errorf("%w: %w", leads.ErrDeliveryFailed, err)
	}
}

var _ leads.Relay = (*EmailRelay)(nil)
