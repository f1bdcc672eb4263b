package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	fail map[string]error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[msg.To]; err != nil {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func sampleNotice() LeadNotice {
	return LeadNotice{
		Name:        "John Smith",
		Company:     "Co",
		Email:       "john@co.com",
		CompanyType: "Distributor",
		Message:     "We carry <b>fasteners</b>",
	}
}

func TestService_NotifyNewLead(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"sales@wmc.example", " ", "ops@wmc.example"}, nil)

	if err := svc.NotifyNewLead(context.Background(), sampleNotice()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.Subject != "New Partner Inquiry - John Smith (Co)" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if msg.ReplyTo != "john@co.com" {
		t.Errorf("expected reply-to lead email, got %q", msg.ReplyTo)
	}
	if !strings.Contains(msg.Body, "Phone: -") {
		t.Errorf("expected dash for missing phone in body: %s", msg.Body)
	}
	if strings.Contains(msg.HTML, "<b>fasteners</b>") {
		t.Error("expected message to be escaped in html")
	}
}

func TestService_NotifyNewLeadPartialFailure(t *testing.T) {
	boom := errors.New("rejected")
	sender := &recordingSender{fail: map[string]error{"ops@wmc.example": boom}}
	svc := NewService(sender, []string{"sales@wmc.example", "ops@wmc.example"}, nil)

	err := svc.NotifyNewLead(context.Background(), sampleNotice())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected the healthy recipient to still be sent, got %d", len(sender.sent))
	}
}

func TestService_NotifyNewLeadNoRecipients(t *testing.T) {
	svc := NewService(&recordingSender{}, nil, nil)
	if err := svc.NotifyNewLead(context.Background(), sampleNotice()); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}
