// Package relay delivers new-lead payloads to the transactional email relay
// that notifies staff.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

const (
	// DefaultFormRelayURL is the hosted form-to-email endpoint.
	DefaultFormRelayURL = "https://api.web3forms.com/submit"
	defaultSubject      = "New Partner Inquiry"
	maxResponseBytes    = 16 << 10
)

// FormRelayConfig configures the hosted form relay.
type FormRelayConfig struct {
	URL       string
	AccessKey string
	Subject   string
	FromName  string
	Timeout   time.Duration
}

// FormRelay posts the lead to a hosted form-to-email service. There are no
// retries; a failed delivery is reported and the visitor resubmits.
type FormRelay struct {
	client *http.Client
	cfg    FormRelayConfig
	logger *logging.Logger
}

// NewFormRelay builds a relay. A nil client gets one with cfg.Timeout.
func NewFormRelay(client *http.Client, cfg FormRelayConfig, logger *logging.Logger) *FormRelay {
	if cfg.URL == "" {
		cfg.URL = DefaultFormRelayURL
	}
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	if cfg.FromName == "" {
		cfg.FromName = "WMC Products Website"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FormRelay{client: client, cfg: cfg, logger: logger}
}

type formRelayRequest struct {
	AccessKey   string `json:"access_key"`
	Subject     string `json:"subject"`
	FromName    string `json:"from_name"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyType string `json:"company_type"`
	Message     string `json:"message"`
	Botcheck    string `json:"botcheck"`
}

type formRelayResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Deliver sends one POST. Success is a 2xx status whose body does not
// report success=false.
func (r *FormRelay) Deliver(ctx context.Context, p leads.Payload) error {
	body, err := json.Marshal(formRelayRequest{
		AccessKey:   r.cfg.AccessKey,
		Subject:     r.cfg.Subject,
		FromName:    r.cfg.FromName,
		Name:        p.Name,
		Company:     p.Company,
		Email:       p.Email,
		Phone:       p.Phone,
		CompanyType: p.CompanyType.Label(),
		Message:     p.Message,
		Botcheck:    p.Botcheck,
	})
	if err != nil {
		return fmt.Errorf("relay: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", leads.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn("form relay rejected submission", "status", resp.StatusCode, "body", string(raw))
		return fmt.Errorf("%w: relay returned status %d", leads.ErrDeliveryFailed, resp.StatusCode)
	}

	var ack formRelayResponse
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &ack) == nil && ack.Success != nil && !*ack.Success {
		r.logger.Warn("form relay reported failure", "message", ack.Message)
		return fmt.Errorf("%w: %s", leads.ErrDeliveryFailed, ack.Message)
	}
	return nil
}

var _ leads.Relay = (*FormRelay)(nil)
