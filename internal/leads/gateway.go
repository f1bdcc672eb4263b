package leads

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wmcproducts/partner-site/internal/observability/metrics"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

var gatewayTracer = otel.Tracer("wmc.internal.leads.gateway")

// GenericFailureMessage is shown for delivery failures and spam alike so a
// bot cannot tell the two apart.
const GenericFailureMessage = "Something went wrong sending your message. Please try again or call us at (714)-923-1027."

// SuccessMessage is shown after a successful submission.
const SuccessMessage = "Thanks! Your message has been sent. Our team will be in touch soon."

// Payload is the normalized form sent to the email relay.
type Payload struct {
	Name        string
	Company     string
	Email       string
	Phone       string
	CompanyType CompanyType
	Message     string
	// Botcheck echoes the decoy field so the relay can run its own filter.
	Botcheck string
}

// Relay is the transactional email relay that notifies staff of a new lead.
type Relay interface {
	Deliver(ctx context.Context, p Payload) error
}

// OutcomeKind is the result of a submission attempt.
type OutcomeKind string

const (
	Submitted        OutcomeKind = "submitted"
	SpamRejected     OutcomeKind = "spam_rejected"
	TermsRejected    OutcomeKind = "terms_not_accepted"
	ValidationFailed OutcomeKind = "validation_failed"
	DeliveryFailed   OutcomeKind = "delivery_failed"
)

// Outcome is what the gateway reports back to the form.
type Outcome struct {
	Kind    OutcomeKind
	Errors  FieldErrors
	Message string
	// Lead is the stored record when the store write succeeded. It is
	// informational only and never changes Kind.
	Lead *Lead
}

// GatewayConfig bounds each destination call. Zero means no extra timeout.
type GatewayConfig struct {
	RelayTimeout time.Duration
	StoreTimeout time.Duration
}

// Gateway validates a lead and delivers it to the relay and the store.
type Gateway struct {
	relay   Relay
	repo    Repository
	cfg     GatewayConfig
	logger  *logging.Logger
	metrics *metrics.LeadMetrics
}

// NewGateway wires the two destinations.
func NewGateway(relay Relay, repo Repository, cfg GatewayConfig, logger *logging.Logger, m *metrics.LeadMetrics) *Gateway {
	if relay == nil {
		panic("leads: relay required")
	}
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{relay: relay, repo: repo, cfg: cfg, logger: logger, metrics: m}
}

// Submit runs spam check, terms check and validation in that order, then
// delivers to both destinations. Only the relay result decides the outcome.
func (g *Gateway) Submit(ctx context.Context, draft Draft, termsAccepted bool) Outcome {
	ctx, span := gatewayTracer.Start(ctx, "leads.gateway.submit")
	defer span.End()

	out := g.submit(ctx, draft, termsAccepted)
	span.SetAttributes(attribute.String("leads.outcome", string(out.Kind)))
	g.metrics.ObserveSubmission(string(out.Kind))
	return out
}

func (g *Gateway) submit(ctx context.Context, draft Draft, termsAccepted bool) Outcome {
	if CheckHoneypot(draft.Honeypot) == Spam {
		g.logger.Warn("lead submission rejected", "error", ErrSpamRejected)
		return Outcome{Kind: SpamRejected, Message: GenericFailureMessage}
	}
	if !termsAccepted {
		return Outcome{
			Kind:    TermsRejected,
			Errors:  FieldErrors{FieldTerms: TermsNotAccepted},
			Message: TermsNotAccepted.Message(),
		}
	}
	if errs := Validate(draft); len(errs) > 0 {
		return Outcome{Kind: ValidationFailed, Errors: errs}
	}

	fields := draft.Fields()
	payload := Payload{
		Name:        joinName(fields.FirstName, fields.LastName),
		Company:     fields.Company,
		Email:       fields.Email,
		Phone:       fields.Phone,
		CompanyType: fields.CompanyType,
		Message:     fields.Message,
		Botcheck:    draft.Honeypot,
	}

	// A visitor leaving mid-submit must not cancel either write. The
	// per-destination timeouts still bound both calls.
	ctx = context.WithoutCancel(ctx)

	var (
		wg        sync.WaitGroup
		relayErr  error
		lead      *Lead
		createErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		relayErr = g.deliver(ctx, payload)
	}()
	go func() {
		defer wg.Done()
		lead, createErr = g.store(ctx, fields)
	}()
	wg.Wait()

	if createErr != nil {
		g.logger.Error("lead store write failed",
			"error", createErr,
			"kind", string(KindOf(createErr)),
			"relay_ok", relayErr == nil,
		)
	} else {
		g.logger.Info("lead stored", "id", lead.ID)
	}

	if relayErr != nil {
		g.logger.Error("lead relay delivery failed", "error", relayErr, "stored", createErr == nil)
		return Outcome{Kind: DeliveryFailed, Message: GenericFailureMessage, Lead: lead}
	}
	return Outcome{Kind: Submitted, Message: SuccessMessage, Lead: lead}
}

func (g *Gateway) deliver(ctx context.Context, p Payload) error {
	ctx, span := gatewayTracer.Start(ctx, "leads.gateway.relay")
	defer span.End()
	if g.cfg.RelayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RelayTimeout)
		defer cancel()
	}

	start := time.Now()
	err := g.relay.Deliver(ctx, p)
	g.metrics.ObserveDispatch("relay", err == nil, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "relay delivery failed")
		if !errors.Is(err, ErrDeliveryFailed) {
			err = errors.Join(ErrDeliveryFailed, err)
		}
	}
	return err
}

func (g *Gateway) store(ctx context.Context, f Fields) (*Lead, error) {
	ctx, span := gatewayTracer.Start(ctx, "leads.gateway.store")
	defer span.End()
	if g.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.StoreTimeout)
		defer cancel()
	}

	start := time.Now()
	lead, err := g.repo.Create(ctx, f)
	g.metrics.ObserveDispatch("store", err == nil, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
	}
	return lead, err
}
