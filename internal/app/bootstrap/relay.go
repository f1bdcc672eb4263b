package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wmcproducts/partner-site/internal/config"
	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/internal/notify"
	"github.com/wmcproducts/partner-site/internal/relay"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

// BuildRelay picks the lead relay named by RELAY_PROVIDER. "formrelay" posts
// to the hosted form relay; the email providers send the staff notice
// directly to LEAD_NOTIFY_TO.
func BuildRelay(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var sender notify.EmailSender
	switch cfg.RelayProvider {
	case "formrelay":
		if cfg.FormRelayAccessKey == "" {
			return nil, fmt.Errorf("bootstrap: FORM_RELAY_ACCESS_KEY is required for the form relay")
		}
		logger.Info("lead relay ready", "provider", "formrelay")
		return relay.NewFormRelay(nil, relay.FormRelayConfig{
			URL:       cfg.FormRelayURL,
			AccessKey: cfg.FormRelayAccessKey,
			Timeout:   cfg.RelayTimeout,
		}, logger), nil

	case "sendgrid":
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sg == nil {
			return nil, fmt.Errorf("bootstrap: SENDGRID_API_KEY is required for the sendgrid relay")
		}
		sender = sg

	case "ses":
		if cfg.SESFromEmail == "" {
			return nil, fmt.Errorf("bootstrap: SES_FROM_EMAIL is required for the ses relay")
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			o.BaseEndpoint = endpointOverride(cfg)
		})
		sender = notify.NewSESSender(client, notify.SESConfig{FromEmail: cfg.SESFromEmail, FromName: cfg.SendGridFromName}, logger)

	case "", "stub":
		if cfg.IsProduction() {
			logger.Warn("stub lead relay in production; staff will not be notified")
		}
		sender = notify.NewStubEmailSender(logger)

	default:
		return nil, fmt.Errorf("bootstrap: unknown RELAY_PROVIDER %q", cfg.RelayProvider)
	}

	recipients := splitRecipients(cfg.LeadNotifyTo)
	if len(recipients) == 0 && cfg.RelayProvider != "" && cfg.RelayProvider != "stub" {
		return nil, fmt.Errorf("bootstrap: LEAD_NOTIFY_TO is required for the %s relay", cfg.RelayProvider)
	}
	if len(recipients) == 0 {
		recipients = []string{"leads@localhost"}
	}
	logger.Info("lead relay ready", "provider", cfg.RelayProvider, "recipients", len(recipients))
	return relay.NewEmailRelay(notify.NewService(sender, recipients, logger)), nil
}

func splitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
