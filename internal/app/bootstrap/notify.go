package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/marketier-assistant/cmd/mainconfig"
	"github.com/wolfman30/marketier-assistant/internal/bookings"
	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/internal/notify"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// BuildEmailSender selects SendGrid, SES or the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, string) {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender, "sendgrid"
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty; using stub sender")
	case "ses":
		if strings.TrimSpace(cfg.SESFromEmail) == "" {
			logger.Warn("EMAIL_PROVIDER=ses but SES_FROM_EMAIL is empty; using stub sender")
			break
		}
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES; using stub sender", "error", err)
			break
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger), "ses"
	}
	return notify.NewStubEmailSender(logger), "stub"
}

// BuildBookingObservers returns the post-booking hooks: the confirmation
// mailer always, the Postgres ledger when a pool is available.
func BuildBookingObservers(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) []conversation.BookingObserver {
	sender, provider := BuildEmailSender(ctx, cfg, logger)
	logger.Info("booking confirmation email", "provider", provider, "team_copy", cfg.BookingTeamEmail != "")

	observers := []conversation.BookingObserver{
		notify.NewBookingMailer(sender, cfg.BookingTeamEmail, cfg.CalendarURL, logger),
	}
	if pool != nil {
		observers = append(observers, bookings.NewLedger(bookings.NewRepository(pool), logger))
		logger.Info("booking ledger enabled")
	}
	return observers
}
