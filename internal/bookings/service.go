package bookings

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

var bookingsTracer = otel.Tracer("marketier.internal.bookings")

// Ledger records confirmed bookings. It is registered as a booking observer
// so every confirmation lands in Postgres.
type Ledger struct {
	repo   *Repository
	logger *logging.Logger
}

// NewLedger constructs a bookings ledger.
func NewLedger(repo *Repository, logger *logging.Logger) *Ledger {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{repo: repo, logger: logger}
}

// BookingConfirmed stores the confirmed booking.
func (l *Ledger) BookingConfirmed(ctx context.Context, sessionID string, result booking.BookingResult) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("marketier.session_id", sessionID),
		attribute.String("marketier.booking_provider", result.Provider),
	)

	inserted, err := l.repo.Insert(ctx, sessionID, result)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !inserted {
		l.logger.Warn("booking already recorded", "provider", result.Provider, "confirmation_id", result.ConfirmationID)
		return nil
	}
	l.logger.Info("booking recorded", "session_id", sessionID, "provider", result.Provider, "confirmation_id", result.ConfirmationID)
	return nil
}
