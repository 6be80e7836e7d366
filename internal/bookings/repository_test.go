package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

var slotStart = time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)

func sampleResult() booking.BookingResult {
	return booking.BookingResult{
		Contact:        booking.Contact{Name: "Jane Doe", Email: " Jane@Example.com ", Company: "Acme Inc", Phone: "555-123-4567"},
		Slot:           booking.NewTimeSlot(slotStart, time.UTC),
		ConfirmedAt:    slotStart.Add(-26 * time.Hour),
		ConfirmationID: "demo_123",
		Provider:       "demo",
	}
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, newRepositoryWithQuerier(mock)
}

func recordColumns() []string {
	return []string{"id", "session_id", "provider", "confirmation_id", "contact_name", "contact_email", "company", "phone", "slot_start", "slot_label", "confirmed_at", "created_at"}
}

func TestRepository_Insert(t *testing.T) {
	mock, repo := newMockRepo(t)
	result := sampleResult()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "sess-1", "demo", "demo_123", "Jane Doe", "jane@example.com", "Acme Inc", "555-123-4567", slotStart, result.Slot.DisplayLabel, result.ConfirmedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	inserted, err := repo.Insert(context.Background(), "sess-1", result)
	require.NoError(t, err)
	assert.True(t, inserted)

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	inserted, err = repo.Insert(context.Background(), "sess-1", result)
	require.NoError(t, err)
	assert.False(t, inserted)

	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("connection reset"))
	_, err = repo.Insert(context.Background(), "sess-1", result)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByConfirmation(t *testing.T) {
	mock, repo := newMockRepo(t)
	created := slotStart.Add(-25 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE provider").
		WithArgs("demo", "demo_123").
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow("b-1", "sess-1", "demo", "demo_123", "Jane Doe", "jane@example.com", "Acme Inc", "555-123-4567", slotStart, "Tuesday, Oct 20, 2:00 PM", created, created))
	rec, err := repo.GetByConfirmation(context.Background(), "demo", "demo_123")
	require.NoError(t, err)
	assert.Equal(t, "b-1", rec.ID)
	assert.Equal(t, "Acme Inc", rec.Company)
	assert.True(t, rec.SlotStart.Equal(slotStart))

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE provider").
		WithArgs("demo", "missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByConfirmation(context.Background(), "demo", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByEmail(t *testing.T) {
	mock, repo := newMockRepo(t)
	created := slotStart.Add(-25 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE contact_email").
		WithArgs("jane@example.com", 20).
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow("b-2", "sess-2", "calendly", "inv-2", "Jane Doe", "jane@example.com", "Acme Inc", "", slotStart.Add(48*time.Hour), "Thursday, Oct 22, 2:00 PM", created, created).
			AddRow("b-1", "sess-1", "demo", "demo_123", "Jane Doe", "jane@example.com", "Acme Inc", "", slotStart, "Tuesday, Oct 20, 2:00 PM", created, created))
	records, err := repo.ListByEmail(context.Background(), "JANE@example.com", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "inv-2", records[0].ConfirmationID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_BookingConfirmedViaRepository(t *testing.T) {
	mock, repo := newMockRepo(t)
	ledger := NewLedger(repo, logging.Discard())

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, ledger.BookingConfirmed(context.Background(), "sess-1", sampleResult()))

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.NoError(t, ledger.BookingConfirmed(context.Background(), "sess-1", sampleResult()))

	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("db down"))
	assert.Error(t, ledger.BookingConfirmed(context.Background(), "sess-1", sampleResult()))

	require.NoError(t, mock.ExpectationsWereMet())
}
