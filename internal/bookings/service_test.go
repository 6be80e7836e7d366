package bookings

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

func TestLedger_BookingConfirmed(t *testing.T) {
	mock, repo := newMockRepo(t)
	ledger := NewLedger(repo, logging.Discard())

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, ledger.BookingConfirmed(context.Background(), "sess-1", sampleResult()))

	// A replayed confirmation is not an error.
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.NoError(t, ledger.BookingConfirmed(context.Background(), "sess-1", sampleResult()))

	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("db down"))
	err := ledger.BookingConfirmed(context.Background(), "sess-1", sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLedgerRequiresRepository(t *testing.T) {
	assert.Panics(t, func() { NewLedger(nil, nil) })
}
