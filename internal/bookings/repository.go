package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/marketier-assistant/internal/booking"
)

// ErrNotFound is returned when no ledger row matches.
var ErrNotFound = errors.New("bookings: not found")

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Record is one confirmed booking as stored in the ledger.
type Record struct {
	ID             string
	SessionID      string
	Provider       string
	ConfirmationID string
	Name           string
	Email          string
	Company        string
	Phone          string
	SlotStart      time.Time
	SlotLabel      string
	ConfirmedAt    time.Time
	CreatedAt      time.Time
}

// Repository persists confirmed bookings in Postgres.
type Repository struct {
	db rowQuerier
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db rowQuerier) *Repository {
	return &Repository{db: db}
}

// Insert stores a confirmed booking. It reports false when the provider
// confirmation was already recorded.
func (r *Repository) Insert(ctx context.Context, sessionID string, result booking.BookingResult) (bool, error) {
	const query = `
INSERT INTO bookings (id, session_id, provider, confirmation_id, contact_name, contact_email, company, phone, slot_start, slot_label, confirmed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (provider, confirmation_id) DO NOTHING`

	confirmedAt := result.ConfirmedAt
	if confirmedAt.IsZero() {
		confirmedAt = time.Now().UTC()
	}
	c := result.Contact
	tag, err := r.db.Exec(ctx, query,
		uuid.NewString(),
		sessionID,
		result.Provider,
		result.ConfirmationID,
		c.Name,
		strings.ToLower(strings.TrimSpace(c.Email)),
		c.Company,
		c.Phone,
		result.Slot.StartTime.UTC(),
		result.Slot.DisplayLabel,
		confirmedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("bookings: insert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const selectColumns = `id::text, session_id, provider, confirmation_id, contact_name, contact_email, company, phone, slot_start, slot_label, confirmed_at, created_at`

// GetByConfirmation loads a booking by its provider confirmation.
func (r *Repository) GetByConfirmation(ctx context.Context, provider, confirmationID string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM bookings WHERE provider = $1 AND confirmation_id = $2`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, provider, confirmationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return rec, nil
}

// ListByEmail returns an invitee's bookings, newest slot first.
func (r *Repository) ListByEmail(ctx context.Context, email string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + selectColumns + ` FROM bookings WHERE contact_email = $1 ORDER BY slot_start DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, strings.ToLower(strings.TrimSpace(email)), limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.Provider,
		&rec.ConfirmationID,
		&rec.Name,
		&rec.Email,
		&rec.Company,
		&rec.Phone,
		&rec.SlotStart,
		&rec.SlotLabel,
		&rec.ConfirmedAt,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
