// README: Extension store backed by PostgreSQL. Line items are kept as a JSONB
// document; they are immutable after creation.
package extension

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pitstop/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Create(ctx context.Context, e *Extension) error {
	items, err := json.Marshal(e.Items)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO extensions (
            id, booking_id, description, items, total_amount,
            status, status_version, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(e.ID), string(e.BookingID), e.Description, items, e.TotalAmount.Amount,
		string(e.Status), e.StatusVersion, e.CreatedAt,
	)
	return err
}

const extensionColumns = `
        id, booking_id, description, items, total_amount,
        status, status_version, payment_intent_id, decline_reason,
        created_at, approved_at, declined_at, paid_at`

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Extension, error) {
	row := s.db.QueryRow(ctx, `SELECT `+extensionColumns+` FROM extensions WHERE id = $1`, string(id))
	e, err := scanExtension(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (s *PgStore) ListByBooking(ctx context.Context, bookingID types.ID) ([]Extension, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+extensionColumns+`
        FROM extensions
        WHERE booking_id = $1
        ORDER BY created_at`, string(bookingID),
	)
	if err != nil {
		return nil, err
	}
	return collectExtensions(rows)
}

func (s *PgStore) ListByStatus(ctx context.Context, bookingID types.ID, status Status) ([]Extension, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+extensionColumns+`
        FROM extensions
        WHERE booking_id = $1 AND status = $2
        ORDER BY created_at`, string(bookingID), string(status),
	)
	if err != nil {
		return nil, err
	}
	return collectExtensions(rows)
}

func (s *PgStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, paymentIntent, declineReason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE extensions
        SET status = $1,
            status_version = status_version + 1,
            payment_intent_id = COALESCE($2, payment_intent_id),
            decline_reason = COALESCE($3, decline_reason),
            approved_at = CASE WHEN $1 = 'approved' THEN NOW() ELSE approved_at END,
            declined_at = CASE WHEN $1 = 'declined' THEN NOW() ELSE declined_at END,
            paid_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE paid_at END
        WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to), paymentIntent, declineReason, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func collectExtensions(rows pgx.Rows) ([]Extension, error) {
	defer rows.Close()
	var out []Extension
	for rows.Next() {
		e, err := scanExtension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanExtension(row pgx.Row) (*Extension, error) {
	var e Extension
	var items []byte
	var paymentIntent, declineReason sql.NullString
	var approvedAt, declinedAt, paidAt sql.NullTime

	err := row.Scan(
		&e.ID, &e.BookingID, &e.Description, &items, &e.TotalAmount.Amount,
		&e.Status, &e.StatusVersion, &paymentIntent, &declineReason,
		&e.CreatedAt, &approvedAt, &declinedAt, &paidAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &e.Items); err != nil {
		return nil, err
	}
	e.TotalAmount.Currency = "EUR"
	if paymentIntent.Valid {
		e.PaymentIntentID = paymentIntent.String
	}
	if declineReason.Valid {
		e.DeclineReason = declineReason.String
	}
	e.ApprovedAt = nullTime(approvedAt)
	e.DeclinedAt = nullTime(declinedAt)
	e.PaidAt = nullTime(paidAt)
	return &e, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
