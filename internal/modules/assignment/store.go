// README: Assignment store backed by PostgreSQL. The partial unique index on
// (booking_id, type) over live rows makes duplicate creation a constraint
// violation rather than a check-then-act race.
package assignment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pitstop/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Create(ctx context.Context, a *Assignment) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO jockey_assignments (
            id, booking_id, booking_number, type, status, status_version, jockey_id,
            scheduled_at, customer_name, customer_phone, address,
            vehicle_brand, vehicle_model, vehicle_plate, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11,
            $12, $13, $14, $15
        )`,
		string(a.ID), string(a.BookingID), a.BookingNumber, string(a.Type), string(a.Status), a.StatusVersion, string(a.JockeyID),
		a.ScheduledAt, a.CustomerName, a.CustomerPhone, a.Address,
		a.VehicleBrand, a.VehicleModel, a.VehiclePlate, a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

const assignmentColumns = `
        id, booking_id, booking_number, type, status, status_version, jockey_id,
        scheduled_at, customer_name, customer_phone, address,
        vehicle_brand, vehicle_model, vehicle_plate,
        handover_mileage, handover_photos, handover_signature, handover_notes,
        created_at, en_route_at, arrived_at, completed_at, cancelled_at`

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM jockey_assignments WHERE id = $1`, string(id))
	return scanAssignment(row)
}

func (s *PgStore) FindActive(ctx context.Context, bookingID types.ID, t Type) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM jockey_assignments
        WHERE booking_id = $1 AND type = $2 AND status <> 'cancelled'`,
		string(bookingID), string(t),
	)
	return scanAssignment(row)
}

func (s *PgStore) ListByBooking(ctx context.Context, bookingID types.ID) ([]Assignment, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+assignmentColumns+`
        FROM jockey_assignments
        WHERE booking_id = $1
        ORDER BY created_at`, string(bookingID),
	)
	if err != nil {
		return nil, err
	}
	return scanAssignments(rows)
}

func (s *PgStore) ListByJockey(ctx context.Context, jockeyID types.ID) ([]Assignment, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+assignmentColumns+`
        FROM jockey_assignments
        WHERE jockey_id = $1 AND status <> 'cancelled'
        ORDER BY scheduled_at`, string(jockeyID),
	)
	if err != nil {
		return nil, err
	}
	return scanAssignments(rows)
}

func (s *PgStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE jockey_assignments
        SET status = $1,
            status_version = status_version + 1,
            en_route_at = CASE WHEN $1 = 'en_route' THEN NOW() ELSE en_route_at END,
            arrived_at = CASE WHEN $1 = 'at_location' THEN NOW() ELSE arrived_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
        WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) CompleteWithHandover(ctx context.Context, id types.ID, from Status, version int, h Handover) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE jockey_assignments
        SET status = 'completed',
            status_version = status_version + 1,
            completed_at = NOW(),
            handover_mileage = $1,
            handover_photos = $2,
            handover_signature = $3,
            handover_notes = $4
        WHERE id = $5 AND status = $6 AND status_version = $7`,
		h.Mileage, h.Photos, h.Signature, h.Notes, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) CancelActive(ctx context.Context, bookingID types.ID) error {
	_, err := s.db.Exec(ctx, `
        UPDATE jockey_assignments
        SET status = 'cancelled',
            status_version = status_version + 1,
            cancelled_at = NOW()
        WHERE booking_id = $1 AND status NOT IN ('completed', 'cancelled')`,
		string(bookingID),
	)
	return err
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	a, err := scanAssignmentRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAssignments(rows pgx.Rows) ([]Assignment, error) {
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignmentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignmentRow(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var mileage sql.NullInt64
	var photos []string
	var signature, notes sql.NullString
	var enRouteAt, arrivedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.BookingID, &a.BookingNumber, &a.Type, &a.Status, &a.StatusVersion, &a.JockeyID,
		&a.ScheduledAt, &a.CustomerName, &a.CustomerPhone, &a.Address,
		&a.VehicleBrand, &a.VehicleModel, &a.VehiclePlate,
		&mileage, &photos, &signature, &notes,
		&a.CreatedAt, &enRouteAt, &arrivedAt, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if mileage.Valid {
		a.Handover = &Handover{
			Mileage:   int(mileage.Int64),
			Photos:    photos,
			Signature: signature.String,
			Notes:     notes.String,
		}
	}
	a.EnRouteAt = nullTimePtr(enRouteAt)
	a.ArrivedAt = nullTimePtr(arrivedAt)
	a.CompletedAt = nullTimePtr(completedAt)
	a.CancelledAt = nullTimePtr(cancelledAt)
	return &a, nil
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
