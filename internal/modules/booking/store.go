// README: Booking store backed by PostgreSQL with optimistic status locking.
package booking

import (
	"context"
	"database/sql"
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

func (s *PgStore) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO bookings (
            id, number, customer_id, customer_name, customer_phone,
            vehicle_id, vehicle_brand, vehicle_model, vehicle_plate, vehicle_year, mileage,
            service_type, status, status_version,
            base_price, age_multiplier, final_price, price_source, mileage_interval,
            pickup_date, pickup_slot, pickup_address, delivery_address,
            customer_notes, internal_notes, created_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9, $10, $11,
            $12, $13, $14,
            $15, $16, $17, $18, $19,
            $20, $21, $22, $23,
            $24, $25, $26
        )`,
		string(b.ID), b.Number, string(b.CustomerID), b.CustomerName, b.CustomerPhone,
		string(b.VehicleID), b.VehicleBrand, b.VehicleModel, b.VehiclePlate, b.VehicleYear, b.Mileage,
		string(b.ServiceType), string(b.Status), b.StatusVersion,
		b.BasePrice.Amount, b.AgeMultiplier, b.FinalPrice.Amount, b.PriceSource, b.MileageInterval,
		b.PickupDate, b.PickupSlot, b.PickupAddress, b.DeliveryAddress,
		b.CustomerNotes, b.InternalNotes, b.CreatedAt,
	)
	return err
}

const bookingColumns = `
        id, number, customer_id, customer_name, customer_phone,
        vehicle_id, vehicle_brand, vehicle_model, vehicle_plate, vehicle_year, mileage,
        service_type, status, status_version, jockey_id,
        base_price, age_multiplier, final_price, price_source, mileage_interval,
        pickup_date, pickup_slot, pickup_address, delivery_address,
        customer_notes, internal_notes, payment_intent_id, paid_at,
        created_at, confirmed_at, delivered_at, cancelled_at, cancellation_reason`

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	return scanBooking(row)
}

func (s *PgStore) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE number = $1`, number)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var jockeyID, paymentIntent, cancelReason sql.NullString
	var paidAt, confirmedAt, deliveredAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.Number, &b.CustomerID, &b.CustomerName, &b.CustomerPhone,
		&b.VehicleID, &b.VehicleBrand, &b.VehicleModel, &b.VehiclePlate, &b.VehicleYear, &b.Mileage,
		&b.ServiceType, &b.Status, &b.StatusVersion, &jockeyID,
		&b.BasePrice.Amount, &b.AgeMultiplier, &b.FinalPrice.Amount, &b.PriceSource, &b.MileageInterval,
		&b.PickupDate, &b.PickupSlot, &b.PickupAddress, &b.DeliveryAddress,
		&b.CustomerNotes, &b.InternalNotes, &paymentIntent, &paidAt,
		&b.CreatedAt, &confirmedAt, &deliveredAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.BasePrice.Currency = "EUR"
	b.FinalPrice.Currency = "EUR"
	if jockeyID.Valid {
		j := types.ID(jockeyID.String)
		b.JockeyID = &j
	}
	if paymentIntent.Valid {
		b.PaymentIntentID = paymentIntent.String
	}
	b.PaidAt = toTimePtr(paidAt)
	b.ConfirmedAt = toTimePtr(confirmedAt)
	b.DeliveredAt = toTimePtr(deliveredAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	return &b, nil
}

func (s *PgStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, jockeyID *types.ID, cancelReason *string) (bool, error) {
	var j *string
	if jockeyID != nil {
		v := string(*jockeyID)
		j = &v
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE bookings
        SET status = $1,
            status_version = status_version + 1,
            jockey_id = COALESCE($2, jockey_id),
            cancellation_reason = COALESCE($3, cancellation_reason),
            confirmed_at = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE confirmed_at END,
            delivered_at = CASE WHEN $1 = 'delivered' THEN NOW() ELSE delivered_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
        WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to), j, cancelReason, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) SetPaymentIntent(ctx context.Context, id types.ID, intentID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE bookings SET payment_intent_id = $1 WHERE id = $2`, intentID, string(id))
	return err
}

func (s *PgStore) MarkPaid(ctx context.Context, id types.ID, paidAt time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE bookings SET paid_at = $1 WHERE id = $2 AND paid_at IS NULL`, paidAt, string(id))
	return err
}

func (s *PgStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO booking_state_events (
            booking_id, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, toStringPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

func (s *PgStore) ListEvents(ctx context.Context, bookingID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, booking_id, from_status, to_status, actor_type, actor_id, created_at
        FROM booking_state_events
        WHERE booking_id = $1
        ORDER BY id`, string(bookingID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var actorID sql.NullString
		if err := rows.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus, &e.ActorType, &actorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID.Valid {
			a := types.ID(actorID.String)
			e.ActorID = &a
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
