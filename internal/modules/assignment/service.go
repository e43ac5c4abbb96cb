// README: Assignment allocator: exactly-once creation per booking phase,
// jockey selection, and the assignment lifecycle with handover capture.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pitstop/internal/modules/booking"
	"pitstop/internal/types"
)

var (
	ErrInvalidState     = errors.New("invalid assignment transition")
	ErrNotFound         = errors.New("assignment not found")
	ErrConflict         = errors.New("assignment state conflict")
	ErrNoJockey         = errors.New("no jockey available")
	ErrHandoverRequired = errors.New("handover data required")
	// ErrDuplicate is returned by stores when a live assignment of the same
	// type already exists for the booking. Treated as the idempotency success
	// path, never surfaced to callers.
	ErrDuplicate = errors.New("duplicate live assignment")
)

type Store interface {
	// Create fails with ErrDuplicate when a non-cancelled assignment of the
	// same type already exists for the booking.
	Create(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, id types.ID) (*Assignment, error)
	// FindActive returns the non-cancelled assignment of the given type, or
	// ErrNotFound.
	FindActive(ctx context.Context, bookingID types.ID, t Type) (*Assignment, error)
	ListByBooking(ctx context.Context, bookingID types.ID) ([]Assignment, error)
	ListByJockey(ctx context.Context, jockeyID types.ID) ([]Assignment, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	// CompleteWithHandover advances to completed and records the handover in
	// one compare-and-swap; a lost race leaves the handover unwritten.
	CompleteWithHandover(ctx context.Context, id types.ID, from Status, version int, h Handover) (bool, error)
	CancelActive(ctx context.Context, bookingID types.ID) error
}

// JockeyPool is the pluggable selection strategy. The default policy is the
// earliest-created active jockey.
type JockeyPool interface {
	FindAvailable(ctx context.Context) (types.ID, error)
}

// Bookings are the coupled booking transitions fired by assignment progress.
// Bound after construction because the booking service needs this service as
// its allocator.
type Bookings interface {
	PickupCompleted(ctx context.Context, bookingID, jockeyID types.ID) error
	ReturnStarted(ctx context.Context, bookingID, jockeyID types.ID) error
	ReturnCompleted(ctx context.Context, bookingID, jockeyID types.ID) error
}

type Service struct {
	store    Store
	pool     JockeyPool
	bookings Bookings
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(store Store, pool JockeyPool, log *logrus.Logger) *Service {
	return &Service{store: store, pool: pool, log: log, now: time.Now}
}

func (s *Service) BindBookings(b Bookings) {
	s.bookings = b
}

// CreatePickup creates the pickup leg for a confirmed booking. Idempotent:
// at most one live pickup assignment exists per booking, re-invocation
// returns the existing jockey.
func (s *Service) CreatePickup(ctx context.Context, b *booking.Booking) (types.ID, error) {
	return s.create(ctx, b, TypePickup)
}

// CreateReturn creates the return leg once service is finished. Same
// idempotency guarantee as CreatePickup.
func (s *Service) CreateReturn(ctx context.Context, b *booking.Booking) (types.ID, error) {
	return s.create(ctx, b, TypeReturn)
}

func (s *Service) create(ctx context.Context, b *booking.Booking, t Type) (types.ID, error) {
	existing, err := s.store.FindActive(ctx, b.ID, t)
	if err == nil {
		return existing.JockeyID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	jockey, err := s.pool.FindAvailable(ctx)
	if err != nil {
		return "", err
	}

	address := b.PickupAddress
	scheduled := b.PickupDate
	if t == TypeReturn {
		address = b.DeliveryAddress
		scheduled = s.now()
	}
	a := &Assignment{
		ID:            types.ID(uuid.NewString()),
		BookingID:     b.ID,
		BookingNumber: b.Number,
		Type:          t,
		Status:        StatusAssigned,
		JockeyID:      jockey,
		ScheduledAt:   scheduled,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		Address:       address,
		VehicleBrand:  b.VehicleBrand,
		VehicleModel:  b.VehicleModel,
		VehiclePlate:  b.VehiclePlate,
		CreatedAt:     s.now(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost a concurrent race; the row that won is the one we wanted.
			winner, werr := s.store.FindActive(ctx, b.ID, t)
			if werr != nil {
				return "", werr
			}
			return winner.JockeyID, nil
		}
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"assignment_id": a.ID,
		"booking":       b.Number,
		"type":          t,
		"jockey_id":     jockey,
	}).Info("assignment created")
	return jockey, nil
}

type TransitionCommand struct {
	AssignmentID types.ID
	JockeyID     types.ID
}

type CompleteCommand struct {
	AssignmentID types.ID
	JockeyID     types.ID
	Handover     Handover
}

// Depart marks the jockey en route. For the return leg the vehicle is on
// board, so the booking moves to in-transit as well.
func (s *Service) Depart(ctx context.Context, cmd TransitionCommand) error {
	a, err := s.transition(ctx, cmd.AssignmentID, StatusEnRoute)
	if err != nil {
		return err
	}
	if a.Type == TypeReturn && s.bookings != nil {
		if err := s.bookings.ReturnStarted(ctx, a.BookingID, a.JockeyID); err != nil {
			s.log.WithError(err).WithField("booking", a.BookingNumber).Error("booking in-transit transition failed")
		}
	}
	return nil
}

// Arrive marks the jockey at the pickup or delivery location.
func (s *Service) Arrive(ctx context.Context, cmd TransitionCommand) error {
	_, err := s.transition(ctx, cmd.AssignmentID, StatusAtLocation)
	return err
}

// Complete records the handover and fires the coupled booking transition.
// A mileage reading is mandatory; photos, signature, and notes are recorded
// when present.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	if cmd.Handover.Mileage <= 0 {
		return ErrHandoverRequired
	}
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return err
	}
	if !CanTransition(a.Status, StatusCompleted) {
		return ErrInvalidState
	}
	ok, err := s.store.CompleteWithHandover(ctx, a.ID, a.Status, a.StatusVersion, cmd.Handover)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	if s.bookings == nil {
		return nil
	}
	switch a.Type {
	case TypePickup:
		return s.bookings.PickupCompleted(ctx, a.BookingID, a.JockeyID)
	case TypeReturn:
		return s.bookings.ReturnCompleted(ctx, a.BookingID, a.JockeyID)
	}
	return nil
}

// Cancel aborts a single live assignment.
func (s *Service) Cancel(ctx context.Context, cmd TransitionCommand) error {
	_, err := s.transition(ctx, cmd.AssignmentID, StatusCancelled)
	return err
}

// CancelActive aborts every live assignment of a booking. Invoked by booking
// cancellation.
func (s *Service) CancelActive(ctx context.Context, bookingID types.ID) error {
	return s.store.CancelActive(ctx, bookingID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByBooking(ctx context.Context, bookingID types.ID) ([]Assignment, error) {
	return s.store.ListByBooking(ctx, bookingID)
}

func (s *Service) ListByJockey(ctx context.Context, jockeyID types.ID) ([]Assignment, error) {
	return s.store.ListByJockey(ctx, jockeyID)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status) (*Assignment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, a.ID, a.Status, to, a.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return a, nil
}
