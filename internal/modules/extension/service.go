// README: Extension workflow: creation while in service, customer approval with
// payment authorization, decline, and capture on service completion.
package extension

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pitstop/internal/modules/booking"
	"pitstop/internal/payments"
	"pitstop/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid extension transition")
	ErrNotFound     = errors.New("extension not found")
	ErrConflict     = errors.New("extension state conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrNotInService = errors.New("booking is not in service")
	// ErrAuthorization wraps a failed payment authorization. Unlike capture
	// failures this is not retryable by the workflow: the approval simply did
	// not happen.
	ErrAuthorization = errors.New("payment authorization failed")
)

type Store interface {
	Create(ctx context.Context, e *Extension) error
	Get(ctx context.Context, id types.ID) (*Extension, error)
	ListByBooking(ctx context.Context, bookingID types.ID) ([]Extension, error)
	ListByStatus(ctx context.Context, bookingID types.ID, status Status) ([]Extension, error)
	// UpdateStatus is a compare-and-swap; paymentIntent and declineReason are
	// applied only when non-nil.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, paymentIntent, declineReason *string) (bool, error)
}

// Bookings exposes the parent booking's current status.
type Bookings interface {
	Status(ctx context.Context, id types.ID) (booking.Status, error)
}

type Service struct {
	store    Store
	pay      payments.Provider
	bookings Bookings
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(store Store, pay payments.Provider, bookings Bookings, log *logrus.Logger) *Service {
	return &Service{store: store, pay: pay, bookings: bookings, log: log, now: time.Now}
}

type CreateCommand struct {
	BookingID   types.ID
	Description string
	Items       []Item
}

type ApproveCommand struct {
	ExtensionID types.ID
}

type DeclineCommand struct {
	ExtensionID types.ID
	Reason      string
}

// Create proposes an upsell. Only legal while the parent booking is in
// service, and only with at least one priced item.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Extension, error) {
	if len(cmd.Items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrBadRequest)
	}
	for _, it := range cmd.Items {
		if it.Name == "" || it.Quantity < 1 || it.UnitPrice.Amount < 0 {
			return nil, fmt.Errorf("%w: invalid item %q", ErrBadRequest, it.Name)
		}
	}

	st, err := s.bookings.Status(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if st != booking.StatusInService {
		return nil, ErrNotInService
	}

	e := &Extension{
		ID:          types.ID(uuid.NewString()),
		BookingID:   cmd.BookingID,
		Description: cmd.Description,
		Items:       cmd.Items,
		TotalAmount: Total(cmd.Items),
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"extension_id": e.ID,
		"booking_id":   e.BookingID,
		"total":        e.TotalAmount.String(),
	}).Info("extension created")
	return e, nil
}

// Approve authorizes the extension amount (manual capture) and marks the
// extension approved. Authorization failure fails the approval outright.
func (s *Service) Approve(ctx context.Context, cmd ApproveCommand) error {
	e, err := s.store.Get(ctx, cmd.ExtensionID)
	if err != nil {
		return err
	}
	if !CanTransition(e.Status, StatusApproved) {
		return ErrInvalidState
	}

	authID, err := s.pay.Authorize(ctx, e.TotalAmount, "extension:"+string(e.ID))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	intent := string(authID)
	ok, err := s.store.UpdateStatus(ctx, e.ID, e.Status, StatusApproved, e.StatusVersion, &intent, nil)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent approve/decline won; release the reservation we took.
		if verr := s.pay.Void(ctx, authID); verr != nil {
			s.log.WithError(verr).WithField("extension_id", e.ID).Warn("voiding orphaned authorization failed")
		}
		return ErrConflict
	}
	return nil
}

// Decline never touches the payment provider: nothing was authorized for a
// pending extension.
func (s *Service) Decline(ctx context.Context, cmd DeclineCommand) error {
	e, err := s.store.Get(ctx, cmd.ExtensionID)
	if err != nil {
		return err
	}
	if !CanTransition(e.Status, StatusDeclined) {
		return ErrInvalidState
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, e.ID, e.Status, StatusDeclined, e.StatusVersion, nil, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// CaptureApproved settles every approved extension of a booking. Capture is
// attempted independently per extension; a failed capture is logged and the
// extension stays approved for a later retry. Only a listing failure is
// returned to the caller.
func (s *Service) CaptureApproved(ctx context.Context, bookingID types.ID) error {
	approved, err := s.store.ListByStatus(ctx, bookingID, StatusApproved)
	if err != nil {
		return err
	}
	for _, e := range approved {
		if err := s.pay.Capture(ctx, payments.AuthorizationID(e.PaymentIntentID)); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"extension_id": e.ID,
				"booking_id":   bookingID,
			}).Error("extension capture failed, left approved for retry")
			continue
		}
		ok, err := s.store.UpdateStatus(ctx, e.ID, StatusApproved, StatusCompleted, e.StatusVersion, nil, nil)
		if err != nil || !ok {
			s.log.WithError(err).WithField("extension_id", e.ID).Error("marking extension completed failed")
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Extension, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByBooking(ctx context.Context, bookingID types.ID) ([]Extension, error) {
	return s.store.ListByBooking(ctx, bookingID)
}
