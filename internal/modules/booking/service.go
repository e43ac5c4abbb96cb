// README: Booking service implements the status state machine and the coupled
// side-effecting workflow (pricing, payment, assignment allocation, notification).
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pitstop/internal/modules/pricing"
	"pitstop/internal/notify"
	"pitstop/internal/payments"
	"pitstop/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	GetByNumber(ctx context.Context, number string) (*Booking, error)
	// UpdateStatus is a compare-and-swap on (status, status_version). jockeyID
	// and cancelReason are applied only when non-nil.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, jockeyID *types.ID, cancelReason *string) (bool, error)
	SetPaymentIntent(ctx context.Context, id types.ID, intentID string) error
	// MarkPaid records settlement; a no-op when paid_at is already set.
	MarkPaid(ctx context.Context, id types.ID, paidAt time.Time) error
	AppendEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, bookingID types.ID) ([]Event, error)
}

type Pricer interface {
	Calculate(ctx context.Context, req pricing.Request) (pricing.Quote, error)
}

// Allocator creates transport assignments. Both creators are idempotent per
// (booking, type): re-invocation returns the jockey of the existing live
// assignment instead of creating a second one.
type Allocator interface {
	CreatePickup(ctx context.Context, b *Booking) (types.ID, error)
	CreateReturn(ctx context.Context, b *Booking) (types.ID, error)
	CancelActive(ctx context.Context, bookingID types.ID) error
}

// Capturer settles approved extensions once service is finished.
type Capturer interface {
	CaptureApproved(ctx context.Context, bookingID types.ID) error
}

type Service struct {
	store      Store
	pricer     Pricer
	pay        payments.Provider
	allocator  Allocator
	extensions Capturer
	notifier   notify.Notifier
	log        *logrus.Logger
	now        func() time.Time
}

func NewService(store Store, pricer Pricer, pay payments.Provider, allocator Allocator, notifier notify.Notifier, log *logrus.Logger) *Service {
	return &Service{
		store:     store,
		pricer:    pricer,
		pay:       pay,
		allocator: allocator,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// BindExtensions closes the wiring loop with the extension service, which in
// turn needs this service to check booking status.
func (s *Service) BindExtensions(c Capturer) {
	s.extensions = c
}

type CreateCommand struct {
	CustomerID    types.ID
	CustomerName  string
	CustomerPhone string

	VehicleID    types.ID
	VehicleBrand string
	VehicleModel string
	VehiclePlate string
	VehicleYear  int
	Mileage      int

	ServiceType pricing.ServiceType

	PickupDate      time.Time
	PickupSlot      string
	PickupAddress   string
	DeliveryAddress string
	CustomerNotes   string
}

type ConfirmCommand struct {
	BookingID types.ID
}

type TransitionCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   *types.ID
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   *types.ID
	Reason    string
}

type FinishServiceCommand struct {
	BookingID types.ID
	ActorID   *types.ID
}

// Create orchestrates booking intake: quote, persist, payment authorization,
// confirmation with pickup allocation, notification. Payment-provider failure
// degrades to auto-confirm; allocation or notification failure never rolls the
// booking back.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.CustomerID == "" || cmd.CustomerName == "" || cmd.PickupAddress == "" {
		return nil, ErrBadRequest
	}

	quote, err := s.pricer.Calculate(ctx, pricing.Request{
		Brand:       cmd.VehicleBrand,
		Model:       cmd.VehicleModel,
		Year:        cmd.VehicleYear,
		Mileage:     cmd.Mileage,
		ServiceType: cmd.ServiceType,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	delivery := cmd.DeliveryAddress
	if delivery == "" {
		delivery = cmd.PickupAddress
	}
	b := &Booking{
		ID:              newID(),
		Number:          newNumber(now),
		CustomerID:      cmd.CustomerID,
		CustomerName:    cmd.CustomerName,
		CustomerPhone:   cmd.CustomerPhone,
		VehicleID:       cmd.VehicleID,
		VehicleBrand:    cmd.VehicleBrand,
		VehicleModel:    cmd.VehicleModel,
		VehiclePlate:    cmd.VehiclePlate,
		VehicleYear:     cmd.VehicleYear,
		Mileage:         cmd.Mileage,
		ServiceType:     cmd.ServiceType,
		Status:          StatusPendingPayment,
		BasePrice:       quote.BasePrice,
		AgeMultiplier:   quote.AgeMultiplier,
		FinalPrice:      quote.FinalPrice,
		PriceSource:     quote.PriceSource,
		MileageInterval: quote.MileageInterval,
		PickupDate:      cmd.PickupDate,
		PickupSlot:      cmd.PickupSlot,
		PickupAddress:   cmd.PickupAddress,
		DeliveryAddress: delivery,
		CustomerNotes:   cmd.CustomerNotes,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, b.ID, StatusNone, StatusPendingPayment, "customer", &cmd.CustomerID)

	authID, err := s.pay.Authorize(ctx, b.FinalPrice, "booking:"+b.Number)
	if err != nil {
		// Degraded branch: the booking proceeds without a payment intent
		// rather than blocking on the provider. Explicit and logged, never
		// silent.
		s.log.WithError(err).WithField("booking", b.Number).
			Warn("payment authorization failed, auto-confirming booking")
	} else {
		if err := s.store.SetPaymentIntent(ctx, b.ID, string(authID)); err != nil {
			return nil, err
		}
	}

	if err := s.Confirm(ctx, ConfirmCommand{BookingID: b.ID}); err != nil {
		// Booking stays pending/confirmed and can be re-confirmed later.
		s.log.WithError(err).WithField("booking", b.Number).Error("booking confirmation incomplete")
	}

	s.notifyCustomer(ctx, b, "booking_created", "Booking received",
		"Your "+b.VehicleBrand+" "+b.VehicleModel+" is booked for "+string(b.ServiceType)+".")

	return s.store.Get(ctx, b.ID)
}

// Confirm advances a booking out of pending_payment and ensures exactly one
// live pickup assignment exists. Safe to re-invoke: past the first call the
// transition is skipped and the allocator returns the existing assignment.
func (s *Service) Confirm(ctx context.Context, cmd ConfirmCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}

	switch b.Status {
	case StatusPendingPayment:
		ok, err := s.store.UpdateStatus(ctx, b.ID, StatusPendingPayment, StatusConfirmed, b.StatusVersion, nil, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
		s.appendEvent(ctx, b.ID, StatusPendingPayment, StatusConfirmed, "system", nil)
		b.Status = StatusConfirmed
		b.StatusVersion++
	case StatusConfirmed, StatusPickupAssigned:
		// Re-entrant confirmation (retried webhook); fall through to the
		// allocation guard.
	default:
		return ErrInvalidState
	}

	jockey, err := s.allocator.CreatePickup(ctx, b)
	if err != nil {
		// Booking stays confirmed; a later Confirm retries the allocation.
		s.log.WithError(err).WithField("booking", b.Number).Error("pickup allocation failed")
		return nil
	}

	if b.Status == StatusConfirmed {
		ok, err := s.store.UpdateStatus(ctx, b.ID, StatusConfirmed, StatusPickupAssigned, b.StatusVersion, &jockey, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
		s.appendEvent(ctx, b.ID, StatusConfirmed, StatusPickupAssigned, "system", nil)
	}
	return nil
}

// MarkAtWorkshop records the jockey handing the vehicle over to the workshop.
func (s *Service) MarkAtWorkshop(ctx context.Context, cmd TransitionCommand) error {
	return s.apply(ctx, cmd.BookingID, StatusAtWorkshop, cmd.ActorType, cmd.ActorID)
}

// StartService records the workshop beginning work on the vehicle.
func (s *Service) StartService(ctx context.Context, cmd TransitionCommand) error {
	return s.apply(ctx, cmd.BookingID, StatusInService, cmd.ActorType, cmd.ActorID)
}

// FinishService handles the workshop's service-done signal: captures approved
// extensions, creates the return assignment, and advances the booking. The
// whole step is re-entrant; a retried call past the first is a no-op apart
// from capture retries.
func (s *Service) FinishService(ctx context.Context, cmd FinishServiceCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}

	switch b.Status {
	case StatusInService:
		ok, err := s.store.UpdateStatus(ctx, b.ID, StatusInService, StatusReadyForReturn, b.StatusVersion, nil, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
		s.appendEvent(ctx, b.ID, StatusInService, StatusReadyForReturn, "workshop", cmd.ActorID)
		b.Status = StatusReadyForReturn
		b.StatusVersion++
		s.notifyCustomer(ctx, b, "service_done", "Service finished",
			"Your vehicle is ready and will be returned to you shortly.")
	case StatusReadyForReturn, StatusReturnAssigned:
		// Retried signal; side effects below are idempotent.
	default:
		return ErrInvalidState
	}

	// Capture failures are retryable and must never block the booking or the
	// return leg.
	if s.extensions != nil {
		if err := s.extensions.CaptureApproved(ctx, b.ID); err != nil {
			s.log.WithError(err).WithField("booking", b.Number).Error("extension capture sweep failed")
		}
	}

	jockey, err := s.allocator.CreateReturn(ctx, b)
	if err != nil {
		s.log.WithError(err).WithField("booking", b.Number).Error("return allocation failed")
		return nil
	}

	if b.Status == StatusReadyForReturn {
		ok, err := s.store.UpdateStatus(ctx, b.ID, StatusReadyForReturn, StatusReturnAssigned, b.StatusVersion, &jockey, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
		s.appendEvent(ctx, b.ID, StatusReadyForReturn, StatusReturnAssigned, "system", nil)
	}
	return nil
}

// Cancel rejects cancellation from in_service onward; the whitelist has no
// cancelled edge past at_workshop.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidState
	}

	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion, nil, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, StatusCancelled, cmd.ActorType, cmd.ActorID)

	if err := s.allocator.CancelActive(ctx, b.ID); err != nil {
		s.log.WithError(err).WithField("booking", b.Number).Error("cancelling assignments failed")
	}
	if b.PaymentIntentID != "" {
		if err := s.pay.Void(ctx, payments.AuthorizationID(b.PaymentIntentID)); err != nil {
			s.log.WithError(err).WithField("booking", b.Number).Warn("voiding payment authorization failed")
		}
	}

	s.notifyCustomer(ctx, b, "booking_cancelled", "Booking cancelled",
		"Your booking "+b.Number+" has been cancelled.")
	return nil
}

// PickupCompleted is invoked by the assignment module when the jockey finishes
// the pickup handover.
func (s *Service) PickupCompleted(ctx context.Context, bookingID types.ID, jockeyID types.ID) error {
	return s.apply(ctx, bookingID, StatusPickedUp, "jockey", &jockeyID)
}

// ReturnStarted is invoked when the return jockey departs towards the customer.
func (s *Service) ReturnStarted(ctx context.Context, bookingID types.ID, jockeyID types.ID) error {
	return s.apply(ctx, bookingID, StatusInTransitToCustomer, "jockey", &jockeyID)
}

// ReturnCompleted closes the booking after the return handover and settles
// the payment reserved at creation. Capture failure is logged and leaves
// paid_at unset for a later settlement retry; it never blocks delivery.
// Bookings auto-confirmed in degraded mode carry no intent and skip capture.
func (s *Service) ReturnCompleted(ctx context.Context, bookingID types.ID, jockeyID types.ID) error {
	if err := s.apply(ctx, bookingID, StatusDelivered, "jockey", &jockeyID); err != nil {
		return err
	}
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.PaymentIntentID != "" && b.PaidAt == nil {
		if err := s.pay.Capture(ctx, payments.AuthorizationID(b.PaymentIntentID)); err != nil {
			s.log.WithError(err).WithField("booking", b.Number).Warn("booking payment capture failed")
		} else if err := s.store.MarkPaid(ctx, b.ID, s.now()); err != nil {
			s.log.WithError(err).WithField("booking", b.Number).Error("recording booking settlement failed")
		}
	}
	s.notifyCustomer(ctx, b, "booking_delivered", "Vehicle delivered",
		"Your vehicle is back. Thank you for using our service.")
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	return s.store.GetByNumber(ctx, number)
}

func (s *Service) Events(ctx context.Context, id types.ID) ([]Event, error) {
	return s.store.ListEvents(ctx, id)
}

// Status exposes the current stored status for sibling modules.
func (s *Service) Status(ctx context.Context, id types.ID) (Status, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return b.Status, nil
}

func (s *Service) apply(ctx context.Context, id types.ID, to Status, actorType string, actorID *types.ID) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, nil, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, b.ID, b.Status, to, actorType, actorID)
	return nil
}

func (s *Service) appendEvent(ctx context.Context, id types.ID, from, to Status, actorType string, actorID *types.ID) {
	err := s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.log.WithError(err).WithField("booking_id", id).Warn("appending state event failed")
	}
}

func (s *Service) notifyCustomer(ctx context.Context, b *Booking, typ, title, body string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, notify.Message{
		UserID:     b.CustomerID,
		Type:       typ,
		Title:      title,
		Body:       body,
		BookingRef: b.Number,
	})
	if err != nil {
		s.log.WithError(err).WithField("booking", b.Number).Warn("notification dispatch failed")
	}
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

// newNumber builds the immutable human-readable booking number.
func newNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "BK-" + now.Format("20060102") + "-" + suffix
}
