// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"pitstop/internal/modules/pricing"
	"pitstop/internal/types"
)

type Status string

const (
	StatusNone                Status = "none"
	StatusPendingPayment      Status = "pending_payment"
	StatusConfirmed           Status = "confirmed"
	StatusPickupAssigned      Status = "pickup_assigned"
	StatusPickedUp            Status = "picked_up"
	StatusAtWorkshop          Status = "at_workshop"
	StatusInService           Status = "in_service"
	StatusReadyForReturn      Status = "ready_for_return"
	StatusReturnAssigned      Status = "return_assigned"
	StatusInTransitToCustomer Status = "in_transit_to_customer"
	StatusDelivered           Status = "delivered"
	StatusCancelled           Status = "cancelled"
)

type Booking struct {
	ID     types.ID
	Number string

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

	Status        Status
	StatusVersion int

	// Denormalized pointer to the jockey of the most recent live assignment.
	// Assignment history lives in the assignment module.
	JockeyID *types.ID

	BasePrice       types.Money
	AgeMultiplier   float64
	FinalPrice      types.Money
	PriceSource     string
	MileageInterval string

	PickupDate      time.Time
	PickupSlot      string
	PickupAddress   string
	DeliveryAddress string

	CustomerNotes string
	InternalNotes string

	PaymentIntentID string
	PaidAt          *time.Time

	CreatedAt    time.Time
	ConfirmedAt  *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions is the explicit whitelist of legal status edges.
// Cancellation is only reachable before the vehicle enters service; from
// in_service onward the booking has to run to delivery.
var AllowedTransitions = map[Status][]Status{
	StatusPendingPayment:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusPickupAssigned, StatusCancelled},
	StatusPickupAssigned:      {StatusPickedUp, StatusCancelled},
	StatusPickedUp:            {StatusAtWorkshop, StatusCancelled},
	StatusAtWorkshop:          {StatusInService, StatusCancelled},
	StatusInService:           {StatusReadyForReturn},
	StatusReadyForReturn:      {StatusReturnAssigned},
	StatusReturnAssigned:      {StatusInTransitToCustomer},
	StatusInTransitToCustomer: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	return len(AllowedTransitions[s]) == 0
}
