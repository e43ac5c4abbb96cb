// README: Jockey assignment aggregate: one transport leg per row.
package assignment

import (
	"time"

	"pitstop/internal/types"
)

type Type string

const (
	TypePickup Type = "pickup"
	TypeReturn Type = "return"
)

type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusEnRoute    Status = "en_route"
	StatusAtLocation Status = "at_location"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions is strictly linear; no skipping, cancel from any
// non-terminal state.
var AllowedTransitions = map[Status][]Status{
	StatusAssigned:   {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusAtLocation, StatusCancelled},
	StatusAtLocation: {StatusCompleted, StatusCancelled},
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

// Handover is the documented custody transfer captured at completion.
type Handover struct {
	Mileage   int
	Photos    []string
	Signature string
	Notes     string
}

// Assignment snapshots customer and vehicle fields at creation time. The
// copies are historical record and are never re-synced with later edits to
// the source entities.
type Assignment struct {
	ID            types.ID
	BookingID     types.ID
	BookingNumber string
	Type          Type
	Status        Status
	StatusVersion int
	JockeyID      types.ID

	ScheduledAt time.Time

	CustomerName  string
	CustomerPhone string
	Address       string
	VehicleBrand  string
	VehicleModel  string
	VehiclePlate  string

	Handover *Handover

	CreatedAt   time.Time
	EnRouteAt   *time.Time
	ArrivedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}
