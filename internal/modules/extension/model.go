// README: Extension aggregate: a workshop-proposed upsell requiring customer approval.
package extension

import (
	"time"

	"pitstop/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
)

// AllowedTransitions: approval and decline are mutually exclusive branches;
// declined is terminal, approved settles to completed on capture.
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusDeclined},
	StatusApproved: {StatusCompleted},
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

type Item struct {
	Name      string
	UnitPrice types.Money
	Quantity  int
	MediaURL  string
}

type Extension struct {
	ID          types.ID
	BookingID   types.ID
	Description string
	Items       []Item
	TotalAmount types.Money

	Status        Status
	StatusVersion int

	PaymentIntentID string
	DeclineReason   string

	CreatedAt  time.Time
	ApprovedAt *time.Time
	DeclinedAt *time.Time
	PaidAt     *time.Time
}

// Total is Σ(unit price × quantity) over the items, in cents.
func Total(items []Item) types.Money {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice.Amount * int64(it.Quantity)
	}
	return types.EUR(sum)
}
