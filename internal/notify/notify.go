// README: Best-effort notification contract. Failures are logged by callers, never propagated.
package notify

import (
	"context"

	"pitstop/internal/types"
)

type Message struct {
	UserID     types.ID `json:"user_id"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	BookingRef string   `json:"booking_ref,omitempty"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Nop discards every message. Used in tests and when no broker is configured.
type Nop struct{}

func (Nop) Send(ctx context.Context, msg Message) error { return nil }
