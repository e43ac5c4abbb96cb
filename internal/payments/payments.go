// README: Payment provider contract; manual capture only (authorize first, capture later).
package payments

import (
	"context"
	"errors"

	"pitstop/internal/types"
)

var (
	// ErrUnavailable means the provider could not be reached. Callers decide
	// whether the failure is recoverable (booking auto-confirm, capture retry).
	ErrUnavailable = errors.New("payment provider unavailable")
	// ErrDeclined means the provider rejected the operation.
	ErrDeclined = errors.New("payment declined")
	// ErrUnknownAuthorization means the authorization reference does not resolve.
	ErrUnknownAuthorization = errors.New("unknown authorization")
)

type AuthorizationID string

// Provider is the two-phase payment collaborator. Authorize reserves funds
// against a booking or extension reference; Capture charges them; Void
// releases an authorization that will never be captured.
type Provider interface {
	Authorize(ctx context.Context, amount types.Money, ref string) (AuthorizationID, error)
	Capture(ctx context.Context, id AuthorizationID) error
	Void(ctx context.Context, id AuthorizationID) error
}
