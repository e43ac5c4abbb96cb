// README: In-process sandbox provider for demo and local runs.
package payments

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pitstop/internal/types"
)

type authState string

const (
	authOpen     authState = "open"
	authCaptured authState = "captured"
	authVoided   authState = "voided"
)

// Sandbox approves every authorization and keeps state in memory. It enforces
// the authorize-before-capture ordering so misuse shows up in demos too.
type Sandbox struct {
	log *logrus.Logger

	mu    sync.Mutex
	auths map[AuthorizationID]authState
}

func NewSandbox(log *logrus.Logger) *Sandbox {
	return &Sandbox{log: log, auths: make(map[AuthorizationID]authState)}
}

func (p *Sandbox) Authorize(ctx context.Context, amount types.Money, ref string) (AuthorizationID, error) {
	id := AuthorizationID("auth_" + uuid.NewString())
	p.mu.Lock()
	p.auths[id] = authOpen
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{"auth_id": id, "amount": amount.String(), "ref": ref}).Info("sandbox authorize")
	return id, nil
}

func (p *Sandbox) Capture(ctx context.Context, id AuthorizationID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.auths[id] != authOpen {
		return ErrUnknownAuthorization
	}
	p.auths[id] = authCaptured
	p.log.WithField("auth_id", id).Info("sandbox capture")
	return nil
}

func (p *Sandbox) Void(ctx context.Context, id AuthorizationID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.auths[id] != authOpen {
		return ErrUnknownAuthorization
	}
	p.auths[id] = authVoided
	p.log.WithField("auth_id", id).Info("sandbox void")
	return nil
}

// Unavailable always fails with ErrUnavailable. Wired when PITSTOP_PAYMENT_MODE
// is "off" to exercise the degraded auto-confirm path end to end.
type Unavailable struct{}

func (Unavailable) Authorize(ctx context.Context, amount types.Money, ref string) (AuthorizationID, error) {
	return "", ErrUnavailable
}

func (Unavailable) Capture(ctx context.Context, id AuthorizationID) error { return ErrUnavailable }

func (Unavailable) Void(ctx context.Context, id AuthorizationID) error { return ErrUnavailable }
