// README: Tracking service handles high-frequency updates with interval snapshot flushing.
package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"pitstop/internal/types"
)

var ErrBadPosition = errors.New("position out of range")

// snapshotInterval is the minimum spacing between persisted samples per jockey.
const snapshotInterval = 30 * time.Second

type Service struct {
	store *Store
	now   func() time.Time

	mu        sync.Mutex
	lastFlush map[types.ID]time.Time
}

func NewService(store *Store) *Service {
	return &Service{
		store:     store,
		now:       time.Now,
		lastFlush: make(map[types.ID]time.Time),
	}
}

// Update stores the live position and flushes a history snapshot at most once
// per interval per jockey.
func (s *Service) Update(ctx context.Context, u Update) error {
	if u.Position.Lat < -90 || u.Position.Lat > 90 || u.Position.Lng < -180 || u.Position.Lng > 180 {
		return ErrBadPosition
	}
	if err := s.store.SetLast(ctx, u.JockeyID, u.Position); err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	due := now.Sub(s.lastFlush[u.JockeyID]) >= snapshotInterval
	if due {
		s.lastFlush[u.JockeyID] = now
	}
	s.mu.Unlock()

	if due {
		return s.store.AppendSnapshot(ctx, Snapshot{
			JockeyID:   u.JockeyID,
			Position:   u.Position,
			RecordedAt: now,
		})
	}
	return nil
}

// Last returns the live position, for the customer's "where is my car" view.
func (s *Service) Last(ctx context.Context, jockeyID types.ID) (Point, bool, error) {
	return s.store.GetLast(ctx, jockeyID)
}
