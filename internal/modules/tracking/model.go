// README: Jockey position tracking during transport legs.
package tracking

import (
	"time"

	"pitstop/internal/types"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Update struct {
	JockeyID types.ID
	Position Point
}

// Snapshot is a persisted position sample. The live position lives in Redis;
// snapshots go to Postgres at a coarse interval for history.
type Snapshot struct {
	JockeyID   types.ID
	Position   Point
	RecordedAt time.Time
}
