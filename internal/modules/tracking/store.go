// README: Tracking store: Redis for the live position, PostgreSQL for history.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pitstop/internal/types"
)

const lastPositionTTL = 10 * time.Minute

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

func lastKey(jockeyID types.ID) string {
	return fmt.Sprintf("tracking:jockey:%s", string(jockeyID))
}

func (s *Store) SetLast(ctx context.Context, jockeyID types.ID, p Point) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, lastKey(jockeyID), body, lastPositionTTL).Err()
}

func (s *Store) GetLast(ctx context.Context, jockeyID types.ID) (Point, bool, error) {
	val, err := s.redis.Get(ctx, lastKey(jockeyID)).Result()
	if err == redis.Nil {
		return Point{}, false, nil
	}
	if err != nil {
		return Point{}, false, err
	}
	var p Point
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return Point{}, false, err
	}
	return p, true, nil
}

func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO jockey_position_snapshots (jockey_id, lat, lng, recorded_at)
        VALUES ($1, $2, $3, $4)`,
		string(snap.JockeyID), snap.Position.Lat, snap.Position.Lng, snap.RecordedAt,
	)
	return err
}
