// README: Jockey selection strategies. RosterPool is the default policy
// (earliest-created active jockey); AvailabilityPool consults a Redis
// sorted set of jockeys who marked themselves available.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pitstop/internal/types"
)

// RosterPool picks the earliest-created active jockey from the user roster.
// Selection is deterministic for a fixed roster.
type RosterPool struct {
	db *pgxpool.Pool
}

func NewRosterPool(db *pgxpool.Pool) *RosterPool {
	return &RosterPool{db: db}
}

func (p *RosterPool) FindAvailable(ctx context.Context) (types.ID, error) {
	row := p.db.QueryRow(ctx, `
        SELECT id FROM users
        WHERE role = 'jockey' AND active
        ORDER BY created_at, id
        LIMIT 1`)
	var id string
	err := row.Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoJockey
	}
	if err != nil {
		return "", err
	}
	return types.ID(id), nil
}

const availableKey = "jockeys:available"

// AvailabilityPool keeps an availability set in Redis, scored by join time so
// the longest-waiting jockey is picked first. When nobody has marked
// themselves available it falls back to the roster policy.
type AvailabilityPool struct {
	redis    *redis.Client
	fallback JockeyPool
}

func NewAvailabilityPool(rdb *redis.Client, fallback JockeyPool) *AvailabilityPool {
	return &AvailabilityPool{redis: rdb, fallback: fallback}
}

func (p *AvailabilityPool) SetAvailable(ctx context.Context, id types.ID) error {
	return p.redis.ZAddNX(ctx, availableKey, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: string(id),
	}).Err()
}

func (p *AvailabilityPool) SetUnavailable(ctx context.Context, id types.ID) error {
	return p.redis.ZRem(ctx, availableKey, string(id)).Err()
}

func (p *AvailabilityPool) FindAvailable(ctx context.Context) (types.ID, error) {
	ids, err := p.redis.ZRange(ctx, availableKey, 0, 0).Result()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		if p.fallback != nil {
			return p.fallback.FindAvailable(ctx)
		}
		return "", ErrNoJockey
	}
	return types.ID(ids[0]), nil
}
