// README: Position validation and snapshot throttling tests.
package tracking

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pitstop/internal/types"
)

func TestUpdateRejectsOutOfRangePositions(t *testing.T) {
	// Invalid positions are rejected before any store access.
	svc := NewService(nil)

	cases := []Point{
		{Lat: 91, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 181},
		{Lat: 0, Lng: -181},
	}
	for _, p := range cases {
		err := svc.Update(context.Background(), Update{JockeyID: "j_1", Position: p})
		if !errors.Is(err, ErrBadPosition) {
			t.Errorf("Update(%v): expected ErrBadPosition, got %v", p, err)
		}
	}
}

func TestUpdateThrottlesSnapshots(t *testing.T) {
	svc, db := setupTrackingService(t)
	ctx := context.Background()
	jockey := types.ID("j_throttle")

	base := time.Now()
	clock := base
	svc.now = func() time.Time { return clock }

	send := func(lat float64) {
		t.Helper()
		err := svc.Update(ctx, Update{JockeyID: jockey, Position: Point{Lat: lat, Lng: 13.4}})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	send(52.50)
	clock = base.Add(5 * time.Second)
	send(52.51)
	clock = base.Add(29 * time.Second)
	send(52.52)
	if got := countSnapshots(t, db, jockey); got != 1 {
		t.Fatalf("expected 1 snapshot inside the interval, got %d", got)
	}

	clock = base.Add(31 * time.Second)
	send(52.53)
	if got := countSnapshots(t, db, jockey); got != 2 {
		t.Fatalf("expected 2 snapshots after the interval elapsed, got %d", got)
	}

	// The live position always reflects the latest update.
	p, ok, err := svc.Last(ctx, jockey)
	if err != nil || !ok {
		t.Fatalf("last position: ok=%v err=%v", ok, err)
	}
	if p.Lat != 52.53 {
		t.Fatalf("expected latest position 52.53, got %f", p.Lat)
	}
}

func countSnapshots(t *testing.T, db *pgxpool.Pool, jockey types.ID) int {
	t.Helper()
	var n int
	err := db.QueryRow(context.Background(),
		`SELECT count(*) FROM jockey_position_snapshots WHERE jockey_id = $1`, string(jockey)).Scan(&n)
	if err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	return n
}

func setupTrackingService(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("PITSTOP_TEST_DSN")
	redisAddr := os.Getenv("PITSTOP_TEST_REDIS_ADDR")
	if dsn == "" || redisAddr == "" {
		t.Skip("PITSTOP_TEST_DSN or PITSTOP_TEST_REDIS_ADDR not set; skipping store-backed tracking tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = rdb.Close() })

	if _, err := db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS jockey_position_snapshots (
            id BIGSERIAL PRIMARY KEY,
            jockey_id TEXT NOT NULL,
            lat DOUBLE PRECISION NOT NULL,
            lng DOUBLE PRECISION NOT NULL,
            recorded_at TIMESTAMPTZ NOT NULL
        )`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(ctx, `DELETE FROM jockey_position_snapshots`); err != nil {
		t.Fatalf("reset table: %v", err)
	}

	return NewService(NewStore(db, rdb)), db
}
