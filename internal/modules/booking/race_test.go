// README: Concurrency tests for booking state transitions (run with -race).
package booking

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pitstop/internal/modules/pricing"
	"pitstop/internal/notify"
	"pitstop/internal/types"
)

func TestConcurrentConfirmVsCancel(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	svc := NewService(store, fixedPricer{}, &fakeProvider{}, &fakeAllocator{jockey: "j_race_1"}, notify.Nop{}, quietLogger())

	b := seedPendingBooking(t, store, "race-confirm-cancel")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.Confirm(ctx, ConfirmCommand{BookingID: b.ID})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.Cancel(ctx, CancelCommand{BookingID: b.ID, ActorType: "customer", Reason: "race"})
	}()

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	// Either path may win the CAS, but the booking must land on exactly one of
	// the two outcomes, never both and never pending.
	if got.Status != StatusCancelled && got.Status != StatusConfirmed && got.Status != StatusPickupAssigned {
		t.Fatalf("unexpected final status: %s", got.Status)
	}
}

func TestConcurrentConfirmSameBooking(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	allocator := &fakeAllocator{jockey: "j_race_2"}
	svc := NewService(store, fixedPricer{}, &fakeProvider{}, allocator, notify.Nop{}, quietLogger())

	b := seedPendingBooking(t, store, "race-double-confirm")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Confirm(ctx, ConfirmCommand{BookingID: b.ID})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != StatusPickupAssigned && got.Status != StatusConfirmed {
		t.Fatalf("unexpected final status: %s", got.Status)
	}

	events, err := store.ListEvents(ctx, b.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	confirmed := 0
	for _, e := range events {
		if e.ToStatus == StatusConfirmed {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("expected exactly one pending->confirmed transition, got %d", confirmed)
	}
}

func seedPendingBooking(t *testing.T, store *PgStore, tag string) *Booking {
	t.Helper()
	now := time.Now()
	b := &Booking{
		ID:            newID(),
		Number:        newNumber(now),
		CustomerID:    types.ID("u_" + tag),
		CustomerName:  "Race Tester",
		VehicleBrand:  "Volkswagen",
		VehicleModel:  "Golf 7",
		VehicleYear:   2018,
		Mileage:       75000,
		ServiceType:   pricing.ServiceInspection,
		Status:        StatusPendingPayment,
		BasePrice:     types.EUR(34900),
		AgeMultiplier: 1.0,
		FinalPrice:    types.EUR(34900),
		PriceSource:   "exact_match",
		PickupDate:    now.AddDate(0, 0, 3),
		PickupAddress: "Hauptstr. 12, Berlin",
		CreatedAt:     now,
	}
	b.DeliveryAddress = b.PickupAddress
	if err := store.Create(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func setupTestStore(t *testing.T) *PgStore {
	t.Helper()

	dsn := os.Getenv("PITSTOP_TEST_DSN")
	if dsn == "" {
		t.Skip("PITSTOP_TEST_DSN not set; skipping DB-backed race tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE booking_state_events, extensions, jockey_assignments, bookings"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewPgStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
