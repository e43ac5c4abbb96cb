// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitstop/internal/config"
	httptransport "pitstop/internal/http"
	"pitstop/internal/infra"
	"pitstop/internal/modules/assignment"
	"pitstop/internal/modules/booking"
	"pitstop/internal/modules/extension"
	"pitstop/internal/modules/pricing"
	"pitstop/internal/modules/tracking"
	"pitstop/internal/notify"
	"pitstop/internal/payments"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := infra.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.WithError(err).Fatal("database init")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var provider payments.Provider
	switch cfg.Payment.Mode {
	case "off":
		provider = payments.Unavailable{}
	default:
		provider = payments.NewSandbox(logger)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQP.URL != "" {
		notifier = notify.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
	}

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool))

	availability := assignment.NewAvailabilityPool(redisClient, assignment.NewRosterPool(dbPool))
	assignmentSvc := assignment.NewService(assignment.NewPgStore(dbPool), availability, logger)

	bookingSvc := booking.NewService(booking.NewPgStore(dbPool), pricingSvc, provider, assignmentSvc, notifier, logger)
	assignmentSvc.BindBookings(bookingSvc)

	extensionSvc := extension.NewService(extension.NewPgStore(dbPool), provider, bookingSvc, logger)
	bookingSvc.BindExtensions(extensionSvc)

	trackingSvc := tracking.NewService(tracking.NewStore(dbPool, redisClient))

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:     bookingSvc,
		Assignments:  assignmentSvc,
		Extensions:   extensionSvc,
		Pricing:      pricingSvc,
		Tracking:     trackingSvc,
		Availability: availability,
		Log:          logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", cfg.HTTP.Addr).Info("server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}
