// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pitstop/internal/http/handlers"
	"pitstop/internal/http/middleware"
	"pitstop/internal/modules/assignment"
	"pitstop/internal/modules/booking"
	"pitstop/internal/modules/extension"
	"pitstop/internal/modules/pricing"
	"pitstop/internal/modules/tracking"
)

type RouterDeps struct {
	Bookings     *booking.Service
	Assignments  *assignment.Service
	Extensions   *extension.Service
	Pricing      *pricing.Service
	Tracking     *tracking.Service
	Availability *assignment.AvailabilityPool
	Log          *logrus.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(deps.Log), middleware.Recovery(deps.Log))

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	r.POST("/api/quotes", pricingHandler.Quote)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	r.POST("/api/bookings", bookingHandler.Create)
	r.GET("/api/bookings/:id", bookingHandler.Get)
	r.GET("/api/bookings/number/:number", bookingHandler.GetByNumber)
	r.GET("/api/bookings/:id/events", bookingHandler.Events)
	r.POST("/api/bookings/:id/confirm", bookingHandler.Confirm)
	r.POST("/api/bookings/:id/cancel", bookingHandler.Cancel)
	r.POST("/api/bookings/:id/at-workshop", bookingHandler.AtWorkshop)
	r.POST("/api/bookings/:id/start-service", bookingHandler.StartService)
	r.POST("/api/bookings/:id/finish-service", bookingHandler.FinishService)

	extensionHandler := handlers.NewExtensionHandler(deps.Extensions)
	r.POST("/api/bookings/:id/extensions", extensionHandler.Create)
	r.GET("/api/bookings/:id/extensions", extensionHandler.ListByBooking)
	r.POST("/api/extensions/:id/approve", extensionHandler.Approve)
	r.POST("/api/extensions/:id/decline", extensionHandler.Decline)

	assignmentHandler := handlers.NewAssignmentHandler(deps.Assignments, deps.Availability, deps.Tracking)
	r.GET("/api/bookings/:id/assignments", assignmentHandler.ListByBooking)
	r.GET("/api/jockeys/:id/assignments", assignmentHandler.ListByJockey)
	r.POST("/api/assignments/:id/depart", assignmentHandler.Depart)
	r.POST("/api/assignments/:id/arrive", assignmentHandler.Arrive)
	r.POST("/api/assignments/:id/complete", assignmentHandler.Complete)
	r.POST("/api/assignments/:id/cancel", assignmentHandler.Cancel)
	r.PUT("/api/jockeys/:id/availability", assignmentHandler.SetAvailability)
	r.PUT("/api/jockeys/:id/location", assignmentHandler.UpdateLocation)
	r.GET("/api/jockeys/:id/location", assignmentHandler.GetLocation)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
