// README: Booking handlers: intake, lifecycle transitions, cancellation, audit trail.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pitstop/internal/modules/booking"
	"pitstop/internal/modules/pricing"
	"pitstop/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone"`

	VehicleID    string `json:"vehicle_id"`
	VehicleBrand string `json:"vehicle_brand" binding:"required"`
	VehicleModel string `json:"vehicle_model" binding:"required"`
	VehiclePlate string `json:"vehicle_plate"`
	VehicleYear  int    `json:"vehicle_year" binding:"required"`
	Mileage      int    `json:"mileage"`

	ServiceType string `json:"service_type" binding:"required"`

	PickupDate      string `json:"pickup_date" binding:"required"`
	PickupSlot      string `json:"pickup_slot"`
	PickupAddress   string `json:"pickup_address" binding:"required"`
	DeliveryAddress string `json:"delivery_address"`
	CustomerNotes   string `json:"customer_notes"`
}

type bookingResp struct {
	ID              string  `json:"id"`
	Number          string  `json:"number"`
	Status          string  `json:"status"`
	ServiceType     string  `json:"service_type"`
	VehicleBrand    string  `json:"vehicle_brand"`
	VehicleModel    string  `json:"vehicle_model"`
	BasePrice       int64   `json:"base_price"`
	AgeMultiplier   float64 `json:"age_multiplier"`
	FinalPrice      int64   `json:"final_price"`
	PriceSource     string  `json:"price_source"`
	MileageInterval string  `json:"mileage_interval,omitempty"`
	JockeyID        string  `json:"jockey_id,omitempty"`
	PickupAddress   string  `json:"pickup_address"`
	DeliveryAddress string  `json:"delivery_address"`
	CreatedAt       string  `json:"created_at"`
}

func toBookingResp(b *booking.Booking) bookingResp {
	resp := bookingResp{
		ID:              string(b.ID),
		Number:          b.Number,
		Status:          string(b.Status),
		ServiceType:     string(b.ServiceType),
		VehicleBrand:    b.VehicleBrand,
		VehicleModel:    b.VehicleModel,
		BasePrice:       b.BasePrice.Amount,
		AgeMultiplier:   b.AgeMultiplier,
		FinalPrice:      b.FinalPrice.Amount,
		PriceSource:     b.PriceSource,
		MileageInterval: b.MileageInterval,
		PickupAddress:   b.PickupAddress,
		DeliveryAddress: b.DeliveryAddress,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
	if b.JockeyID != nil {
		resp.JockeyID = string(*b.JockeyID)
	}
	return resp
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	pickupDate, err := time.Parse("2006-01-02", req.PickupDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "pickup_date must be YYYY-MM-DD")
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		CustomerID:      types.ID(req.CustomerID),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		VehicleID:       types.ID(req.VehicleID),
		VehicleBrand:    req.VehicleBrand,
		VehicleModel:    req.VehicleModel,
		VehiclePlate:    req.VehiclePlate,
		VehicleYear:     req.VehicleYear,
		Mileage:         req.Mileage,
		ServiceType:     pricing.ServiceType(req.ServiceType),
		PickupDate:      pickupDate,
		PickupSlot:      req.PickupSlot,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		CustomerNotes:   req.CustomerNotes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusCreated, toBookingResp(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, toBookingResp(b))
}

func (h *BookingHandler) GetByNumber(c *gin.Context) {
	b, err := h.bookings.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, toBookingResp(b))
}

type eventResp struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorType  string `json:"actor_type"`
	CreatedAt  string `json:"created_at"`
}

func (h *BookingHandler) Events(c *gin.Context) {
	events, err := h.bookings.Events(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]eventResp, len(events))
	for i, e := range events {
		out[i] = eventResp{
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorType:  e.ActorType,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		}
	}
	writeData(c, http.StatusOK, out)
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	err := h.bookings.Confirm(c.Request.Context(), booking.ConfirmCommand{
		BookingID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"booking_id": c.Param("id")})
}

type cancelReq struct {
	ActorType string `json:"actor_type"`
	Reason    string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	if req.ActorType == "" {
		req.ActorType = "customer"
	}
	err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		ActorType: req.ActorType,
		Reason:    req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": booking.StatusCancelled})
}

func (h *BookingHandler) AtWorkshop(c *gin.Context) {
	h.transition(c, h.bookings.MarkAtWorkshop, "jockey")
}

func (h *BookingHandler) StartService(c *gin.Context) {
	h.transition(c, h.bookings.StartService, "workshop")
}

func (h *BookingHandler) FinishService(c *gin.Context) {
	err := h.bookings.FinishService(c.Request.Context(), booking.FinishServiceCommand{
		BookingID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"booking_id": c.Param("id")})
}

func (h *BookingHandler) transition(c *gin.Context, fn func(ctx context.Context, cmd booking.TransitionCommand) error, actorType string) {
	err := fn(c.Request.Context(), booking.TransitionCommand{
		BookingID: types.ID(c.Param("id")),
		ActorType: actorType,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"booking_id": c.Param("id")})
}
