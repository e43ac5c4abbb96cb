// README: Jockey-facing handlers: assignment progress, handover completion,
// availability, and live location.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pitstop/internal/modules/assignment"
	"pitstop/internal/modules/tracking"
	"pitstop/internal/types"
)

type AssignmentHandler struct {
	assignments  *assignment.Service
	availability *assignment.AvailabilityPool
	tracking     *tracking.Service
}

func NewAssignmentHandler(svc *assignment.Service, availability *assignment.AvailabilityPool, trk *tracking.Service) *AssignmentHandler {
	return &AssignmentHandler{assignments: svc, availability: availability, tracking: trk}
}

type assignmentResp struct {
	ID            string `json:"id"`
	BookingNumber string `json:"booking_number"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	JockeyID      string `json:"jockey_id"`
	ScheduledAt   string `json:"scheduled_at"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Address       string `json:"address"`
	VehicleBrand  string `json:"vehicle_brand"`
	VehicleModel  string `json:"vehicle_model"`
	VehiclePlate  string `json:"vehicle_plate"`
}

func toAssignmentResp(a assignment.Assignment) assignmentResp {
	return assignmentResp{
		ID:            string(a.ID),
		BookingNumber: a.BookingNumber,
		Type:          string(a.Type),
		Status:        string(a.Status),
		JockeyID:      string(a.JockeyID),
		ScheduledAt:   a.ScheduledAt.Format(time.RFC3339),
		CustomerName:  a.CustomerName,
		CustomerPhone: a.CustomerPhone,
		Address:       a.Address,
		VehicleBrand:  a.VehicleBrand,
		VehicleModel:  a.VehicleModel,
		VehiclePlate:  a.VehiclePlate,
	}
}

func (h *AssignmentHandler) ListByBooking(c *gin.Context) {
	list, err := h.assignments.ListByBooking(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]assignmentResp, len(list))
	for i, a := range list {
		out[i] = toAssignmentResp(a)
	}
	writeData(c, http.StatusOK, out)
}

func (h *AssignmentHandler) ListByJockey(c *gin.Context) {
	list, err := h.assignments.ListByJockey(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]assignmentResp, len(list))
	for i, a := range list {
		out[i] = toAssignmentResp(a)
	}
	writeData(c, http.StatusOK, out)
}

type jockeyActionReq struct {
	JockeyID string `json:"jockey_id"`
}

func (h *AssignmentHandler) Depart(c *gin.Context) {
	var req jockeyActionReq
	_ = c.ShouldBindJSON(&req)
	err := h.assignments.Depart(c.Request.Context(), assignment.TransitionCommand{
		AssignmentID: types.ID(c.Param("id")),
		JockeyID:     types.ID(req.JockeyID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": assignment.StatusEnRoute})
}

func (h *AssignmentHandler) Arrive(c *gin.Context) {
	var req jockeyActionReq
	_ = c.ShouldBindJSON(&req)
	err := h.assignments.Arrive(c.Request.Context(), assignment.TransitionCommand{
		AssignmentID: types.ID(c.Param("id")),
		JockeyID:     types.ID(req.JockeyID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": assignment.StatusAtLocation})
}

type completeReq struct {
	JockeyID  string   `json:"jockey_id"`
	Mileage   int      `json:"mileage" binding:"required"`
	Photos    []string `json:"photos"`
	Signature string   `json:"signature"`
	Notes     string   `json:"notes"`
}

func (h *AssignmentHandler) Complete(c *gin.Context) {
	var req completeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.assignments.Complete(c.Request.Context(), assignment.CompleteCommand{
		AssignmentID: types.ID(c.Param("id")),
		JockeyID:     types.ID(req.JockeyID),
		Handover: assignment.Handover{
			Mileage:   req.Mileage,
			Photos:    req.Photos,
			Signature: req.Signature,
			Notes:     req.Notes,
		},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": assignment.StatusCompleted})
}

func (h *AssignmentHandler) Cancel(c *gin.Context) {
	err := h.assignments.Cancel(c.Request.Context(), assignment.TransitionCommand{
		AssignmentID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": assignment.StatusCancelled})
}

type availabilityReq struct {
	Available bool `json:"available"`
}

func (h *AssignmentHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	id := types.ID(c.Param("id"))
	var err error
	if req.Available {
		err = h.availability.SetAvailable(c.Request.Context(), id)
	} else {
		err = h.availability.SetUnavailable(c.Request.Context(), id)
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeData(c, http.StatusOK, gin.H{"available": req.Available})
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *AssignmentHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.tracking.Update(c.Request.Context(), tracking.Update{
		JockeyID: types.ID(c.Param("id")),
		Position: tracking.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"recorded": true})
}

func (h *AssignmentHandler) GetLocation(c *gin.Context) {
	p, ok, err := h.tracking.Last(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "no recent position")
		return
	}
	writeData(c, http.StatusOK, p)
}
