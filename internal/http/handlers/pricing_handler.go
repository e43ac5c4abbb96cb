// README: Quote handler wrapping the pricing engine.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pitstop/internal/modules/pricing"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type quoteReq struct {
	Brand       string `json:"brand" binding:"required"`
	Model       string `json:"model" binding:"required"`
	Year        int    `json:"year" binding:"required"`
	Mileage     int    `json:"mileage"`
	ServiceType string `json:"service_type" binding:"required"`
}

type quoteResp struct {
	BasePrice       int64   `json:"base_price"`
	AgeMultiplier   float64 `json:"age_multiplier"`
	FinalPrice      int64   `json:"final_price"`
	Currency        string  `json:"currency"`
	PriceSource     string  `json:"price_source"`
	MileageInterval string  `json:"mileage_interval,omitempty"`
}

func (h *PricingHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.pricing.Calculate(c.Request.Context(), pricing.Request{
		Brand:       req.Brand,
		Model:       req.Model,
		Year:        req.Year,
		Mileage:     req.Mileage,
		ServiceType: pricing.ServiceType(req.ServiceType),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, quoteResp{
		BasePrice:       q.BasePrice.Amount,
		AgeMultiplier:   q.AgeMultiplier,
		FinalPrice:      q.FinalPrice.Amount,
		Currency:        q.FinalPrice.Currency,
		PriceSource:     q.PriceSource,
		MileageInterval: q.MileageInterval,
	})
}
