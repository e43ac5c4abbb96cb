// README: Extension handlers: workshop proposal, customer approve/decline.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pitstop/internal/modules/extension"
	"pitstop/internal/types"
)

type ExtensionHandler struct {
	extensions *extension.Service
}

func NewExtensionHandler(svc *extension.Service) *ExtensionHandler {
	return &ExtensionHandler{extensions: svc}
}

type extensionItemReq struct {
	Name      string `json:"name" binding:"required"`
	UnitPrice int64  `json:"unit_price" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	MediaURL  string `json:"media_url"`
}

type createExtensionReq struct {
	Description string             `json:"description" binding:"required"`
	Items       []extensionItemReq `json:"items" binding:"required"`
}

type extensionResp struct {
	ID          string             `json:"id"`
	BookingID   string             `json:"booking_id"`
	Description string             `json:"description"`
	Items       []extensionItemReq `json:"items"`
	TotalAmount int64              `json:"total_amount"`
	Status      string             `json:"status"`
	PaidAt      string             `json:"paid_at,omitempty"`
}

func toExtensionResp(e *extension.Extension) extensionResp {
	items := make([]extensionItemReq, len(e.Items))
	for i, it := range e.Items {
		items[i] = extensionItemReq{
			Name:      it.Name,
			UnitPrice: it.UnitPrice.Amount,
			Quantity:  it.Quantity,
			MediaURL:  it.MediaURL,
		}
	}
	resp := extensionResp{
		ID:          string(e.ID),
		BookingID:   string(e.BookingID),
		Description: e.Description,
		Items:       items,
		TotalAmount: e.TotalAmount.Amount,
		Status:      string(e.Status),
	}
	if e.PaidAt != nil {
		resp.PaidAt = e.PaidAt.Format(time.RFC3339)
	}
	return resp
}

func (h *ExtensionHandler) Create(c *gin.Context) {
	var req createExtensionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	items := make([]extension.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = extension.Item{
			Name:      it.Name,
			UnitPrice: types.EUR(it.UnitPrice),
			Quantity:  it.Quantity,
			MediaURL:  it.MediaURL,
		}
	}
	e, err := h.extensions.Create(c.Request.Context(), extension.CreateCommand{
		BookingID:   types.ID(c.Param("id")),
		Description: req.Description,
		Items:       items,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusCreated, toExtensionResp(e))
}

func (h *ExtensionHandler) ListByBooking(c *gin.Context) {
	list, err := h.extensions.ListByBooking(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]extensionResp, len(list))
	for i := range list {
		out[i] = toExtensionResp(&list[i])
	}
	writeData(c, http.StatusOK, out)
}

func (h *ExtensionHandler) Approve(c *gin.Context) {
	err := h.extensions.Approve(c.Request.Context(), extension.ApproveCommand{
		ExtensionID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": extension.StatusApproved})
}

type declineReq struct {
	Reason string `json:"reason"`
}

func (h *ExtensionHandler) Decline(c *gin.Context) {
	var req declineReq
	_ = c.ShouldBindJSON(&req)
	err := h.extensions.Decline(c.Request.Context(), extension.DeclineCommand{
		ExtensionID: types.ID(c.Param("id")),
		Reason:      req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"status": extension.StatusDeclined})
}
