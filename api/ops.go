package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/service/booking"
)

// OpsHandler exposes the operations dashboard: full booking listings
// and the status override.
type OpsHandler struct {
	service booking.BookingUseCase
}

func NewOpsHandler(service booking.BookingUseCase) *OpsHandler {
	return &OpsHandler{service: service}
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *OpsHandler) Register(router *gin.RouterGroup) {
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.PUT("/bookings/:id/status", h.setStatus)
}

func (h *OpsHandler) list(c *gin.Context) {
	bookings, err := h.service.ListAll(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *OpsHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *OpsHandler) setStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.SetStatus(c.Request.Context(), actorFrom(c), id, domain.BookingStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}
