package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/service/tastings"
)

type TastingHandler struct {
	service tastings.TastingUseCase
}

func NewTastingHandler(service tastings.TastingUseCase) *TastingHandler {
	return &TastingHandler{service: service}
}

type tastingRequest struct {
	GuestName     string `json:"guest_name" binding:"required"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone"`
	PreferredDate string `json:"preferred_date" binding:"required"`
	PreferredTime string `json:"preferred_time"`
	Notes         string `json:"notes"`
}

type tastingResponse struct {
	ID            int64  `json:"id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email,omitempty"`
	GuestPhone    string `json:"guest_phone,omitempty"`
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toTastingResponse(t *domain.TastingRequest) tastingResponse {
	return tastingResponse{
		ID:            t.ID,
		GuestName:     t.GuestName,
		GuestEmail:    t.GuestEmail,
		GuestPhone:    t.GuestPhone,
		PreferredDate: t.PreferredDate.Format(domain.DateLayout),
		PreferredTime: t.PreferredTime,
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterPublic wires the tasting request route. Walk-in guests file
// requests without an account, so identity is optional here; a valid
// token simply ties the request to the client's dashboard.
func (h *TastingHandler) RegisterPublic(router *gin.RouterGroup) {
	router.POST("/", h.create)
}

func (h *TastingHandler) Register(router *gin.RouterGroup) {
	router.GET("/mine", h.listOwn)
}

func (h *TastingHandler) create(c *gin.Context) {
	var req tastingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preferredDate, err := time.Parse(domain.DateLayout, req.PreferredDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferred_date, expected YYYY-MM-DD"})
		return
	}

	created, err := h.service.RequestTasting(c.Request.Context(), actorFrom(c), tastings.RequestTastingInput{
		GuestName:     req.GuestName,
		GuestEmail:    req.GuestEmail,
		GuestPhone:    req.GuestPhone,
		PreferredDate: preferredDate,
		PreferredTime: req.PreferredTime,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTastingResponse(created))
}

func (h *TastingHandler) listOwn(c *gin.Context) {
	list, err := h.service.ListOwn(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]tastingResponse, 0, len(list))
	for i := range list {
		out = append(out, toTastingResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}
