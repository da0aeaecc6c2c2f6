package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	EventDate      string `json:"event_date" binding:"required"`
	EventTime      string `json:"event_time" binding:"required"`
	Pax            int    `json:"pax" binding:"required"`
	BudgetCents    int64  `json:"budget_cents"`
	TotalCostCents int64  `json:"total_cost_cents"`
	ClientFullName string `json:"client_full_name"`
	ClientEmail    string `json:"client_email"`
	ClientPhone    string `json:"client_phone"`
	VenueAddress   string `json:"venue_address"`
	VenueStreet    string `json:"venue_street"`
	VenueCity      string `json:"venue_city"`
	VenueProvince  string `json:"venue_province"`
	VenueZipCode   string `json:"venue_zip_code"`
}

type updateBookingRequest struct {
	EventDate      *string `json:"event_date"`
	EventTime      *string `json:"event_time"`
	Pax            *int    `json:"pax"`
	ClientFullName *string `json:"client_full_name"`
	ClientEmail    *string `json:"client_email"`
	ClientPhone    *string `json:"client_phone"`
	VenueAddress   *string `json:"venue_address"`
	VenueStreet    *string `json:"venue_street"`
	VenueCity      *string `json:"venue_city"`
	VenueProvince  *string `json:"venue_province"`
	VenueZipCode   *string `json:"venue_zip_code"`
}

type eventDetailsRequest struct {
	ReservationTime string `json:"reservation_time"`
	ServingTime     string `json:"serving_time"`
	EventTimeline   string `json:"event_timeline"`
	ColorMotif      string `json:"color_motif"`
}

type bookingResponse struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	EventDate       string `json:"event_date"`
	EventTime       string `json:"event_time"`
	Pax             int    `json:"pax"`
	BudgetCents     int64  `json:"budget_cents"`
	TotalCostCents  int64  `json:"total_cost_cents"`
	Status          string `json:"status"`
	ClientFullName  string `json:"client_full_name"`
	ClientEmail     string `json:"client_email"`
	ClientPhone     string `json:"client_phone"`
	VenueAddress    string `json:"venue_address"`
	VenueStreet     string `json:"venue_street"`
	VenueCity       string `json:"venue_city"`
	VenueProvince   string `json:"venue_province"`
	VenueZipCode    string `json:"venue_zip_code"`
	ReservationTime string `json:"reservation_time,omitempty"`
	ServingTime     string `json:"serving_time,omitempty"`
	EventTimeline   string `json:"event_timeline,omitempty"`
	ColorMotif      string `json:"color_motif,omitempty"`
	SchedulePending bool   `json:"schedule_pending,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		Reference:       b.Reference,
		EventDate:       b.EventDate.Format(domain.DateLayout),
		EventTime:       b.EventTime,
		Pax:             b.Pax,
		BudgetCents:     b.BudgetCents,
		TotalCostCents:  b.TotalCostCents,
		Status:          string(b.Status),
		ClientFullName:  b.ClientFullName,
		ClientEmail:     b.ClientEmail,
		ClientPhone:     b.ClientPhone,
		VenueAddress:    b.VenueAddress,
		VenueStreet:     b.VenueStreet,
		VenueCity:       b.VenueCity,
		VenueProvince:   b.VenueProvince,
		VenueZipCode:    b.VenueZipCode,
		ReservationTime: b.ReservationTime,
		ServingTime:     b.ServingTime,
		EventTimeline:   b.EventTimeline,
		ColorMotif:      b.ColorMotif,
		SchedulePending: b.SchedulePending,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}

// Register wires the client-facing booking routes. Availability is
// also registered here because the wizard polls it before the client
// authenticates.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/mine", h.listOwn)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.PUT("/:id/cancel", h.cancel)
	router.PUT("/:id/details", h.updateDetails)
}

func (h *BookingHandler) RegisterPublic(router *gin.RouterGroup) {
	router.GET("/availability/:date", h.availability)
	router.POST("/quote", h.quote)
}

type quoteRequest struct {
	Pax       int   `json:"pax" binding:"required"`
	BaseCents int64 `json:"base_cents" binding:"required"`
	HighRise  bool  `json:"high_rise"`
	OutOfTown bool  `json:"out_of_town"`
}

// quote is the wizard's pricing preview: crew size plus venue
// surcharges on top of the base package price. Nothing is persisted.
func (h *BookingHandler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Pax < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pax must be at least 1"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"staff_count": domain.StaffFor(req.Pax),
		"total_cents": domain.QuoteWithFees(req.BaseCents, req.HighRise, req.OutOfTown),
	})
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventDate, err := time.Parse(domain.DateLayout, req.EventDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_date, expected YYYY-MM-DD"})
		return
	}

	actor := actorFrom(c)
	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		OwnerID:        actor.ID,
		EventDate:      eventDate,
		EventTime:      req.EventTime,
		Pax:            req.Pax,
		BudgetCents:    req.BudgetCents,
		TotalCostCents: req.TotalCostCents,
		ClientFullName: req.ClientFullName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		VenueAddress:   req.VenueAddress,
		VenueStreet:    req.VenueStreet,
		VenueCity:      req.VenueCity,
		VenueProvince:  req.VenueProvince,
		VenueZipCode:   req.VenueZipCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) availability(c *gin.Context) {
	date, err := time.Parse(domain.DateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	avail, err := h.service.Availability(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

func (h *BookingHandler) listOwn(c *gin.Context) {
	bookings, err := h.service.ListOwn(c.Request.Context(), actorFrom(c))
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

func (h *BookingHandler) get(c *gin.Context) {
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

func (h *BookingHandler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := domain.BookingUpdate{
		EventTime:      req.EventTime,
		Pax:            req.Pax,
		ClientFullName: req.ClientFullName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		VenueAddress:   req.VenueAddress,
		VenueStreet:    req.VenueStreet,
		VenueCity:      req.VenueCity,
		VenueProvince:  req.VenueProvince,
		VenueZipCode:   req.VenueZipCode,
	}
	if req.EventDate != nil {
		parsed, err := time.Parse(domain.DateLayout, *req.EventDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_date, expected YYYY-MM-DD"})
			return
		}
		upd.EventDate = &parsed
	}

	updated, err := h.service.UpdateBooking(c.Request.Context(), actorFrom(c), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

func (h *BookingHandler) updateDetails(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req eventDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.UpdateEventDetails(c.Request.Context(), actorFrom(c), id, domain.EventDetails{
		ReservationTime: req.ReservationTime,
		ServingTime:     req.ServingTime,
		EventTimeline:   req.EventTimeline,
		ColorMotif:      req.ColorMotif,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event details updated"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
