package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/service/payments"
)

type PaymentHandler struct {
	service payments.PaymentUseCase
}

func NewPaymentHandler(service payments.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type recordPaymentRequest struct {
	PaymentID int64  `json:"payment_id"`
	BookingID int64  `json:"booking_id" binding:"required"`
	Method    string `json:"payment_method" binding:"required"`
	Reference string `json:"reference_number"`
	PayInFull bool   `json:"pay_in_full"`
}

type verifyPaymentRequest struct {
	Action string `json:"action" binding:"required"`
}

type paymentResponse struct {
	ID          int64  `json:"id"`
	BookingID   int64  `json:"booking_id"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"payment_type"`
	Status      string `json:"status"`
	Method      string `json:"payment_method,omitempty"`
	Reference   string `json:"reference_number,omitempty"`
	DueDate     string `json:"due_date"`
	PaymentDate string `json:"payment_date"`
	VerifiedBy  string `json:"verified_by,omitempty"`
	VerifiedAt  string `json:"verified_at,omitempty"`
	Overdue     bool   `json:"overdue,omitempty"`
}

func toPaymentResponse(p domain.Payment, overdue bool) paymentResponse {
	resp := paymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		AmountCents: p.AmountCents,
		Type:        string(p.Type),
		Status:      string(p.Status),
		Method:      p.Method,
		Reference:   p.Reference,
		DueDate:     p.DueDate.Format(domain.DateLayout),
		PaymentDate: p.PaymentDate.Format(time.RFC3339),
		VerifiedBy:  p.VerifiedBy,
		Overdue:     overdue,
	}
	if p.VerifiedAt != nil {
		resp.VerifiedAt = p.VerifiedAt.Format(time.RFC3339)
	}
	return resp
}

// RegisterClient wires the owner-facing payment routes.
func (h *PaymentHandler) RegisterClient(router *gin.RouterGroup) {
	router.POST("/record", h.record)
	router.GET("/booking/:id", h.bookingLedger)
}

// RegisterFinance wires the verification queue and ledger views.
func (h *PaymentHandler) RegisterFinance(router *gin.RouterGroup) {
	router.GET("/bookings", h.bookingsWithPayments)
	router.GET("/payments/pending", h.pending)
	router.GET("/ledger", h.ledger)
	router.PUT("/payments/:id/verify", h.verify)
}

func (h *PaymentHandler) record(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.RecordPayment(c.Request.Context(), actorFrom(c), payments.RecordPaymentInput{
		PaymentID: req.PaymentID,
		BookingID: req.BookingID,
		Method:    req.Method,
		Reference: req.Reference,
		PayInFull: req.PayInFull,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment recorded, pending verification"})
}

func (h *PaymentHandler) bookingLedger(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ledger, err := h.service.BookingLedger(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	rows := make([]paymentResponse, 0, len(ledger.Payments))
	for _, p := range ledger.Payments {
		rows = append(rows, toPaymentResponse(p.Payment, p.Overdue))
	}
	c.JSON(http.StatusOK, gin.H{
		"booking_id":              ledger.BookingID,
		"total_cost_cents":        ledger.TotalCostCents,
		"paid_cents":              ledger.PaidCents,
		"remaining_balance_cents": ledger.RemainingBalanceCents,
		"payments":                rows,
	})
}

func (h *PaymentHandler) verify(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verified, err := h.service.VerifyPayment(c.Request.Context(), actorFrom(c), id, req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(*verified, false))
}

func (h *PaymentHandler) bookingsWithPayments(c *gin.Context) {
	rows, err := h.service.BookingsWithPayments(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	type entry struct {
		Booking  bookingResponse   `json:"booking"`
		Payments []paymentResponse `json:"payments"`
	}
	out := make([]entry, 0, len(rows))
	for i := range rows {
		ps := make([]paymentResponse, 0, len(rows[i].Payments))
		for _, p := range rows[i].Payments {
			ps = append(ps, toPaymentResponse(p, false))
		}
		out = append(out, entry{Booking: toBookingResponse(&rows[i].Booking), Payments: ps})
	}
	c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) pending(c *gin.Context) {
	rows, err := h.service.PendingPayments(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJoinedResponses(rows))
}

func (h *PaymentHandler) ledger(c *gin.Context) {
	filter := domain.LedgerFilter{}
	if status := c.Query("status"); status != "" && status != "All" {
		filter.Status = domain.PaymentStatus(status)
	}
	if from := c.Query("start_date"); from != "" {
		parsed, err := time.Parse(domain.DateLayout, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		filter.DateFrom = parsed
	}
	if to := c.Query("end_date"); to != "" {
		parsed, err := time.Parse(domain.DateLayout, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		filter.DateTo = parsed
	}

	rows, err := h.service.Ledger(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJoinedResponses(rows))
}

type joinedPaymentResponse struct {
	paymentResponse
	EventDate      string `json:"event_date"`
	ClientFullName string `json:"client_full_name"`
}

func toJoinedResponses(rows []domain.PaymentWithBooking) []joinedPaymentResponse {
	out := make([]joinedPaymentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, joinedPaymentResponse{
			paymentResponse: toPaymentResponse(row.Payment, false),
			EventDate:       row.EventDate.Format(domain.DateLayout),
			ClientFullName:  row.ClientFullName,
		})
	}
	return out
}
