package payments

import (
	"context"
	"time"

	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/kafka"
	"github.com/mavvricks/eloque/internal/repository"
	"github.com/rs/zerolog"
)

type PaymentUseCase interface {
	RecordPayment(ctx context.Context, actor domain.Actor, input RecordPaymentInput) error
	VerifyPayment(ctx context.Context, actor domain.Actor, paymentID int64, action string) (*domain.Payment, error)
	BookingLedger(ctx context.Context, actor domain.Actor, bookingID int64) (*BookingLedger, error)
	BookingsWithPayments(ctx context.Context, actor domain.Actor) ([]BookingWithPayments, error)
	PendingPayments(ctx context.Context, actor domain.Actor) ([]domain.PaymentWithBooking, error)
	Ledger(ctx context.Context, actor domain.Actor, f domain.LedgerFilter) ([]domain.PaymentWithBooking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	payments      repository.PaymentRepository
	bookings      repository.BookingRepository
	producer      Producer
	bookingsTopic string
	log           zerolog.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	producer Producer,
	bookingsTopic string,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:      payments,
		bookings:      bookings,
		producer:      producer,
		bookingsTopic: bookingsTopic,
		log:           log,
	}
}

type RecordPaymentInput struct {
	PaymentID int64  `json:"payment_id"`
	BookingID int64  `json:"booking_id"`
	Method    string `json:"payment_method"`
	Reference string `json:"reference_number"`
	PayInFull bool   `json:"pay_in_full"`
}

// Verification actions accepted from the finance dashboard.
const (
	ActionVerify = "Verify"
	ActionReject = "Reject"
)

// PaymentView decorates a payment with the overdue flag, which only
// exists at read time.
type PaymentView struct {
	domain.Payment
	Overdue bool
}

// BookingLedger is the client/finance view of one booking's money:
// the schedule plus the balances derived from verified tiers.
type BookingLedger struct {
	BookingID             int64
	TotalCostCents        int64
	PaidCents             int64
	RemainingBalanceCents int64
	Payments              []PaymentView
}

type BookingWithPayments struct {
	Booking  domain.Booking
	Payments []domain.Payment
}

// RecordPayment notes a client's payment submission. Submission keeps
// the payment Pending: a human in finance has to confirm the funds
// before anything is considered paid.
func (s *PaymentService) RecordPayment(ctx context.Context, actor domain.Actor, input RecordPaymentInput) error {
	if input.BookingID <= 0 {
		return domain.NewValidationError("booking_id", "")
	}
	if input.Method == "" {
		return domain.NewValidationError("payment_method", "")
	}
	if !input.PayInFull && input.PaymentID <= 0 {
		return domain.NewValidationError("payment_id", "")
	}

	booking, err := s.bookings.GetOwned(ctx, input.BookingID, actor.ID)
	if err != nil {
		return err
	}

	var touched int64
	if input.PayInFull {
		touched, err = s.payments.MarkAllSubmitted(ctx, input.BookingID, input.Method, input.Reference)
	} else {
		touched, err = s.payments.MarkSubmitted(ctx, input.PaymentID, input.BookingID, input.Method, input.Reference)
	}
	if err != nil {
		return err
	}
	if touched == 0 {
		if input.PayInFull {
			return domain.ErrNothingToRecord
		}
		// The tier exists but is already terminal, or it is not there
		// at all. Tell those apart for the caller.
		if _, getErr := s.payments.GetByID(ctx, input.PaymentID); getErr != nil {
			return getErr
		}
		return domain.ErrPaymentFinalized
	}

	s.publish(ctx, kafka.Event{
		Type:        "payment_recorded",
		Reference:   booking.Reference,
		BookingID:   booking.ID,
		OwnerID:     booking.OwnerID,
		EventDate:   booking.EventDate.Format(domain.DateLayout),
		Status:      string(domain.PaymentStatusPending),
		PaymentID:   input.PaymentID,
		ClientEmail: booking.ClientEmail,
		OccurredAt:  time.Now(),
	})
	return nil
}

// VerifyPayment is the finance decision. Both outcomes are terminal;
// repeating the call is an error and leaves the original verdict
// untouched.
func (s *PaymentService) VerifyPayment(ctx context.Context, actor domain.Actor, paymentID int64, action string) (*domain.Payment, error) {
	if !actor.CanVerify() {
		return nil, domain.ErrForbidden
	}

	var status domain.PaymentStatus
	switch action {
	case ActionVerify:
		status = domain.PaymentStatusVerified
	case ActionReject:
		status = domain.PaymentStatusRejected
	default:
		return nil, domain.NewValidationError("action", "must be Verify or Reject")
	}

	verified, err := s.payments.Finalize(ctx, paymentID, status, actor.Name)
	if err != nil {
		return nil, err
	}

	booking, bErr := s.bookings.GetByID(ctx, verified.BookingID)
	if bErr != nil {
		s.log.Warn().Err(bErr).Int64("booking_id", verified.BookingID).Msg("verified payment for unknown booking")
		return verified, nil
	}

	s.publish(ctx, kafka.Event{
		Type:        "payment_verified",
		Reference:   booking.Reference,
		BookingID:   booking.ID,
		OwnerID:     booking.OwnerID,
		EventDate:   booking.EventDate.Format(domain.DateLayout),
		Status:      string(verified.Status),
		PaymentID:   verified.ID,
		PaymentType: string(verified.Type),
		AmountCents: verified.AmountCents,
		ClientEmail: booking.ClientEmail,
		OccurredAt:  time.Now(),
	})
	return verified, nil
}

// BookingLedger returns the schedule with paid and remaining balances
// computed from verified tiers on every read, so the figures can never
// drift from the payment rows.
func (s *PaymentService) BookingLedger(ctx context.Context, actor domain.Actor, bookingID int64) (*BookingLedger, error) {
	var booking *domain.Booking
	var err error
	if actor.CanVerify() || actor.CanOperate() {
		booking, err = s.bookings.GetByID(ctx, bookingID)
	} else {
		booking, err = s.bookings.GetOwned(ctx, bookingID, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	paid, err := s.payments.VerifiedTotal(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]PaymentView, 0, len(rows))
	for _, p := range rows {
		views = append(views, PaymentView{Payment: p, Overdue: p.Overdue(now)})
	}

	return &BookingLedger{
		BookingID:             booking.ID,
		TotalCostCents:        booking.TotalCostCents,
		PaidCents:             paid,
		RemainingBalanceCents: booking.TotalCostCents - paid,
		Payments:              views,
	}, nil
}

// BookingsWithPayments is the finance dashboard projection: every
// non-cancelled booking with its schedule in tier order.
func (s *PaymentService) BookingsWithPayments(ctx context.Context, actor domain.Actor) ([]BookingWithPayments, error) {
	if !actor.CanVerify() {
		return nil, domain.ErrForbidden
	}

	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]BookingWithPayments, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		rows, err := s.payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, BookingWithPayments{Booking: b, Payments: rows})
	}
	return out, nil
}

func (s *PaymentService) PendingPayments(ctx context.Context, actor domain.Actor) ([]domain.PaymentWithBooking, error) {
	if !actor.CanVerify() {
		return nil, domain.ErrForbidden
	}
	return s.payments.ListPending(ctx)
}

func (s *PaymentService) Ledger(ctx context.Context, actor domain.Actor, f domain.LedgerFilter) ([]domain.PaymentWithBooking, error) {
	if !actor.CanVerify() {
		return nil, domain.ErrForbidden
	}
	return s.payments.Ledger(ctx, f)
}

func (s *PaymentService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.bookingsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.bookingsTopic, event.Reference, event); err != nil {
		s.log.Warn().Err(err).Str("event", event.Type).Msg("failed to publish payment event")
	}
}

var _ PaymentUseCase = (*PaymentService)(nil)
