package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/kafka"
	"github.com/mavvricks/eloque/internal/repository"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	Availability(ctx context.Context, date time.Time) (*domain.Availability, error)
	GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error)
	ListOwn(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	ListAll(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, actor domain.Actor, id int64, upd domain.BookingUpdate) (*domain.Booking, error)
	UpdateEventDetails(ctx context.Context, actor domain.Actor, id int64, det domain.EventDetails) error
	CancelBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error)
	SetStatus(ctx context.Context, actor domain.Actor, id int64, status domain.BookingStatus) (*domain.Booking, error)
	RetryPendingSchedules(ctx context.Context) (int, error)
}

type Cache interface {
	GetAvailability(ctx context.Context, date string) (*domain.Availability, error)
	SetAvailability(ctx context.Context, avail domain.Availability) error
	InvalidateAvailability(ctx context.Context, date string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	payments           repository.PaymentRepository
	cache              Cache
	producer           Producer
	caps               domain.Caps
	bookingsTopic      string
	notificationsTopic string
	log                zerolog.Logger
}

type CreateBookingInput struct {
	OwnerID        int64     `json:"owner_id"`
	EventDate      time.Time `json:"event_date"`
	EventTime      string    `json:"event_time"`
	Pax            int       `json:"pax"`
	BudgetCents    int64     `json:"budget_cents"`
	TotalCostCents int64     `json:"total_cost_cents"`
	ClientFullName string    `json:"client_full_name"`
	ClientEmail    string    `json:"client_email"`
	ClientPhone    string    `json:"client_phone"`
	VenueAddress   string    `json:"venue_address"`
	VenueStreet    string    `json:"venue_street"`
	VenueCity      string    `json:"venue_city"`
	VenueProvince  string    `json:"venue_province"`
	VenueZipCode   string    `json:"venue_zip_code"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	cache Cache,
	producer Producer,
	caps domain.Caps,
	bookingsTopic string,
	log zerolog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		payments:      payments,
		cache:         cache,
		producer:      producer,
		caps:          caps,
		bookingsTopic: bookingsTopic,
		log:           log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking admits a booking for its date and derives the payment
// schedule. Admission and insert happen inside one repository
// transaction; schedule generation is a second phase that must not
// block the sale, so its failure only flags the booking for retry.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.OwnerID <= 0 {
		return nil, domain.NewValidationError("owner_id", "")
	}
	if input.EventDate.IsZero() {
		return nil, domain.NewValidationError("event_date", "")
	}
	if input.EventTime == "" {
		return nil, domain.NewValidationError("event_time", "")
	}
	if input.Pax < 1 {
		return nil, domain.NewValidationError("pax", "must be at least 1")
	}
	if input.TotalCostCents < 0 {
		return nil, domain.NewValidationError("total_cost_cents", "must not be negative")
	}

	totalCost := input.TotalCostCents
	if totalCost == 0 {
		totalCost = input.BudgetCents
	}

	b := &domain.Booking{
		Reference:      uuid.NewString(),
		OwnerID:        input.OwnerID,
		EventDate:      input.EventDate,
		EventTime:      input.EventTime,
		Pax:            input.Pax,
		BudgetCents:    input.BudgetCents,
		TotalCostCents: totalCost,
		ClientFullName: input.ClientFullName,
		ClientEmail:    input.ClientEmail,
		ClientPhone:    input.ClientPhone,
		VenueAddress:   input.VenueAddress,
		VenueStreet:    input.VenueStreet,
		VenueCity:      input.VenueCity,
		VenueProvince:  input.VenueProvince,
		VenueZipCode:   input.VenueZipCode,
	}

	if err := s.bookings.CreateAdmitted(ctx, b, s.caps); err != nil {
		return nil, err
	}
	s.invalidateDate(ctx, b.EventDate)

	if err := s.generateSchedule(ctx, b); err != nil {
		s.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("payment schedule generation failed, booking kept")
		b.SchedulePending = true
		if markErr := s.bookings.SetSchedulePending(ctx, b.ID, true); markErr != nil {
			s.log.Error().Err(markErr).Int64("booking_id", b.ID).Msg("failed to flag pending schedule")
		}
	}

	s.publishBooking(ctx, "booking_created", b)
	return b, nil
}

func (s *BookingService) generateSchedule(ctx context.Context, b *domain.Booking) error {
	schedule := domain.BuildSchedule(b.ID, b.TotalCostCents, b.EventDate, time.Now())
	if len(schedule) == 0 {
		return nil
	}
	return s.payments.CreateSchedule(ctx, schedule)
}

func (s *BookingService) Availability(ctx context.Context, date time.Time) (*domain.Availability, error) {
	dateKey := date.Format(domain.DateLayout)
	if s.cache != nil {
		if cached, err := s.cache.GetAvailability(ctx, dateKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	load, err := s.bookings.DayLoad(ctx, date)
	if err != nil {
		return nil, err
	}
	avail := domain.ComputeAvailability(s.caps, date, load)
	if s.cache != nil {
		_ = s.cache.SetAvailability(ctx, avail)
	}
	return &avail, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if actor.CanOperate() {
		return s.bookings.GetByID(ctx, id)
	}
	return s.bookings.GetOwned(ctx, id, actor.ID)
}

func (s *BookingService) ListOwn(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	return s.bookings.ListByOwner(ctx, actor.ID)
}

func (s *BookingService) ListAll(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	if !actor.CanOperate() {
		return nil, domain.ErrForbidden
	}
	return s.bookings.ListAll(ctx)
}

// UpdateBooking applies the owner-editable fields under the lock
// window. It intentionally does not re-run capacity admission when the
// date or pax change: admission is a one-time gate, matching the
// long-standing behavior the operations team works around by hand.
func (s *BookingService) UpdateBooking(ctx context.Context, actor domain.Actor, id int64, upd domain.BookingUpdate) (*domain.Booking, error) {
	if upd.Empty() {
		return nil, domain.NewValidationError("update", "no fields to update")
	}

	current, err := s.bookings.GetOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return nil, domain.ErrBookingCancelled
	}
	if domain.InsideLockWindow(current.EventDate, time.Now()) {
		return nil, domain.ErrLockWindow
	}

	updated, err := s.bookings.UpdateFields(ctx, id, actor.ID, upd)
	if err != nil {
		return nil, err
	}

	s.invalidateDate(ctx, current.EventDate)
	if !updated.EventDate.Equal(current.EventDate) {
		s.invalidateDate(ctx, updated.EventDate)
	}
	return updated, nil
}

func (s *BookingService) UpdateEventDetails(ctx context.Context, actor domain.Actor, id int64, det domain.EventDetails) error {
	return s.bookings.UpdateEventDetails(ctx, id, actor.ID, det)
}

// CancelBooking is the client self-service path. Cancellation is a
// status flip, so the freed capacity is visible to the next admission
// query immediately.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	current, err := s.bookings.GetOwned(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}
	if domain.InsideLockWindow(current.EventDate, time.Now()) {
		return nil, domain.ErrLockWindow
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.invalidateDate(ctx, updated.EventDate)
	s.publishBooking(ctx, "booking_cancelled", updated)
	return updated, nil
}

// SetStatus is the operations override: any status is reachable from
// any other, because humans correct mistakes.
func (s *BookingService) SetStatus(ctx context.Context, actor domain.Actor, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	if !actor.CanOperate() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "invalid status")
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.invalidateDate(ctx, updated.EventDate)
	s.publishBooking(ctx, "booking_status_changed", updated)
	return updated, nil
}

// RetryPendingSchedules re-runs schedule generation for bookings whose
// first attempt failed. Returns how many were repaired.
func (s *BookingService) RetryPendingSchedules(ctx context.Context) (int, error) {
	pending, err := s.bookings.ListSchedulePending(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range pending {
		b := &pending[i]
		if err := s.generateSchedule(ctx, b); err != nil {
			s.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("schedule retry failed")
			continue
		}
		if err := s.bookings.SetSchedulePending(ctx, b.ID, false); err != nil {
			s.log.Error().Err(err).Int64("booking_id", b.ID).Msg("failed to clear pending schedule flag")
			continue
		}
		repaired++
	}
	return repaired, nil
}

func (s *BookingService) invalidateDate(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailability(ctx, date.Format(domain.DateLayout)); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate availability cache")
	}
}

func (s *BookingService) publishBooking(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingsTopic == "" {
		return
	}
	event := kafka.Event{
		Type:           eventType,
		Reference:      b.Reference,
		BookingID:      b.ID,
		OwnerID:        b.OwnerID,
		EventDate:      b.EventDate.Format(domain.DateLayout),
		Pax:            b.Pax,
		Status:         string(b.Status),
		TotalCostCents: b.TotalCostCents,
		ClientEmail:    b.ClientEmail,
		OccurredAt:     time.Now(),
	}
	if err := s.producer.Publish(ctx, s.bookingsTopic, b.Reference, event); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to publish booking event")
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Reference, event); err != nil {
			s.log.Warn().Err(err).Str("event", eventType).Msg("failed to publish notification event")
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
