package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mavvricks/eloque/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateAdmitted(ctx context.Context, b *domain.Booking, caps domain.Caps) error {
	args := m.Called(ctx, b, caps)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Booking, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateFields(ctx context.Context, id, ownerID int64, upd domain.BookingUpdate) (*domain.Booking, error) {
	args := m.Called(ctx, id, ownerID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateEventDetails(ctx context.Context, id, ownerID int64, det domain.EventDetails) error {
	args := m.Called(ctx, id, ownerID, det)
	return args.Error(0)
}

func (m *MockBookingRepository) DayLoad(ctx context.Context, date time.Time) (domain.DayLoad, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(domain.DayLoad), args.Error(1)
}

func (m *MockBookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) SetSchedulePending(ctx context.Context, id int64, pending bool) error {
	args := m.Called(ctx, id, pending)
	return args.Error(0)
}

func (m *MockBookingRepository) ListSchedulePending(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreateSchedule(ctx context.Context, payments []domain.Payment) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPending(ctx context.Context) ([]domain.PaymentWithBooking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PaymentWithBooking), args.Error(1)
}

func (m *MockPaymentRepository) Ledger(ctx context.Context, f domain.LedgerFilter) ([]domain.PaymentWithBooking, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.PaymentWithBooking), args.Error(1)
}

func (m *MockPaymentRepository) MarkSubmitted(ctx context.Context, paymentID, bookingID int64, method, reference string) (int64, error) {
	args := m.Called(ctx, paymentID, bookingID, method, reference)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) MarkAllSubmitted(ctx context.Context, bookingID int64, method, reference string) (int64, error) {
	args := m.Called(ctx, bookingID, method, reference)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Finalize(ctx context.Context, id int64, status domain.PaymentStatus, verifiedBy string) (*domain.Payment, error) {
	args := m.Called(ctx, id, status, verifiedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) VerifiedTotal(ctx context.Context, bookingID int64) (int64, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetAvailability(ctx context.Context, date string) (*domain.Availability, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockCache) SetAvailability(ctx context.Context, avail domain.Availability) error {
	args := m.Called(ctx, avail)
	return args.Error(0)
}

func (m *MockCache) InvalidateAvailability(ctx context.Context, date string) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(bookings *MockBookingRepository, payments *MockPaymentRepository, cache Cache, producer Producer) *BookingService {
	return NewBookingService(bookings, payments, cache, producer, domain.DefaultCaps(), "bookings", zerolog.Nop())
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockPayments := &MockPaymentRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := newTestService(mockBookings, mockPayments, mockCache, mockProducer)

	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)
	input := CreateBookingInput{
		OwnerID:        7,
		EventDate:      eventDate,
		EventTime:      "18:00",
		Pax:            150,
		TotalCostCents: 10_000_000,
		ClientEmail:    "client@example.com",
	}

	mockBookings.On("CreateAdmitted", ctx, mock.AnythingOfType("*domain.Booking"), domain.DefaultCaps()).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.ID = 99
			b.Status = domain.BookingStatusPending
		}).Return(nil).Once()
	mockCache.On("InvalidateAvailability", ctx, eventDate.Format(domain.DateLayout)).Return(nil).Once()
	mockPayments.On("CreateSchedule", ctx, mock.AnythingOfType("[]domain.Payment")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "bookings", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(99), created.ID)
	assert.Equal(t, domain.BookingStatusPending, created.Status)
	assert.NotEmpty(t, created.Reference)
	assert.False(t, created.SchedulePending)

	mockBookings.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service := newTestService(&MockBookingRepository{}, &MockPaymentRepository{}, nil, nil)
	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)

	testCases := []struct {
		name  string
		input CreateBookingInput
	}{
		{"missing owner", CreateBookingInput{EventDate: eventDate, EventTime: "18:00", Pax: 50}},
		{"missing event date", CreateBookingInput{OwnerID: 7, EventTime: "18:00", Pax: 50}},
		{"missing event time", CreateBookingInput{OwnerID: 7, EventDate: eventDate, Pax: 50}},
		{"zero pax", CreateBookingInput{OwnerID: 7, EventDate: eventDate, EventTime: "18:00", Pax: 0}},
		{"negative pax", CreateBookingInput{OwnerID: 7, EventDate: eventDate, EventTime: "18:00", Pax: -10}},
		{"negative total", CreateBookingInput{OwnerID: 7, EventDate: eventDate, EventTime: "18:00", Pax: 50, TotalCostCents: -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := service.CreateBooking(ctx, tc.input)
			assert.Nil(t, created)

			var validationErr *domain.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestBookingService_CreateBooking_CapacityRejected(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockPayments := &MockPaymentRepository{}

	service := newTestService(mockBookings, mockPayments, nil, nil)

	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)
	capErr := &domain.CapacityError{Date: eventDate.Format(domain.DateLayout), RemainingPax: 100, RemainingEvents: 6}

	mockBookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(capErr).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{
		OwnerID: 7, EventDate: eventDate, EventTime: "18:00", Pax: 150, TotalCostCents: 1000,
	})

	assert.Nil(t, created)
	var capacityErr *domain.CapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 100, capacityErr.RemainingPax)
	assert.Contains(t, err.Error(), "remaining capacity: 100 pax")

	// No schedule rows for a rejected booking.
	mockPayments.AssertNotCalled(t, "CreateSchedule", mock.Anything, mock.Anything)
	mockBookings.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ScheduleFailureIsNonFatal(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockPayments := &MockPaymentRepository{}

	service := newTestService(mockBookings, mockPayments, nil, nil)

	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)

	mockBookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 5
		}).Return(nil).Once()
	mockPayments.On("CreateSchedule", ctx, mock.Anything).Return(errors.New("payments table unavailable")).Once()
	mockBookings.On("SetSchedulePending", ctx, int64(5), true).Return(nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{
		OwnerID: 7, EventDate: eventDate, EventTime: "18:00", Pax: 50, TotalCostCents: 100_000,
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, created.SchedulePending)

	mockBookings.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
}

func TestBookingService_CreateBooking_NoScheduleForZeroCost(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockPayments := &MockPaymentRepository{}

	service := newTestService(mockBookings, mockPayments, nil, nil)

	ctx := context.Background()
	mockBookings.On("CreateAdmitted", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{
		OwnerID: 7, EventDate: time.Now().AddDate(0, 2, 0), EventTime: "18:00", Pax: 50,
	})

	require.NoError(t, err)
	assert.False(t, created.SchedulePending)
	mockPayments.AssertNotCalled(t, "CreateSchedule", mock.Anything, mock.Anything)
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: 7, Role: domain.RoleClient}

	t.Run("success outside lock window", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		mockProducer := &MockProducer{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, mockProducer)

		eventDate := time.Now().Add(30 * 24 * time.Hour)
		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: eventDate, Status: domain.BookingStatusPending}
		cancelled := &domain.Booking{ID: 1, OwnerID: 7, EventDate: eventDate, Status: domain.BookingStatusCancelled}

		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()
		mockBookings.On("UpdateStatus", ctx, int64(1), domain.BookingStatusCancelled).Return(cancelled, nil).Once()
		mockProducer.On("Publish", ctx, "bookings", mock.Anything, mock.Anything).Return(nil).Once()

		result, err := service.CancelBooking(ctx, actor, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, result.Status)
		mockBookings.AssertExpectations(t)
	})

	t.Run("already cancelled", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: time.Now().Add(30 * 24 * time.Hour), Status: domain.BookingStatusCancelled}
		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()

		_, err := service.CancelBooking(ctx, actor, 1)
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	})

	t.Run("six days out is locked", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: time.Now().Add(6 * 24 * time.Hour), Status: domain.BookingStatusPending}
		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()

		_, err := service.CancelBooking(ctx, actor, 1)
		assert.ErrorIs(t, err, domain.ErrLockWindow)
	})

	t.Run("seven days out is allowed", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		eventDate := time.Now().Add(7 * 24 * time.Hour)
		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: eventDate, Status: domain.BookingStatusPending}
		cancelled := &domain.Booking{ID: 1, OwnerID: 7, EventDate: eventDate, Status: domain.BookingStatusCancelled}

		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()
		mockBookings.On("UpdateStatus", ctx, int64(1), domain.BookingStatusCancelled).Return(cancelled, nil).Once()

		_, err := service.CancelBooking(ctx, actor, 1)
		assert.NoError(t, err)
	})

	t.Run("not owned", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(nil, domain.ErrNotFound).Once()

		_, err := service.CancelBooking(ctx, actor, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: 7, Role: domain.RoleClient}
	newTime := "19:30"

	t.Run("success", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		eventDate := time.Now().Add(30 * 24 * time.Hour)
		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: eventDate, Status: domain.BookingStatusPending}
		updated := &domain.Booking{ID: 1, OwnerID: 7, EventDate: eventDate, EventTime: newTime, Status: domain.BookingStatusPending}

		upd := domain.BookingUpdate{EventTime: &newTime}
		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()
		mockBookings.On("UpdateFields", ctx, int64(1), int64(7), upd).Return(updated, nil).Once()

		result, err := service.UpdateBooking(ctx, actor, 1, upd)
		require.NoError(t, err)
		assert.Equal(t, newTime, result.EventTime)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		_, err := service.UpdateBooking(ctx, actor, 1, domain.BookingUpdate{})
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		mockBookings.AssertNotCalled(t, "GetOwned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled booking rejects edits", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: time.Now().Add(30 * 24 * time.Hour), Status: domain.BookingStatusCancelled}
		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()

		_, err := service.UpdateBooking(ctx, actor, 1, domain.BookingUpdate{EventTime: &newTime})
		assert.ErrorIs(t, err, domain.ErrBookingCancelled)
	})

	t.Run("lock window", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: time.Now().Add(3 * 24 * time.Hour), Status: domain.BookingStatusPending}
		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()

		_, err := service.UpdateBooking(ctx, actor, 1, domain.BookingUpdate{EventTime: &newTime})
		assert.ErrorIs(t, err, domain.ErrLockWindow)
	})

	// A date or pax change goes straight through without re-running
	// admission. If that behavior ever changes, this test should be
	// revisited along with the repository contract.
	t.Run("date change skips admission", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		oldDate := time.Now().Add(30 * 24 * time.Hour)
		newDate := time.Now().Add(45 * 24 * time.Hour)
		bigger := 4000
		current := &domain.Booking{ID: 1, OwnerID: 7, EventDate: oldDate, Pax: 100, Status: domain.BookingStatusPending}
		updated := &domain.Booking{ID: 1, OwnerID: 7, EventDate: newDate, Pax: bigger, Status: domain.BookingStatusPending}

		upd := domain.BookingUpdate{EventDate: &newDate, Pax: &bigger}
		mockBookings.On("GetOwned", ctx, int64(1), int64(7)).Return(current, nil).Once()
		mockBookings.On("UpdateFields", ctx, int64(1), int64(7), upd).Return(updated, nil).Once()

		result, err := service.UpdateBooking(ctx, actor, 1, upd)
		require.NoError(t, err)
		assert.Equal(t, bigger, result.Pax)

		mockBookings.AssertNotCalled(t, "CreateAdmitted", mock.Anything, mock.Anything, mock.Anything)
		mockBookings.AssertNotCalled(t, "DayLoad", mock.Anything, mock.Anything)
	})
}

func TestBookingService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("forbidden for clients", func(t *testing.T) {
		service := newTestService(&MockBookingRepository{}, &MockPaymentRepository{}, nil, nil)

		_, err := service.SetStatus(ctx, domain.Actor{ID: 7, Role: domain.RoleClient}, 1, domain.BookingStatusConfirmed)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid status", func(t *testing.T) {
		service := newTestService(&MockBookingRepository{}, &MockPaymentRepository{}, nil, nil)

		_, err := service.SetStatus(ctx, domain.Actor{ID: 2, Role: domain.RoleOps}, 1, domain.BookingStatus("Archived"))
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("any transition for ops", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, nil, nil)

		// Completed back to Pending is allowed: humans correct mistakes.
		reverted := &domain.Booking{ID: 1, EventDate: time.Now().AddDate(0, 1, 0), Status: domain.BookingStatusPending}
		mockBookings.On("UpdateStatus", ctx, int64(1), domain.BookingStatusPending).Return(reverted, nil).Once()

		result, err := service.SetStatus(ctx, domain.Actor{ID: 2, Role: domain.RoleOps}, 1, domain.BookingStatusPending)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusPending, result.Status)
	})
}

func TestBookingService_Availability(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	t.Run("cache miss computes and stores", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		mockCache := &MockCache{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, mockCache, nil)

		mockCache.On("GetAvailability", ctx, "2026-09-12").Return(nil, nil).Once()
		mockBookings.On("DayLoad", ctx, date).Return(domain.DayLoad{Pax: 3400, Events: 4}, nil).Once()
		mockCache.On("SetAvailability", ctx, mock.AnythingOfType("domain.Availability")).Return(nil).Once()

		avail, err := service.Availability(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, 100, avail.RemainingPax)
		assert.Equal(t, 6, avail.RemainingEvents)
		assert.False(t, avail.IsFull)

		mockCache.AssertExpectations(t)
		mockBookings.AssertExpectations(t)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		mockBookings := &MockBookingRepository{}
		mockCache := &MockCache{}
		service := newTestService(mockBookings, &MockPaymentRepository{}, mockCache, nil)

		cached := &domain.Availability{Date: "2026-09-12", RemainingPax: 500, RemainingEvents: 2}
		mockCache.On("GetAvailability", ctx, "2026-09-12").Return(cached, nil).Once()

		avail, err := service.Availability(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, cached, avail)
		mockBookings.AssertNotCalled(t, "DayLoad", mock.Anything, mock.Anything)
	})
}

// fakeBookingRepository keeps bookings in memory with the same
// contract as the real repository: the capacity check and the insert
// happen atomically per date, and the per-date load is the aggregate
// over non-cancelled bookings only.
type fakeBookingRepository struct {
	MockBookingRepository
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
	loads    map[string]domain.DayLoad
}

func newFakeBookingRepository() *fakeBookingRepository {
	return &fakeBookingRepository{
		bookings: make(map[int64]*domain.Booking),
		loads:    make(map[string]domain.DayLoad),
	}
}

func (f *fakeBookingRepository) CreateAdmitted(_ context.Context, b *domain.Booking, caps domain.Caps) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := b.EventDate.Format(domain.DateLayout)
	load := f.loads[key]
	if !caps.CanAdmit(load, b.Pax) {
		avail := domain.ComputeAvailability(caps, b.EventDate, load)
		return &domain.CapacityError{Date: key, RemainingPax: avail.RemainingPax, RemainingEvents: avail.RemainingEvents}
	}

	f.nextID++
	b.ID = f.nextID
	b.Status = domain.BookingStatusPending
	stored := *b
	f.bookings[b.ID] = &stored
	f.loads[key] = domain.DayLoad{Pax: load.Pax + b.Pax, Events: load.Events + 1}
	return nil
}

func (f *fakeBookingRepository) GetOwned(_ context.Context, id, ownerID int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok || b.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBookingRepository) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	key := b.EventDate.Format(domain.DateLayout)
	if status == domain.BookingStatusCancelled && b.Status != domain.BookingStatusCancelled {
		load := f.loads[key]
		f.loads[key] = domain.DayLoad{Pax: load.Pax - b.Pax, Events: load.Events - 1}
	}
	b.Status = status
	out := *b
	return &out, nil
}

func TestBookingService_CreateBooking_ConcurrentAdmission(t *testing.T) {
	repo := newFakeBookingRepository()
	mockPayments := &MockPaymentRepository{}
	mockPayments.On("CreateSchedule", mock.Anything, mock.Anything).Return(nil)

	service := NewBookingService(repo, mockPayments, nil, nil, domain.DefaultCaps(), "bookings", zerolog.Nop())

	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)

	// Two bookings of 2000 pax each against the 3500 cap: only one can
	// be admitted no matter how the calls interleave.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.CreateBooking(ctx, CreateBookingInput{
				OwnerID: int64(i + 1), EventDate: eventDate, EventTime: "18:00", Pax: 2000, TotalCostCents: 1_000_000,
			})
		}(i)
	}
	wg.Wait()

	var admitted, rejected int
	for _, err := range results {
		if err == nil {
			admitted++
			continue
		}
		var capacityErr *domain.CapacityError
		require.ErrorAs(t, err, &capacityErr)
		rejected++
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, rejected)
}

func TestBookingService_CancelBooking_FreesCapacity(t *testing.T) {
	repo := newFakeBookingRepository()
	mockPayments := &MockPaymentRepository{}
	mockPayments.On("CreateSchedule", mock.Anything, mock.Anything).Return(nil)

	service := NewBookingService(repo, mockPayments, nil, nil, domain.DefaultCaps(), "bookings", zerolog.Nop())

	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)

	first, err := service.CreateBooking(ctx, CreateBookingInput{
		OwnerID: 1, EventDate: eventDate, EventTime: "12:00", Pax: 3000, TotalCostCents: 5_000_000,
	})
	require.NoError(t, err)

	// 3000 of 3500 taken: a 1000-pax booking does not fit.
	_, err = service.CreateBooking(ctx, CreateBookingInput{
		OwnerID: 2, EventDate: eventDate, EventTime: "18:00", Pax: 1000, TotalCostCents: 2_000_000,
	})
	var capacityErr *domain.CapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 500, capacityErr.RemainingPax)

	// Cancellation is a status flip, so the freed pax is visible to the
	// very next admission.
	_, err = service.CancelBooking(ctx, domain.Actor{ID: 1, Role: domain.RoleClient}, first.ID)
	require.NoError(t, err)

	second, err := service.CreateBooking(ctx, CreateBookingInput{
		OwnerID: 2, EventDate: eventDate, EventTime: "18:00", Pax: 1000, TotalCostCents: 2_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, second.Status)
}

func TestBookingService_RetryPendingSchedules(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockPayments := &MockPaymentRepository{}
	service := newTestService(mockBookings, mockPayments, nil, nil)

	ctx := context.Background()
	eventDate := time.Now().AddDate(0, 2, 0)
	pending := []domain.Booking{
		{ID: 1, EventDate: eventDate, TotalCostCents: 100_000, SchedulePending: true},
		{ID: 2, EventDate: eventDate, TotalCostCents: 200_000, SchedulePending: true},
	}

	mockBookings.On("ListSchedulePending", ctx).Return(pending, nil).Once()
	mockPayments.On("CreateSchedule", ctx, mock.MatchedBy(func(ps []domain.Payment) bool {
		return len(ps) == 3 && ps[0].BookingID == 1
	})).Return(nil).Once()
	mockPayments.On("CreateSchedule", ctx, mock.MatchedBy(func(ps []domain.Payment) bool {
		return len(ps) == 3 && ps[0].BookingID == 2
	})).Return(errors.New("still down")).Once()
	mockBookings.On("SetSchedulePending", ctx, int64(1), false).Return(nil).Once()

	repaired, err := service.RetryPendingSchedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	mockBookings.AssertNotCalled(t, "SetSchedulePending", mock.Anything, int64(2), false)
	mockBookings.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
}
