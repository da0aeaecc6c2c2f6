package tastings

import (
	"context"
	"strconv"
	"time"

	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/kafka"
	"github.com/mavvricks/eloque/internal/repository"
	"github.com/rs/zerolog"
)

type TastingUseCase interface {
	RequestTasting(ctx context.Context, actor domain.Actor, input RequestTastingInput) (*domain.TastingRequest, error)
	ListOwn(ctx context.Context, actor domain.Actor) ([]domain.TastingRequest, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type TastingService struct {
	tastings           repository.TastingRepository
	producer           Producer
	notificationsTopic string
	log                zerolog.Logger
}

func NewTastingService(
	tastings repository.TastingRepository,
	producer Producer,
	notificationsTopic string,
	log zerolog.Logger,
) *TastingService {
	return &TastingService{
		tastings:           tastings,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		log:                log,
	}
}

type RequestTastingInput struct {
	GuestName     string    `json:"guest_name"`
	GuestEmail    string    `json:"guest_email"`
	GuestPhone    string    `json:"guest_phone"`
	PreferredDate time.Time `json:"preferred_date"`
	PreferredTime string    `json:"preferred_time"`
	Notes         string    `json:"notes"`
}

// RequestTasting files a tasting appointment request. Guests are
// welcome before they register: an unauthenticated caller leaves the
// owner at zero and is reached through the guest contact fields.
func (s *TastingService) RequestTasting(ctx context.Context, actor domain.Actor, input RequestTastingInput) (*domain.TastingRequest, error) {
	if input.GuestName == "" {
		return nil, domain.NewValidationError("guest_name", "")
	}
	if input.PreferredDate.IsZero() {
		return nil, domain.NewValidationError("preferred_date", "")
	}

	t := &domain.TastingRequest{
		OwnerID:       actor.ID,
		GuestName:     input.GuestName,
		GuestEmail:    input.GuestEmail,
		GuestPhone:    input.GuestPhone,
		PreferredDate: input.PreferredDate,
		PreferredTime: input.PreferredTime,
		Notes:         input.Notes,
	}
	if err := s.tastings.Create(ctx, t); err != nil {
		return nil, err
	}

	s.publish(ctx, t)
	return t, nil
}

func (s *TastingService) ListOwn(ctx context.Context, actor domain.Actor) ([]domain.TastingRequest, error) {
	return s.tastings.ListByOwner(ctx, actor.ID)
}

func (s *TastingService) publish(ctx context.Context, t *domain.TastingRequest) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.Event{
		Type:        "tasting_requested",
		OwnerID:     t.OwnerID,
		EventDate:   t.PreferredDate.Format(domain.DateLayout),
		ClientEmail: t.GuestEmail,
		OccurredAt:  time.Now(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, strconv.FormatInt(t.ID, 10), event); err != nil {
		s.log.Warn().Err(err).Int64("tasting_id", t.ID).Msg("failed to publish tasting event")
	}
}

var _ TastingUseCase = (*TastingService)(nil)
