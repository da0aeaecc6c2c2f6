package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mavvricks/eloque/internal/domain"
)

type TastingRepository interface {
	Create(ctx context.Context, t *domain.TastingRequest) error
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.TastingRequest, error)
}

type PGTastingRepository struct {
	db *pgxpool.Pool
}

func NewTastingRepository(db *pgxpool.Pool) TastingRepository {
	return &PGTastingRepository{db: db}
}

func (r *PGTastingRepository) Create(ctx context.Context, t *domain.TastingRequest) error {
	return r.db.QueryRow(ctx, `INSERT INTO food_tastings (owner_id, guest_name, guest_email, guest_phone, preferred_date, preferred_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.OwnerID, t.GuestName, t.GuestEmail, t.GuestPhone, t.PreferredDate, t.PreferredTime, t.Notes).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *PGTastingRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.TastingRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, guest_name, guest_email, guest_phone, preferred_date, preferred_time, notes, created_at
		FROM food_tastings WHERE owner_id=$1 ORDER BY preferred_date DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tastings := make([]domain.TastingRequest, 0)
	for rows.Next() {
		var t domain.TastingRequest
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.GuestName, &t.GuestEmail, &t.GuestPhone,
			&t.PreferredDate, &t.PreferredTime, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		tastings = append(tastings, t)
	}
	return tastings, rows.Err()
}

var _ TastingRepository = (*PGTastingRepository)(nil)
