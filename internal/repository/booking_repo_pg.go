package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mavvricks/eloque/internal/domain"
)

type BookingRepository interface {
	CreateAdmitted(ctx context.Context, b *domain.Booking, caps domain.Caps) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetOwned(ctx context.Context, id, ownerID int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
	UpdateFields(ctx context.Context, id, ownerID int64, upd domain.BookingUpdate) (*domain.Booking, error)
	UpdateEventDetails(ctx context.Context, id, ownerID int64, det domain.EventDetails) error
	DayLoad(ctx context.Context, date time.Time) (domain.DayLoad, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error)
	SetSchedulePending(ctx context.Context, id int64, pending bool) error
	ListSchedulePending(ctx context.Context) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, owner_id, event_date, event_time, pax, budget_cents, total_cost_cents, status,
	client_full_name, client_email, client_phone,
	venue_address, venue_street, venue_city, venue_province, venue_zip_code,
	reservation_time, serving_time, event_timeline, color_motif,
	schedule_pending, created_at, updated_at`

// CreateAdmitted performs the capacity check and the insert inside one
// transaction. An advisory lock keyed on the event date serializes
// admissions for that date, so two near-simultaneous creations cannot
// both read the aggregate as available and overshoot the caps.
func (r *PGBookingRepository) CreateAdmitted(ctx context.Context, b *domain.Booking, caps domain.Caps) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	dateKey := b.EventDate.Format(domain.DateLayout)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, dateKey); err != nil {
		return err
	}

	var load domain.DayLoad
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(pax), 0) FROM bookings WHERE event_date = $1 AND status <> 'Cancelled'`,
		b.EventDate).Scan(&load.Events, &load.Pax); err != nil {
		return err
	}

	if !caps.CanAdmit(load, b.Pax) {
		avail := domain.ComputeAvailability(caps, b.EventDate, load)
		return &domain.CapacityError{
			Date:            dateKey,
			RemainingPax:    avail.RemainingPax,
			RemainingEvents: avail.RemainingEvents,
		}
	}

	b.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (reference, owner_id, event_date, event_time, pax, budget_cents, total_cost_cents, status,
			client_full_name, client_email, client_phone,
			venue_address, venue_street, venue_city, venue_province, venue_zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.OwnerID, b.EventDate, b.EventTime, b.Pax, b.BudgetCents, b.TotalCostCents, b.Status,
		b.ClientFullName, b.ClientEmail, b.ClientPhone,
		b.VenueAddress, b.VenueStreet, b.VenueCity, b.VenueProvince, b.VenueZipCode).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.OwnerID, &b.EventDate, &b.EventTime, &b.Pax, &b.BudgetCents, &b.TotalCostCents, &b.Status,
		&b.ClientFullName, &b.ClientEmail, &b.ClientPhone,
		&b.VenueAddress, &b.VenueStreet, &b.VenueCity, &b.VenueProvince, &b.VenueZipCode,
		&b.ReservationTime, &b.ServingTime, &b.EventTimeline, &b.ColorMotif,
		&b.SchedulePending, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx,
		`UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, status, id))
}

func (r *PGBookingRepository) UpdateFields(ctx context.Context, id, ownerID int64, upd domain.BookingUpdate) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET
			event_date = COALESCE($1, event_date),
			event_time = COALESCE($2, event_time),
			pax = COALESCE($3, pax),
			client_full_name = COALESCE($4, client_full_name),
			client_email = COALESCE($5, client_email),
			client_phone = COALESCE($6, client_phone),
			venue_address = COALESCE($7, venue_address),
			venue_street = COALESCE($8, venue_street),
			venue_city = COALESCE($9, venue_city),
			venue_province = COALESCE($10, venue_province),
			venue_zip_code = COALESCE($11, venue_zip_code),
			updated_at = now()
		WHERE id=$12 AND owner_id=$13 RETURNING `+bookingColumns,
		upd.EventDate, upd.EventTime, upd.Pax,
		upd.ClientFullName, upd.ClientEmail, upd.ClientPhone,
		upd.VenueAddress, upd.VenueStreet, upd.VenueCity, upd.VenueProvince, upd.VenueZipCode,
		id, ownerID))
}

func (r *PGBookingRepository) UpdateEventDetails(ctx context.Context, id, ownerID int64, det domain.EventDetails) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET
			reservation_time=$1, serving_time=$2, event_timeline=$3, color_motif=$4, updated_at=now()
		WHERE id=$5 AND owner_id=$6`,
		det.ReservationTime, det.ServingTime, det.EventTimeline, det.ColorMotif, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) DayLoad(ctx context.Context, date time.Time) (domain.DayLoad, error) {
	var load domain.DayLoad
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(pax), 0) FROM bookings WHERE event_date = $1 AND status <> 'Cancelled'`,
		date).Scan(&load.Events, &load.Pax)
	return load, err
}

func (r *PGBookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY event_date ASC`)
}

func (r *PGBookingRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE owner_id=$1 ORDER BY event_date DESC`, ownerID)
}

func (r *PGBookingRepository) SetSchedulePending(ctx context.Context, id int64, pending bool) error {
	_, err := r.db.Exec(ctx, `UPDATE bookings SET schedule_pending=$1, updated_at=now() WHERE id=$2`, pending, id)
	return err
}

func (r *PGBookingRepository) ListSchedulePending(ctx context.Context) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE schedule_pending AND status <> 'Cancelled'`)
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
