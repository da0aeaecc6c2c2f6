package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mavvricks/eloque/internal/domain"
)

type PaymentRepository interface {
	CreateSchedule(ctx context.Context, payments []domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	ListPending(ctx context.Context) ([]domain.PaymentWithBooking, error)
	Ledger(ctx context.Context, f domain.LedgerFilter) ([]domain.PaymentWithBooking, error)
	MarkSubmitted(ctx context.Context, paymentID, bookingID int64, method, reference string) (int64, error)
	MarkAllSubmitted(ctx context.Context, bookingID int64, method, reference string) (int64, error)
	Finalize(ctx context.Context, id int64, status domain.PaymentStatus, verifiedBy string) (*domain.Payment, error)
	VerifiedTotal(ctx context.Context, bookingID int64) (int64, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, amount_cents, payment_type, status, payment_method, reference,
	due_date, payment_date, verified_by, verified_at, created_at, updated_at`

// Payments are listed in tier order everywhere finance reads them.
const tierOrder = `CASE payment_type WHEN 'Reservation' THEN 1 WHEN 'DownPayment' THEN 2 WHEN 'Final' THEN 3 END`

// CreateSchedule inserts the whole plan atomically: either all tiers
// exist or none do.
func (r *PGPaymentRepository) CreateSchedule(ctx context.Context, payments []domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range payments {
		p := &payments[i]
		if err := tx.QueryRow(ctx, `INSERT INTO payments (booking_id, amount_cents, payment_type, status, due_date, payment_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			p.BookingID, p.AmountCents, p.Type, p.Status, p.DueDate, p.PaymentDate).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Type, &p.Status, &p.Method, &p.Reference,
		&p.DueDate, &p.PaymentDate, &p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r *PGPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 ORDER BY `+tierOrder, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// ListPending is the verification queue, earliest dues first.
func (r *PGPaymentRepository) ListPending(ctx context.Context) ([]domain.PaymentWithBooking, error) {
	return r.listJoined(ctx, `SELECT p.`+joinedColumns+`
		FROM payments p JOIN bookings b ON p.booking_id = b.id
		WHERE p.status = 'Pending'
		ORDER BY p.due_date ASC`)
}

const joinedColumns = `id, p.booking_id, p.amount_cents, p.payment_type, p.status, p.payment_method, p.reference,
	p.due_date, p.payment_date, p.verified_by, p.verified_at, p.created_at, p.updated_at,
	b.event_date, b.client_full_name, b.owner_id`

func (r *PGPaymentRepository) Ledger(ctx context.Context, f domain.LedgerFilter) ([]domain.PaymentWithBooking, error) {
	query := `SELECT p.` + joinedColumns + `
		FROM payments p JOIN bookings b ON p.booking_id = b.id
		WHERE 1=1`
	args := make([]any, 0, 3)

	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND p.status = $` + strconv.Itoa(len(args))
	}
	if !f.DateFrom.IsZero() {
		args = append(args, f.DateFrom)
		query += ` AND p.payment_date >= $` + strconv.Itoa(len(args))
	}
	if !f.DateTo.IsZero() {
		args = append(args, f.DateToExclusive())
		query += ` AND p.payment_date < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY p.payment_date DESC`

	return r.listJoined(ctx, query, args...)
}

func (r *PGPaymentRepository) listJoined(ctx context.Context, query string, args ...any) ([]domain.PaymentWithBooking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.PaymentWithBooking, 0)
	for rows.Next() {
		var p domain.PaymentWithBooking
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Type, &p.Status, &p.Method, &p.Reference,
			&p.DueDate, &p.PaymentDate, &p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt,
			&p.EventDate, &p.ClientFullName, &p.OwnerID); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkSubmitted records the client's payment submission on a single
// pending tier. Submission never verifies: status stays Pending until
// finance confirms the funds. Returns the number of rows touched; zero
// means the tier is absent or already finalized.
func (r *PGPaymentRepository) MarkSubmitted(ctx context.Context, paymentID, bookingID int64, method, reference string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET payment_method=$1, reference=$2, payment_date=now(), updated_at=now()
		WHERE id=$3 AND booking_id=$4 AND status='Pending'`, method, reference, paymentID, bookingID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PGPaymentRepository) MarkAllSubmitted(ctx context.Context, bookingID int64, method, reference string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET payment_method=$1, reference=$2, payment_date=now(), updated_at=now()
		WHERE booking_id=$3 AND status='Pending'`, method, reference, bookingID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Finalize moves a pending payment to its terminal state. The status
// predicate in the WHERE clause is the idempotence guard: a second
// call matches no row and surfaces as ErrPaymentFinalized without
// touching verified_by or verified_at.
func (r *PGPaymentRepository) Finalize(ctx context.Context, id int64, status domain.PaymentStatus, verifiedBy string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `UPDATE payments SET status=$1, verified_by=$2, verified_at=now(), updated_at=now()
		WHERE id=$3 AND status='Pending' RETURNING `+paymentColumns, status, verifiedBy, id))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var current domain.PaymentStatus
	if scanErr := r.db.QueryRow(ctx, `SELECT status FROM payments WHERE id=$1`, id).Scan(&current); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, scanErr
	}
	return nil, domain.ErrPaymentFinalized
}

func (r *PGPaymentRepository) VerifiedTotal(ctx context.Context, bookingID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE booking_id=$1 AND status='Verified'`, bookingID).Scan(&total)
	return total, err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
