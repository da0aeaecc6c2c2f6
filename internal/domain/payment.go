package domain

import "time"

type PaymentType string

const (
	PaymentTypeReservation PaymentType = "Reservation"
	PaymentTypeDownPayment PaymentType = "DownPayment"
	PaymentTypeFinal       PaymentType = "Final"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusVerified PaymentStatus = "Verified"
	PaymentStatusRejected PaymentStatus = "Rejected"
)

// Terminal reports whether the status can no longer change. Verified
// and Rejected never go back to Pending.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusVerified || s == PaymentStatusRejected
}

type Payment struct {
	ID          int64
	BookingID   int64
	AmountCents int64
	Type        PaymentType
	Status      PaymentStatus
	Method      string
	Reference   string
	DueDate     time.Time
	PaymentDate time.Time
	VerifiedBy  string
	VerifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overdue is computed on read, never stored.
func (p Payment) Overdue(now time.Time) bool {
	return p.Status == PaymentStatusPending && p.DueDate.Before(now)
}

// PaymentWithBooking is the finance-side projection: a payment joined
// with the booking fields the dashboards show next to it.
type PaymentWithBooking struct {
	Payment
	EventDate      time.Time
	ClientFullName string
	OwnerID        int64
}

type LedgerFilter struct {
	Status   PaymentStatus
	DateFrom time.Time
	DateTo   time.Time
}

// DateToExclusive is the first instant past the filtered range. DateTo
// carries a calendar date, so the range covers that entire day:
// payments recorded any time on DateTo are included.
func (f LedgerFilter) DateToExclusive() time.Time {
	return f.DateTo.AddDate(0, 0, 1)
}
