package domain

import (
	"math"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusCompleted BookingStatus = "Completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// CancelLockDays is the client self-service window: edits and
// cancellations are refused once the event is closer than this.
const CancelLockDays = 7

type Booking struct {
	ID              int64
	Reference       string
	OwnerID         int64
	EventDate       time.Time
	EventTime       string
	Pax             int
	BudgetCents     int64
	TotalCostCents  int64
	Status          BookingStatus
	ClientFullName  string
	ClientEmail     string
	ClientPhone     string
	VenueAddress    string
	VenueStreet     string
	VenueCity       string
	VenueProvince   string
	VenueZipCode    string
	ReservationTime string
	ServingTime     string
	EventTimeline   string
	ColorMotif      string
	SchedulePending bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookingUpdate carries the owner-editable fields. Nil pointers leave
// the stored value untouched.
type BookingUpdate struct {
	EventDate      *time.Time
	EventTime      *string
	Pax            *int
	ClientFullName *string
	ClientEmail    *string
	ClientPhone    *string
	VenueAddress   *string
	VenueStreet    *string
	VenueCity      *string
	VenueProvince  *string
	VenueZipCode   *string
}

func (u BookingUpdate) Empty() bool {
	return u.EventDate == nil && u.EventTime == nil && u.Pax == nil &&
		u.ClientFullName == nil && u.ClientEmail == nil && u.ClientPhone == nil &&
		u.VenueAddress == nil && u.VenueStreet == nil && u.VenueCity == nil &&
		u.VenueProvince == nil && u.VenueZipCode == nil
}

// EventDetails are the free-form fields the client fills in from the
// dashboard after booking. They are not lock-window gated.
type EventDetails struct {
	ReservationTime string
	ServingTime     string
	EventTimeline   string
	ColorMotif      string
}

// DaysUntil counts whole days from now to the event date, rounding up.
func DaysUntil(eventDate, now time.Time) int {
	return int(math.Ceil(eventDate.Sub(now).Hours() / 24))
}

// InsideLockWindow reports whether the event is too close for client
// self-service changes. Exactly CancelLockDays out is still allowed.
func InsideLockWindow(eventDate, now time.Time) bool {
	return DaysUntil(eventDate, now) < CancelLockDays
}
