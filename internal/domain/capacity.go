package domain

import "time"

// Caps are the per-date ceilings on aggregate guest count and event
// count. Both are checked on admission; either one being reached makes
// the date full.
type Caps struct {
	MaxPaxPerDay    int
	MaxEventsPerDay int
}

func DefaultCaps() Caps {
	return Caps{MaxPaxPerDay: 3500, MaxEventsPerDay: 10}
}

// DayLoad is the aggregate over non-cancelled bookings on a single
// date. It is always derived by query, never maintained as a counter.
type DayLoad struct {
	Pax    int
	Events int
}

type Availability struct {
	Date            string `json:"date"`
	RemainingPax    int    `json:"remainingPax"`
	RemainingEvents int    `json:"remainingEvents"`
	CurrentPax      int    `json:"currentPax"`
	CurrentEvents   int    `json:"currentEvents"`
	IsFull          bool   `json:"isFull"`
}

func ComputeAvailability(caps Caps, date time.Time, load DayLoad) Availability {
	remainingPax := caps.MaxPaxPerDay - load.Pax
	if remainingPax < 0 {
		remainingPax = 0
	}
	remainingEvents := caps.MaxEventsPerDay - load.Events
	if remainingEvents < 0 {
		remainingEvents = 0
	}
	return Availability{
		Date:            date.Format(DateLayout),
		RemainingPax:    remainingPax,
		RemainingEvents: remainingEvents,
		CurrentPax:      load.Pax,
		CurrentEvents:   load.Events,
		IsFull:          remainingPax == 0 || remainingEvents == 0,
	}
}

// CanAdmit decides whether a prospective booking of the given size
// fits on top of the current load. A booking straddling a cap is
// rejected in full.
func (c Caps) CanAdmit(load DayLoad, pax int) bool {
	if load.Events >= c.MaxEventsPerDay {
		return false
	}
	return load.Pax+pax <= c.MaxPaxPerDay
}

const DateLayout = "2006-01-02"
