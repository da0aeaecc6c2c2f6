package domain

import (
	"math"
	"time"
)

// The three payment tiers every booking with a positive total is split
// into. A tenth reserves the date, the bulk lands a month out, the
// remainder ten days before the event.
var scheduleTiers = []struct {
	Type     PaymentType
	Fraction float64
}{
	{PaymentTypeReservation, 0.10},
	{PaymentTypeDownPayment, 0.70},
	{PaymentTypeFinal, 0.20},
}

// BuildSchedule derives the payment plan for a booking. Returns nil
// when there is nothing to charge. Each amount is rounded to the cent
// independently; the residual against the total is at most two cents
// and is left unassigned, matching the invoices finance reconciles by
// hand.
func BuildSchedule(bookingID, totalCostCents int64, eventDate, now time.Time) []Payment {
	if totalCostCents <= 0 {
		return nil
	}

	due := []time.Time{
		now,
		eventDate.AddDate(0, -1, 0),
		eventDate.AddDate(0, 0, -10),
	}

	payments := make([]Payment, 0, len(scheduleTiers))
	for i, tier := range scheduleTiers {
		payments = append(payments, Payment{
			BookingID:   bookingID,
			AmountCents: int64(math.Round(float64(totalCostCents) * tier.Fraction)),
			Type:        tier.Type,
			Status:      PaymentStatusPending,
			DueDate:     due[i],
			PaymentDate: now,
		})
	}
	return payments
}
