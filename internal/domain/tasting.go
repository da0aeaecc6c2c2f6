package domain

import "time"

// TastingRequest is an appointment request for a food tasting session.
// Guests may file one before registering, so OwnerID is zero for
// anonymous requests and the guest contact fields carry the identity.
type TastingRequest struct {
	ID            int64
	OwnerID       int64
	GuestName     string
	GuestEmail    string
	GuestPhone    string
	PreferredDate time.Time
	PreferredTime string
	Notes         string
	CreatedAt     time.Time
}
