// Package queue defines message payloads exchanged over the message broker.
package queue

// CancellationEvent is published when an administrator cancels a
// reservation-hour whose owner has a contact on file. It carries enough for
// a notifier to address and word the notice without querying the database.
type CancellationEvent struct {
	ReservationID string `json:"reservation_id"`
	BookingCode   string `json:"booking_code"`
	OwnerID       string `json:"owner_id"`
	OwnerName     string `json:"owner_name"`
	OwnerContact  string `json:"owner_contact"`
	Summary       string `json:"summary"`
	CancelledAt   string `json:"cancelled_at"`
}
