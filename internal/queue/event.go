// Package queue defines the reservation lifecycle messages exchanged over
// the message broker, the best-effort publisher, and the background
// consumer that turns them into an audit log.
package queue

// Event types carried by ReservationEvent.
const (
	EventBooked   = "booked"
	EventPaid     = "paid"
	EventCanceled = "canceled"
)

// ReservationEvent is published whenever a reservation is booked, paid or
// canceled. It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type ReservationEvent struct {
	Type       string `json:"type"`
	RID        int    `json:"reservation_id"`
	Username   string `json:"username"`
	FID1       int    `json:"fid1"`
	FID2       int    `json:"fid2,omitempty"`
	Price      int    `json:"price"`
	OccurredAt string `json:"occurred_at"`
}
