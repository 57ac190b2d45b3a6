package model

// Reservation records one user's booking of an itinerary. It mirrors the
// `reservations` table. Reservation ids are assigned from a strictly
// increasing sequence shared by all users and are never reused, even after
// cancellation. Cancellation is a soft delete: the row is kept with
// Canceled set so the id stays burned and the history stays auditable.
//
// Fields:
//  RID      – globally unique reservation id, 1-based.
//  Username – owner of the reservation.
//  FID1     – first (or only) flight leg.
//  FID2     – second leg, or NoSecondLeg for a direct itinerary.
//  Paid     – flips false→true exactly once, on payment.
//  Canceled – terminal; canceled reservations never appear in listings.
//  Price    – sum of the leg prices at booking time.
type Reservation struct {
	RID      int    // reservations.rid
	Username string // reservations.username
	FID1     int    // reservations.fid1
	FID2     int    // reservations.fid2
	Paid     bool   // reservations.paid
	Canceled bool   // reservations.canceled
	Price    int    // reservations.price
}
