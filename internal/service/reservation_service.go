package service

import (
	"context"
	"database/sql"

	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/repository"
	"github.com/leoli101/flight-reservation/internal/session"
	"github.com/leoli101/flight-reservation/internal/txn"
)

// ReservationService implements booking, payment, cancellation and listing.
// Every mutating operation runs its read-then-decide-then-write sequence
// inside one transaction via the coordinator, which also absorbs
// serialization conflicts by retrying the whole body.
type ReservationService struct {
	reservations *repository.ReservationRepo
	capacity     *repository.CapacityRepo
	users        *repository.UserRepo
	coord        *txn.Coordinator
}

// NewReservationService builds a ReservationService.
func NewReservationService(reservations *repository.ReservationRepo, capacity *repository.CapacityRepo, users *repository.UserRepo, coord *txn.Coordinator) *ReservationService {
	return &ReservationService{reservations: reservations, capacity: capacity, users: users, coord: coord}
}

// Book reserves the itinerary with the given id from the session's most
// recent search and returns the new reservation. Within one transaction it
// rejects a second booking on the same calendar day, checks every leg still
// has a free seat, decrements the seat counters and inserts the reservation
// row with the next id in the global sequence. On any failure nothing
// persists.
func (s *ReservationService) Book(ctx context.Context, sess *session.Session, itineraryID int) (model.Reservation, error) {
	if !sess.LoggedIn() {
		return model.Reservation{}, ErrNotLoggedIn
	}
	itinerary, ok := sess.Itinerary(itineraryID)
	if !ok {
		return model.Reservation{}, &UnknownItineraryError{ID: itineraryID}
	}
	username := sess.Username()

	var booked model.Reservation
	err := s.coord.Run(ctx, func(tx *sql.Tx) error {
		sameDay, err := s.reservations.SameDayExistsTx(ctx, tx, username, itinerary.First.DayOfMonth)
		if err != nil {
			return err
		}
		if sameDay {
			return ErrDuplicateDayBooking
		}

		// Capacity is checked for every leg before any counter is touched.
		seats1, err := s.capacity.RemainingSeatsTx(ctx, tx, itinerary.First.FID)
		if err != nil {
			return err
		}
		seats2 := 0
		if itinerary.Second != nil {
			if seats2, err = s.capacity.RemainingSeatsTx(ctx, tx, itinerary.Second.FID); err != nil {
				return err
			}
		}
		if seats1 < 1 || (itinerary.Second != nil && seats2 < 1) {
			return ErrInsufficientCapacity
		}
		if err := s.capacity.SetSeatsTx(ctx, tx, itinerary.First.FID, seats1-1); err != nil {
			return err
		}
		if itinerary.Second != nil {
			if err := s.capacity.SetSeatsTx(ctx, tx, itinerary.Second.FID, seats2-1); err != nil {
				return err
			}
		}

		rid, err := s.reservations.NextIDTx(ctx, tx)
		if err != nil {
			return err
		}
		booked = model.Reservation{
			RID:      rid,
			Username: username,
			FID1:     itinerary.First.FID,
			FID2:     itinerary.SecondFID(),
			Price:    itinerary.TotalPrice(),
		}
		return s.reservations.InsertTx(ctx, tx, booked)
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return booked, nil
}

// Pay debits the reservation's price from the user's balance and marks it
// paid, atomically. Returns the paid reservation and the remaining balance.
// A reservation that is absent, already paid, canceled, or owned by someone
// else uniformly fails with ErrUnpaidReservationNotFound.
func (s *ReservationService) Pay(ctx context.Context, sess *session.Session, rid int) (model.Reservation, int, error) {
	if !sess.LoggedIn() {
		return model.Reservation{}, 0, ErrNotLoggedIn
	}
	username := sess.Username()

	var paid model.Reservation
	var remaining int
	err := s.coord.Run(ctx, func(tx *sql.Tx) error {
		res, err := s.reservations.GetUnpaidTx(ctx, tx, rid, username)
		if err == sql.ErrNoRows {
			return ErrUnpaidReservationNotFound
		}
		if err != nil {
			return err
		}
		user, err := s.users.GetTx(ctx, tx, username)
		if err != nil {
			return err
		}
		if user.Balance < res.Price {
			return &InsufficientFundsError{Balance: user.Balance, Price: res.Price}
		}
		remaining = user.Balance - res.Price
		if err := s.users.UpdateBalanceTx(ctx, tx, username, remaining); err != nil {
			return err
		}
		if err := s.reservations.MarkPaidTx(ctx, tx, rid); err != nil {
			return err
		}
		res.Paid = true
		paid = res
		return nil
	})
	if err != nil {
		return model.Reservation{}, 0, err
	}
	return paid, remaining, nil
}

// Cancel soft-deletes the user's reservation, refunds its price when it was
// paid, and returns one free seat to each leg. The reservation id stays
// burned: later bookings can never receive it again. Returns the canceled
// reservation.
func (s *ReservationService) Cancel(ctx context.Context, sess *session.Session, rid int) (model.Reservation, error) {
	if !sess.LoggedIn() {
		return model.Reservation{}, ErrNotLoggedIn
	}
	username := sess.Username()

	var canceled model.Reservation
	err := s.coord.Run(ctx, func(tx *sql.Tx) error {
		res, err := s.reservations.GetActiveTx(ctx, tx, rid, username)
		if err == sql.ErrNoRows {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		if res.Paid {
			user, err := s.users.GetTx(ctx, tx, username)
			if err != nil {
				return err
			}
			if err := s.users.UpdateBalanceTx(ctx, tx, username, user.Balance+res.Price); err != nil {
				return err
			}
		}
		seats, err := s.capacity.RemainingSeatsTx(ctx, tx, res.FID1)
		if err != nil {
			return err
		}
		if err := s.capacity.SetSeatsTx(ctx, tx, res.FID1, seats+1); err != nil {
			return err
		}
		if res.FID2 != model.NoSecondLeg {
			seats, err := s.capacity.RemainingSeatsTx(ctx, tx, res.FID2)
			if err != nil {
				return err
			}
			if err := s.capacity.SetSeatsTx(ctx, tx, res.FID2, seats+1); err != nil {
				return err
			}
		}
		if err := s.reservations.MarkCanceledTx(ctx, tx, rid); err != nil {
			return err
		}
		res.Canceled = true
		canceled = res
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return canceled, nil
}

// ReservationDetail joins a reservation with the full flight details of its
// one or two legs for display.
type ReservationDetail struct {
	Reservation model.Reservation
	First       model.Flight
	Second      *model.Flight
}

// List returns the user's non-canceled reservations ordered by reservation
// id ascending, each with its flight details, read within one transaction
// so the listing is internally consistent. Returns ErrNoReservations when
// the user holds none.
func (s *ReservationService) List(ctx context.Context, sess *session.Session) ([]ReservationDetail, error) {
	if !sess.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	username := sess.Username()

	var details []ReservationDetail
	err := s.coord.Run(ctx, func(tx *sql.Tx) error {
		details = details[:0]
		active, err := s.reservations.ListActiveTx(ctx, tx, username)
		if err != nil {
			return err
		}
		for _, res := range active {
			d := ReservationDetail{Reservation: res}
			if d.First, err = s.reservations.GetFlightTx(ctx, tx, res.FID1); err != nil {
				return err
			}
			if res.FID2 != model.NoSecondLeg {
				second, err := s.reservations.GetFlightTx(ctx, tx, res.FID2)
				if err != nil {
					return err
				}
				d.Second = &second
			}
			details = append(details, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNoReservations
	}
	return details, nil
}
