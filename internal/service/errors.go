// Package service implements the reservation protocol on top of the
// repository layer: account creation and login, itinerary search and
// ranking, and the transactional book/pay/cancel/list operations. Expected
// outcomes are returned as the typed errors below rather than raw store
// errors, so handlers can map each to its response without string matching.
package service

import (
	"errors"
	"fmt"
)

// Authentication outcomes.
var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("user already logged in")
	ErrUserNotFound    = errors.New("user not found")
	ErrBadCredentials  = errors.New("bad credentials")
	ErrDuplicateUser   = errors.New("username already taken")
)

// Validation outcomes.
var ErrInvalidAmount = errors.New("initial amount must be non-negative")

// Business-rule outcomes.
var (
	ErrDuplicateDayBooking = errors.New("user already has a reservation on that day")
	ErrInsufficientCapacity = errors.New("no seats left on one of the legs")
	ErrUnpaidReservationNotFound = errors.New("no unpaid reservation with that id for this user")
	ErrReservationNotFound = errors.New("no active reservation with that id for this user")
	ErrNoReservations = errors.New("user has no reservations")
)

// UnknownItineraryError reports a booking attempt against an itinerary id
// that the session's most recent search did not produce.
type UnknownItineraryError struct {
	ID int
}

func (e *UnknownItineraryError) Error() string {
	return fmt.Sprintf("no such itinerary %d", e.ID)
}

// InsufficientFundsError reports a payment attempt the balance cannot
// cover; both figures are surfaced to the user.
type InsufficientFundsError struct {
	Balance int
	Price   int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("user has only %d in account but itinerary costs %d", e.Balance, e.Price)
}
