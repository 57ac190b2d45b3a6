// Package repository defines error values that are reused across multiple
// repositories. Sentinel values let higher layers such as the service
// package distinguish failure scenarios without depending on driver
// specifics: a missing row surfaces as sql.ErrNoRows from the individual
// lookup methods, while the values below cover cross-repository conditions.
package repository

import "errors"

// ErrUserExists is returned by UserRepo.InsertTx when the username is
// already taken. The existence check and the insert run inside the same
// transaction, so two concurrent creations cannot both pass the check.
var ErrUserExists = errors.New("username already exists")

// ErrFlightNotFound is returned when a flight id does not exist in the
// static flight data.
var ErrFlightNotFound = errors.New("flight not found")
