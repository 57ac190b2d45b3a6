package repository

import (
	"context"
	"database/sql"
)

// CapacityRepo owns the `capacity` table, the live remaining-seat counter
// per flight. A flight's row is materialized lazily on first access, seeded
// from the static flight capacity; from then on it is the sole source of
// truth for that flight's free seats.
//
// Every method runs inside the caller's ambient transaction. The booking
// flow reads the counter and decrements it in the same transaction, so the
// read-or-create and the later write cannot be split by a concurrent booker.
type CapacityRepo struct {
	db      *sql.DB
	flights *FlightRepo
}

// NewCapacityRepo returns a CapacityRepo backed by the given database and
// using flights to seed counters from static capacity.
func NewCapacityRepo(db *sql.DB, flights *FlightRepo) *CapacityRepo {
	return &CapacityRepo{db: db, flights: flights}
}

// RemainingSeatsTx returns the flight's free seat count. If the flight has
// no capacity row yet, one is inserted seeded with the static capacity and
// that value is returned. Returns ErrFlightNotFound for an unknown fid.
func (r *CapacityRepo) RemainingSeatsTx(ctx context.Context, tx *sql.Tx, fid int) (int, error) {
	var seats int
	err := tx.QueryRowContext(ctx,
		"SELECT free_seats FROM capacity WHERE fid = ?", fid).Scan(&seats)
	if err == nil {
		return seats, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	seats, err = r.flights.StaticCapacityTx(ctx, tx, fid)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO capacity (fid, free_seats) VALUES (?, ?)", fid, seats); err != nil {
		return 0, err
	}
	return seats, nil
}

// SetSeatsTx stores the post-adjustment free seat count. The caller checks
// the value cannot go negative before any mutation; there is no database
// constraint backing that invariant.
func (r *CapacityRepo) SetSeatsTx(ctx context.Context, tx *sql.Tx, fid, seats int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE capacity SET free_seats = ? WHERE fid = ?", seats, fid)
	return err
}
