package repository

import (
	"context"
	"database/sql"

	"github.com/leoli101/flight-reservation/internal/model"
)

// FlightRepo provides read-only access to the static `flights` table.
// Flight rows are seeded externally and never mutated by this service, so
// all queries here run outside any transaction.
type FlightRepo struct{ db *sql.DB }

// NewFlightRepo returns a FlightRepo bound to the given database.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

const flightColumns = "fid, day_of_month, carrier_id, flight_num, origin_city, dest_city, actual_time, capacity, price"

func scanFlight(row interface{ Scan(...any) error }, f *model.Flight) error {
	return row.Scan(&f.FID, &f.DayOfMonth, &f.CarrierID, &f.FlightNum,
		&f.OriginCity, &f.DestCity, &f.Duration, &f.Capacity, &f.Price)
}

// GetByID fetches one flight by fid. Returns ErrFlightNotFound when the fid
// does not exist.
func (r *FlightRepo) GetByID(ctx context.Context, fid int) (model.Flight, error) {
	var f model.Flight
	err := scanFlight(r.db.QueryRowContext(ctx,
		"SELECT "+flightColumns+" FROM flights WHERE fid = ?", fid), &f)
	if err == sql.ErrNoRows {
		return f, ErrFlightNotFound
	}
	return f, err
}

// StaticCapacityTx reads a flight's static seat capacity inside the given
// transaction. The capacity ledger uses it to seed a flight's live seat
// counter on first access.
func (r *FlightRepo) StaticCapacityTx(ctx context.Context, tx *sql.Tx, fid int) (int, error) {
	var capacity int
	err := tx.QueryRowContext(ctx,
		"SELECT capacity FROM flights WHERE fid = ?", fid).Scan(&capacity)
	if err == sql.ErrNoRows {
		return 0, ErrFlightNotFound
	}
	return capacity, err
}

// Direct returns up to limit non-canceled direct flights between the two
// cities on the given day, ordered by ascending flight time.
func (r *FlightRepo) Direct(ctx context.Context, origin, dest string, day, limit int) ([]model.Flight, error) {
	const q = "SELECT " + flightColumns + " FROM flights" +
		" WHERE origin_city = ? AND dest_city = ? AND day_of_month = ? AND canceled = 0" +
		" ORDER BY actual_time ASC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, origin, dest, day, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flights := make([]model.Flight, 0, limit)
	for rows.Next() {
		var f model.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// FlightPair is one candidate one-connection itinerary: the first leg
// departs the origin, the second arrives at the destination, and they meet
// at the same connecting city on the same day.
type FlightPair struct {
	First  model.Flight
	Second model.Flight
}

// OneHop returns up to limit non-canceled flight pairs connecting the two
// cities on the given day, ordered by ascending combined flight time.
func (r *FlightRepo) OneHop(ctx context.Context, origin, dest string, day, limit int) ([]FlightPair, error) {
	const q = `SELECT
			f1.fid, f1.day_of_month, f1.carrier_id, f1.flight_num, f1.origin_city, f1.dest_city, f1.actual_time, f1.capacity, f1.price,
			f2.fid, f2.day_of_month, f2.carrier_id, f2.flight_num, f2.origin_city, f2.dest_city, f2.actual_time, f2.capacity, f2.price
		FROM flights AS f1, flights AS f2
		WHERE f1.origin_city = ? AND f2.dest_city = ?
		  AND f1.dest_city = f2.origin_city
		  AND f1.day_of_month = ? AND f2.day_of_month = f1.day_of_month
		  AND f1.canceled = 0 AND f2.canceled = 0
		ORDER BY f1.actual_time + f2.actual_time ASC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, origin, dest, day, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pairs := make([]FlightPair, 0, limit)
	for rows.Next() {
		var p FlightPair
		if err := rows.Scan(
			&p.First.FID, &p.First.DayOfMonth, &p.First.CarrierID, &p.First.FlightNum,
			&p.First.OriginCity, &p.First.DestCity, &p.First.Duration, &p.First.Capacity, &p.First.Price,
			&p.Second.FID, &p.Second.DayOfMonth, &p.Second.CarrierID, &p.Second.FlightNum,
			&p.Second.OriginCity, &p.Second.DestCity, &p.Second.Duration, &p.Second.Capacity, &p.Second.Price,
		); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
