package repository

import (
	"context"
	"database/sql"

	"github.com/leoli101/flight-reservation/internal/model"
)

// ReservationRepo owns the `reservations` table. Reservation ids come from
// NextIDTx, which derives the next id from the maximum ever assigned so the
// sequence is strictly increasing and never reused; cancellation keeps the
// row (canceled = 1) so the maximum is stable across cancellations.
type ReservationRepo struct{ db *sql.DB }

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "rid, username, fid1, fid2, paid, canceled, price"

func scanReservation(row interface{ Scan(...any) error }, res *model.Reservation) error {
	return row.Scan(&res.RID, &res.Username, &res.FID1, &res.FID2,
		&res.Paid, &res.Canceled, &res.Price)
}

// NextIDTx computes the next reservation id inside the transaction: one
// greater than the maximum id ever assigned, or 1 for the first booking.
// Under serializable isolation two concurrent bookings cannot both commit
// with the same id.
func (r *ReservationRepo) NextIDTx(ctx context.Context, tx *sql.Tx) (int, error) {
	var next int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(rid), 0) + 1 FROM reservations").Scan(&next)
	return next, err
}

// InsertTx stores a new reservation row inside the transaction.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res model.Reservation) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (rid, username, fid1, fid2, paid, canceled, price) VALUES (?, ?, ?, ?, ?, ?, ?)",
		res.RID, res.Username, res.FID1, res.FID2, res.Paid, res.Canceled, res.Price)
	return err
}

// SameDayExistsTx reports whether the user already holds a non-canceled
// reservation whose first leg departs on the given day of month.
func (r *ReservationRepo) SameDayExistsTx(ctx context.Context, tx *sql.Tx, username string, day int) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations AS r, flights AS f
		WHERE f.fid = r.fid1 AND r.username = ? AND r.canceled = 0 AND f.day_of_month = ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, username, day).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetUnpaidTx fetches the reservation with this id belonging to this user
// that has not been paid or canceled. Returns sql.ErrNoRows when no such
// row exists, which uniformly covers "already paid", "not yours" and
// "does not exist".
func (r *ReservationRepo) GetUnpaidTx(ctx context.Context, tx *sql.Tx, rid int, username string) (model.Reservation, error) {
	var res model.Reservation
	err := scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE rid = ? AND username = ? AND paid = 0 AND canceled = 0",
		rid, username), &res)
	return res, err
}

// GetActiveTx fetches the non-canceled reservation with this id belonging
// to this user. Returns sql.ErrNoRows when absent.
func (r *ReservationRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, rid int, username string) (model.Reservation, error) {
	var res model.Reservation
	err := scanReservation(tx.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE rid = ? AND username = ? AND canceled = 0",
		rid, username), &res)
	return res, err
}

// MarkPaidTx flips the paid flag inside the transaction.
func (r *ReservationRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, rid int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET paid = 1 WHERE rid = ?", rid)
	return err
}

// MarkCanceledTx soft-deletes the reservation. The row is retained so the
// rid can never be handed out again by NextIDTx.
func (r *ReservationRepo) MarkCanceledTx(ctx context.Context, tx *sql.Tx, rid int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET canceled = 1 WHERE rid = ?", rid)
	return err
}

// ListActiveTx returns the user's non-canceled reservations ordered by
// reservation id ascending, inside the transaction so the listing is
// consistent with the flight joins made by the caller.
func (r *ReservationRepo) ListActiveTx(ctx context.Context, tx *sql.Tx, username string) ([]model.Reservation, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE username = ? AND canceled = 0 ORDER BY rid ASC",
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetFlightTx reads one flight row inside the transaction; the listing path
// joins flight details to each reservation leg within a single transaction.
func (r *ReservationRepo) GetFlightTx(ctx context.Context, tx *sql.Tx, fid int) (model.Flight, error) {
	var f model.Flight
	err := scanFlight(tx.QueryRowContext(ctx,
		"SELECT "+flightColumns+" FROM flights WHERE fid = ?", fid), &f)
	if err == sql.ErrNoRows {
		return f, ErrFlightNotFound
	}
	return f, err
}
