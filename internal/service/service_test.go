package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/repository"
	"github.com/leoli101/flight-reservation/internal/session"
	"github.com/leoli101/flight-reservation/internal/txn"
)

// testEnv wires the services against a throwaway sqlite database with the
// production schema. sqlite serializes writers on a single file, so the
// coordinator runs with the store-default isolation here.
type testEnv struct {
	db           *sql.DB
	auth         *AuthService
	search       *SearchService
	reservations *ReservationService
}

var testSchema = []string{
	`CREATE TABLE users (
		username TEXT PRIMARY KEY,
		hash     BLOB NOT NULL,
		salt     BLOB NOT NULL,
		balance  INTEGER NOT NULL
	)`,
	`CREATE TABLE flights (
		fid          INTEGER PRIMARY KEY,
		day_of_month INTEGER NOT NULL,
		carrier_id   TEXT NOT NULL,
		flight_num   TEXT NOT NULL,
		origin_city  TEXT NOT NULL,
		dest_city    TEXT NOT NULL,
		actual_time  INTEGER NOT NULL,
		capacity     INTEGER NOT NULL,
		price        INTEGER NOT NULL,
		canceled     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE reservations (
		rid      INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		fid1     INTEGER NOT NULL,
		fid2     INTEGER NOT NULL,
		paid     INTEGER NOT NULL,
		canceled INTEGER NOT NULL,
		price    INTEGER NOT NULL
	)`,
	`CREATE TABLE capacity (
		fid        INTEGER PRIMARY KEY,
		free_seats INTEGER NOT NULL
	)`,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	users := repository.NewUserRepo(db)
	flights := repository.NewFlightRepo(db)
	capacity := repository.NewCapacityRepo(db, flights)
	reservations := repository.NewReservationRepo(db)
	coord := txn.NewCoordinator(db, nil, nil)

	return &testEnv{
		db:           db,
		auth:         NewAuthService(users, coord),
		search:       NewSearchService(flights),
		reservations: NewReservationService(reservations, capacity, users, coord),
	}
}

func (e *testEnv) addFlight(t *testing.T, f model.Flight) {
	t.Helper()
	_, err := e.db.Exec(
		`INSERT INTO flights (fid, day_of_month, carrier_id, flight_num, origin_city, dest_city, actual_time, capacity, price, canceled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		f.FID, f.DayOfMonth, f.CarrierID, f.FlightNum, f.OriginCity, f.DestCity, f.Duration, f.Capacity, f.Price)
	require.NoError(t, err)
}

// loggedIn creates the account and returns a session authenticated as it.
func (e *testEnv) loggedIn(t *testing.T, username string, balance int) *session.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.auth.CreateAccount(ctx, username, "pw-"+username, balance))
	sess := session.New()
	require.NoError(t, e.auth.Login(ctx, sess, username, "pw-"+username))
	return sess
}

func (e *testEnv) balance(t *testing.T, username string) int {
	t.Helper()
	var balance int
	require.NoError(t, e.db.QueryRow(
		`SELECT balance FROM users WHERE username = ?`, username).Scan(&balance))
	return balance
}

func (e *testEnv) freeSeats(t *testing.T, fid int) int {
	t.Helper()
	var seats int
	require.NoError(t, e.db.QueryRow(
		`SELECT free_seats FROM capacity WHERE fid = ?`, fid).Scan(&seats))
	return seats
}
