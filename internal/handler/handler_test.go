package handler_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoli101/flight-reservation/internal/handler"
	"github.com/leoli101/flight-reservation/internal/middleware"
	"github.com/leoli101/flight-reservation/internal/repository"
	"github.com/leoli101/flight-reservation/internal/router"
	"github.com/leoli101/flight-reservation/internal/service"
	"github.com/leoli101/flight-reservation/internal/session"
	"github.com/leoli101/flight-reservation/internal/txn"
)

const testSecret = "handler-test-secret"

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

// newTestServer assembles the full HTTP stack over a throwaway sqlite
// database, mirroring the wiring in cmd/server.
func newTestServer(t *testing.T) (*echo.Echo, *sql.DB) {
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

	e := echo.New()
	e.Use(middleware.ResolveSession(session.NewStore(), testSecret, 60))
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewAuthHandler(service.NewAuthService(users, coord)),
		handler.NewSearchHandler(service.NewSearchService(flights)),
		handler.NewReservationHandler(service.NewReservationService(reservations, capacity, users, coord)),
		nil,
	)
	return e, db
}

func seedFlight(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO flights (fid, day_of_month, carrier_id, flight_num, origin_city, dest_city, actual_time, capacity, price, canceled)
		 VALUES (1, 14, 'AA', '10', 'Seattle WA', 'Boston MA', 60, 10, 100, 0)`)
	require.NoError(t, err)
}

func do(t *testing.T, e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"alice","password":"secret","init_amount":500}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Created user alice")

	rec = do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"alice","password":"other","init_amount":100}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"bob","password":"secret","init_amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", "",
		`{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", "",
		`{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged in as alice")
}

func TestLoginTwiceOnSameSession(t *testing.T) {
	e, _ := newTestServer(t)
	do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"alice","password":"secret","init_amount":500}`)

	rec := do(t, e, http.MethodPost, "/v1/auth/login", "",
		`{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-Session-Token")
	require.NotEmpty(t, token)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", token,
		`{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingRequiresLogin(t *testing.T) {
	e, db := newTestServer(t)
	seedFlight(t, db)

	rec := do(t, e, http.MethodPost, "/v1/reservations", "", `{"itinerary_id":0}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFullReservationFlow(t *testing.T) {
	e, db := newTestServer(t)
	seedFlight(t, db)

	do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"alice","password":"secret","init_amount":500}`)
	rec := do(t, e, http.MethodPost, "/v1/auth/login", "",
		`{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-Session-Token")
	require.NotEmpty(t, token)

	// Search caches itinerary 0 on the session.
	rec = do(t, e, http.MethodGet, "/v1/flights/search?origin=Seattle+WA&dest=Boston+MA&day=14&count=5", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Itinerary 0: 1 flight(s), 60 minutes")

	rec = do(t, e, http.MethodPost, "/v1/reservations", token, `{"itinerary_id":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Booked flight(s), reservation ID: 1")

	rec = do(t, e, http.MethodPost, "/v1/reservations/1/pay", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Paid reservation: 1 remaining balance: 400")

	rec = do(t, e, http.MethodGet, "/v1/reservations", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reservation 1 paid: true:")

	rec = do(t, e, http.MethodDelete, "/v1/reservations/1", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Canceled reservation 1")

	rec = do(t, e, http.MethodGet, "/v1/reservations", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No reservations found")
}

func TestSearchNoMatch(t *testing.T) {
	e, db := newTestServer(t)
	seedFlight(t, db)

	rec := do(t, e, http.MethodGet, "/v1/flights/search?origin=Seattle+WA&dest=Boston+MA&day=20&count=5", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No flights match your selection")
}

func TestSearchValidatesParams(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/v1/flights/search?origin=Seattle+WA&day=14", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/flights/search?origin=A&dest=B&day=32", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayInsufficientFunds(t *testing.T) {
	e, db := newTestServer(t)
	seedFlight(t, db)

	do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"alice","password":"secret","init_amount":40}`)
	rec := do(t, e, http.MethodPost, "/v1/auth/login", "",
		`{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-Session-Token")

	rec = do(t, e, http.MethodGet, "/v1/flights/search?origin=Seattle+WA&dest=Boston+MA&day=14&count=5", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/reservations", token, `{"itinerary_id":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/reservations/1/pay", token, "")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "User has only 40 in account but itinerary costs 100")
}

func TestCancelUnknownReservation(t *testing.T) {
	e, db := newTestServer(t)
	seedFlight(t, db)

	do(t, e, http.MethodPost, "/v1/auth/register", "",
		`{"username":"alice","password":"secret","init_amount":500}`)
	rec := do(t, e, http.MethodPost, "/v1/auth/login", "",
		`{"username":"alice","password":"secret"}`)
	token := rec.Header().Get("X-Session-Token")

	rec = do(t, e, http.MethodDelete, "/v1/reservations/7", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
