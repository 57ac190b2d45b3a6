package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leoli101/flight-reservation/internal/middleware"
	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/queue"
	"github.com/leoli101/flight-reservation/internal/service"
	"github.com/leoli101/flight-reservation/internal/txn"
)

// ReservationHandler exposes booking, payment, listing and cancellation.
// Each mutation publishes a lifecycle event to the broker after the
// transaction commits; publishing is best effort and never fails the
// request.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: reservations}
}

type bookReq struct {
	ItineraryID int `json:"itinerary_id"`
}

type reservationPart struct {
	RID      int    `json:"reservation_id"`
	Username string `json:"username"`
	Paid     bool   `json:"paid"`
	Price    int    `json:"price"`
}

// publishEvent fires a lifecycle event in the background.  The request
// context is done by the time the goroutine runs, so it uses its own
// deadline.
func publishEvent(eventType string, res model.Reservation) {
	event := queue.ReservationEvent{
		Type:       eventType,
		RID:        res.RID,
		Username:   res.Username,
		FID1:       res.FID1,
		Price:      res.Price,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if res.FID2 != model.NoSecondLeg {
		event.FID2 = res.FID2
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.PublishReservationEvent(ctx, event)
	}()
}

// Book handles POST /v1/reservations.  The body names an itinerary id from
// the session's most recent search.
func (h *ReservationHandler) Book(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Reservations.Book(ctx, sess, req.ItineraryID)
	if err != nil {
		var unknown *service.UnknownItineraryError
		switch {
		case errors.Is(err, service.ErrNotLoggedIn):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
		case errors.As(err, &unknown):
			return c.JSON(http.StatusNotFound, echo.Map{"error": unknown.Error()})
		case errors.Is(err, service.ErrDuplicateDayBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you cannot book two flights in the same day"})
		case errors.Is(err, service.ErrInsufficientCapacity):
			return c.JSON(http.StatusConflict, echo.Map{"error": "itinerary has no free seats left"})
		case errors.Is(err, txn.ErrRetryExhausted):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	publishEvent(queue.EventBooked, res)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":        fmt.Sprintf("Booked flight(s), reservation ID: %d", res.RID),
		"reservation_id": res.RID,
	})
}

// Pay handles POST /v1/reservations/:id/pay.  The reservation must belong
// to the logged-in user and be unpaid.
func (h *ReservationHandler) Pay(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
	}
	rid, err := strconv.Atoi(c.Param("id"))
	if err != nil || rid < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, remaining, err := h.Reservations.Pay(ctx, sess, rid)
	if err != nil {
		var funds *service.InsufficientFundsError
		switch {
		case errors.Is(err, service.ErrNotLoggedIn):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
		case errors.Is(err, service.ErrUnpaidReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": fmt.Sprintf("cannot find unpaid reservation %d under the logged in user", rid)})
		case errors.As(err, &funds):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": fmt.Sprintf("User has only %d in account but itinerary costs %d", funds.Balance, funds.Price)})
		case errors.Is(err, txn.ErrRetryExhausted):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}

	publishEvent(queue.EventPaid, res)
	return c.JSON(http.StatusOK, echo.Map{
		"message":           fmt.Sprintf("Paid reservation: %d remaining balance: %d", rid, remaining),
		"reservation_id":    rid,
		"remaining_balance": remaining,
	})
}

// List handles GET /v1/reservations.  It returns the user's active
// reservations with full flight details, ordered by reservation id.
func (h *ReservationHandler) List(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	details, err := h.Reservations.List(ctx, sess)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotLoggedIn):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
		case errors.Is(err, service.ErrNoReservations):
			return c.JSON(http.StatusOK, echo.Map{
				"message":      "No reservations found",
				"reservations": []echo.Map{},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing failed"})
	}

	out := make([]echo.Map, 0, len(details))
	for _, d := range details {
		flights := []flightPart{toFlightPart(d.First)}
		display := fmt.Sprintf("Reservation %d paid: %v:\n%s", d.Reservation.RID, d.Reservation.Paid, d.First.String())
		if d.Second != nil {
			flights = append(flights, toFlightPart(*d.Second))
			display += "\n" + d.Second.String()
		}
		out = append(out, echo.Map{
			"reservation": reservationPart{
				RID:      d.Reservation.RID,
				Username: d.Reservation.Username,
				Paid:     d.Reservation.Paid,
				Price:    d.Reservation.Price,
			},
			"flights": flights,
			"display": display,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Cancel handles DELETE /v1/reservations/:id.  The reservation row stays
// behind as canceled so its id is never handed out again; paid amounts
// are refunded and seats are released.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
	}
	rid, err := strconv.Atoi(c.Param("id"))
	if err != nil || rid < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Reservations.Cancel(ctx, sess, rid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotLoggedIn):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
		case errors.Is(err, service.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": fmt.Sprintf("cannot find reservation %d under the logged in user", rid)})
		case errors.Is(err, txn.ErrRetryExhausted):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "cancellation failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	}

	publishEvent(queue.EventCanceled, res)
	return c.JSON(http.StatusOK, echo.Map{
		"message":        fmt.Sprintf("Canceled reservation %d", rid),
		"reservation_id": rid,
	})
}
