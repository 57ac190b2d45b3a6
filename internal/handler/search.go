package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leoli101/flight-reservation/internal/middleware"
	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/service"
)

// SearchHandler answers itinerary search queries.  The ranked result also
// lands in the caller's session so a later booking can refer to an
// itinerary by its position in this response.
type SearchHandler struct {
	Search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{Search: search}
}

type flightPart struct {
	FID        int    `json:"fid"`
	DayOfMonth int    `json:"day_of_month"`
	CarrierID  string `json:"carrier_id"`
	FlightNum  string `json:"flight_num"`
	OriginCity string `json:"origin_city"`
	DestCity   string `json:"dest_city"`
	Duration   int    `json:"duration"`
	Capacity   int    `json:"capacity"`
	Price      int    `json:"price"`
}

type itineraryPart struct {
	ID        int          `json:"id"`
	Flights   []flightPart `json:"flights"`
	TotalTime int          `json:"total_time"`
	Price     int          `json:"price"`
	Display   string       `json:"display"`
}

func toFlightPart(f model.Flight) flightPart {
	return flightPart{
		FID:        f.FID,
		DayOfMonth: f.DayOfMonth,
		CarrierID:  f.CarrierID,
		FlightNum:  f.FlightNum,
		OriginCity: f.OriginCity,
		DestCity:   f.DestCity,
		Duration:   f.Duration,
		Capacity:   f.Capacity,
		Price:      f.Price,
	}
}

// Flights handles GET /v1/flights/search.  Query parameters: origin, dest,
// day (1..31), direct (true disables one-hop results) and count (maximum
// number of itineraries).  Results are ordered by total flight time, then
// first-leg id, then second-leg id, and numbered from zero.
func (h *SearchHandler) Flights(c echo.Context) error {
	origin := strings.TrimSpace(c.QueryParam("origin"))
	dest := strings.TrimSpace(c.QueryParam("dest"))
	if origin == "" || dest == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin and dest are required"})
	}
	day, err := strconv.Atoi(c.QueryParam("day"))
	if err != nil || day < 1 || day > 31 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day"})
	}
	count := 5
	if raw := c.QueryParam("count"); raw != "" {
		if count, err = strconv.Atoi(raw); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid count"})
		}
	}
	directOnly := false
	if raw := c.QueryParam("direct"); raw != "" {
		if directOnly, err = strconv.ParseBool(raw); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid direct flag"})
		}
	}

	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	itineraries, err := h.Search.Search(ctx, sess, origin, dest, directOnly, day, count)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	if len(itineraries) == 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"message":     "No flights match your selection",
			"itineraries": []itineraryPart{},
		})
	}

	out := make([]itineraryPart, 0, len(itineraries))
	for _, it := range itineraries {
		part := itineraryPart{
			ID:        it.LocalID,
			Flights:   []flightPart{toFlightPart(it.First)},
			TotalTime: it.TotalTime(),
			Price:     it.TotalPrice(),
			Display:   it.String(),
		}
		if it.Second != nil {
			part.Flights = append(part.Flights, toFlightPart(*it.Second))
		}
		out = append(out, part)
	}
	return c.JSON(http.StatusOK, echo.Map{"itineraries": out})
}
