package model

import "fmt"

// NoSecondLeg is stored in a reservation's second flight column when the
// itinerary was a direct flight. It sorts before every real flight id, so
// direct itineraries win fid tie-breaks against one-hop ones.
const NoSecondLeg = -1

// Itinerary is one ranked search result: a direct flight, or two flights
// where the first lands in the city the second departs from. LocalID is the
// itinerary's position in the search that produced it and is only
// meaningful within that session.
type Itinerary struct {
	LocalID int
	First   Flight
	Second  *Flight
}

// Direct reports whether the itinerary has a single leg.
func (it Itinerary) Direct() bool { return it.Second == nil }

// FlightCount returns 1 for direct itineraries and 2 for one-hop ones.
func (it Itinerary) FlightCount() int {
	if it.Second == nil {
		return 1
	}
	return 2
}

// TotalTime returns the summed scheduled flight time in minutes.
func (it Itinerary) TotalTime() int {
	total := it.First.Duration
	if it.Second != nil {
		total += it.Second.Duration
	}
	return total
}

// TotalPrice returns the summed price of the legs.
func (it Itinerary) TotalPrice() int {
	total := it.First.Price
	if it.Second != nil {
		total += it.Second.Price
	}
	return total
}

// SecondFID returns the second leg's flight id, or NoSecondLeg for a
// direct itinerary.
func (it Itinerary) SecondFID() int {
	if it.Second == nil {
		return NoSecondLeg
	}
	return it.Second.FID
}

// Before defines the ranking order: ascending total flight time, then
// first-leg flight id, then second-leg flight id.
func (it Itinerary) Before(other Itinerary) bool {
	if it.TotalTime() != other.TotalTime() {
		return it.TotalTime() < other.TotalTime()
	}
	if it.First.FID != other.First.FID {
		return it.First.FID < other.First.FID
	}
	return it.SecondFID() < other.SecondFID()
}

// String renders the itinerary header line followed by one line per leg.
func (it Itinerary) String() string {
	out := fmt.Sprintf("Itinerary %d: %d flight(s), %d minutes\n%s\n", it.LocalID, it.FlightCount(), it.TotalTime(), it.First)
	if it.Second != nil {
		out += it.Second.String() + "\n"
	}
	return out
}
