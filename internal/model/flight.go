package model

import "fmt"

// Flight mirrors one row of the flights table. Capacity is the static
// seat count printed in search results; the live remaining-seat counter
// lives in the capacity table and is managed by the repository layer.
type Flight struct {
	FID        int
	DayOfMonth int
	CarrierID  string
	FlightNum  string
	OriginCity string
	DestCity   string
	Duration   int // scheduled flight time in minutes
	Capacity   int
	Price      int
}

// String renders the flight in the display format used by search results
// and reservation listings.
func (f Flight) String() string {
	return fmt.Sprintf("ID: %d Day: %d Carrier: %s Number: %s Origin: %s Dest: %s Duration: %d Capacity: %d Price: %d",
		f.FID, f.DayOfMonth, f.CarrierID, f.FlightNum, f.OriginCity, f.DestCity, f.Duration, f.Capacity, f.Price)
}
