package service

import (
	"context"
	"sort"

	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/repository"
	"github.com/leoli101/flight-reservation/internal/session"
)

// SearchService builds and ranks candidate itineraries. Search is read-only
// and needs no multi-statement transaction; its results are cached on the
// session so a later booking can resolve itinerary ids against exactly what
// this search produced.
type SearchService struct {
	flights *repository.FlightRepo
}

// NewSearchService builds a SearchService.
func NewSearchService(flights *repository.FlightRepo) *SearchService {
	return &SearchService{flights: flights}
}

// Search returns up to limit itineraries from origin to dest on the given
// day, ranked by ascending total flight time with deterministic fid
// tie-breaks. Direct flights are collected first; when directOnly is false
// and fewer than limit were found, one-connection itineraries fill the
// remainder. An empty result is not an error. The session's cached result
// list is replaced in full, even when empty.
func (s *SearchService) Search(ctx context.Context, sess *session.Session, origin, dest string, directOnly bool, day, limit int) ([]model.Itinerary, error) {
	if limit <= 0 {
		sess.SetItineraries(nil)
		return nil, nil
	}

	direct, err := s.flights.Direct(ctx, origin, dest, day, limit)
	if err != nil {
		return nil, err
	}
	itineraries := make([]model.Itinerary, 0, limit)
	for _, f := range direct {
		itineraries = append(itineraries, model.Itinerary{First: f})
	}

	if !directOnly && len(itineraries) < limit {
		pairs, err := s.flights.OneHop(ctx, origin, dest, day, limit-len(itineraries))
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			second := p.Second
			itineraries = append(itineraries, model.Itinerary{First: p.First, Second: &second})
		}
	}

	// Final merge: direct and one-hop candidates are ranked together and
	// local ids reassigned densely from 0.
	sort.Slice(itineraries, func(i, j int) bool {
		return itineraries[i].Before(itineraries[j])
	})
	for i := range itineraries {
		itineraries[i].LocalID = i
	}

	sess.SetItineraries(itineraries)
	return itineraries, nil
}
