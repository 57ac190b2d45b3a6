package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoli101/flight-reservation/internal/model"
	"github.com/leoli101/flight-reservation/internal/session"
)

// seedSearchFlights installs two direct Seattle->Boston flights on day 14
// plus a faster one-hop connection through Chicago.
func seedSearchFlights(t *testing.T, env *testEnv) {
	t.Helper()
	env.addFlight(t, model.Flight{FID: 1, DayOfMonth: 14, CarrierID: "AA", FlightNum: "10",
		OriginCity: "Seattle WA", DestCity: "Boston MA", Duration: 60, Capacity: 10, Price: 100})
	env.addFlight(t, model.Flight{FID: 2, DayOfMonth: 14, CarrierID: "UA", FlightNum: "20",
		OriginCity: "Seattle WA", DestCity: "Boston MA", Duration: 90, Capacity: 10, Price: 120})
	env.addFlight(t, model.Flight{FID: 3, DayOfMonth: 14, CarrierID: "DL", FlightNum: "30",
		OriginCity: "Seattle WA", DestCity: "Chicago IL", Duration: 30, Capacity: 10, Price: 50})
	env.addFlight(t, model.Flight{FID: 4, DayOfMonth: 14, CarrierID: "DL", FlightNum: "31",
		OriginCity: "Chicago IL", DestCity: "Boston MA", Duration: 40, Capacity: 10, Price: 60})
}

func TestSearchRanksByTotalTime(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	its, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 14, 5)
	require.NoError(t, err)
	require.Len(t, its, 3)

	// 60-minute direct, 70-minute one-hop, 90-minute direct.
	assert.Equal(t, 0, its[0].LocalID)
	assert.Equal(t, 1, its[0].First.FID)
	assert.Nil(t, its[0].Second)

	assert.Equal(t, 1, its[1].LocalID)
	assert.Equal(t, 3, its[1].First.FID)
	require.NotNil(t, its[1].Second)
	assert.Equal(t, 4, its[1].Second.FID)
	assert.Equal(t, 70, its[1].TotalTime())
	assert.Equal(t, 110, its[1].TotalPrice())

	assert.Equal(t, 2, its[2].LocalID)
	assert.Equal(t, 2, its[2].First.FID)
}

func TestSearchCachesResultsOnSession(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	_, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 14, 5)
	require.NoError(t, err)

	it, ok := sess.Itinerary(1)
	require.True(t, ok)
	assert.Equal(t, 3, it.First.FID)
}

func TestSearchDirectOnly(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	its, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", true, 14, 5)
	require.NoError(t, err)
	require.Len(t, its, 2)
	assert.Nil(t, its[0].Second)
	assert.Nil(t, its[1].Second)
}

func TestSearchLimitPrefersDirect(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	// Both direct flights fill the limit before any one-hop candidate is
	// considered, even though the connection beats the slower direct on
	// total time.
	its, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 14, 2)
	require.NoError(t, err)
	require.Len(t, its, 2)
	assert.Equal(t, 1, its[0].First.FID)
	assert.Equal(t, 2, its[1].First.FID)
	assert.Nil(t, its[1].Second)
}

func TestSearchWrongDayFindsNothing(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	its, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 15, 5)
	require.NoError(t, err)
	assert.Empty(t, its)
}

func TestSearchReplacesPreviousResults(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	_, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 14, 5)
	require.NoError(t, err)

	_, err = env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 15, 5)
	require.NoError(t, err)

	_, ok := sess.Itinerary(0)
	assert.False(t, ok, "empty search must clear the cached list")
}

func TestSearchNonPositiveLimit(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	sess := session.New()

	its, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 14, 0)
	require.NoError(t, err)
	assert.Empty(t, its)
}

func TestSearchSkipsCanceledFlights(t *testing.T) {
	env := newTestEnv(t)
	seedSearchFlights(t, env)
	_, err := env.db.Exec(`UPDATE flights SET canceled = 1 WHERE fid = 1`)
	require.NoError(t, err)
	sess := session.New()

	its, err := env.search.Search(context.Background(), sess, "Seattle WA", "Boston MA", false, 14, 5)
	require.NoError(t, err)
	require.Len(t, its, 2)
	assert.Equal(t, 3, its[0].First.FID, "one-hop now ranks first")
	assert.Equal(t, 2, its[1].First.FID)
}
