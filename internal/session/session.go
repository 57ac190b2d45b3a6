// Package session holds the per-connection state of the reservation
// protocol: the logged-in identity and the most recent search results.
// Itinerary ids are only meaningful within the session that produced them;
// a new search replaces the cached list in full.
package session

import (
	"sync"

	"github.com/leoli101/flight-reservation/internal/model"
)

// Session is the explicit per-logical-connection state object passed into
// every service operation. One instance exists per connection and is never
// shared across connections; the internal mutex only guards against the
// HTTP layer delivering two requests for the same session concurrently.
type Session struct {
	mu          sync.Mutex
	username    string
	itineraries []model.Itinerary
}

// New returns an empty, unauthenticated session.
func New() *Session { return &Session{} }

// LoggedIn reports whether an identity is bound to the session.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username != ""
}

// Username returns the bound identity, or "" when not logged in.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// SetIdentity binds the identity after a successful login.
func (s *Session) SetIdentity(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// SetItineraries replaces the cached search results in full, invalidating
// every itinerary id from earlier searches.
func (s *Session) SetItineraries(its []model.Itinerary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itineraries = its
}

// Itinerary returns the cached itinerary with the given local id. The
// second return is false when the id is out of range or no search has been
// performed on this session.
func (s *Session) Itinerary(id int) (model.Itinerary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.itineraries) {
		return model.Itinerary{}, false
	}
	return s.itineraries[id], true
}

// Store maps session ids to live sessions for the HTTP layer. Sessions are
// in-memory only; a server restart simply invalidates all of them and
// clients start over with a fresh search.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session under the given id.
func (st *Store) Create(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := New()
	st.sessions[id] = s
	return s
}

// Get returns the session registered under id, or nil.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}
