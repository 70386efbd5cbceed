// Package memory is an in-process store with the same locking discipline
// as the PostgreSQL store. It backs local runs without a database and the
// service and handler tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
)

type eventState struct {
	event        *model.Event
	reservations []*model.Reservation
	dates        []model.ProposedDate
	responses    []model.AvailabilityResponse
}

func (s *eventState) clone() *eventState {
	c := &eventState{
		event:     s.event.Clone(),
		dates:     slices.Clone(s.dates),
		responses: slices.Clone(s.responses),
	}
	c.reservations = make([]*model.Reservation, len(s.reservations))
	for i, r := range s.reservations {
		c.reservations[i] = r.Clone()
	}
	return c
}

// snapshot returns a copy of the event with its occupancy counters filled.
func (s *eventState) snapshot() *model.Event {
	e := s.event.Clone()
	e.ConfirmedGuests, e.WaitlistCount = 0, 0
	for _, r := range s.reservations {
		switch r.Status {
		case model.ReservationConfirmed:
			e.ConfirmedGuests += r.GuestCount
		case model.ReservationWaitlist:
			e.WaitlistCount++
		}
	}
	return e
}

// Store keeps all state in maps guarded by mu. Writers additionally hold a
// per-event lock for the whole transaction, mirroring SELECT … FOR UPDATE.
type Store struct {
	mu     sync.RWMutex
	events map[string]*eventState
	order  []string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New returns an empty store.
func New() *Store {
	return &Store{
		events: make(map[string]*eventState),
		locks:  make(map[string]*sync.Mutex),
	}
}

// eventLock returns the lock created with the event, or nil for an
// unknown id.
func (s *Store) eventLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return s.locks[id]
}

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return repository.ErrDuplicate
	}
	s.events[e.ID] = &eventState{event: e.Clone()}
	s.order = append(s.order, e.ID)

	s.locksMu.Lock()
	s.locks[e.ID] = &sync.Mutex{}
	s.locksMu.Unlock()
	return nil
}

// GetEvent returns a single event with its occupancy, or ErrNotFound.
func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return st.snapshot(), nil
}

// ListEvents returns events matching filter, soonest first.
func (s *Store) ListEvents(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Event
	for _, id := range s.order {
		e := s.events[id].snapshot()
		if matches(e, f) {
			out = append(out, *e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Event) int {
		switch {
		case a.Date == nil && b.Date == nil:
			return b.CreatedAt.Compare(a.CreatedAt)
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		}
		if c := a.Date.Compare(*b.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func matches(e *model.Event, f model.EventFilter) bool {
	statuses := f.Statuses
	if len(statuses) == 0 {
		statuses = []model.EventStatus{model.EventOpen}
	}
	if !slices.Contains(statuses, e.Status) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(e.Title + "\n" + e.Description + "\n" + e.Location)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	if len(f.CuisineTypes) > 0 && !slices.ContainsFunc(f.CuisineTypes, func(c string) bool {
		return slices.Contains(e.CuisineTypes, c)
	}) {
		return false
	}
	if f.MaxPrice != nil && e.PricePerPerson > *f.MaxPrice {
		return false
	}
	if f.DateFrom != nil && (e.Date == nil || e.Date.Before(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && (e.Date == nil || e.Date.After(*f.DateTo)) {
		return false
	}
	return true
}

// GetReservation returns a reservation, or ErrNotFound.
func (s *Store) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.events {
		for _, r := range st.reservations {
			if r.ID == id {
				return r.Clone(), nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

// ListReservationsByIdentity returns every reservation held by identityKey,
// joined with its event, newest first.
func (s *Store) ListReservationsByIdentity(_ context.Context, identityKey string) ([]model.ReservationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ReservationSummary
	for _, st := range s.events {
		for _, r := range st.reservations {
			if r.IdentityKey != identityKey {
				continue
			}
			out = append(out, model.ReservationSummary{
				Reservation:    *r.Clone(),
				EventTitle:     st.event.Title,
				EventDate:      st.event.Clone().Date,
				EventLocation:  st.event.Location,
				EventStatus:    st.event.Status,
				HostVenmo:      st.event.HostVenmo,
				PricePerPerson: st.event.PricePerPerson,
			})
		}
	}
	slices.SortFunc(out, func(a, b model.ReservationSummary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// ListProposedDates returns an event's proposed dates in chronological order.
func (s *Store) ListProposedDates(_ context.Context, eventID string) ([]model.ProposedDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.events[eventID]
	if !ok {
		return nil, nil
	}
	return sortedDates(st.dates), nil
}

// ListResponses returns every availability response for an event.
func (s *Store) ListResponses(_ context.Context, eventID string) ([]model.AvailabilityResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.events[eventID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(st.responses), nil
}

// WithEventLock runs fn against a private copy of the event's state while
// holding the event's lock. The copy replaces the stored state only when
// fn succeeds, so a failed fn leaves nothing behind.
func (s *Store) WithEventLock(_ context.Context, eventID string, fn func(repository.EventTx) error) error {
	l := s.eventLock(eventID)
	if l == nil {
		return repository.ErrNotFound
	}
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	st, ok := s.events[eventID]
	var work *eventState
	if ok {
		work = st.clone()
	}
	s.mu.RUnlock()
	if !ok {
		return repository.ErrNotFound
	}

	if err := fn(&eventTx{state: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.events[eventID] = work
	s.mu.Unlock()
	return nil
}

func sortedDates(dates []model.ProposedDate) []model.ProposedDate {
	out := slices.Clone(dates)
	slices.SortFunc(out, func(a, b model.ProposedDate) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
