package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const hostID = "host-1"

var start = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// testClock advances by a millisecond on every read so rows written in
// sequence get distinct, ordered timestamps.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Dispatch(_ context.Context, ns ...notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, ns...)
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	clock    *testClock
	notifier *recordingNotifier
	events   *EventService
	res      *ReservationService
	polls    *PollService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		clock:    &testClock{t: start},
		notifier: &recordingNotifier{},
	}
	deps := Deps{
		Store:    f.store,
		Notifier: f.notifier,
		Log:      zap.NewNop(),
		Now:      f.clock.Now,
	}
	f.events = NewEventService(deps)
	f.res = NewReservationService(deps)
	f.polls = NewPollService(deps)
	return f
}

func (f *fixture) event(t *testing.T, capacity int, waitlist bool) *model.Event {
	t.Helper()
	date := start.Add(10 * 24 * time.Hour)
	e, err := f.events.CreateEvent(context.Background(), hostID, model.CreateEventRequest{
		Title:          "Handmade pasta night",
		Location:       "Mission District",
		CuisineTypes:   []string{"italian"},
		PricePerPerson: 45,
		HostVenmo:      "nonna-host",
		MaxCapacity:    capacity,
		Date:           &date,
		AllowWaitlist:  waitlist,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) undatedEvent(t *testing.T, capacity int) *model.Event {
	t.Helper()
	e, err := f.events.CreateEvent(context.Background(), hostID, model.CreateEventRequest{
		Title:       "Dumpling supper",
		MaxCapacity: capacity,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) reserve(t *testing.T, eventID, userID string, guests int) *ReservationResult {
	t.Helper()
	r, err := f.res.CreateReservation(context.Background(), user(userID), model.CreateReservationRequest{
		EventID:    eventID,
		GuestCount: guests,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) reload(t *testing.T, id string) *model.Event {
	t.Helper()
	e, err := f.store.GetEvent(context.Background(), id)
	require.NoError(t, err)
	return e
}

func user(id string) model.Identity {
	return model.Identity{UserID: id, Name: "User " + id, Email: id + "@example.com"}
}

func guest(email string) model.Identity {
	return model.Identity{Name: "Guest", Email: email}
}
