package service

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := start.Add(-time.Hour)
	soon := start.Add(time.Hour)
	later := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		host string
		req  model.CreateEventRequest
		code apperr.Code
	}{
		{"anonymous", "", model.CreateEventRequest{Title: "x", MaxCapacity: 2}, apperr.CodeUnauthenticated},
		{"blank title", hostID, model.CreateEventRequest{Title: "  ", MaxCapacity: 2}, apperr.CodeInvalidInput},
		{"zero capacity", hostID, model.CreateEventRequest{Title: "x"}, apperr.CodeInvalidInput},
		{"negative price", hostID, model.CreateEventRequest{Title: "x", MaxCapacity: 2, PricePerPerson: -1}, apperr.CodeInvalidInput},
		{"past date", hostID, model.CreateEventRequest{Title: "x", MaxCapacity: 2, Date: &past}, apperr.CodeInvalidInput},
		{"deadline after date", hostID, model.CreateEventRequest{
			Title: "x", MaxCapacity: 2, Date: &soon, ReservationDeadline: &later,
		}, apperr.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.CreateEvent(ctx, tt.host, tt.req)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}
}

func TestListEventsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pasta := f.event(t, 4, false)
	f.undatedEvent(t, 4)
	cancelled := f.event(t, 4, false)
	_, err := f.events.CancelEvent(ctx, cancelled.ID, hostID)
	require.NoError(t, err)

	open, err := f.events.ListEvents(ctx, model.EventFilter{})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, pasta.ID, open[0].ID)

	found, err := f.events.ListEvents(ctx, model.EventFilter{Search: "PASTA", CuisineTypes: []string{"italian", "thai"}})
	require.NoError(t, err)
	require.Len(t, found, 1)

	cheap := 20.0
	found, err = f.events.ListEvents(ctx, model.EventFilter{MaxPrice: &cheap})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.NotEqual(t, pasta.ID, found[0].ID)

	found, err = f.events.ListEvents(ctx, model.EventFilter{Statuses: []model.EventStatus{model.EventCancelled}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, cancelled.ID, found[0].ID)

	_, err = f.events.ListEvents(ctx, model.EventFilter{Statuses: []model.EventStatus{"SOLD"}})
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}

func TestGetEventIncludesOccupancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, 3, true)
	f.reserve(t, e.ID, "a", 3)
	f.reserve(t, e.ID, "b", 1)

	got, err := f.events.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ConfirmedGuests)
	assert.Equal(t, 1, got.WaitlistCount)
	assert.Equal(t, model.EventFull, got.Status)

	_, err = f.events.GetEvent(ctx, "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCancelEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, 2, true)
	f.reserve(t, e.ID, "a", 2)
	f.reserve(t, e.ID, "b", 1)

	_, err := f.events.CancelEvent(ctx, e.ID, "not-the-host")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	got, err := f.events.CancelEvent(ctx, e.ID, hostID)
	require.NoError(t, err)
	assert.Equal(t, model.EventCancelled, got.Status)

	cancelled := 0
	for _, n := range f.notifier.sent {
		if n.Kind == notify.EventCancelled {
			cancelled++
			assert.Equal(t, "a@example.com", n.Email)
		}
	}
	assert.Equal(t, 1, cancelled)

	_, err = f.events.CancelEvent(ctx, e.ID, hostID)
	assert.Equal(t, apperr.CodeEventNotBookable, apperr.CodeOf(err))

	_, err = f.res.CreateReservation(ctx, user("c"), model.CreateReservationRequest{EventID: e.ID, GuestCount: 1})
	assert.Equal(t, apperr.CodeEventNotBookable, apperr.CodeOf(err))
}

func TestCancelEventClosesActivePoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, dates := f.poll(t)

	_, err := f.events.CancelEvent(ctx, e.ID, hostID)
	require.NoError(t, err)
	assert.Equal(t, model.PollClosed, f.reload(t, e.ID).PollStatus)

	_, err = f.polls.SubmitResponse(ctx, e.ID, user("a"), answers(dates[0].ID, true, false))
	assert.ErrorIs(t, err, apperr.ErrPollNotActive)
	_, err = f.polls.Finalize(ctx, e.ID, hostID, model.FinalizePollRequest{SelectedProposedDateID: dates[0].ID})
	assert.ErrorIs(t, err, apperr.ErrPollNotActive)
}
