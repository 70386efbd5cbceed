package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservationNeverOverbooks(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 10, false)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		full      int
	)
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.res.CreateReservation(context.Background(), user(fmt.Sprintf("u%d", i)),
				model.CreateReservationRequest{EventID: e.ID, GuestCount: 1 + i%2})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case errors.Is(err, apperr.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got := f.reload(t, e.ID)
	assert.LessOrEqual(t, got.ConfirmedGuests, got.MaxCapacity)
	assert.Equal(t, 40, confirmed+full)
	assert.Positive(t, full)
	if got.ConfirmedGuests == got.MaxCapacity {
		assert.Equal(t, model.EventFull, got.Status)
	}
}

func TestCreateReservationOnePerIdentity(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 10, true)
	ctx := context.Background()

	req := model.CreateReservationRequest{
		EventID:    e.ID,
		GuestCount: 2,
		GuestInfo:  &model.GuestInfo{Email: "Ada@Example.com", Name: "Ada"},
	}
	_, err := f.res.CreateReservation(ctx, model.Identity{}, req)
	require.NoError(t, err)

	req.GuestInfo.Email = "  ada@example.COM "
	_, err = f.res.CreateReservation(ctx, model.Identity{}, req)
	assert.ErrorIs(t, err, apperr.ErrDuplicateReservation)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.res.CreateReservation(ctx, user("racer"),
				model.CreateReservationRequest{EventID: e.ID, GuestCount: 1})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrDuplicateReservation)
	}
	assert.Equal(t, 1, succeeded)
}

func TestCreateReservationRebookAfterCancel(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, false)
	ctx := context.Background()

	first := f.reserve(t, e.ID, "a", 2)
	_, err := f.res.CancelReservation(ctx, first.Reservation.ID, user("a"))
	require.NoError(t, err)

	second := f.reserve(t, e.ID, "a", 3)
	assert.Equal(t, model.ReservationConfirmed, second.Reservation.Status)
}

func TestCreateReservationValidation(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, false)
	undated := f.undatedEvent(t, 4)
	ctx := context.Background()

	deadline := start.Add(-time.Hour)
	closed, err := f.events.CreateEvent(ctx, hostID, model.CreateEventRequest{
		Title:               "Closed books",
		MaxCapacity:         4,
		Date:                ptr(start.Add(48 * time.Hour)),
		ReservationDeadline: &deadline,
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   model.Identity
		req  model.CreateReservationRequest
		code apperr.Code
	}{
		{"zero guests", user("a"), model.CreateReservationRequest{EventID: e.ID, GuestCount: 0}, apperr.CodeInvalidGuestCount},
		{"too many guests", user("a"), model.CreateReservationRequest{EventID: e.ID, GuestCount: 11}, apperr.CodeInvalidGuestCount},
		{"no identity", model.Identity{}, model.CreateReservationRequest{EventID: e.ID, GuestCount: 1}, apperr.CodeUnauthenticated},
		{"bad guest email", model.Identity{}, model.CreateReservationRequest{
			EventID: e.ID, GuestCount: 1, GuestInfo: &model.GuestInfo{Email: "not-an-email"},
		}, apperr.CodeInvalidInput},
		{"unknown event", user("a"), model.CreateReservationRequest{EventID: "missing", GuestCount: 1}, apperr.CodeNotFound},
		{"no date yet", user("a"), model.CreateReservationRequest{EventID: undated.ID, GuestCount: 1}, apperr.CodeEventNotBookable},
		{"deadline passed", user("a"), model.CreateReservationRequest{EventID: closed.ID, GuestCount: 1}, apperr.CodeReservationClosed},
		{"over capacity without waitlist", user("a"), model.CreateReservationRequest{EventID: e.ID, GuestCount: 5}, apperr.CodeEventFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.res.CreateReservation(ctx, tt.id, tt.req)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}
}

func TestCancelPromotesWaitlistScenario(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, true)
	ctx := context.Background()

	a := f.reserve(t, e.ID, "a", 3)
	require.False(t, a.Waitlisted)

	b := f.reserve(t, e.ID, "b", 2)
	require.True(t, b.Waitlisted)
	assert.Equal(t, model.ReservationWaitlist, b.Reservation.Status)
	assert.Contains(t, b.Message, "waitlist")

	got, err := f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, got.Reservation.Status)
	require.Len(t, got.Promoted, 1)
	assert.Equal(t, b.Reservation.ID, got.Promoted[0].ID)

	event := f.reload(t, e.ID)
	assert.Equal(t, 2, event.ConfirmedGuests)
	assert.Equal(t, 0, event.WaitlistCount)
	assert.Equal(t, model.EventOpen, event.Status)

	assert.Equal(t, []notify.Kind{
		notify.ReservationConfirmed,
		notify.ReservationWaitlisted,
		notify.ReservationCancelled,
		notify.WaitlistPromoted,
	}, f.notifier.kinds())
}

func TestCancelPromotesStrictlyFIFO(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, true)
	ctx := context.Background()

	a := f.reserve(t, e.ID, "a", 2)
	b := f.reserve(t, e.ID, "b", 2)
	w1 := f.reserve(t, e.ID, "w1", 2)
	w2 := f.reserve(t, e.ID, "w2", 2)
	require.True(t, w1.Waitlisted)
	require.True(t, w2.Waitlisted)

	got, err := f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	require.NoError(t, err)
	require.Len(t, got.Promoted, 1)
	assert.Equal(t, w1.Reservation.ID, got.Promoted[0].ID)
	assert.Equal(t, model.EventFull, f.reload(t, e.ID).Status)

	_, err = f.res.CancelReservation(ctx, b.Reservation.ID, user("b"))
	require.NoError(t, err)
	event := f.reload(t, e.ID)
	assert.Equal(t, 4, event.ConfirmedGuests)
	assert.Equal(t, 0, event.WaitlistCount)
}

func TestCancelStopsAtFirstWaitlistEntryThatDoesNotFit(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, true)
	ctx := context.Background()

	a := f.reserve(t, e.ID, "a", 2)
	f.reserve(t, e.ID, "b", 2)
	big := f.reserve(t, e.ID, "big", 3)
	small := f.reserve(t, e.ID, "small", 1)
	require.True(t, big.Waitlisted)
	require.True(t, small.Waitlisted)

	got, err := f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	require.NoError(t, err)
	assert.Empty(t, got.Promoted)

	event := f.reload(t, e.ID)
	assert.Equal(t, 2, event.ConfirmedGuests)
	assert.Equal(t, 2, event.WaitlistCount)
	assert.Equal(t, model.EventOpen, event.Status)
}

func TestCancelPromotesOnlyIntoFreedSeats(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 6, true)
	ctx := context.Background()

	a := f.reserve(t, e.ID, "a", 4)
	w1 := f.reserve(t, e.ID, "w1", 3)
	w2 := f.reserve(t, e.ID, "w2", 3)
	require.True(t, w1.Waitlisted)
	require.True(t, w2.Waitlisted)

	got, err := f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	require.NoError(t, err)
	require.Len(t, got.Promoted, 1)
	assert.Equal(t, w1.Reservation.ID, got.Promoted[0].ID)

	event := f.reload(t, e.ID)
	assert.Equal(t, 3, event.ConfirmedGuests)
	assert.Equal(t, 1, event.WaitlistCount)
}

func TestCancelWaitlistedReservationPromotesNobody(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, true)
	ctx := context.Background()

	f.reserve(t, e.ID, "a", 3)
	f.reserve(t, e.ID, "b", 1)
	w1 := f.reserve(t, e.ID, "w1", 2)
	w2 := f.reserve(t, e.ID, "w2", 2)
	require.True(t, w1.Waitlisted)
	require.True(t, w2.Waitlisted)

	got, err := f.res.CancelReservation(ctx, w1.Reservation.ID, user("w1"))
	require.NoError(t, err)
	assert.Empty(t, got.Promoted)

	event := f.reload(t, e.ID)
	assert.Equal(t, 4, event.ConfirmedGuests)
	assert.Equal(t, 1, event.WaitlistCount)
	assert.Equal(t, model.EventFull, event.Status)
}

func TestCancelReservationRules(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, false)
	ctx := context.Background()
	a := f.reserve(t, e.ID, "a", 1)

	_, err := f.res.CancelReservation(ctx, a.Reservation.ID, model.Identity{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.res.CancelReservation(ctx, a.Reservation.ID, user("mallory"))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.res.CancelReservation(ctx, "missing", user("a"))
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	require.NoError(t, err)
	_, err = f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	assert.Equal(t, apperr.CodeReservationAlreadyCancelled, apperr.CodeOf(err))
}

func TestCancelTooLate(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, false)
	ctx := context.Background()
	a := f.reserve(t, e.ID, "a", 1)

	f.clock.Set(e.Date.Add(-23 * time.Hour))
	_, err := f.res.CancelReservation(ctx, a.Reservation.ID, user("a"))
	assert.ErrorIs(t, err, apperr.ErrTooLateToCancel)
	assert.Equal(t, 1, f.reload(t, e.ID).ConfirmedGuests)
}

func TestListMyReservations(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 2, true)
	ctx := context.Background()
	f.reserve(t, e.ID, "a", 2)
	f.reserve(t, e.ID, "b", 1) // waitlisted

	mine, err := f.res.ListMyReservations(ctx, user("a"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Handmade pasta night", mine[0].EventTitle)
	assert.True(t, mine[0].CanCancel)
	assert.Equal(t, "https://venmo.com/nonna-host?amount=90.00&note=Handmade+pasta+night&txn=pay", mine[0].PaymentLink)

	waiting, err := f.res.ListMyReservations(ctx, user("b"))
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Empty(t, waiting[0].PaymentLink)

	f.clock.Set(e.Date.Add(-time.Hour))
	mine, err = f.res.ListMyReservations(ctx, user("a"))
	require.NoError(t, err)
	assert.False(t, mine[0].CanCancel)

	_, err = f.res.ListMyReservations(ctx, model.Identity{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func ptr[T any](v T) *T { return &v }
