package memory

import (
	"context"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
)

type eventTx struct {
	state *eventState
}

func (t *eventTx) Event() *model.Event {
	return t.state.event
}

func (t *eventTx) ConfirmedGuestCount(context.Context) (int, error) {
	n := 0
	for _, r := range t.state.reservations {
		if r.Status == model.ReservationConfirmed {
			n += r.GuestCount
		}
	}
	return n, nil
}

func (t *eventTx) ActiveReservationCount(context.Context) (int, error) {
	n := 0
	for _, r := range t.state.reservations {
		if r.Active() {
			n++
		}
	}
	return n, nil
}

func (t *eventTx) FindActiveReservation(_ context.Context, identityKey string) (*model.Reservation, error) {
	for _, r := range t.state.reservations {
		if r.Active() && r.IdentityKey == identityKey {
			return r.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *eventTx) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	for _, r := range t.state.reservations {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *eventTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	for _, existing := range t.state.reservations {
		if existing.ID == r.ID {
			return repository.ErrDuplicate
		}
		if r.Active() && existing.Active() && existing.IdentityKey == r.IdentityKey {
			return repository.ErrDuplicate
		}
	}
	c := r.Clone()
	c.EventID = t.state.event.ID
	t.state.reservations = append(t.state.reservations, c)
	return nil
}

func (t *eventTx) SetReservationStatus(_ context.Context, id string, status model.ReservationStatus) error {
	for _, r := range t.state.reservations {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (t *eventTx) ListReservations(_ context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range t.state.reservations {
		if r.Status == status {
			out = append(out, *r.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.Reservation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (t *eventTx) SetEventStatus(_ context.Context, status model.EventStatus) error {
	t.state.event.Status = status
	t.state.event.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *eventTx) EnablePoll(_ context.Context, dates []model.ProposedDate, deadline time.Time) error {
	for _, d := range dates {
		d.EventID = t.state.event.ID
		t.state.dates = append(t.state.dates, d)
	}
	e := t.state.event
	e.Status = model.EventPollActive
	e.Date = nil
	e.PollEnabled = true
	e.PollStatus = model.PollActive
	e.PollDeadline = &deadline
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *eventTx) FinalizePoll(_ context.Context, date time.Time) error {
	e := t.state.event
	e.Date = &date
	e.PollStatus = model.PollFinalized
	e.Status = model.EventOpen
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *eventTx) CancelEvent(context.Context) error {
	e := t.state.event
	e.Status = model.EventCancelled
	if e.PollStatus == model.PollActive {
		e.PollStatus = model.PollClosed
	}
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *eventTx) ListProposedDates(context.Context) ([]model.ProposedDate, error) {
	return sortedDates(t.state.dates), nil
}

func (t *eventTx) ListResponses(context.Context) ([]model.AvailabilityResponse, error) {
	return slices.Clone(t.state.responses), nil
}

func (t *eventTx) ReplaceResponses(_ context.Context, responderKey string, rs []model.AvailabilityResponse) error {
	kept := t.state.responses[:0:0]
	for _, r := range t.state.responses {
		if r.ResponderKey != responderKey {
			kept = append(kept, r)
		}
	}
	for _, r := range rs {
		r.EventID = t.state.event.ID
		r.ResponderKey = responderKey
		kept = append(kept, r)
	}
	t.state.responses = kept
	return nil
}
