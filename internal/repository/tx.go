package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/jackc/pgx/v5"
)

// EventTx is the set of reads and writes available while an event row is
// locked. Implementations keep Event() in sync with their own writes.
type EventTx interface {
	// Event is the locked event as of the latest write in this transaction.
	Event() *model.Event

	ConfirmedGuestCount(ctx context.Context) (int, error)
	ActiveReservationCount(ctx context.Context) (int, error)
	FindActiveReservation(ctx context.Context, identityKey string) (*model.Reservation, error)
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	SetReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error
	// ListReservations returns the event's reservations in status, oldest
	// first. Waitlist order is this order.
	ListReservations(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error)

	SetEventStatus(ctx context.Context, status model.EventStatus) error
	EnablePoll(ctx context.Context, dates []model.ProposedDate, deadline time.Time) error
	FinalizePoll(ctx context.Context, date time.Time) error
	CancelEvent(ctx context.Context) error

	ListProposedDates(ctx context.Context) ([]model.ProposedDate, error)
	ListResponses(ctx context.Context) ([]model.AvailabilityResponse, error)
	// ReplaceResponses deletes every response by responderKey for this event
	// and inserts rs in their place.
	ReplaceResponses(ctx context.Context, responderKey string, rs []model.AvailabilityResponse) error
}

type pgEventTx struct {
	q     querier
	event *model.Event
}

func (t *pgEventTx) Event() *model.Event {
	return t.event
}

func (t *pgEventTx) ConfirmedGuestCount(ctx context.Context) (int, error) {
	var n int
	err := t.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(guest_count), 0) FROM reservations
		 WHERE event_id = $1 AND status = 'CONFIRMED'`,
		t.event.ID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sum confirmed guests: %w", err)
	}
	return n, nil
}

func (t *pgEventTx) ActiveReservationCount(ctx context.Context) (int, error) {
	var n int
	err := t.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status <> 'CANCELLED'`,
		t.event.ID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

func (t *pgEventTx) FindActiveReservation(ctx context.Context, identityKey string) (*model.Reservation, error) {
	r, err := scanReservation(t.q.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations r
		 WHERE r.event_id = $1 AND r.identity_key = $2 AND r.status <> 'CANCELLED'`,
		t.event.ID, identityKey,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	return r, nil
}

func (t *pgEventTx) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	r, err := scanReservation(t.q.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations r
		 WHERE r.id = $1 AND r.event_id = $2
		 FOR UPDATE`,
		id, t.event.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (t *pgEventTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO reservations (id, event_id, user_id, guest_name, guest_email, identity_key,
			guest_count, dietary_restrictions, special_requests, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, t.event.ID, r.UserID, r.GuestName, r.GuestEmail, r.IdentityKey,
		r.GuestCount, nonNil(r.DietaryRestrictions), r.SpecialRequests, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (t *pgEventTx) SetReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3 AND event_id = $4`,
		status, now(), id, t.event.ID,
	)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgEventTx) ListReservations(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	rows, err := t.q.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations r
		 WHERE r.event_id = $1 AND r.status = $2
		 ORDER BY r.created_at ASC, r.id ASC
		 FOR UPDATE`,
		t.event.ID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collectReservations(rows)
}

func (t *pgEventTx) SetEventStatus(ctx context.Context, status model.EventStatus) error {
	ts := now()
	if _, err := t.q.Exec(ctx,
		`UPDATE events SET status = $1, updated_at = $2 WHERE id = $3`,
		status, ts, t.event.ID,
	); err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	t.event.Status = status
	t.event.UpdatedAt = ts
	return nil
}

func (t *pgEventTx) EnablePoll(ctx context.Context, dates []model.ProposedDate, deadline time.Time) error {
	for _, d := range dates {
		if _, err := t.q.Exec(ctx,
			`INSERT INTO proposed_dates (id, event_id, proposed_date, proposed_time, created_at)
			 VALUES ($1, $2, $3::date, $4, $5)`,
			d.ID, t.event.ID, d.Date, d.Time, d.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert proposed date: %w", err)
		}
	}

	ts := now()
	if _, err := t.q.Exec(ctx,
		`UPDATE events
		 SET status = 'POLL_ACTIVE', date = NULL, poll_enabled = TRUE,
		     poll_status = 'ACTIVE', poll_deadline = $1, updated_at = $2
		 WHERE id = $3`,
		deadline, ts, t.event.ID,
	); err != nil {
		return fmt.Errorf("enable poll: %w", err)
	}
	t.event.Status = model.EventPollActive
	t.event.Date = nil
	t.event.PollEnabled = true
	t.event.PollStatus = model.PollActive
	t.event.PollDeadline = &deadline
	t.event.UpdatedAt = ts
	return nil
}

func (t *pgEventTx) FinalizePoll(ctx context.Context, date time.Time) error {
	ts := now()
	if _, err := t.q.Exec(ctx,
		`UPDATE events
		 SET date = $1, poll_status = 'FINALIZED', status = 'OPEN', updated_at = $2
		 WHERE id = $3`,
		date, ts, t.event.ID,
	); err != nil {
		return fmt.Errorf("finalize poll: %w", err)
	}
	t.event.Date = &date
	t.event.PollStatus = model.PollFinalized
	t.event.Status = model.EventOpen
	t.event.UpdatedAt = ts
	return nil
}

func (t *pgEventTx) CancelEvent(ctx context.Context) error {
	pollStatus := t.event.PollStatus
	if pollStatus == model.PollActive {
		pollStatus = model.PollClosed
	}
	ts := now()
	if _, err := t.q.Exec(ctx,
		`UPDATE events SET status = 'CANCELLED', poll_status = $1, updated_at = $2 WHERE id = $3`,
		pollStatus, ts, t.event.ID,
	); err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}
	t.event.Status = model.EventCancelled
	t.event.PollStatus = pollStatus
	t.event.UpdatedAt = ts
	return nil
}

func (t *pgEventTx) ListProposedDates(ctx context.Context) ([]model.ProposedDate, error) {
	return listProposedDates(ctx, t.q, t.event.ID)
}

func (t *pgEventTx) ListResponses(ctx context.Context) ([]model.AvailabilityResponse, error) {
	return listResponses(ctx, t.q, t.event.ID)
}

func (t *pgEventTx) ReplaceResponses(ctx context.Context, responderKey string, rs []model.AvailabilityResponse) error {
	if _, err := t.q.Exec(ctx,
		`DELETE FROM availability_responses WHERE event_id = $1 AND responder_key = $2`,
		t.event.ID, responderKey,
	); err != nil {
		return fmt.Errorf("delete prior responses: %w", err)
	}

	for _, r := range rs {
		if _, err := t.q.Exec(ctx,
			`INSERT INTO availability_responses (id, event_id, proposed_date_id, responder_key,
				user_id, guest_email, guest_name, available, tentative, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			r.ID, t.event.ID, r.ProposedDateID, responderKey,
			r.UserID, r.GuestEmail, r.GuestName, r.Available, r.Tentative, r.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert response: %w", err)
		}
	}
	return nil
}
