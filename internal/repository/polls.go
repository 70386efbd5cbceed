package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
)

func listProposedDates(ctx context.Context, q querier, eventID string) ([]model.ProposedDate, error) {
	rows, err := q.Query(ctx,
		`SELECT id, event_id, proposed_date, proposed_time, created_at
		 FROM proposed_dates
		 WHERE event_id = $1
		 ORDER BY proposed_date ASC, proposed_time ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list proposed dates: %w", err)
	}
	defer rows.Close()

	var out []model.ProposedDate
	for rows.Next() {
		var (
			d   model.ProposedDate
			day time.Time
		)
		if err := rows.Scan(&d.ID, &d.EventID, &day, &d.Time, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan proposed date: %w", err)
		}
		d.Date = day.Format(model.DateLayout)
		out = append(out, d)
	}
	return out, rows.Err()
}

func listResponses(ctx context.Context, q querier, eventID string) ([]model.AvailabilityResponse, error) {
	rows, err := q.Query(ctx,
		`SELECT id, event_id, proposed_date_id, responder_key, user_id, guest_email, guest_name,
			available, tentative, created_at
		 FROM availability_responses
		 WHERE event_id = $1
		 ORDER BY created_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []model.AvailabilityResponse
	for rows.Next() {
		var r model.AvailabilityResponse
		if err := rows.Scan(&r.ID, &r.EventID, &r.ProposedDateID, &r.ResponderKey, &r.UserID,
			&r.GuestEmail, &r.GuestName, &r.Available, &r.Tentative, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListProposedDates returns an event's proposed dates in chronological order.
func (s *PGStore) ListProposedDates(ctx context.Context, eventID string) ([]model.ProposedDate, error) {
	if !validID(eventID) {
		return nil, nil
	}
	return listProposedDates(ctx, s.db, eventID)
}

// ListResponses returns every availability response for an event.
func (s *PGStore) ListResponses(ctx context.Context, eventID string) ([]model.AvailabilityResponse, error) {
	if !validID(eventID) {
		return nil, nil
	}
	return listResponses(ctx, s.db, eventID)
}
