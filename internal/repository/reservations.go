package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `r.id, r.event_id, r.user_id, r.guest_name, r.guest_email, r.identity_key,
	r.guest_count, r.dietary_restrictions, r.special_requests, r.status, r.created_at, r.updated_at`

func reservationDest(r *model.Reservation) []any {
	return []any{
		&r.ID, &r.EventID, &r.UserID, &r.GuestName, &r.GuestEmail, &r.IdentityKey,
		&r.GuestCount, &r.DietaryRestrictions, &r.SpecialRequests, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	}
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var r model.Reservation
	if err := row.Scan(reservationDest(&r)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetReservation returns a reservation without locking it, or ErrNotFound.
func (s *PGStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	r, err := scanReservation(s.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

// ListReservationsByIdentity returns every reservation held by identityKey,
// joined with its event, newest first.
func (s *PGStore) ListReservationsByIdentity(ctx context.Context, identityKey string) ([]model.ReservationSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+reservationColumns+`, e.title, e.date, e.location, e.status, e.host_venmo, e.price_per_person
		 FROM reservations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.identity_key = $1
		 ORDER BY r.created_at DESC`,
		identityKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []model.ReservationSummary
	for rows.Next() {
		var sum model.ReservationSummary
		dest := append(reservationDest(&sum.Reservation),
			&sum.EventTitle, &sum.EventDate, &sum.EventLocation, &sum.EventStatus,
			&sum.HostVenmo, &sum.PricePerPerson,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
