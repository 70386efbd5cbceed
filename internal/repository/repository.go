// Package repository implements all database queries for the supper club.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write would violate a uniqueness rule,
// such as a second active reservation for one identity.
var ErrDuplicate = errors.New("duplicate")

const uniqueViolation = "23505"

// PGStore is the PostgreSQL-backed store.
type PGStore struct {
	db database
}

// database is the part of *pgxpool.Pool the store uses.
type database interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPGStore constructs a PGStore.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewID returns a fresh identifier for any stored row.
func NewID() string {
	return uuid.New().String()
}

// validID filters ids that could never match a UUID column, so lookups
// report ErrNotFound instead of a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const eventColumns = `e.id, e.host_id, e.title, e.description, e.location, e.cuisine_types,
	e.dietary_accommodations, e.price_per_person, e.host_venmo, e.max_capacity, e.status,
	e.date, e.allow_waitlist, e.reservation_deadline, e.poll_enabled, e.poll_status,
	e.poll_deadline, e.created_at, e.updated_at`

const occupancyColumns = `
	COALESCE((SELECT SUM(r.guest_count) FROM reservations r
		WHERE r.event_id = e.id AND r.status = 'CONFIRMED'), 0),
	(SELECT COUNT(*) FROM reservations r
		WHERE r.event_id = e.id AND r.status = 'WAITLIST')`

func scanEvent(row pgx.Row, withOccupancy bool) (*model.Event, error) {
	var e model.Event
	dest := []any{
		&e.ID, &e.HostID, &e.Title, &e.Description, &e.Location, &e.CuisineTypes,
		&e.DietaryAccommodations, &e.PricePerPerson, &e.HostVenmo, &e.MaxCapacity, &e.Status,
		&e.Date, &e.AllowWaitlist, &e.ReservationDeadline, &e.PollEnabled, &e.PollStatus,
		&e.PollDeadline, &e.CreatedAt, &e.UpdatedAt,
	}
	if withOccupancy {
		dest = append(dest, &e.ConfirmedGuests, &e.WaitlistCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts a new event.
func (s *PGStore) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, host_id, title, description, location, cuisine_types,
			dietary_accommodations, price_per_person, host_venmo, max_capacity, status, date,
			allow_waitlist, reservation_deadline, poll_enabled, poll_status, poll_deadline,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.HostID, e.Title, e.Description, e.Location, nonNil(e.CuisineTypes),
		nonNil(e.DietaryAccommodations), e.PricePerPerson, e.HostVenmo, e.MaxCapacity, e.Status, e.Date,
		e.AllowWaitlist, e.ReservationDeadline, e.PollEnabled, e.PollStatus, e.PollDeadline,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event with its occupancy, or ErrNotFound.
func (s *PGStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	e, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+`, `+occupancyColumns+` FROM events e WHERE e.id = $1`, id,
	), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents returns events matching filter, soonest first.
func (s *PGStore) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	statuses := f.Statuses
	if len(statuses) == 0 {
		statuses = []model.EventStatus{model.EventOpen}
	}
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	where = append(where, "e.status = ANY("+arg(names)+")")

	if q := strings.TrimSpace(f.Search); q != "" {
		p := arg("%" + q + "%")
		where = append(where, fmt.Sprintf("(e.title ILIKE %[1]s OR e.description ILIKE %[1]s OR e.location ILIKE %[1]s)", p))
	}
	if len(f.CuisineTypes) > 0 {
		where = append(where, "e.cuisine_types && "+arg(f.CuisineTypes))
	}
	if f.MaxPrice != nil {
		where = append(where, "e.price_per_person <= "+arg(*f.MaxPrice))
	}
	if f.DateFrom != nil {
		where = append(where, "e.date >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		where = append(where, "e.date <= "+arg(*f.DateTo))
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+`, `+occupancyColumns+`
		 FROM events e
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY e.date ASC NULLS LAST, e.created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// WithEventLock runs fn in a transaction holding a row lock on the event.
//
// Every capacity- or poll-affecting write goes through here. SELECT … FOR
// UPDATE blocks any other transaction locking the same event until this
// one commits or rolls back, so check-then-write sequences inside fn see
// no interleaved writers. An error from fn rolls everything back.
func (s *PGStore) WithEventLock(ctx context.Context, eventID string, fn func(EventTx) error) (err error) {
	if !validID(eventID) {
		return ErrNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op; it also runs when fn panics.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	event, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`, eventID,
	), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if err = fn(&pgEventTx{q: tx, event: event}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func now() time.Time {
	return time.Now().UTC()
}
