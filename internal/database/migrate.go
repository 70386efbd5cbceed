package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are idempotent and applied in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id                     UUID PRIMARY KEY,
		host_id                TEXT NOT NULL,
		title                  TEXT NOT NULL,
		description            TEXT NOT NULL DEFAULT '',
		location               TEXT NOT NULL DEFAULT '',
		cuisine_types          TEXT[] NOT NULL DEFAULT '{}',
		dietary_accommodations TEXT[] NOT NULL DEFAULT '{}',
		price_per_person       NUMERIC(10,2) NOT NULL DEFAULT 0,
		host_venmo             TEXT NOT NULL DEFAULT '',
		max_capacity           INTEGER NOT NULL CHECK (max_capacity >= 1),
		status                 TEXT NOT NULL DEFAULT 'OPEN',
		date                   TIMESTAMPTZ,
		allow_waitlist         BOOLEAN NOT NULL DEFAULT FALSE,
		reservation_deadline   TIMESTAMPTZ,
		poll_enabled           BOOLEAN NOT NULL DEFAULT FALSE,
		poll_status            TEXT NOT NULL DEFAULT '',
		poll_deadline          TIMESTAMPTZ,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id                   UUID PRIMARY KEY,
		event_id             UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id              TEXT NOT NULL DEFAULT '',
		guest_name           TEXT NOT NULL DEFAULT '',
		guest_email          TEXT NOT NULL DEFAULT '',
		identity_key         TEXT NOT NULL,
		guest_count          INTEGER NOT NULL CHECK (guest_count BETWEEN 1 AND 10),
		dietary_restrictions TEXT[] NOT NULL DEFAULT '{}',
		special_requests     TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS proposed_dates (
		id            UUID PRIMARY KEY,
		event_id      UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		proposed_date DATE NOT NULL,
		proposed_time TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (event_id, proposed_date, proposed_time)
	)`,

	`CREATE TABLE IF NOT EXISTS availability_responses (
		id               UUID PRIMARY KEY,
		event_id         UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		proposed_date_id UUID NOT NULL REFERENCES proposed_dates(id) ON DELETE CASCADE,
		responder_key    TEXT NOT NULL,
		user_id          TEXT NOT NULL DEFAULT '',
		guest_email      TEXT NOT NULL DEFAULT '',
		guest_name       TEXT NOT NULL DEFAULT '',
		available        BOOLEAN NOT NULL,
		tentative        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (proposed_date_id, responder_key)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active_identity
		ON reservations(event_id, identity_key) WHERE status <> 'CANCELLED'`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_event_status ON reservations(event_id, status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_identity ON reservations(identity_key)`,
	`CREATE INDEX IF NOT EXISTS idx_proposed_dates_event ON proposed_dates(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_event_responder ON availability_responses(event_id, responder_key)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status_date ON events(status, date)`,
	`CREATE INDEX IF NOT EXISTS idx_events_cuisine ON events USING GIN (cuisine_types)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run migration %d: %w", i, err)
		}
	}
	return nil
}
