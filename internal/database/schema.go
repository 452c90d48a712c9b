package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. Two constraints carry allocation
// invariants that application code must not be trusted to enforce on
// its own under concurrency:
//
//   - ux_tickets_active: at most one Confirmed ticket per (user, event).
//     A losing concurrent writer gets a unique violation instead of a
//     silently duplicated admission. Cancelled rows are excluded so a
//     user can re-register after cancelling.
//   - ux_team_members_event: one team per user per event, whether the
//     user is leader or member.
//
// Note users.email is deliberately NOT unique: guest accounts share
// emails and are keyed by (email, password) instead. IIIT uniqueness is
// enforced in the auth service, which owns the IIIT/guest distinction.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'Participant',
	is_iiit       BOOLEAN NOT NULL DEFAULT FALSE,
	discord_webhook TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_users_email ON users (email);

CREATE TABLE IF NOT EXISTS events (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	description           TEXT NOT NULL,
	type                  TEXT NOT NULL DEFAULT 'Normal',
	is_team_event         BOOLEAN NOT NULL DEFAULT FALSE,
	min_team_size         INT NOT NULL DEFAULT 1,
	max_team_size         INT NOT NULL DEFAULT 1,
	max_teams             INT,
	start_date            TIMESTAMPTZ NOT NULL,
	end_date              TIMESTAMPTZ NOT NULL,
	registration_deadline TIMESTAMPTZ NOT NULL,
	tags                  TEXT[] NOT NULL DEFAULT '{}',
	organizer_id          TEXT NOT NULL REFERENCES users (id),
	form_fields           JSONB NOT NULL DEFAULT '[]',
	max_participants      INT,
	price                 INT NOT NULL DEFAULT 0,
	stock                 INT CHECK (stock IS NULL OR stock >= 0),
	eligibility           TEXT NOT NULL DEFAULT 'All',
	status                TEXT NOT NULL DEFAULT 'Draft',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_events_organizer ON events (organizer_id);
CREATE INDEX IF NOT EXISTS ix_events_status ON events (status);

CREATE TABLE IF NOT EXISTS teams (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	code       TEXT NOT NULL UNIQUE,
	leader_id  TEXT NOT NULL REFERENCES users (id),
	event_id   TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	status     TEXT NOT NULL DEFAULT 'Forming',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_teams_event ON teams (event_id);

CREATE TABLE IF NOT EXISTS team_members (
	team_id   TEXT NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
	user_id   TEXT NOT NULL REFERENCES users (id),
	event_id  TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (team_id, user_id)
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_team_members_event ON team_members (event_id, user_id);

CREATE TABLE IF NOT EXISTS tickets (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users (id),
	event_id       TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	team_id        TEXT REFERENCES teams (id) ON DELETE SET NULL,
	answers        JSONB NOT NULL DEFAULT '[]',
	status         TEXT NOT NULL DEFAULT 'Confirmed',
	checked_in     BOOLEAN NOT NULL DEFAULT FALSE,
	feedback_given BOOLEAN NOT NULL DEFAULT FALSE,
	check_in_time  TIMESTAMPTZ,
	registered_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_tickets_active
	ON tickets (user_id, event_id) WHERE status = 'Confirmed';
CREATE INDEX IF NOT EXISTS ix_tickets_event ON tickets (event_id);
CREATE INDEX IF NOT EXISTS ix_tickets_user ON tickets (user_id);

CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	rating     INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_feedback_event ON feedback (event_id);
`

// Migrate applies the schema. Statements are idempotent so startup can
// run it unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
