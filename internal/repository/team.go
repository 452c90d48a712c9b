package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/platform/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TeamRepository handles persistence for teams and their rosters.
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository constructs a TeamRepository.
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a team and its leader as the first member, consuming
// one of the event's team slots. The event row is locked so concurrent
// creations for the same event serialize against maxTeams; nil means
// unlimited.
//
// Returns ErrCodeConflict when the join code collides (caller retries
// with a fresh candidate), ErrAlreadyInTeam when the leader already
// belongs to a team for the event, ErrCapacityExceeded when the team
// limit is reached.
func (r *TeamRepository) Create(ctx context.Context, t *model.Team) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var maxTeams *int
	err = tx.QueryRow(ctx,
		`SELECT max_teams FROM events WHERE id = $1 FOR UPDATE`, t.EventID,
	).Scan(&maxTeams)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if maxTeams != nil {
		var count int
		if err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM teams WHERE event_id = $1`, t.EventID,
		).Scan(&count); err != nil {
			return fmt.Errorf("count teams: %w", err)
		}
		if count >= *maxTeams {
			err = fmt.Errorf("%w: maximum number of teams reached", model.ErrCapacityExceeded)
			return err
		}
	}

	// Team membership is mutually exclusive with an individual ticket.
	// The ticket path locks the same event row, so the check holds.
	var hasTicket bool
	if err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE event_id = $1 AND user_id = $2 AND status = 'Confirmed')`,
		t.EventID, t.LeaderID,
	).Scan(&hasTicket); err != nil {
		return fmt.Errorf("check tickets: %w", err)
	}
	if hasTicket {
		err = fmt.Errorf("%w: you already have a ticket for this event", model.ErrAlreadyRegistered)
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO teams (id, name, code, leader_id, event_id, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.Name, t.Code, t.LeaderID, t.EventID, t.Status, t.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "teams_code_key") {
			err = ErrCodeConflict
			return err
		}
		return fmt.Errorf("insert team: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id, event_id) VALUES ($1,$2,$3)`,
		t.ID, t.LeaderID, t.EventID,
	)
	if err != nil {
		if uniqueViolation(err, "ux_team_members_event") {
			err = model.ErrAlreadyInTeam
			return err
		}
		return fmt.Errorf("insert leader member: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AddMember appends a user to the team roster, transitioning the team
// Forming -> Complete when membership first reaches the event's minimum
// size. The team row is locked so concurrent joins serialize against
// maxTeamSize and exactly one join observes the completion transition.
//
// completedNow is true only for that one join; the transition never
// reverses.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID string) (team *model.Team, completedNow bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var (
		status      model.TeamStatus
		eventID     string
		minSize     int
		maxSize     int
		memberCount int
	)
	// Locks both the team row and its event row. The event row lock
	// serializes joins against individual ticket issuance, which takes
	// the same lock.
	err = tx.QueryRow(ctx,
		`SELECT t.status, t.event_id, e.min_team_size, e.max_team_size
		 FROM teams t JOIN events e ON e.id = t.event_id
		 WHERE t.id = $1
		 FOR UPDATE`,
		teamID,
	).Scan(&status, &eventID, &minSize, &maxSize)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, model.ErrNotFound
		}
		return nil, false, fmt.Errorf("lock team row: %w", err)
	}

	if err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID,
	).Scan(&memberCount); err != nil {
		return nil, false, fmt.Errorf("count members: %w", err)
	}
	if memberCount >= maxSize {
		err = fmt.Errorf("%w: team is full", model.ErrCapacityExceeded)
		return nil, false, err
	}

	var hasTicket bool
	if err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE event_id = $1 AND user_id = $2 AND status = 'Confirmed')`,
		eventID, userID,
	).Scan(&hasTicket); err != nil {
		return nil, false, fmt.Errorf("check tickets: %w", err)
	}
	if hasTicket {
		err = fmt.Errorf("%w: you already have a ticket for this event", model.ErrAlreadyRegistered)
		return nil, false, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id, event_id) VALUES ($1,$2,$3)`,
		teamID, userID, eventID,
	)
	if err != nil {
		if uniqueViolation(err, "ux_team_members_event") {
			err = model.ErrAlreadyInTeam
			return nil, false, err
		}
		return nil, false, fmt.Errorf("insert member: %w", err)
	}

	if status == model.TeamForming && memberCount+1 >= minSize {
		if _, err = tx.Exec(ctx,
			`UPDATE teams SET status = 'Complete' WHERE id = $1`, teamID,
		); err != nil {
			return nil, false, fmt.Errorf("complete team: %w", err)
		}
		completedNow = true
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}

	team, err = r.GetByID(ctx, teamID)
	if err != nil {
		return nil, false, err
	}
	return team, completedNow, nil
}

// GetByID returns a team with its roster, or model.ErrNotFound.
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	return r.get(ctx, `SELECT id, name, code, leader_id, event_id, status, created_at
		FROM teams WHERE id = $1`, id)
}

// GetByCode resolves a join code scoped to an event, or
// model.ErrNotFound.
func (r *TeamRepository) GetByCode(ctx context.Context, eventID, code string) (*model.Team, error) {
	return r.get(ctx, `SELECT id, name, code, leader_id, event_id, status, created_at
		FROM teams WHERE event_id = $1 AND code = $2`, eventID, code)
}

// GetForUser returns the team the user belongs to for the event (as
// leader or member), or model.ErrNotFound.
func (r *TeamRepository) GetForUser(ctx context.Context, eventID, userID string) (*model.Team, error) {
	return r.get(ctx, `SELECT t.id, t.name, t.code, t.leader_id, t.event_id, t.status, t.created_at
		FROM teams t JOIN team_members m ON m.team_id = t.id
		WHERE t.event_id = $1 AND m.user_id = $2`, eventID, userID)
}

func (r *TeamRepository) get(ctx context.Context, query string, args ...any) (*model.Team, error) {
	var t model.Team
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Name, &t.Code, &t.LeaderID, &t.EventID, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	if t.Members, err = r.members(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) members(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}
