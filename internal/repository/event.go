package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campus-events/platform/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, name, description, type, is_team_event, min_team_size, max_team_size,
	max_teams, start_date, end_date, registration_deadline, tags, organizer_id, form_fields,
	max_participants, price, stock, eligibility, status, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	fields, err := json.Marshal(e.FormFields)
	if err != nil {
		return fmt.Errorf("marshal form fields: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO events (id, name, description, type, is_team_event, min_team_size,
			max_team_size, max_teams, start_date, end_date, registration_deadline, tags,
			organizer_id, form_fields, max_participants, price, stock, eligibility, status,
			created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		e.ID, e.Name, e.Description, e.Type, e.IsTeamEvent, e.MinTeamSize,
		e.MaxTeamSize, e.MaxTeams, e.StartDate, e.EndDate, e.RegistrationDeadline, e.Tags,
		e.OrganizerID, fields, e.MaxParticipants, e.Price, e.Stock, e.Eligibility, e.Status,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// EventFilter narrows List results. Zero values mean "no filter".
type EventFilter struct {
	OrganizerID string
	Status      model.EventStatus
}

// List returns events matching the filter, newest first.
func (r *EventRepository) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []any{}
	if f.OrganizerID != "" {
		args = append(args, f.OrganizerID)
		query += fmt.Sprintf(" AND organizer_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update persists all mutable fields plus status. The service layer is
// responsible for editing rules. Stock is deliberately absent from this
// statement: it is a live counter mutated by concurrent purchases, and
// writing back the caller's read snapshot would silently revert
// decrements that landed in between. Restocks go through SetStock.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	fields, err := json.Marshal(e.FormFields)
	if err != nil {
		return fmt.Errorf("marshal form fields: %w", err)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET name=$2, description=$3, type=$4, is_team_event=$5,
			min_team_size=$6, max_team_size=$7, max_teams=$8, start_date=$9, end_date=$10,
			registration_deadline=$11, tags=$12, form_fields=$13, max_participants=$14,
			price=$15, eligibility=$16, status=$17, updated_at=$18
		 WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Type, e.IsTeamEvent,
		e.MinTeamSize, e.MaxTeamSize, e.MaxTeams, e.StartDate, e.EndDate,
		e.RegistrationDeadline, e.Tags, fields, e.MaxParticipants,
		e.Price, e.Eligibility, e.Status, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SetStock replaces the stock counter in its own single statement,
// issued only when the organizer explicitly restocks.
func (r *EventRepository) SetStock(ctx context.Context, id string, stock *int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET stock = $2, updated_at = now() WHERE id = $1`,
		id, stock,
	)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the event. Tickets, teams and feedback cascade at the
// schema level.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// HasTickets reports whether any ticket (any status) exists for the
// event. Form fields lock once the first registration arrives.
func (r *EventRepository) HasTickets(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tickets: %w", err)
	}
	return exists, nil
}

// CountTeams returns the number of teams created for the event.
func (r *EventRepository) CountTeams(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM teams WHERE event_id = $1`, eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return n, nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	var fields []byte
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Type, &e.IsTeamEvent, &e.MinTeamSize,
		&e.MaxTeamSize, &e.MaxTeams, &e.StartDate, &e.EndDate, &e.RegistrationDeadline,
		&e.Tags, &e.OrganizerID, &fields, &e.MaxParticipants, &e.Price, &e.Stock,
		&e.Eligibility, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &e.FormFields); err != nil {
		return nil, fmt.Errorf("unmarshal form fields: %w", err)
	}
	return &e, nil
}
