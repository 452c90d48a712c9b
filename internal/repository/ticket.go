package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campus-events/platform/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `id, user_id, event_id, team_id, answers, status, checked_in,
	feedback_given, check_in_time, registered_at`

// TicketRepository handles persistence for tickets.
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

// Issue performs a concurrency-safe admission inside one transaction.
//
// A naive count-then-insert lets two concurrent requests both observe
// slack and both admit, oversubscribing the event. Here the event row
// is locked with SELECT ... FOR UPDATE, so concurrent issuances for the
// same event serialize: only one transaction at a time can read the
// counter and write the admitting record.
//
// Two storage constraints backstop the application logic:
//   - ux_tickets_active turns a duplicate (user, event) admission into
//     a definitive unique violation, mapped to ErrAlreadyRegistered;
//   - merchandise stock is decremented with "stock = stock - 1 WHERE
//     stock > 0", so it can never go negative.
func (r *TicketRepository) Issue(ctx context.Context, t *model.Ticket) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row to serialize capacity checks for this event.
	var (
		eventType       model.EventType
		maxParticipants *int
		stock           *int
	)
	err = tx.QueryRow(ctx,
		`SELECT type, max_participants, stock FROM events WHERE id = $1 FOR UPDATE`,
		t.EventID,
	).Scan(&eventType, &maxParticipants, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	// Individual tickets are mutually exclusive with team membership.
	// The team paths lock the same event row before touching
	// team_members, so this check cannot interleave with a join.
	if t.TeamID == nil {
		var inTeam bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM team_members WHERE event_id = $1 AND user_id = $2)`,
			t.EventID, t.UserID,
		).Scan(&inTeam)
		if err != nil {
			return fmt.Errorf("check team membership: %w", err)
		}
		if inTeam {
			err = fmt.Errorf("%w: register through your team instead", model.ErrAlreadyInTeam)
			return err
		}
	}

	// Participant capacity: nil means unlimited.
	if maxParticipants != nil {
		var confirmed int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM tickets WHERE event_id = $1 AND status = 'Confirmed'`,
			t.EventID,
		).Scan(&confirmed)
		if err != nil {
			return fmt.Errorf("count confirmed tickets: %w", err)
		}
		if confirmed >= *maxParticipants {
			err = fmt.Errorf("%w: event has reached maximum capacity", model.ErrCapacityExceeded)
			return err
		}
	}

	// Merchandise stock: atomic decrement-if-positive.
	if eventType == model.EventTypeMerch && stock != nil {
		tag, decErr := tx.Exec(ctx,
			`UPDATE events SET stock = stock - 1 WHERE id = $1 AND stock > 0`,
			t.EventID,
		)
		if decErr != nil {
			err = fmt.Errorf("decrement stock: %w", decErr)
			return err
		}
		if tag.RowsAffected() == 0 {
			err = fmt.Errorf("%w: merchandise is out of stock", model.ErrCapacityExceeded)
			return err
		}
	}

	answers, err := json.Marshal(t.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO tickets (id, user_id, event_id, team_id, answers, status, checked_in,
			feedback_given, registered_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.UserID, t.EventID, t.TeamID, answers, t.Status, t.CheckedIn,
		t.FeedbackGiven, t.RegisteredAt,
	)
	if err != nil {
		if uniqueViolation(err, "ux_tickets_active") {
			err = model.ErrAlreadyRegistered
			return err
		}
		return fmt.Errorf("insert ticket: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Cancel soft-deletes the user's Confirmed ticket for the event and
// releases a merchandise stock unit in the same transaction. The row is
// never deleted so check-in and feedback history stay attributable.
func (r *TicketRepository) Cancel(ctx context.Context, userID, eventID string) (ticket *model.Ticket, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx,
		`UPDATE tickets SET status = 'Cancelled'
		 WHERE user_id = $1 AND event_id = $2 AND status = 'Confirmed'
		 RETURNING `+ticketColumns,
		userID, eventID,
	)
	ticket, err = scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: you are not registered for this event", model.ErrNotFound)
			return nil, err
		}
		return nil, fmt.Errorf("cancel ticket: %w", err)
	}

	// Stock release only applies to bounded merchandise.
	_, err = tx.Exec(ctx,
		`UPDATE events SET stock = stock + 1
		 WHERE id = $1 AND type = 'Merch' AND stock IS NOT NULL`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("release stock: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ticket, nil
}

// GetByID returns a single ticket or model.ErrNotFound.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// FindConfirmed returns the user's Confirmed ticket for the event, or
// model.ErrNotFound.
func (r *TicketRepository) FindConfirmed(ctx context.Context, userID, eventID string) (*model.Ticket, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE user_id = $1 AND event_id = $2 AND status = 'Confirmed'`,
		userID, eventID,
	)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return t, nil
}

// ListByUser returns all of the user's tickets, newest first.
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY registered_at DESC`,
		userID)
}

// ListByEvent returns all tickets for an event, newest first.
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	return r.list(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 ORDER BY registered_at DESC`,
		eventID)
}

// CheckIn marks the ticket as used. The conditional WHERE makes the
// scan idempotent under concurrent duplicate scans: the second writer
// matches zero rows and gets ErrStateConflict.
func (r *TicketRepository) CheckIn(ctx context.Context, ticketID string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET checked_in = TRUE, check_in_time = $2
		 WHERE id = $1 AND status = 'Confirmed' AND checked_in = FALSE`,
		ticketID, at,
	)
	if err != nil {
		return fmt.Errorf("check in ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ticket already used or not valid", model.ErrStateConflict)
	}
	return nil
}

// MarkFeedbackGiven flags the ticket after feedback submission; the
// conditional WHERE rejects a second submission.
func (r *TicketRepository) MarkFeedbackGiven(ctx context.Context, ticketID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET feedback_given = TRUE
		 WHERE id = $1 AND feedback_given = FALSE`,
		ticketID,
	)
	if err != nil {
		return fmt.Errorf("mark feedback given: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: feedback already submitted for this event", model.ErrStateConflict)
	}
	return nil
}

func (r *TicketRepository) list(ctx context.Context, query string, arg any) ([]model.Ticket, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	var answers []byte
	err := row.Scan(
		&t.ID, &t.UserID, &t.EventID, &t.TeamID, &answers, &t.Status, &t.CheckedIn,
		&t.FeedbackGiven, &t.CheckInTime, &t.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &t.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &t, nil
}
