package repository

import (
	"context"
	"fmt"

	"github.com/campus-events/platform/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FeedbackRepository handles persistence for anonymous event feedback.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO feedback (id, event_id, rating, comment, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		f.ID, f.EventID, f.Rating, f.Comment, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListByEvent returns all feedback for an event, newest first.
func (r *FeedbackRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Feedback, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, rating, comment, created_at
		 FROM feedback WHERE event_id = $1 ORDER BY created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var entries []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.EventID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}
