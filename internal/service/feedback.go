package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/model"
)

// FeedbackService accepts anonymous post-event feedback from attendees
// and aggregates it for organizers.
type FeedbackService struct {
	events   EventStore
	tickets  TicketStore
	feedback FeedbackStore
	log      *logrus.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(events EventStore, tickets TicketStore, feedback FeedbackStore, log *logrus.Logger) *FeedbackService {
	return &FeedbackService{events: events, tickets: tickets, feedback: feedback, log: log}
}

// Submit records one anonymous rating for a Completed event. The caller
// must hold a checked-in Confirmed ticket and may submit only once; the
// ticket's feedbackGiven flag carries the attribution, the feedback row
// carries none.
func (s *FeedbackService) Submit(ctx context.Context, userID, eventID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", model.ErrValidation)
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != model.EventCompleted {
		return fmt.Errorf("%w: feedback is only accepted for completed events", model.ErrStateConflict)
	}

	ticket, err := s.tickets.FindConfirmed(ctx, userID, eventID)
	if err != nil {
		return fmt.Errorf("%w: you must attend the event to leave feedback", model.ErrForbidden)
	}
	if !ticket.CheckedIn {
		return fmt.Errorf("%w: you must attend the event to leave feedback", model.ErrForbidden)
	}

	// Conditional flag update doubles as the double-submission guard.
	if err := s.tickets.MarkFeedbackGiven(ctx, ticket.ID); err != nil {
		return err
	}
	entry := &model.Feedback{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.feedback.Create(ctx, entry); err != nil {
		return err
	}
	s.log.WithField("event", eventID).Info("feedback submitted")
	return nil
}

// FeedbackSummary aggregates an event's ratings.
type FeedbackSummary struct {
	Total        int              `json:"total"`
	Average      float64          `json:"average"`
	Distribution map[int]int      `json:"distribution"`
	Entries      []model.Feedback `json:"entries"`
}

// Summary returns the aggregate feedback for the organizer's event.
func (s *FeedbackService) Summary(ctx context.Context, p Principal, eventID string) (*FeedbackSummary, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only view feedback for your own events", model.ErrForbidden)
	}

	entries, err := s.feedback.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	summary := &FeedbackSummary{
		Total:        len(entries),
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Entries:      entries,
	}
	sum := 0
	for _, e := range entries {
		sum += e.Rating
		summary.Distribution[e.Rating]++
	}
	if summary.Total > 0 {
		summary.Average = float64(sum) / float64(summary.Total)
	}
	return summary, nil
}
