package model

import "time"

// TicketStatus is the lifecycle state of a ticket. Cancellation is a
// soft delete: rows are never removed so check-in and feedback history
// stay attributable.
type TicketStatus string

const (
	TicketConfirmed TicketStatus = "Confirmed"
	TicketCancelled TicketStatus = "Cancelled"
)

// Ticket is an admission record. At most one Confirmed ticket may exist
// per (user, event) pair at any time; that pair is the admission key
// counted against capacity.
type Ticket struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	EventID       string       `json:"event_id"`
	TeamID        *string      `json:"team_id,omitempty"`
	Answers       []Answer     `json:"answers"`
	Status        TicketStatus `json:"status"`
	CheckedIn     bool         `json:"checked_in"`
	FeedbackGiven bool         `json:"feedback_given"`
	CheckInTime   *time.Time   `json:"check_in_time,omitempty"`
	RegisteredAt  time.Time    `json:"registered_at"`
}

// Feedback is an anonymous post-event rating. It deliberately carries
// no user reference; attribution lives on the ticket's feedbackGiven
// flag instead.
type Feedback struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
