// Package model defines the core domain types for the event platform:
// events, teams, tickets, users, their lifecycle state machines and the
// registration form schema.
package model

import (
	"fmt"
	"time"
)

// EventType distinguishes ordinary registration events from
// merchandise sales, which are stock-gated instead of seat-gated.
type EventType string

const (
	EventTypeNormal EventType = "Normal"
	EventTypeMerch  EventType = "Merch"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "Draft"
	EventPublished EventStatus = "Published"
	EventOngoing   EventStatus = "Ongoing"
	EventCompleted EventStatus = "Completed"
	EventClosed    EventStatus = "Closed"
	EventCancelled EventStatus = "Cancelled"
)

// eventTransitions is the legal transition table. Admins bypass it.
var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished},
	EventPublished: {EventOngoing, EventClosed, EventCancelled},
	EventOngoing:   {EventCompleted, EventCancelled},
	EventClosed:    {EventPublished, EventOngoing, EventCancelled},
	EventCompleted: {},
	EventCancelled: {},
}

// CanTransitionTo reports whether the status change is legal for a
// non-admin caller.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseEventStatus validates a status string from the wire.
func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(s) {
	case EventDraft, EventPublished, EventOngoing, EventCompleted, EventClosed, EventCancelled:
		return EventStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown event status %q", ErrValidation, s)
}

// Eligibility restricts who may register for an event.
type Eligibility string

const (
	EligibilityIIIT Eligibility = "IIIT"
	EligibilityAll  Eligibility = "All"
)

// Event represents a registerable event or a merchandise listing
// created by an organizer. Capacity fields use nil for "unlimited".
type Event struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Type                 EventType   `json:"type"`
	IsTeamEvent          bool        `json:"is_team_event"`
	MinTeamSize          int         `json:"min_team_size"`
	MaxTeamSize          int         `json:"max_team_size"`
	MaxTeams             *int        `json:"max_teams"`
	StartDate            time.Time   `json:"start_date"`
	EndDate              time.Time   `json:"end_date"`
	RegistrationDeadline time.Time   `json:"registration_deadline"`
	Tags                 []string    `json:"tags"`
	OrganizerID          string      `json:"organizer_id"`
	FormFields           []FormField `json:"form_fields"`
	MaxParticipants      *int        `json:"max_participants"`
	Price                int         `json:"price"`
	Stock                *int        `json:"stock"`
	Eligibility          Eligibility `json:"eligibility"`
	Status               EventStatus `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// RegistrationOpen reports whether the event accepts new registrations
// at the given instant: it must be Published and before its deadline.
func (e *Event) RegistrationOpen(now time.Time) error {
	if e.Status != EventPublished {
		return fmt.Errorf("%w: event is %s, not open for registration", ErrStateConflict, e.Status)
	}
	if now.After(e.RegistrationDeadline) {
		return fmt.Errorf("%w: registration deadline has passed", ErrStateConflict)
	}
	return nil
}
