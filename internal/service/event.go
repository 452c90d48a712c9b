package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/model"
	"github.com/campus-events/platform/internal/repository"
)

// EventService owns the event lifecycle: creation, role-filtered
// visibility, status-dependent editing rules, the status transition
// table and deletion.
type EventService struct {
	events   EventStore
	users    UserStore
	notifier Notifier
	log      *logrus.Logger
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore, users UserStore, notifier Notifier, log *logrus.Logger) *EventService {
	return &EventService{events: events, users: users, notifier: notifier, log: log}
}

// CreateEventRequest is the payload for creating an event.
type CreateEventRequest struct {
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Type                 model.EventType   `json:"type"`
	IsTeamEvent          bool              `json:"is_team_event"`
	MinTeamSize          int               `json:"min_team_size"`
	MaxTeamSize          int               `json:"max_team_size"`
	MaxTeams             *int              `json:"max_teams"`
	StartDate            time.Time         `json:"start_date"`
	EndDate              time.Time         `json:"end_date"`
	RegistrationDeadline time.Time         `json:"registration_deadline"`
	Tags                 []string          `json:"tags"`
	FormFields           []model.FormField `json:"form_fields"`
	MaxParticipants      *int              `json:"max_participants"`
	Price                int               `json:"price"`
	Stock                *int              `json:"stock"`
	Eligibility          model.Eligibility `json:"eligibility"`
}

// Create validates the request and creates a Draft event owned by the
// organizer.
func (s *EventService) Create(ctx context.Context, organizerID string, req CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return nil, fmt.Errorf("%w: name and description are required", model.ErrValidation)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.RegistrationDeadline.IsZero() {
		return nil, fmt.Errorf("%w: start date, end date and registration deadline are required", model.ErrValidation)
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date cannot be before start date", model.ErrValidation)
	}
	if req.RegistrationDeadline.After(req.StartDate) {
		return nil, fmt.Errorf("%w: registration deadline cannot be after start date", model.ErrValidation)
	}
	if req.Type == "" {
		req.Type = model.EventTypeNormal
	}
	if req.Type != model.EventTypeNormal && req.Type != model.EventTypeMerch {
		return nil, fmt.Errorf("%w: unknown event type %q", model.ErrValidation, req.Type)
	}
	if req.Eligibility == "" {
		req.Eligibility = model.EligibilityAll
	}
	if req.MinTeamSize <= 0 {
		req.MinTeamSize = 1
	}
	if req.MaxTeamSize <= 0 {
		req.MaxTeamSize = 1
	}
	if req.IsTeamEvent && req.MaxTeamSize < req.MinTeamSize {
		return nil, fmt.Errorf("%w: max team size cannot be below min team size", model.ErrValidation)
	}
	if req.MaxParticipants != nil && *req.MaxParticipants <= 0 {
		return nil, fmt.Errorf("%w: max participants must be positive", model.ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", model.ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", model.ErrValidation)
	}
	if err := model.ValidateFormFields(req.FormFields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:                   uuid.New().String(),
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 req.Type,
		IsTeamEvent:          req.IsTeamEvent,
		MinTeamSize:          req.MinTeamSize,
		MaxTeamSize:          req.MaxTeamSize,
		MaxTeams:             req.MaxTeams,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		Tags:                 req.Tags,
		OrganizerID:          organizerID,
		FormFields:           req.FormFields,
		MaxParticipants:      req.MaxParticipants,
		Price:                req.Price,
		Stock:                req.Stock,
		Eligibility:          req.Eligibility,
		Status:               model.EventDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"event": event.ID, "organizer": organizerID}).Info("event created")
	return event, nil
}

// List returns events visible to the principal: organizers see their
// own, participants see Published, admins see everything.
func (s *EventService) List(ctx context.Context, p Principal) ([]model.Event, error) {
	var filter repository.EventFilter
	switch p.Role {
	case model.RoleOrganizer:
		filter.OrganizerID = p.UserID
	case model.RoleParticipant:
		filter.Status = model.EventPublished
	}
	return s.events.List(ctx, filter)
}

// Get returns a single event, applying the same visibility rules as
// List.
func (s *EventService) Get(ctx context.Context, p Principal, id string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role == model.RoleOrganizer && event.OrganizerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only view your own events", model.ErrForbidden)
	}
	if p.Role == model.RoleParticipant && event.Status != model.EventPublished {
		return nil, fmt.Errorf("%w: this event is not published", model.ErrForbidden)
	}
	return event, nil
}

// UpdateEventRequest carries optional edits; nil fields are untouched.
type UpdateEventRequest struct {
	Name                 *string            `json:"name"`
	Description          *string            `json:"description"`
	Type                 *model.EventType   `json:"type"`
	IsTeamEvent          *bool              `json:"is_team_event"`
	MinTeamSize          *int               `json:"min_team_size"`
	MaxTeamSize          *int               `json:"max_team_size"`
	StartDate            *time.Time         `json:"start_date"`
	EndDate              *time.Time         `json:"end_date"`
	RegistrationDeadline *time.Time         `json:"registration_deadline"`
	Tags                 *[]string          `json:"tags"`
	FormFields           *[]model.FormField `json:"form_fields"`
	MaxParticipants      *int               `json:"max_participants"`
	MaxTeams             *int               `json:"max_teams"`
	Price                *int               `json:"price"`
	Stock                *int               `json:"stock"`
	Eligibility          *model.Eligibility `json:"eligibility"`
	Status               *string            `json:"status"`
}

// hasDetailEdits reports whether the request touches anything besides
// the status.
func (r UpdateEventRequest) hasDetailEdits() bool {
	return r.Name != nil || r.Description != nil || r.Type != nil || r.IsTeamEvent != nil ||
		r.MinTeamSize != nil || r.MaxTeamSize != nil || r.StartDate != nil || r.EndDate != nil ||
		r.RegistrationDeadline != nil || r.Tags != nil || r.FormFields != nil ||
		r.MaxParticipants != nil || r.MaxTeams != nil || r.Price != nil || r.Stock != nil ||
		r.Eligibility != nil
}

// Update applies status-dependent editing rules:
//
//   - Draft: all fields editable;
//   - Published: description, dates, capacity, stock and team limit
//     only;
//   - Ongoing/Completed/Closed/Cancelled: status changes only.
//
// Form fields lock as soon as the first registration exists, in any
// status. Status changes go through the transition table; admins bypass
// it.
func (s *EventService) Update(ctx context.Context, p Principal, id string, req UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != model.RoleAdmin && event.OrganizerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only update your own events", model.ErrForbidden)
	}

	if req.FormFields != nil {
		registered, err := s.events.HasTickets(ctx, id)
		if err != nil {
			return nil, err
		}
		if registered {
			return nil, fmt.Errorf("%w: form fields are locked after the first registration", model.ErrStateConflict)
		}
		if err := model.ValidateFormFields(*req.FormFields); err != nil {
			return nil, err
		}
	}

	switch event.Status {
	case model.EventDraft:
		if req.Name != nil {
			event.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			event.Description = strings.TrimSpace(*req.Description)
		}
		if req.Type != nil {
			if *req.Type != model.EventTypeNormal && *req.Type != model.EventTypeMerch {
				return nil, fmt.Errorf("%w: unknown event type %q", model.ErrValidation, *req.Type)
			}
			event.Type = *req.Type
		}
		if req.IsTeamEvent != nil {
			event.IsTeamEvent = *req.IsTeamEvent
		}
		if req.MinTeamSize != nil {
			if *req.MinTeamSize <= 0 {
				return nil, fmt.Errorf("%w: min team size must be positive", model.ErrValidation)
			}
			event.MinTeamSize = *req.MinTeamSize
		}
		if req.MaxTeamSize != nil {
			if *req.MaxTeamSize <= 0 {
				return nil, fmt.Errorf("%w: max team size must be positive", model.ErrValidation)
			}
			event.MaxTeamSize = *req.MaxTeamSize
		}
		if event.IsTeamEvent && event.MaxTeamSize < event.MinTeamSize {
			return nil, fmt.Errorf("%w: max team size cannot be below min team size", model.ErrValidation)
		}
		if req.Eligibility != nil {
			if *req.Eligibility != model.EligibilityAll && *req.Eligibility != model.EligibilityIIIT {
				return nil, fmt.Errorf("%w: unknown eligibility %q", model.ErrValidation, *req.Eligibility)
			}
			event.Eligibility = *req.Eligibility
		}
		if req.StartDate != nil {
			event.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			event.EndDate = *req.EndDate
		}
		if req.RegistrationDeadline != nil {
			event.RegistrationDeadline = *req.RegistrationDeadline
		}
		if req.Tags != nil {
			event.Tags = *req.Tags
		}
		if req.FormFields != nil {
			event.FormFields = *req.FormFields
		}
		if req.MaxParticipants != nil {
			event.MaxParticipants = req.MaxParticipants
		}
		if req.MaxTeams != nil {
			event.MaxTeams = req.MaxTeams
		}
		if req.Price != nil {
			event.Price = *req.Price
		}
	case model.EventPublished:
		if req.Description != nil {
			event.Description = strings.TrimSpace(*req.Description)
		}
		if req.StartDate != nil {
			event.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			event.EndDate = *req.EndDate
		}
		if req.RegistrationDeadline != nil {
			event.RegistrationDeadline = *req.RegistrationDeadline
		}
		if req.MaxParticipants != nil {
			event.MaxParticipants = req.MaxParticipants
		}
		if req.MaxTeams != nil {
			event.MaxTeams = req.MaxTeams
		}
	default:
		if req.hasDetailEdits() {
			return nil, fmt.Errorf("%w: event is %s, only status can be changed", model.ErrStateConflict, event.Status)
		}
	}

	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", model.ErrValidation)
	}

	if req.Status != nil {
		next, err := model.ParseEventStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if next != event.Status {
			if !event.Status.CanTransitionTo(next) && p.Role != model.RoleAdmin {
				return nil, fmt.Errorf("%w: cannot change status from %s to %s", model.ErrStateConflict, event.Status, next)
			}
			event.Status = next
		}
	}

	event.UpdatedAt = time.Now().UTC()
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	// The blanket update never touches stock: a purchase can decrement
	// the counter between the read above and the write, and writing the
	// snapshot back would undo it. An explicit restock goes through its
	// own single-statement path.
	if req.Stock != nil {
		if err := s.events.SetStock(ctx, id, req.Stock); err != nil {
			return nil, err
		}
		event.Stock = req.Stock
	}
	return event, nil
}

// Publish transitions a Draft event to Published and announces it.
func (s *EventService) Publish(ctx context.Context, p Principal, id string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only publish your own events", model.ErrForbidden)
	}
	if event.Status != model.EventDraft {
		return nil, fmt.Errorf("%w: only Draft events can be published", model.ErrStateConflict)
	}
	event.Status = model.EventPublished
	event.UpdatedAt = time.Now().UTC()
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}

	if organizer, err := s.users.GetByID(ctx, event.OrganizerID); err == nil {
		s.notifier.EventPublished(organizer, event)
	} else if !errors.Is(err, model.ErrNotFound) {
		s.log.WithError(err).Warn("load organizer for publish announcement")
	}
	s.log.WithField("event", event.ID).Info("event published")
	return event, nil
}

// Delete removes the event; tickets, teams and feedback cascade.
func (s *EventService) Delete(ctx context.Context, p Principal, id string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Role != model.RoleAdmin && event.OrganizerID != p.UserID {
		return fmt.Errorf("%w: you can only delete your own events", model.ErrForbidden)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("event", id).Info("event deleted")
	return nil
}
