package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/model"
)

// RegistrationService drives individual registration and merchandise
// purchase: the capacity-gated issuance path, cancellation with stock
// release, and ticket check-in.
type RegistrationService struct {
	events   EventStore
	tickets  TicketStore
	teams    TeamStore
	users    UserStore
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(events EventStore, tickets TicketStore, teams TeamStore, users UserStore, notifier Notifier, log *logrus.Logger) *RegistrationService {
	return &RegistrationService{
		events:   events,
		tickets:  tickets,
		teams:    teams,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Register admits a participant to an event (or sells one merchandise
// unit; the path is the same, gated by stock instead of seats).
//
// The lifecycle, deadline, team-exclusivity and form checks run first;
// the capacity check itself happens inside TicketStore.Issue, which is
// atomic. A failed issuance leaves zero trace; a duplicate attempt
// returns ErrAlreadyRegistered without creating a second ticket.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID string, answers []model.Answer) (*model.Ticket, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.RegistrationOpen(s.now().UTC()); err != nil {
		return nil, err
	}

	// A team membership and an individual ticket are mutually exclusive
	// for the same event.
	if _, err := s.teams.GetForUser(ctx, eventID, userID); err == nil {
		return nil, fmt.Errorf("%w: register through your team instead", model.ErrAlreadyInTeam)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if answers == nil {
		answers = []model.Answer{}
	}
	if err := model.ValidateAnswers(event.FormFields, answers); err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		ID:           uuid.New().String(),
		UserID:       userID,
		EventID:      eventID,
		Answers:      answers,
		Status:       model.TicketConfirmed,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.tickets.Issue(ctx, ticket); err != nil {
		return nil, err
	}

	// Side effects only after the ticket durably exists, and they never
	// roll it back.
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		s.notifier.TicketConfirmed(user, event, ticket)
	} else {
		s.log.WithError(err).WithField("user", userID).Warn("load user for confirmation notice")
	}
	s.log.WithFields(logrus.Fields{"ticket": ticket.ID, "event": eventID, "user": userID}).Info("ticket issued")
	return ticket, nil
}

// Cancel transitions the caller's Confirmed ticket to Cancelled and
// releases any merchandise stock unit. The roster of a team the user
// belongs to is untouched.
func (s *RegistrationService) Cancel(ctx context.Context, userID, eventID string) (*model.Ticket, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.Cancel(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	if user, err := s.users.GetByID(ctx, userID); err == nil {
		s.notifier.RegistrationCancelled(user, event, ticket)
	}
	s.log.WithFields(logrus.Fields{"ticket": ticket.ID, "event": eventID}).Info("ticket cancelled")
	return ticket, nil
}

// Scan checks a ticket in. Only the organizer owning the ticket's event
// may scan it; cancelled and already-used tickets are rejected. The
// underlying update is conditional, so concurrent duplicate scans admit
// exactly once.
func (s *RegistrationService) Scan(ctx context.Context, p Principal, ticketID string) (*model.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only scan tickets for your own events", model.ErrForbidden)
	}
	if ticket.Status != model.TicketConfirmed {
		return nil, fmt.Errorf("%w: this ticket is %s", model.ErrStateConflict, ticket.Status)
	}
	if ticket.CheckedIn {
		return nil, fmt.Errorf("%w: this ticket has already been used", model.ErrStateConflict)
	}

	at := s.now().UTC()
	if err := s.tickets.CheckIn(ctx, ticketID, at); err != nil {
		return nil, err
	}
	ticket.CheckedIn = true
	ticket.CheckInTime = &at
	s.log.WithFields(logrus.Fields{"ticket": ticketID, "event": event.ID}).Info("ticket checked in")
	return ticket, nil
}

// MyRegistrations lists the caller's tickets across events.
func (s *RegistrationService) MyRegistrations(ctx context.Context, userID string) ([]model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// Participants lists an event's tickets for its organizer.
func (s *RegistrationService) Participants(ctx context.Context, p Principal, eventID string) ([]model.Ticket, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.UserID {
		return nil, fmt.Errorf("%w: you can only view participants for your own events", model.ErrForbidden)
	}
	return s.tickets.ListByEvent(ctx, eventID)
}

// GetTicket returns a ticket to its owner or the event's organizer.
func (s *RegistrationService) GetTicket(ctx context.Context, p Principal, ticketID string) (*model.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID == p.UserID {
		return ticket, nil
	}
	event, err := s.events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != p.UserID {
		return nil, model.ErrForbidden
	}
	return ticket, nil
}
