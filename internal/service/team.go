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

// maxCodeAttempts bounds the join-code retry loop. With 36^6 candidates
// the loop practically never retries, but a bound keeps a pathological
// collision rate from spinning forever.
const maxCodeAttempts = 10

// TeamService coordinates team formation: creation against the
// event's team-slot limit, joining by code, and the one-way
// Forming -> Complete transition with its ticket fan-out.
type TeamService struct {
	events   EventStore
	teams    TeamStore
	tickets  TicketStore
	users    UserStore
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewTeamService constructs a TeamService.
func NewTeamService(events EventStore, teams TeamStore, tickets TicketStore, users UserStore, notifier Notifier, log *logrus.Logger) *TeamService {
	return &TeamService{
		events:   events,
		teams:    teams,
		tickets:  tickets,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// TeamResult is the outcome of a create or join operation. Ticket is
// non-nil when the operation itself issued one for the caller. Pending
// lists members whose fan-out issuance failed and needs retry; the team
// stays Complete regardless.
type TeamResult struct {
	Team    *model.Team   `json:"team"`
	Ticket  *model.Ticket `json:"ticket,omitempty"`
	Pending []string      `json:"pending_members,omitempty"`
}

// Create forms a new team for a team event with the caller as leader.
// One team slot is consumed atomically. If the event's minimum team
// size is 1 the team is born Complete and the leader is ticketed
// immediately.
func (s *TeamService) Create(ctx context.Context, userID, eventID, name string) (*TeamResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", model.ErrValidation)
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsTeamEvent {
		return nil, fmt.Errorf("%w: this is not a team event", model.ErrValidation)
	}
	if err := s.ensureUnaffiliated(ctx, eventID, userID); err != nil {
		return nil, err
	}

	status := model.TeamForming
	if event.MinTeamSize <= 1 {
		status = model.TeamComplete
	}

	var team *model.Team
	for attempt := 0; ; attempt++ {
		candidate := &model.Team{
			ID:        uuid.New().String(),
			Name:      name,
			Code:      model.NewTeamCode(),
			LeaderID:  userID,
			Members:   []string{userID},
			EventID:   eventID,
			Status:    status,
			CreatedAt: s.now().UTC(),
		}
		err = s.teams.Create(ctx, candidate)
		if err == nil {
			team = candidate
			break
		}
		if errors.Is(err, repository.ErrCodeConflict) && attempt+1 < maxCodeAttempts {
			continue
		}
		return nil, err
	}

	result := &TeamResult{Team: team}
	if team.Status == model.TeamComplete {
		result.Ticket, result.Pending = s.fanOut(ctx, event, team, userID)
	}

	if leader, err := s.users.GetByID(ctx, userID); err == nil {
		s.notifier.TeamCreated(leader, event, team)
	}
	s.log.WithFields(logrus.Fields{"team": team.ID, "event": eventID, "leader": userID}).Info("team created")
	return result, nil
}

// Join adds the caller to the team identified by a join code for the
// event. When membership first reaches the event's minimum size the
// team transitions to Complete and every current member is ticketed at
// once. Joining an already-Complete team tickets only the joiner.
func (s *TeamService) Join(ctx context.Context, userID, eventID, code string) (*TeamResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: team code is required", model.ErrValidation)
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.GetByCode(ctx, eventID, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid team code for this event", model.ErrNotFound)
		}
		return nil, err
	}
	if err := s.ensureUnaffiliated(ctx, eventID, userID); err != nil {
		return nil, err
	}

	wasComplete := team.Status == model.TeamComplete
	team, completedNow, err := s.teams.AddMember(ctx, team.ID, userID)
	if err != nil {
		return nil, err
	}

	result := &TeamResult{Team: team}
	switch {
	case completedNow:
		// Fan-out: one ticket per current member, tagged with the team.
		result.Ticket, result.Pending = s.fanOut(ctx, event, team, userID)
	case wasComplete:
		// Late join of an already-Complete team: only the joiner gets a
		// fresh ticket.
		ticket, err := s.issueMember(ctx, event, team, userID)
		if err != nil {
			result.Pending = append(result.Pending, userID)
			s.log.WithError(err).WithFields(logrus.Fields{"team": team.ID, "user": userID}).
				Error("late-join issuance failed")
		} else {
			result.Ticket = ticket
		}
	}

	if user, err := s.users.GetByID(ctx, userID); err == nil {
		s.notifier.TeamJoined(user, event, team)
	}
	s.log.WithFields(logrus.Fields{"team": team.ID, "user": userID, "complete": completedNow}).Info("team joined")
	return result, nil
}

// MyTeam returns the caller's team for the event.
func (s *TeamService) MyTeam(ctx context.Context, userID, eventID string) (*model.Team, error) {
	return s.teams.GetForUser(ctx, eventID, userID)
}

// ensureUnaffiliated rejects callers who already hold a team membership
// or an individual ticket for the event. These pre-checks only produce
// a friendly error early; the stores repeat them inside their
// transactions under the event row lock, which is the authoritative
// guard.
func (s *TeamService) ensureUnaffiliated(ctx context.Context, eventID, userID string) error {
	if _, err := s.teams.GetForUser(ctx, eventID, userID); err == nil {
		return model.ErrAlreadyInTeam
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	if _, err := s.tickets.FindConfirmed(ctx, userID, eventID); err == nil {
		return fmt.Errorf("%w: you already have a ticket for this event", model.ErrAlreadyRegistered)
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}

// fanOut issues one ticket per roster member after a completion
// transition. The N issuances are not atomic as a group: each is
// individually idempotent, an existing ticket counts as success, and
// members whose issuance failed are reported for retry rather than
// rolling the team back. The caller is identified by id, never by
// roster position: the roster is re-read after commit and may already
// include members who joined in the meantime.
func (s *TeamService) fanOut(ctx context.Context, event *model.Event, team *model.Team, callerID string) (callerTicket *model.Ticket, pending []string) {
	for _, memberID := range team.Members {
		ticket, err := s.issueMember(ctx, event, team, memberID)
		if err != nil {
			pending = append(pending, memberID)
			s.log.WithError(err).WithFields(logrus.Fields{"team": team.ID, "user": memberID}).
				Error("fan-out issuance failed")
			continue
		}
		if memberID == callerID {
			callerTicket = ticket
		}
		if member, err := s.users.GetByID(ctx, memberID); err == nil {
			s.notifier.TeamCompleted(member, event, team)
		}
	}
	return callerTicket, pending
}

// issueMember creates one team-tagged ticket. ErrAlreadyRegistered is
// success: the member is admitted either way.
func (s *TeamService) issueMember(ctx context.Context, event *model.Event, team *model.Team, memberID string) (*model.Ticket, error) {
	ticket := &model.Ticket{
		ID:           uuid.New().String(),
		UserID:       memberID,
		EventID:      event.ID,
		TeamID:       &team.ID,
		Answers:      []model.Answer{},
		Status:       model.TicketConfirmed,
		RegisteredAt: s.now().UTC(),
	}
	err := s.tickets.Issue(ctx, ticket)
	if errors.Is(err, model.ErrAlreadyRegistered) {
		return s.tickets.FindConfirmed(ctx, memberID, event.ID)
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}
