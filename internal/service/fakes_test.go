package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/model"
	"github.com/campus-events/platform/internal/repository"
)

// fakeStore holds all in-memory state behind the per-interface views
// below. A single mutex makes every operation atomic, mirroring the
// serialization the real repositories get from row locks and unique
// indexes, so the concurrency contracts can be exercised without a
// database.
type fakeStore struct {
	mu       sync.Mutex
	events   map[string]*model.Event
	tickets  map[string]*model.Ticket
	teams    map[string]*model.Team
	users    map[string]*model.User
	feedback []model.Feedback
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:  make(map[string]*model.Event),
		tickets: make(map[string]*model.Ticket),
		teams:   make(map[string]*model.Team),
		users:   make(map[string]*model.User),
	}
}

func (f *fakeStore) eventStore() *fakeEvents      { return &fakeEvents{f} }
func (f *fakeStore) ticketStore() *fakeTickets    { return &fakeTickets{f} }
func (f *fakeStore) teamStore() *fakeTeams        { return &fakeTeams{f} }
func (f *fakeStore) userStore() *fakeUsers        { return &fakeUsers{f} }
func (f *fakeStore) feedbackStore() *fakeFeedback { return &fakeFeedback{f} }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func (f *fakeStore) confirmedLocked(eventID string) int {
	n := 0
	for _, t := range f.tickets {
		if t.EventID == eventID && t.Status == model.TicketConfirmed {
			n++
		}
	}
	return n
}

func (f *fakeStore) teamForUserLocked(eventID, userID string) *model.Team {
	for _, t := range f.teams {
		if t.EventID == eventID && t.HasMember(userID) {
			return t
		}
	}
	return nil
}

func (f *fakeStore) hasConfirmedTicketLocked(eventID, userID string) bool {
	for _, t := range f.tickets {
		if t.EventID == eventID && t.UserID == userID && t.Status == model.TicketConfirmed {
			return true
		}
	}
	return false
}

func copyTeam(t *model.Team) *model.Team {
	cp := *t
	cp.Members = append([]string(nil), t.Members...)
	return &cp
}

// copyEvent deep-copies the counter pointers so callers get value
// semantics, the same way a row scan does. Handing out the stored
// *int would let a stale snapshot alias the live counter and hide
// lost-update bugs.
func copyEvent(e *model.Event) *model.Event {
	cp := *e
	if e.Stock != nil {
		v := *e.Stock
		cp.Stock = &v
	}
	if e.MaxParticipants != nil {
		v := *e.MaxParticipants
		cp.MaxParticipants = &v
	}
	if e.MaxTeams != nil {
		v := *e.MaxTeams
		cp.MaxTeams = &v
	}
	return &cp
}

// fakeEvents implements EventStore.
type fakeEvents struct{ s *fakeStore }

func (f *fakeEvents) Create(ctx context.Context, e *model.Event) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.events[e.ID] = copyEvent(e)
	return nil
}

func (f *fakeEvents) GetByID(ctx context.Context, id string) (*model.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyEvent(e), nil
}

func (f *fakeEvents) List(ctx context.Context, filter repository.EventFilter) ([]model.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Event
	for _, e := range f.s.events {
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *copyEvent(e))
	}
	return out, nil
}

// Update mirrors the real repository: the stock counter is never
// written through the blanket update.
func (f *fakeEvents) Update(ctx context.Context, e *model.Event) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	old, ok := f.s.events[e.ID]
	if !ok {
		return model.ErrNotFound
	}
	cp := *copyEvent(e)
	cp.Stock = old.Stock
	f.s.events[e.ID] = &cp
	return nil
}

func (f *fakeEvents) SetStock(ctx context.Context, id string, stock *int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return model.ErrNotFound
	}
	if stock == nil {
		e.Stock = nil
		return nil
	}
	v := *stock
	e.Stock = &v
	return nil
}

func (f *fakeEvents) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.s.events, id)
	for tid, t := range f.s.tickets {
		if t.EventID == id {
			delete(f.s.tickets, tid)
		}
	}
	for tid, t := range f.s.teams {
		if t.EventID == id {
			delete(f.s.teams, tid)
		}
	}
	return nil
}

func (f *fakeEvents) HasTickets(ctx context.Context, eventID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.tickets {
		if t.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEvents) CountTeams(ctx context.Context, eventID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, t := range f.s.teams {
		if t.EventID == eventID {
			n++
		}
	}
	return n, nil
}

// fakeTickets implements TicketStore. Issue reproduces the atomic
// capacity gate: count, stock decrement and duplicate rejection all
// happen under one lock, as they do inside the real transaction.
type fakeTickets struct{ s *fakeStore }

func (f *fakeTickets) Issue(ctx context.Context, t *model.Ticket) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[t.EventID]
	if !ok {
		return model.ErrNotFound
	}
	if t.TeamID == nil && f.s.teamForUserLocked(t.EventID, t.UserID) != nil {
		return fmt.Errorf("%w: register through your team instead", model.ErrAlreadyInTeam)
	}
	if e.MaxParticipants != nil && f.s.confirmedLocked(t.EventID) >= *e.MaxParticipants {
		return fmt.Errorf("%w: event has reached maximum capacity", model.ErrCapacityExceeded)
	}
	if e.Type == model.EventTypeMerch && e.Stock != nil && *e.Stock <= 0 {
		return fmt.Errorf("%w: merchandise is out of stock", model.ErrCapacityExceeded)
	}
	for _, existing := range f.s.tickets {
		if existing.UserID == t.UserID && existing.EventID == t.EventID && existing.Status == model.TicketConfirmed {
			return model.ErrAlreadyRegistered
		}
	}
	if e.Type == model.EventTypeMerch && e.Stock != nil {
		*e.Stock--
	}
	cp := *t
	f.s.tickets[t.ID] = &cp
	return nil
}

func (f *fakeTickets) Cancel(ctx context.Context, userID, eventID string) (*model.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.tickets {
		if t.UserID == userID && t.EventID == eventID && t.Status == model.TicketConfirmed {
			t.Status = model.TicketCancelled
			if e, ok := f.s.events[eventID]; ok && e.Type == model.EventTypeMerch && e.Stock != nil {
				*e.Stock++
			}
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: you are not registered for this event", model.ErrNotFound)
}

func (f *fakeTickets) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) FindConfirmed(ctx context.Context, userID, eventID string) (*model.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.tickets {
		if t.UserID == userID && t.EventID == eventID && t.Status == model.TicketConfirmed {
			cp := *t
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeTickets) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Ticket
	for _, t := range f.s.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTickets) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Ticket
	for _, t := range f.s.tickets {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTickets) CheckIn(ctx context.Context, ticketID string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[ticketID]
	if !ok || t.Status != model.TicketConfirmed || t.CheckedIn {
		return fmt.Errorf("%w: ticket already used or not valid", model.ErrStateConflict)
	}
	t.CheckedIn = true
	t.CheckInTime = &at
	return nil
}

func (f *fakeTickets) MarkFeedbackGiven(ctx context.Context, ticketID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[ticketID]
	if !ok || t.FeedbackGiven {
		return fmt.Errorf("%w: feedback already submitted for this event", model.ErrStateConflict)
	}
	t.FeedbackGiven = true
	return nil
}

// fakeTeams implements TeamStore with the same guards the real schema
// enforces: globally unique codes, one team per user per event, team
// slots consumed under the lock.
type fakeTeams struct{ s *fakeStore }

func (f *fakeTeams) Create(ctx context.Context, t *model.Team) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[t.EventID]
	if !ok {
		return model.ErrNotFound
	}
	if e.MaxTeams != nil {
		n := 0
		for _, existing := range f.s.teams {
			if existing.EventID == t.EventID {
				n++
			}
		}
		if n >= *e.MaxTeams {
			return fmt.Errorf("%w: maximum number of teams reached", model.ErrCapacityExceeded)
		}
	}
	for _, existing := range f.s.teams {
		if existing.Code == t.Code {
			return repository.ErrCodeConflict
		}
	}
	if f.s.teamForUserLocked(t.EventID, t.LeaderID) != nil {
		return model.ErrAlreadyInTeam
	}
	if f.s.hasConfirmedTicketLocked(t.EventID, t.LeaderID) {
		return fmt.Errorf("%w: you already have a ticket for this event", model.ErrAlreadyRegistered)
	}
	f.s.teams[t.ID] = copyTeam(t)
	return nil
}

func (f *fakeTeams) AddMember(ctx context.Context, teamID, userID string) (*model.Team, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.teams[teamID]
	if !ok {
		return nil, false, model.ErrNotFound
	}
	e, ok := f.s.events[t.EventID]
	if !ok {
		return nil, false, model.ErrNotFound
	}
	if len(t.Members) >= e.MaxTeamSize {
		return nil, false, fmt.Errorf("%w: team is already full", model.ErrCapacityExceeded)
	}
	if f.s.teamForUserLocked(t.EventID, userID) != nil {
		return nil, false, model.ErrAlreadyInTeam
	}
	if f.s.hasConfirmedTicketLocked(t.EventID, userID) {
		return nil, false, fmt.Errorf("%w: you already have a ticket for this event", model.ErrAlreadyRegistered)
	}
	t.Members = append(t.Members, userID)
	completedNow := false
	if t.Status == model.TeamForming && len(t.Members) >= e.MinTeamSize {
		t.Status = model.TeamComplete
		completedNow = true
	}
	return copyTeam(t), completedNow, nil
}

func (f *fakeTeams) GetByID(ctx context.Context, id string) (*model.Team, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.teams[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyTeam(t), nil
}

func (f *fakeTeams) GetByCode(ctx context.Context, eventID, code string) (*model.Team, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, t := range f.s.teams {
		if t.EventID == eventID && t.Code == code {
			return copyTeam(t), nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeTeams) GetForUser(ctx context.Context, eventID, userID string) (*model.Team, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if t := f.s.teamForUserLocked(eventID, userID); t != nil {
		return copyTeam(t), nil
	}
	return nil, model.ErrNotFound
}

// fakeUsers implements UserStore.
type fakeUsers struct{ s *fakeStore }

func (f *fakeUsers) Create(ctx context.Context, u *model.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, u *model.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[u.ID]; !ok {
		return model.ErrNotFound
	}
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) ([]model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.User
	for _, u := range f.s.users {
		if u.Email == email {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakeFeedback implements FeedbackStore.
type fakeFeedback struct{ s *fakeStore }

func (f *fakeFeedback) Create(ctx context.Context, entry *model.Feedback) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.feedback = append(f.s.feedback, *entry)
	return nil
}

func (f *fakeFeedback) ListByEvent(ctx context.Context, eventID string) ([]model.Feedback, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.Feedback
	for _, entry := range f.s.feedback {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out, nil
}
