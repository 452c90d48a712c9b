// Package service implements business logic, validation, and
// orchestration between HTTP handlers and the repository layer: the
// identity resolver, event lifecycle rules, ticket issuance and the
// team coordinator.
package service

import (
	"context"
	"time"

	"github.com/campus-events/platform/internal/model"
	"github.com/campus-events/platform/internal/repository"
)

// Principal identifies the authenticated caller of an operation.
type Principal struct {
	UserID string
	Email  string
	Role   model.Role
}

// EventStore is the persistence surface the services need for events.
// Update must not write the stock counter; SetStock is the only write
// path for it outside purchase and cancellation.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	SetStock(ctx context.Context, id string, stock *int) error
	Delete(ctx context.Context, id string) error
	HasTickets(ctx context.Context, eventID string) (bool, error)
	CountTeams(ctx context.Context, eventID string) (int, error)
}

// TicketStore is the persistence surface for tickets. Issue and Cancel
// are the atomic boundaries of the capacity ledger: the implementation
// must make the capacity check indivisible from the admitting write.
type TicketStore interface {
	Issue(ctx context.Context, t *model.Ticket) error
	Cancel(ctx context.Context, userID, eventID string) (*model.Ticket, error)
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	FindConfirmed(ctx context.Context, userID, eventID string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]model.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error)
	CheckIn(ctx context.Context, ticketID string, at time.Time) error
	MarkFeedbackGiven(ctx context.Context, ticketID string) error
}

// TeamStore is the persistence surface for teams. Create consumes a
// team slot atomically; AddMember serializes joins per team and reports
// the single Forming -> Complete transition.
type TeamStore interface {
	Create(ctx context.Context, t *model.Team) error
	AddMember(ctx context.Context, teamID, userID string) (*model.Team, bool, error)
	GetByID(ctx context.Context, id string) (*model.Team, error)
	GetByCode(ctx context.Context, eventID, code string) (*model.Team, error)
	GetForUser(ctx context.Context, eventID, userID string) (*model.Team, error)
}

// UserStore is the persistence surface for accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) ([]model.User, error)
}

// FeedbackStore is the persistence surface for event feedback.
type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Feedback, error)
}

// Notifier delivers fire-and-forget notifications. Implementations
// must not block and must never surface delivery failures to callers.
type Notifier interface {
	TicketConfirmed(user *model.User, event *model.Event, ticket *model.Ticket)
	RegistrationCancelled(user *model.User, event *model.Event, ticket *model.Ticket)
	TeamCreated(leader *model.User, event *model.Event, team *model.Team)
	TeamJoined(user *model.User, event *model.Event, team *model.Team)
	TeamCompleted(member *model.User, event *model.Event, team *model.Team)
	EventPublished(organizer *model.User, event *model.Event)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) TicketConfirmed(*model.User, *model.Event, *model.Ticket)       {}
func (NopNotifier) RegistrationCancelled(*model.User, *model.Event, *model.Ticket) {}
func (NopNotifier) TeamCreated(*model.User, *model.Event, *model.Team)             {}
func (NopNotifier) TeamJoined(*model.User, *model.Event, *model.Team)              {}
func (NopNotifier) TeamCompleted(*model.User, *model.Event, *model.Team)           {}
func (NopNotifier) EventPublished(*model.User, *model.Event)                       {}
