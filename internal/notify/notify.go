// Package notify delivers outbound notifications: confirmation emails
// with QR ticket codes and Discord webhook announcements. Delivery is
// fire-and-forget; failures are logged and swallowed, never propagated
// to the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/model"
)

// Attachment is a binary payload for an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound email-style notification.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the development fallback: it records the message in the
// application log instead of delivering it.
type LogSender struct {
	Log *logrus.Logger
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Log.WithFields(logrus.Fields{
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
	}).Info("notification (log sender)")
	return nil
}

// Service builds and dispatches domain notifications asynchronously.
type Service struct {
	sender  Sender
	discord *DiscordWebhook
	log     *logrus.Logger
	timeout time.Duration
}

// NewService constructs a notification Service.
func NewService(sender Sender, discord *DiscordWebhook, log *logrus.Logger) *Service {
	return &Service{sender: sender, discord: discord, log: log, timeout: 15 * time.Second}
}

// dispatch sends a message in the background. The spawning request does
// not wait; errors are logged.
func (s *Service) dispatch(msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.sender.Send(ctx, msg); err != nil {
			s.log.WithError(err).WithField("to", msg.To).Error("notification delivery failed")
		}
	}()
}

// TicketConfirmed notifies a participant of a successful registration
// or purchase. The QR code is best-effort: generation failure changes
// the message body, never the admission.
func (s *Service) TicketConfirmed(user *model.User, event *model.Event, ticket *model.Ticket) {
	actionTitle := "Registration Confirmed"
	if event.Type == model.EventTypeMerch {
		actionTitle = "Purchase Confirmed"
	}

	msg := Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s - %s", actionTitle, event.Name),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYou are confirmed for %s on %s.\n\nTicket ID: %s\n\nShow your QR code or ticket ID at the entrance for verification.",
			user.Name, event.Name, event.StartDate.Format("Jan 2, 2006"), ticket.ID),
	}

	if png, err := TicketQR(ticket.ID); err != nil {
		s.log.WithError(err).WithField("ticket", ticket.ID).Error("qr generation failed")
		msg.Body += "\n\nNote: QR code generation failed. Please use your ticket ID for verification."
	} else {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    "ticket_qr.png",
			ContentType: "image/png",
			Content:     png,
		})
	}

	s.dispatch(msg)
}

// RegistrationCancelled notifies a participant of a cancellation.
func (s *Service) RegistrationCancelled(user *model.User, event *model.Event, ticket *model.Ticket) {
	s.dispatch(Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Registration Cancelled - %s", event.Name),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour registration for %s has been cancelled.\n\nTicket ID: %s",
			user.Name, event.Name, ticket.ID),
	})
}

// TeamCreated sends the leader their team's join code.
func (s *Service) TeamCreated(leader *model.User, event *model.Event, team *model.Team) {
	s.dispatch(Message{
		To:      leader.Email,
		Subject: fmt.Sprintf("Team Created - %s", team.Name),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYou have created the team %q for %s.\n\nTeam Code: %s\n\nShare this code with your team members so they can join.",
			leader.Name, team.Name, event.Name, team.Code),
	})
}

// TeamJoined confirms a join to the joining member.
func (s *Service) TeamJoined(user *model.User, event *model.Event, team *model.Team) {
	s.dispatch(Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Joined Team - %s", team.Name),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYou have joined the team %q for %s.\n\nTeam status: %s",
			user.Name, team.Name, event.Name, team.Status),
	})
}

// TeamCompleted tells a member their team is registered.
func (s *Service) TeamCompleted(member *model.User, event *model.Event, team *model.Team) {
	s.dispatch(Message{
		To:      member.Email,
		Subject: fmt.Sprintf("Team Complete - %s", team.Name),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour team %q is now complete and registered for %s. Your ticket is available in your dashboard.",
			member.Name, team.Name, event.Name),
	})
}

// EventPublished posts an announcement to the organizer's Discord
// webhook, when configured.
func (s *Service) EventPublished(organizer *model.User, event *model.Event) {
	if s.discord == nil || organizer.DiscordWebhook == "" {
		return
	}
	webhook := organizer.DiscordWebhook
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.discord.Announce(ctx, webhook, event); err != nil {
			s.log.WithError(err).WithField("event", event.ID).Error("discord announcement failed")
		}
	}()
}
