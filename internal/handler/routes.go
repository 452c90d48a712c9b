package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/auth"
	"github.com/campus-events/platform/internal/model"
)

// Routes assembles the full API router.
func Routes(
	tokens *auth.TokenManager,
	authH *AuthHandler,
	eventH *EventHandler,
	teamH *TeamHandler,
	ticketH *TicketHandler,
	log *logrus.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Group(func(r chi.Router) {
			r.Use(Authenticate(tokens))
			r.Get("/me", authH.Me)
			r.Put("/me", authH.UpdateProfile)
			r.Put("/password", authH.ChangePassword)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Use(Authenticate(tokens))

		r.With(RequireRole(model.RoleOrganizer)).Post("/", eventH.Create)
		r.Get("/", eventH.List)
		r.With(RequireRole(model.RoleParticipant)).Get("/my-registrations", eventH.MyRegistrations)
		r.Get("/{id}", eventH.Get)
		r.With(RequireRole(model.RoleOrganizer, model.RoleAdmin)).Put("/{id}", eventH.Update)
		r.With(RequireRole(model.RoleOrganizer, model.RoleAdmin)).Delete("/{id}", eventH.Delete)
		r.With(RequireRole(model.RoleOrganizer)).Patch("/{id}/publish", eventH.Publish)
		r.With(RequireRole(model.RoleParticipant)).Post("/{id}/register", eventH.Register)
		r.With(RequireRole(model.RoleParticipant)).Post("/{id}/cancel", eventH.CancelRegistration)
		r.With(RequireRole(model.RoleOrganizer)).Get("/{id}/participants", eventH.Participants)
		r.With(RequireRole(model.RoleParticipant)).Post("/{id}/feedback", eventH.SubmitFeedback)
		r.With(RequireRole(model.RoleOrganizer)).Get("/{id}/feedback", eventH.FeedbackSummary)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Use(Authenticate(tokens))
		r.Use(RequireRole(model.RoleParticipant))

		r.Post("/create", teamH.Create)
		r.Post("/join", teamH.Join)
		r.Get("/my-team/{eventId}", teamH.MyTeam)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Use(Authenticate(tokens))

		r.With(RequireRole(model.RoleOrganizer)).Post("/scan", ticketH.Scan)
		r.Get("/{id}", ticketH.Get)
	})

	return r
}
