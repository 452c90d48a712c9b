package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/model"
	"github.com/campus-events/platform/internal/service"
)

// EventHandler exposes event CRUD, publication, registration and
// feedback routes.
type EventHandler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	feedback      *service.FeedbackService
	log           *logrus.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService, registrations *service.RegistrationService, feedback *service.FeedbackService, log *logrus.Logger) *EventHandler {
	return &EventHandler{events: events, registrations: registrations, feedback: feedback, log: log}
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	event, err := h.events.Create(r.Context(), principalFrom(r).UserID, req)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), principalFrom(r))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Update handles PUT /events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	event, err := h.events.Update(r.Context(), principalFrom(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Publish handles PATCH /events/{id}/publish
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Publish(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), principalFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event and associated registrations deleted"})
}

type registerRequest struct {
	Answers []model.Answer `json:"answers"`
}

// Register handles POST /events/{id}/register. The same path sells
// merchandise; stock gates it instead of seats.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	ticket, err := h.registrations.Register(r.Context(), principalFrom(r).UserID, chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// CancelRegistration handles POST /events/{id}/cancel
func (h *EventHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.registrations.Cancel(r.Context(), principalFrom(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ticket_id": ticket.ID})
}

// MyRegistrations handles GET /events/my-registrations
func (h *EventHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.registrations.MyRegistrations(r.Context(), principalFrom(r).UserID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Participants handles GET /events/{id}/participants
func (h *EventHandler) Participants(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.registrations.Participants(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitFeedback handles POST /events/{id}/feedback
func (h *EventHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	err := h.feedback.Submit(r.Context(), principalFrom(r).UserID, chi.URLParam(r, "id"), req.Rating, req.Comment)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "feedback submitted"})
}

// FeedbackSummary handles GET /events/{id}/feedback
func (h *EventHandler) FeedbackSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.feedback.Summary(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
