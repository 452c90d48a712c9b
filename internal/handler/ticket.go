package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/service"
)

// TicketHandler exposes ticket scanning and lookup.
type TicketHandler struct {
	svc *service.RegistrationService
	log *logrus.Logger
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(svc *service.RegistrationService, log *logrus.Logger) *TicketHandler {
	return &TicketHandler{svc: svc, log: log}
}

type scanRequest struct {
	TicketID string `json:"ticket_id"`
}

// Scan handles POST /tickets/scan, the organizer check-in of a
// presented QR code.
func (h *TicketHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	if req.TicketID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "ticket_id is required")
		return
	}
	ticket, err := h.svc.Scan(r.Context(), principalFrom(r), req.TicketID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// Get handles GET /tickets/{id}, visible to the ticket owner and the
// event's organizer.
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.svc.GetTicket(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
