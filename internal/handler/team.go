package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/service"
)

// TeamHandler exposes team creation, joining and lookup.
type TeamHandler struct {
	svc *service.TeamService
	log *logrus.Logger
}

// NewTeamHandler constructs a TeamHandler.
func NewTeamHandler(svc *service.TeamService, log *logrus.Logger) *TeamHandler {
	return &TeamHandler{svc: svc, log: log}
}

type createTeamRequest struct {
	EventID string `json:"event_id"`
	Name    string `json:"name"`
}

// Create handles POST /teams/create
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Create(r.Context(), principalFrom(r).UserID, req.EventID, req.Name)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type joinTeamRequest struct {
	EventID string `json:"event_id"`
	Code    string `json:"code"`
}

// Join handles POST /teams/join
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Join(r.Context(), principalFrom(r).UserID, req.EventID, req.Code)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MyTeam handles GET /teams/my-team/{eventId}
func (h *TeamHandler) MyTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.svc.MyTeam(r.Context(), principalFrom(r).UserID, chi.URLParam(r, "eventId"))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}
