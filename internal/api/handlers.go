// Package api exposes the HTTP JSON surface over the service layer.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pvidal/amigoinvisible/internal/auth"
	"github.com/pvidal/amigoinvisible/internal/draw"
	"github.com/pvidal/amigoinvisible/internal/middleware"
	"github.com/pvidal/amigoinvisible/internal/service"
)

// Handlers holds the HTTP handlers for the JSON API.
type Handlers struct {
	auths  *service.AuthService
	groups *service.GroupService
	logger *slog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(auths *service.AuthService, groups *service.GroupService, logger *slog.Logger) *Handlers {
	return &Handlers{auths: auths, groups: groups, logger: logger}
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}

	user, token, err := h.auths.Register(r.Context(), body.Email, body.DisplayName, body.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: toUserResponse(user)})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, token, err := h.auths.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: toUserResponse(user)})
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auths.CurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = toGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createGroup(w http.ResponseWriter, r *http.Request) {
	var body createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.groups.Create(r.Context(), middleware.GetUserID(r.Context()), body.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (h *Handlers) joinGroup(w http.ResponseWriter, r *http.Request) {
	var body joinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.groups.Join(r.Context(), middleware.GetUserID(r.Context()), body.Code)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handlers) getGroup(w http.ResponseWriter, r *http.Request) {
	group, members, err := h.groups.Get(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDetailResponse(group, members))
}

func (h *Handlers) performDraw(w http.ResponseWriter, r *http.Request) {
	var body drawRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	group, err := h.groups.PerformDraw(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), body.Confirm)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handlers) revealAssignment(w http.ResponseWriter, r *http.Request) {
	target, err := h.groups.RevealAssignment(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentResponse{DisplayName: target.DisplayName})
}

func (h *Handlers) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	// Authorization
	case errors.Is(err, service.ErrNotOwner), errors.Is(err, service.ErrNotMember):
		writeError(w, http.StatusForbidden, err.Error())
	// Precondition
	case errors.Is(err, draw.ErrTooFewMembers):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrEmptyGroupName),
		errors.Is(err, service.ErrEmptyJoinCode),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingName):
		writeError(w, http.StatusBadRequest, err.Error())
	// Not found
	case errors.Is(err, service.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	// Conflict
	case errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyDrawn),
		errors.Is(err, service.ErrNotDrawn),
		errors.Is(err, service.ErrNotConfirmed),
		errors.Is(err, service.ErrCodeExhausted),
		errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
	// Authentication
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	// Store or unexpected
	default:
		h.logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
