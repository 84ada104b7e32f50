package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mealcycle/apiserver/internal/audit"
	"github.com/mealcycle/apiserver/internal/services"
	"github.com/mealcycle/apiserver/internal/store"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

// UserHandler provides the admin user management endpoints.
type UserHandler struct {
	userService *services.UserService
	audit       *audit.Recorder
	log         zerolog.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(userService *services.UserService, recorder *audit.Recorder, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		audit:       recorder,
		log:         log,
	}
}

// AdminUserRouter registers the admin user routes behind the guard.
func AdminUserRouter(r chi.Router, userService *services.UserService, guard *Guard, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewUserHandler(userService, recorder, log)

	r.With(guard.RequireAdmin("user.list", "user")).Get("/", handler.ListUsers)
	r.With(guard.RequireAdmin("user.status", "user")).Put("/{userID}/status", handler.SetUserStatus)
	r.With(guard.RequireAdmin("user.role", "user")).Put("/{userID}/role", handler.SetUserRole)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("user list failed")
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeSuccess(w, http.StatusOK, users)
}

// SetUserStatusRequest is the activate/deactivate payload.
type SetUserStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// SetUserStatus activates or deactivates an account. Self-targeted status
// changes are rejected whatever the requested value.
func (h *UserHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "userID", "invalid user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	if id == principal.ID {
		h.audit.Reject(r.Context(), &principal.ID, "user.status", "user", strconv.Itoa(id), types.AuditOutcomeInvalid, "self deactivation")
		writeError(w, http.StatusBadRequest, "Cannot deactivate yourself")
		return
	}

	user, err := h.userService.SetStatus(r.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.audit.Reject(r.Context(), &principal.ID, "user.status", "user", strconv.Itoa(id), types.AuditOutcomeNotFound, "user not found")
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Int("user_id", id).Msg("user status update failed")
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	h.log.Info().
		Int("actor_id", principal.ID).
		Int("user_id", id).
		Bool("is_active", user.IsActive).
		Msg("user status updated")
	h.audit.Success(r.Context(), &principal.ID, "user.status", "user", strconv.Itoa(id), fmt.Sprintf("is_active=%t", user.IsActive))
	writeSuccess(w, http.StatusOK, user)
}

// SetUserRoleRequest is the role change payload.
type SetUserRoleRequest struct {
	Role string `json:"role"`
}

// SetUserRole assigns the admin or user role to an account.
func (h *UserHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "userID", "invalid user id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Role != types.RoleUser && req.Role != types.RoleAdmin {
		h.audit.Reject(r.Context(), &principal.ID, "user.role", "user", strconv.Itoa(id), types.AuditOutcomeInvalid, fmt.Sprintf("invalid role %q", req.Role))
		writeError(w, http.StatusBadRequest, "Invalid role. Valid roles: user, admin")
		return
	}

	user, err := h.userService.SetRole(r.Context(), id, req.Role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.audit.Reject(r.Context(), &principal.ID, "user.role", "user", strconv.Itoa(id), types.AuditOutcomeNotFound, "user not found")
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Int("user_id", id).Msg("user role update failed")
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	h.log.Info().
		Int("actor_id", principal.ID).
		Int("user_id", id).
		Str("role", user.Role).
		Msg("user role updated")
	h.audit.Success(r.Context(), &principal.ID, "user.role", "user", strconv.Itoa(id), fmt.Sprintf("role=%s", user.Role))
	writeSuccess(w, http.StatusOK, user)
}
