package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/internal/store"
	"github.com/mealcycle/apiserver/types"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// principalFromContext returns the authenticated principal attached by the
// session middleware, or apperr.ErrUnauthenticated when the request carried
// no usable session.
func principalFromContext(ctx context.Context) (types.Principal, error) {
	principal, ok := ctx.Value(contextPrincipalKey).(types.Principal)
	if !ok || principal.ID < 1 {
		return types.Principal{}, apperr.ErrUnauthenticated
	}
	return principal, nil
}

func withPrincipal(ctx context.Context, principal types.Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, principal)
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// isRequestError reports whether the error is the caller's fault and should
// surface as a 400 rather than a 500.
func isRequestError(err error) bool {
	return apperr.IsValidation(err) || apperr.IsBusiness(err)
}

// writeServiceError maps the error taxonomy onto HTTP status codes. Callers
// that want a resource-specific not-found message handle store.ErrNotFound
// before falling back here.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case apperr.IsValidation(err), apperr.IsBusiness(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
