package handlers

import (
	"net/http"

	"github.com/mealcycle/apiserver/internal/audit"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

// Guard enforces the session and role checks shared by every admin route.
// The check order is fixed: no session is 401 UNAUTHORIZED, a non-admin
// session is 403 FORBIDDEN. Both rejections produce one structured log
// line and one audit entry naming the attempted action.
type Guard struct {
	audit *audit.Recorder
	log   zerolog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(recorder *audit.Recorder, log zerolog.Logger) *Guard {
	return &Guard{audit: recorder, log: log}
}

// RequireAdmin builds middleware protecting one admin action.
func (g *Guard) RequireAdmin(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromContext(r.Context())
			if err != nil {
				g.log.Warn().
					Str("action", action).
					Str("resource", resource).
					Str("reason", types.AuditOutcomeUnauthorized).
					Msg("admin action rejected")
				g.audit.Reject(r.Context(), nil, action, resource, "", types.AuditOutcomeUnauthorized, "no session")
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !principal.IsAdmin() {
				g.log.Warn().
					Int("actor_id", principal.ID).
					Str("action", action).
					Str("resource", resource).
					Str("reason", types.AuditOutcomeForbidden).
					Msg("admin action rejected")
				g.audit.Reject(r.Context(), &principal.ID, action, resource, "", types.AuditOutcomeForbidden, "admin role required")
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
