package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

const defaultAuditLimit = 50

// AuditLogReader reads back recorded audit entries.
type AuditLogReader interface {
	ListRecent(ctx context.Context, limit int) ([]types.AuditEntry, error)
}

// AuditHandler serves the accountability review endpoint.
type AuditHandler struct {
	reader AuditLogReader
	log    zerolog.Logger
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(reader AuditLogReader, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, log: log}
}

// AdminAuditRouter registers the audit review route behind the guard.
func AdminAuditRouter(r chi.Router, reader AuditLogReader, guard *Guard, log zerolog.Logger) {
	handler := NewAuditHandler(reader, log)

	r.With(guard.RequireAdmin("audit.list", "audit")).Get("/", handler.ListAuditLog)
}

// ListAuditLog returns the newest audit entries, capped by ?limit=.
func (h *AuditHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.reader.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("audit list failed")
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}
