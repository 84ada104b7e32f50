package handlers

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mealcycle/apiserver/internal/db"
)

// AdminSystemRouter registers the system introspection routes behind the
// guard.
func AdminSystemRouter(r chi.Router, database *sql.DB, guard *Guard) {
	r.With(guard.RequireAdmin("system.stats", "system")).Get("/stats", SystemStats(database))
}

// SystemStats reports the database connection pool snapshot.
func SystemStats(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, db.Stats(database))
	}
}
