package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRejectsAnonymousWith401(t *testing.T) {
	recorder, auditRepo := newTestRecorder()
	guard := NewGuard(recorder, zerolog.Nop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next should not run")
	})

	r := httptest.NewRequest(http.MethodPost, "/api/admin/menus/1/publish", nil)
	rec := httptest.NewRecorder()
	guard.RequireAdmin("menu.publish", "menu")(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	entry, ok := auditRepo.last()
	require.True(t, ok)
	assert.Equal(t, types.AuditOutcomeUnauthorized, entry.Outcome)
	assert.Equal(t, "menu.publish", entry.Action)
	assert.Nil(t, entry.ActorID)
	assert.NotEmpty(t, entry.EventID)
}

func TestGuardRejectsNonAdminWith403(t *testing.T) {
	recorder, auditRepo := newTestRecorder()
	guard := NewGuard(recorder, zerolog.Nop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next should not run")
	})

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/admin/menus/1/publish", nil), customerPrincipal())
	rec := httptest.NewRecorder()
	guard.RequireAdmin("menu.publish", "menu")(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	entry, ok := auditRepo.last()
	require.True(t, ok)
	assert.Equal(t, types.AuditOutcomeForbidden, entry.Outcome)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, customerPrincipal().ID, *entry.ActorID)
}

func TestGuardPassesAdminThrough(t *testing.T) {
	recorder, auditRepo := newTestRecorder()
	guard := NewGuard(recorder, zerolog.Nop())

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/admin/menus/1/publish", nil), adminPrincipal())
	rec := httptest.NewRecorder()
	guard.RequireAdmin("menu.publish", "menu")(next).ServeHTTP(rec, r)

	assert.True(t, called)
	_, ok := auditRepo.last()
	assert.False(t, ok, "passing the guard writes no audit entry")
}
