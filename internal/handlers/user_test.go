package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mealcycle/apiserver/internal/services"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserHandler(repo *fakeUserRepo) (*UserHandler, *capturingAuditRepo) {
	recorder, auditRepo := newTestRecorder()
	return NewUserHandler(services.NewUserService(repo), recorder, zerolog.Nop()), auditRepo
}

func userStatusBody(t *testing.T, isActive bool) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(SetUserStatusRequest{IsActive: &isActive})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSetUserStatusRejectsSelf(t *testing.T) {
	admin := adminPrincipal()
	repo := newFakeUserRepo(types.User{ID: admin.ID, Email: admin.Email, Role: types.RoleAdmin, IsActive: true})
	handler, auditRepo := newUserHandler(repo)

	r := asUser(httptest.NewRequest(http.MethodPut, "/api/admin/users/1/status", userStatusBody(t, false)), admin)
	r = withURLParam(r, "userID", "1")
	rec := recordRequest(handler.SetUserStatus, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot deactivate yourself")

	entry, ok := auditRepo.last()
	require.True(t, ok)
	assert.Equal(t, types.AuditOutcomeInvalid, entry.Outcome)

	user, err := repo.GetByID(r.Context(), admin.ID)
	require.NoError(t, err)
	assert.True(t, user.IsActive, "self deactivation must not persist")
}

func TestSetUserStatusDeactivatesOther(t *testing.T) {
	repo := newFakeUserRepo(
		types.User{ID: 1, Email: "admin@example.com", Role: types.RoleAdmin, IsActive: true},
		types.User{ID: 8, Email: "sam@example.com", Role: types.RoleUser, IsActive: true},
	)
	handler, auditRepo := newUserHandler(repo)

	r := asUser(httptest.NewRequest(http.MethodPut, "/api/admin/users/8/status", userStatusBody(t, false)), adminPrincipal())
	r = withURLParam(r, "userID", "8")
	rec := recordRequest(handler.SetUserStatus, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	entry, ok := auditRepo.last()
	require.True(t, ok)
	assert.Equal(t, types.AuditOutcomeSuccess, entry.Outcome)
	assert.Equal(t, "is_active=false", entry.Detail)
}

func TestSetUserRoleValidation(t *testing.T) {
	repo := newFakeUserRepo(
		types.User{ID: 1, Email: "admin@example.com", Role: types.RoleAdmin, IsActive: true},
		types.User{ID: 8, Email: "sam@example.com", Role: types.RoleUser, IsActive: true},
	)
	handler, _ := newUserHandler(repo)

	body, err := json.Marshal(SetUserRoleRequest{Role: "superuser"})
	require.NoError(t, err)
	r := asUser(httptest.NewRequest(http.MethodPut, "/api/admin/users/8/role", bytes.NewBuffer(body)), adminPrincipal())
	r = withURLParam(r, "userID", "8")
	rec := recordRequest(handler.SetUserRole, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid role")
}

func TestSetUserRolePromotes(t *testing.T) {
	repo := newFakeUserRepo(
		types.User{ID: 1, Email: "admin@example.com", Role: types.RoleAdmin, IsActive: true},
		types.User{ID: 8, Email: "sam@example.com", Role: types.RoleUser, IsActive: true},
	)
	handler, auditRepo := newUserHandler(repo)

	body, err := json.Marshal(SetUserRoleRequest{Role: types.RoleAdmin})
	require.NoError(t, err)
	r := asUser(httptest.NewRequest(http.MethodPut, "/api/admin/users/8/role", bytes.NewBuffer(body)), adminPrincipal())
	r = withURLParam(r, "userID", "8")
	rec := recordRequest(handler.SetUserRole, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	entry, ok := auditRepo.last()
	require.True(t, ok)
	assert.Equal(t, "role=admin", entry.Detail)
}
