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
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newAuthHandler(repo *fakeUserRepo) *AuthHandler {
	return NewAuthHandler(services.NewUserService(repo), testSecret, zerolog.Nop())
}

func signupBody(t *testing.T, name, email, password string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(SignupRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSignupPasswordBoundary(t *testing.T) {
	handler := newAuthHandler(newFakeUserRepo())

	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup", signupBody(t, "Sam", "sam@example.com", "12345"))
	rec := recordRequest(handler.Signup, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password must be at least 6 characters")

	r = httptest.NewRequest(http.MethodPost, "/api/auth/signup", signupBody(t, "Sam", "sam@example.com", "123456"))
	rec = recordRequest(handler.Signup, r)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp SignupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, types.RoleUser, resp.User.Role)
	assert.True(t, resp.User.IsActive)
}

func TestSignupMissingFields(t *testing.T) {
	handler := newAuthHandler(newFakeUserRepo())

	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup", signupBody(t, "", "sam@example.com", "123456"))
	rec := recordRequest(handler.Signup, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name, email and password are required")
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo(types.User{ID: 1, Email: "sam@example.com", Name: "Sam"})
	handler := newAuthHandler(repo)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup", signupBody(t, "Sam", "sam@example.com", "123456"))
	rec := recordRequest(handler.Signup, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newFakeUserRepo(types.User{
		ID:           1,
		Email:        "sam@example.com",
		PasswordHash: string(hash),
		IsActive:     false,
	})
	handler := newAuthHandler(repo)

	body, err := json.Marshal(LoginRequest{Email: "sam@example.com", Password: "123456"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	rec := recordRequest(handler.Login, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account is deactivated")
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newFakeUserRepo(types.User{
		ID:           1,
		Email:        "sam@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	})
	handler := newAuthHandler(repo)

	body, err := json.Marshal(LoginRequest{Email: "sam@example.com", Password: "wrong"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	rec := recordRequest(handler.Login, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenRoundTrip(t *testing.T) {
	user := types.User{ID: 7, Email: "sam@example.com", Role: types.RoleAdmin}

	token, err := issueToken(user, []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)

	principal, err := parsePrincipal(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, 7, principal.ID)
	assert.Equal(t, "sam@example.com", principal.Email)
	assert.True(t, principal.IsAdmin())
}

func TestTokenWrongSecretRejected(t *testing.T) {
	user := types.User{ID: 7, Email: "sam@example.com", Role: types.RoleUser}

	token, err := issueToken(user, []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)

	_, err = parsePrincipal(token, []byte("other-secret"))
	assert.Error(t, err)
}

func TestParseSessionAttachesPrincipal(t *testing.T) {
	user := types.User{ID: 7, Email: "sam@example.com", Role: types.RoleUser}
	token, err := issueToken(user, []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)

	var got types.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = principalFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ParseSession(testSecret)(next).ServeHTTP(rec, r)
	assert.Equal(t, 7, got.ID)
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next should not run")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	RequireAuth(next).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
