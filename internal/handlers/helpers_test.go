package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/mealcycle/apiserver/internal/audit"
	"github.com/mealcycle/apiserver/internal/store"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

// capturingAuditRepo records every audit entry handed to the recorder.
type capturingAuditRepo struct {
	mu      sync.Mutex
	entries []types.AuditEntry
}

func (r *capturingAuditRepo) Insert(_ context.Context, entry types.AuditEntry) (types.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = len(r.entries) + 1
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *capturingAuditRepo) last() (types.AuditEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return types.AuditEntry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

func newTestRecorder() (*audit.Recorder, *capturingAuditRepo) {
	repo := &capturingAuditRepo{}
	return audit.NewRecorder(repo, nil, zerolog.Nop()), repo
}

type fakeUserRepo struct {
	byID    map[int]types.User
	byEmail map[string]types.User
	nextID  int
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		byID:    make(map[int]types.User),
		byEmail: make(map[string]types.User),
	}
	for _, user := range users {
		repo.byID[user.ID] = user
		repo.byEmail[user.Email] = user
		if user.ID > repo.nextID {
			repo.nextID = user.ID
		}
	}
	return repo
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) List(context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(f.byID))
	for _, user := range f.byID {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.nextID++
	user.ID = f.nextID
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) SetStatus(_ context.Context, id int, isActive bool) (types.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.IsActive = isActive
	f.byID[id] = user
	return user, nil
}

func (f *fakeUserRepo) SetRole(_ context.Context, id int, role string) (types.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Role = role
	f.byID[id] = user
	return user, nil
}

// asUser attaches a principal to the request context the way the session
// middleware would.
func asUser(r *http.Request, principal types.Principal) *http.Request {
	return r.WithContext(withPrincipal(r.Context(), principal))
}

// withURLParam attaches a chi route parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func adminPrincipal() types.Principal {
	return types.Principal{ID: 1, Email: "admin@example.com", Role: types.RoleAdmin}
}

func customerPrincipal() types.Principal {
	return types.Principal{ID: 8, Email: "sam@example.com", Role: types.RoleUser}
}

func recordRequest(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}
