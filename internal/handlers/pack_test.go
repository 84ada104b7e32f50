package handlers

import (
	"bytes"
	"context"
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

type stubPackRepo struct {
	created *types.MealPack
	balance int
}

func (f *stubPackRepo) Create(_ context.Context, pack types.MealPack) (types.MealPack, error) {
	pack.ID = 1
	f.created = &pack
	return pack, nil
}

func (f *stubPackRepo) ListByUser(context.Context, int) ([]types.MealPack, error) {
	return nil, nil
}

func (f *stubPackRepo) Balance(context.Context, int) (int, error) {
	return f.balance, nil
}

func (f *stubPackRepo) ListTemplates(context.Context) ([]types.PackTemplate, error) {
	return nil, nil
}

func (f *stubPackRepo) CreateTemplate(_ context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	template.ID = 1
	return template, nil
}

func (f *stubPackRepo) UpdateTemplate(_ context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	return template, nil
}

func newPackHandler(repo services.PackRepository) (*PackHandler, *capturingAuditRepo) {
	recorder, auditRepo := newTestRecorder()
	return NewPackHandler(services.NewPackService(repo), recorder, zerolog.Nop()), auditRepo
}

func purchaseBody(t *testing.T, userID, size int) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(PurchasePackRequest{UserID: userID, PackSize: size})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestPurchasePackUserMismatch(t *testing.T) {
	handler, _ := newPackHandler(&stubPackRepo{})

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/packs/purchase", purchaseBody(t, 9, 10)), customerPrincipal())
	rec := recordRequest(handler.PurchasePack, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "USER_MISMATCH")
}

func TestPurchasePackInvalidSize(t *testing.T) {
	handler, _ := newPackHandler(&stubPackRepo{})

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/packs/purchase", purchaseBody(t, 8, 15)), customerPrincipal())
	rec := recordRequest(handler.PurchasePack, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid pack size. Valid sizes: 10, 20, 40, 80")
}

func TestPurchasePackSuccess(t *testing.T) {
	repo := &stubPackRepo{}
	handler, _ := newPackHandler(repo)

	r := asUser(httptest.NewRequest(http.MethodPost, "/api/packs/purchase", purchaseBody(t, 8, 40)), customerPrincipal())
	rec := recordRequest(handler.PurchasePack, r)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PurchasePackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 40, resp.Pack.PackSize)
	assert.Equal(t, 40, resp.Pack.RemainingBalance)
	assert.NotEmpty(t, resp.Message)
}

func TestBalanceEnvelope(t *testing.T) {
	handler, _ := newPackHandler(&stubPackRepo{balance: 12})

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/packs/balance", nil), customerPrincipal())
	rec := recordRequest(handler.Balance, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 12, resp.Balance)
}
