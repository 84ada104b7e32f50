package services

import (
	"context"
	"testing"

	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePackRepo struct {
	created   *types.MealPack
	templates []types.PackTemplate
}

func (f *fakePackRepo) Create(_ context.Context, pack types.MealPack) (types.MealPack, error) {
	pack.ID = 1
	f.created = &pack
	return pack, nil
}

func (f *fakePackRepo) ListByUser(context.Context, int) ([]types.MealPack, error) {
	return nil, nil
}

func (f *fakePackRepo) Balance(context.Context, int) (int, error) {
	return 0, nil
}

func (f *fakePackRepo) ListTemplates(context.Context) ([]types.PackTemplate, error) {
	return f.templates, nil
}

func (f *fakePackRepo) CreateTemplate(_ context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	template.ID = 1
	f.templates = append(f.templates, template)
	return template, nil
}

func (f *fakePackRepo) UpdateTemplate(_ context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	return template, nil
}

func TestPurchaseCatalogSizes(t *testing.T) {
	repo := &fakePackRepo{}
	svc := NewPackService(repo)

	for _, size := range ValidPackSizes {
		pack, err := svc.Purchase(context.Background(), 8, size)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, size, pack.PackSize)
		assert.Equal(t, size, pack.RemainingBalance)
		assert.True(t, pack.IsActive)
	}
}

func TestPurchaseRejectsOffCatalogSize(t *testing.T) {
	repo := &fakePackRepo{}
	svc := NewPackService(repo)

	for _, size := range []int{0, 15, 25, -10} {
		_, err := svc.Purchase(context.Background(), 8, size)
		require.Error(t, err, "size %d", size)
		assert.True(t, apperr.IsValidation(err))
		assert.EqualError(t, err, "Invalid pack size. Valid sizes: 10, 20, 40, 80")
		assert.Nil(t, repo.created)
	}
}

func TestTemplateValidation(t *testing.T) {
	svc := NewPackService(&fakePackRepo{})

	_, err := svc.CreateTemplate(context.Background(), types.PackTemplate{Size: 0, Price: 10})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.CreateTemplate(context.Background(), types.PackTemplate{Size: 10, Price: -1})
	assert.True(t, apperr.IsValidation(err))

	created, err := svc.CreateTemplate(context.Background(), types.PackTemplate{Name: "Starter", Size: 10, Price: 49})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
}
