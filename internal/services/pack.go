package services

import (
	"context"

	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/types"
)

// ValidPackSizes is the fixed purchase catalog.
var ValidPackSizes = []int{10, 20, 40, 80}

// PackRepository defines persistence operations for meal packs and
// pack templates.
type PackRepository interface {
	Create(ctx context.Context, pack types.MealPack) (types.MealPack, error)
	ListByUser(ctx context.Context, userID int) ([]types.MealPack, error)
	Balance(ctx context.Context, userID int) (int, error)
	ListTemplates(ctx context.Context) ([]types.PackTemplate, error)
	CreateTemplate(ctx context.Context, template types.PackTemplate) (types.PackTemplate, error)
	UpdateTemplate(ctx context.Context, template types.PackTemplate) (types.PackTemplate, error)
}

// PackService encapsulates meal pack use-cases.
type PackService struct {
	repo PackRepository
}

func NewPackService(repo PackRepository) *PackService {
	return &PackService{repo: repo}
}

// Purchase creates a pack with a full balance for the given user.
// packSize must be a member of the fixed catalog. Payment processing is
// intentionally absent; purchase records the pack and nothing else.
func (s *PackService) Purchase(ctx context.Context, userID, packSize int) (types.MealPack, error) {
	if !validPackSize(packSize) {
		return types.MealPack{}, apperr.Validation("Invalid pack size. Valid sizes: 10, 20, 40, 80")
	}

	// TODO: integrate payment processing before activating the pack.
	pack := types.MealPack{
		UserID:           userID,
		PackSize:         packSize,
		RemainingBalance: packSize,
		IsActive:         true,
	}
	return s.repo.Create(ctx, pack)
}

func (s *PackService) ListByUser(ctx context.Context, userID int) ([]types.MealPack, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Balance sums unspent credits across the user's active packs.
func (s *PackService) Balance(ctx context.Context, userID int) (int, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *PackService) ListTemplates(ctx context.Context) ([]types.PackTemplate, error) {
	return s.repo.ListTemplates(ctx)
}

func (s *PackService) CreateTemplate(ctx context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	if template.Size < 1 {
		return types.PackTemplate{}, apperr.Validation("template size must be at least 1")
	}
	if template.Price < 0 {
		return types.PackTemplate{}, apperr.Validation("template price cannot be negative")
	}
	return s.repo.CreateTemplate(ctx, template)
}

func (s *PackService) UpdateTemplate(ctx context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	if template.Size < 1 {
		return types.PackTemplate{}, apperr.Validation("template size must be at least 1")
	}
	if template.Price < 0 {
		return types.PackTemplate{}, apperr.Validation("template price cannot be negative")
	}
	return s.repo.UpdateTemplate(ctx, template)
}

func validPackSize(size int) bool {
	for _, valid := range ValidPackSizes {
		if size == valid {
			return true
		}
	}
	return false
}
