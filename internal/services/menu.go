package services

import (
	"context"

	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/types"
)

// MenuRepository defines persistence operations for menus.
type MenuRepository interface {
	List(ctx context.Context) ([]types.Menu, error)
	Get(ctx context.Context, id int) (types.Menu, error)
	GetPublished(ctx context.Context) (types.Menu, error)
	Create(ctx context.Context, menu types.Menu) (types.Menu, error)
	Update(ctx context.Context, menu types.Menu) (types.Menu, error)
	Delete(ctx context.Context, id int) error
	Publish(ctx context.Context, id int) (types.Menu, error)
	Unpublish(ctx context.Context, id int) (types.Menu, error)
	StatusSummary(ctx context.Context) (types.MenuStatusSummary, error)
	GetItem(ctx context.Context, menuID, itemID int) (types.MenuItem, error)
	SetItemImageKey(ctx context.Context, itemID int, key string) error
}

// MenuCache defines the published-menu cache operations.
type MenuCache interface {
	GetPublished(ctx context.Context) (types.Menu, error)
	SetPublished(ctx context.Context, menu types.Menu) error
	Invalidate(ctx context.Context) error
}

// MenuService encapsulates menu use-cases. Mutations invalidate the
// published-menu cache; cache failures are swallowed, the store is the
// source of truth.
type MenuService struct {
	repo  MenuRepository
	cache MenuCache
}

// NewMenuService constructs a MenuService. menuCache may be nil.
func NewMenuService(repo MenuRepository, menuCache MenuCache) *MenuService {
	return &MenuService{repo: repo, cache: menuCache}
}

func (s *MenuService) List(ctx context.Context) ([]types.Menu, error) {
	return s.repo.List(ctx)
}

func (s *MenuService) Get(ctx context.Context, id int) (types.Menu, error) {
	return s.repo.Get(ctx, id)
}

// GetCurrent returns the published menu, preferring the cache.
func (s *MenuService) GetCurrent(ctx context.Context) (types.Menu, error) {
	if s.cache != nil {
		menu, err := s.cache.GetPublished(ctx)
		if err == nil {
			return menu, nil
		}
		// Any cache failure, miss included, falls through to the store.
	}

	menu, err := s.repo.GetPublished(ctx)
	if err != nil {
		return types.Menu{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetPublished(ctx, menu)
	}
	return menu, nil
}

func (s *MenuService) Create(ctx context.Context, menu types.Menu) (types.Menu, error) {
	if !menu.WeekEndDate.After(menu.WeekStartDate) {
		return types.Menu{}, apperr.Validation("week_end_date must be after week_start_date")
	}
	return s.repo.Create(ctx, menu)
}

func (s *MenuService) Update(ctx context.Context, menu types.Menu) (types.Menu, error) {
	updated, err := s.repo.Update(ctx, menu)
	if err != nil {
		return types.Menu{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *MenuService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Publish makes the target the single published menu.
func (s *MenuService) Publish(ctx context.Context, id int) (types.Menu, error) {
	menu, err := s.repo.Publish(ctx, id)
	if err != nil {
		return types.Menu{}, err
	}
	s.invalidate(ctx)
	return menu, nil
}

// Unpublish clears the publication flag for the target menu.
func (s *MenuService) Unpublish(ctx context.Context, id int) (types.Menu, error) {
	menu, err := s.repo.Unpublish(ctx, id)
	if err != nil {
		return types.Menu{}, err
	}
	s.invalidate(ctx)
	return menu, nil
}

func (s *MenuService) StatusSummary(ctx context.Context) (types.MenuStatusSummary, error) {
	return s.repo.StatusSummary(ctx)
}

func (s *MenuService) GetItem(ctx context.Context, menuID, itemID int) (types.MenuItem, error) {
	return s.repo.GetItem(ctx, menuID, itemID)
}

// SetItemImage stores the uploaded image's object key on the item.
func (s *MenuService) SetItemImage(ctx context.Context, menuID, itemID int, key string) error {
	if _, err := s.repo.GetItem(ctx, menuID, itemID); err != nil {
		return err
	}
	if err := s.repo.SetItemImageKey(ctx, itemID, key); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *MenuService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}
