package services

import (
	"context"

	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/types"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Get(ctx context.Context, id int) (types.Order, error)
	ListByUser(ctx context.Context, userID int) ([]types.Order, error)
	List(ctx context.Context, status string) ([]types.Order, error)
	Place(ctx context.Context, order types.Order, items []types.OrderItem) (types.Order, error)
	UpdateStatus(ctx context.Context, id int, status string) (types.Order, string, error)
	Stats(ctx context.Context) (types.OrderStats, error)
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	MenuItemID int
	Quantity   int
}

// OrderService encapsulates order use-cases: placement against the
// published menu with pack drawdown, listing, and status administration.
type OrderService struct {
	repo  OrderRepository
	menus MenuRepository
}

func NewOrderService(repo OrderRepository, menus MenuRepository) *OrderService {
	return &OrderService{repo: repo, menus: menus}
}

func (s *OrderService) Get(ctx context.Context, id int) (types.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *OrderService) ListByUser(ctx context.Context, userID int) ([]types.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *OrderService) List(ctx context.Context, status string) ([]types.Order, error) {
	return s.repo.List(ctx, status)
}

// Place validates the requested lines against the menu and creates the
// order. The menu must be the published one, every line must reference an
// available item on it, and the customer's packs must cover the meal count.
func (s *OrderService) Place(ctx context.Context, userID, menuID int, lines []OrderLine) (types.Order, error) {
	if len(lines) == 0 {
		return types.Order{}, apperr.Validation("order must contain at least one item")
	}

	menu, err := s.menus.Get(ctx, menuID)
	if err != nil {
		return types.Order{}, err
	}
	if !menu.IsPublished {
		return types.Order{}, apperr.Validation("menu %d is not published", menuID)
	}

	itemsByID := make(map[int]types.MenuItem, len(menu.Items))
	for _, item := range menu.Items {
		itemsByID[item.ID] = item
	}

	var (
		orderItems []types.OrderItem
		totalMeals int
		totalPrice float64
	)
	for _, line := range lines {
		if line.Quantity < 1 {
			return types.Order{}, apperr.Validation("quantity must be at least 1")
		}
		item, ok := itemsByID[line.MenuItemID]
		if !ok {
			return types.Order{}, apperr.Validation("menu item %d is not on menu %d", line.MenuItemID, menuID)
		}
		if !item.IsAvailable {
			return types.Order{}, apperr.Validation("menu item %d is not available", line.MenuItemID)
		}
		orderItems = append(orderItems, types.OrderItem{
			MenuItemID: item.ID,
			Quantity:   line.Quantity,
			Price:      item.Price,
		})
		totalMeals += line.Quantity
		totalPrice += item.Price * float64(line.Quantity)
	}

	order := types.Order{
		UserID:     userID,
		MenuID:     menuID,
		TotalMeals: totalMeals,
		TotalPrice: totalPrice,
		Status:     types.OrderStatusPending,
	}
	return s.repo.Place(ctx, order, orderItems)
}

// UpdateStatus persists a new status, returning the updated order and the
// status it replaced. status must already be a member of the status set;
// any jump between members is accepted.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, status string) (types.Order, string, error) {
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *OrderService) Stats(ctx context.Context) (types.OrderStats, error) {
	return s.repo.Stats(ctx)
}
