package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/types"
)

func packRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "remaining_balance", "expiry_date"})
}

func TestOrderPlaceDrawsDownOldestPackFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	// Two packs, balances 2 and 5; a 3-meal order empties the first and
	// takes one credit from the second.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM meal_packs`).
		WithArgs(8).
		WillReturnRows(packRows().AddRow(1, 2, nil).AddRow(2, 5, nil))
	mock.ExpectExec(`UPDATE meal_packs SET remaining_balance`).
		WithArgs(0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE meal_packs SET remaining_balance`).
		WithArgs(4, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(8, 3, sqlmock.AnyArg(), 3, 25.5, types.OrderStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WithArgs(10, 21, 3, 8.5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	repo := NewOrderRepository(db)
	order, err := repo.Place(context.Background(), types.Order{
		UserID:     8,
		MenuID:     3,
		TotalMeals: 3,
		TotalPrice: 25.5,
	}, []types.OrderItem{{MenuItemID: 21, Quantity: 3, Price: 8.5}})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.ID != 10 {
		t.Fatalf("expected order id 10, got %d", order.ID)
	}
	if len(order.Items) != 1 || order.Items[0].OrderID != 10 {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOrderPlaceInsufficientBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM meal_packs`).
		WithArgs(8).
		WillReturnRows(packRows().AddRow(1, 2, nil))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	_, err = repo.Place(context.Background(), types.Order{
		UserID:     8,
		TotalMeals: 5,
	}, nil)

	var insufficient *apperr.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Required != 5 || insufficient.Available != 2 {
		t.Fatalf("unexpected amounts: %+v", insufficient)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOrderPlaceOnlyExpiredPacks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	expired := time.Now().Add(-24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM meal_packs`).
		WithArgs(8).
		WillReturnRows(packRows().AddRow(4, 10, expired))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	_, err = repo.Place(context.Background(), types.Order{
		UserID:     8,
		TotalMeals: 1,
	}, nil)

	var packExpired *apperr.PackExpiredError
	if !errors.As(err, &packExpired) {
		t.Fatalf("expected PackExpiredError, got %v", err)
	}
	if packExpired.PackID != 4 {
		t.Fatalf("expected pack 4, got %d", packExpired.PackID)
	}
}

func TestOrderUpdateStatusReturnsOldStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(types.OrderStatusPending))
	mock.ExpectQuery(`UPDATE orders`).
		WithArgs(types.OrderStatusDelivered, sqlmock.AnyArg(), 9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "menu_id", "order_date", "total_meals", "total_price", "status", "created_at", "updated_at"}).
			AddRow(9, 8, 3, now, 2, 17.0, types.OrderStatusDelivered, now, now))
	mock.ExpectCommit()

	repo := NewOrderRepository(db)
	order, oldStatus, err := repo.UpdateStatus(context.Background(), 9, types.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if oldStatus != types.OrderStatusPending {
		t.Fatalf("expected old status pending, got %q", oldStatus)
	}
	if order.Status != types.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %q", order.Status)
	}
}

func TestOrderUpdateStatusMissingOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	repo := NewOrderRepository(db)
	if _, _, err := repo.UpdateStatus(context.Background(), 99, types.OrderStatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderStatsEmptyTableDefaultsToZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "confirmed", "delivered", "cancelled", "revenue", "average"}).
			AddRow(0, 0, 0, 0, 0, 0, 0))

	repo := NewOrderRepository(db)
	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRevenue != 0 || stats.AverageOrderValue != 0 {
		t.Fatalf("expected zero revenue and average, got %+v", stats)
	}
}
