package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mealcycle/apiserver/internal/apperr"
	"github.com/mealcycle/apiserver/types"
)

// OrderRepository handles persistence for orders and the meal pack
// drawdown that accompanies order placement.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Get(ctx context.Context, id int) (types.Order, error) {
	const query = `
		SELECT id, user_id, menu_id, order_date, total_meals, total_price, status, created_at, updated_at
		FROM orders
		WHERE id = $1`
	var order types.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.MenuID,
		&order.OrderDate,
		&order.TotalMeals,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Order{}, ErrNotFound
		}
		return types.Order{}, err
	}

	items, err := r.items(ctx, order.ID)
	if err != nil {
		return types.Order{}, err
	}
	order.Items = items
	return order, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID int) ([]types.OrderItem, error) {
	const query = `
		SELECT id, order_id, menu_item_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.OrderItem, 0)
	for rows.Next() {
		var item types.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int) ([]types.Order, error) {
	const query = `
		SELECT id, user_id, menu_id, order_date, total_meals, total_price, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// List returns all orders, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, status string) ([]types.Order, error) {
	if status == "" {
		const query = `
			SELECT id, user_id, menu_id, order_date, total_meals, total_price, status, created_at, updated_at
			FROM orders
			ORDER BY created_at DESC`
		return r.list(ctx, query)
	}
	const query = `
		SELECT id, user_id, menu_id, order_date, total_meals, total_price, status, created_at, updated_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, status)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]types.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]types.Order, 0)
	for rows.Next() {
		var order types.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.MenuID,
			&order.OrderDate,
			&order.TotalMeals,
			&order.TotalPrice,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// Place inserts the order and its lines and draws the order's meal count
// down from the customer's packs, all in one transaction. Packs are
// consumed oldest purchase first; expired and empty packs are skipped.
// Returns an InsufficientBalanceError or PackExpiredError when the
// customer's credits cannot cover the order.
func (r *OrderRepository) Place(ctx context.Context, order types.Order, items []types.OrderItem) (types.Order, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	if order.Status == "" {
		order.Status = types.OrderStatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Order{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.drawDown(ctx, tx, order.UserID, order.TotalMeals, now); err != nil {
		return types.Order{}, err
	}

	const orderQuery = `
		INSERT INTO orders (user_id, menu_id, order_date, total_meals, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		orderQuery,
		order.UserID,
		order.MenuID,
		order.OrderDate,
		order.TotalMeals,
		order.TotalPrice,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID); err != nil {
		return types.Order{}, err
	}

	const itemQuery = `
		INSERT INTO order_items (order_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range items {
		item := &items[i]
		item.OrderID = order.ID
		if err := tx.QueryRowContext(
			ctx,
			itemQuery,
			item.OrderID,
			item.MenuItemID,
			item.Quantity,
			item.Price,
		).Scan(&item.ID); err != nil {
			return types.Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Order{}, err
	}
	order.Items = items
	return order, nil
}

// drawDown locks the customer's spendable packs and deducts the required
// meal count across them, oldest first.
func (r *OrderRepository) drawDown(ctx context.Context, tx *sql.Tx, userID, required int, now time.Time) error {
	const query = `
		SELECT id, remaining_balance, expiry_date
		FROM meal_packs
		WHERE user_id = $1 AND is_active = TRUE AND remaining_balance > 0
		ORDER BY purchase_date
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return err
	}

	type packRow struct {
		id      int
		balance int
	}
	var (
		spendable   []packRow
		available   int
		expiredPack int
		sawExpired  bool
	)
	for rows.Next() {
		var (
			row    packRow
			expiry sql.NullTime
		)
		if err := rows.Scan(&row.id, &row.balance, &expiry); err != nil {
			rows.Close()
			return err
		}
		if expiry.Valid && now.After(expiry.Time) {
			if !sawExpired {
				expiredPack = row.id
				sawExpired = true
			}
			continue
		}
		spendable = append(spendable, row)
		available += row.balance
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if available < required {
		if available == 0 && sawExpired {
			return &apperr.PackExpiredError{PackID: expiredPack}
		}
		return &apperr.InsufficientBalanceError{Required: required, Available: available}
	}

	const deduct = `UPDATE meal_packs SET remaining_balance = $1 WHERE id = $2`
	remaining := required
	for _, pack := range spendable {
		if remaining == 0 {
			break
		}
		take := pack.balance
		if take > remaining {
			take = remaining
		}
		if _, err := tx.ExecContext(ctx, deduct, pack.balance-take, pack.id); err != nil {
			return err
		}
		remaining -= take
	}
	return nil
}

// UpdateStatus persists a new status and returns the order along with the
// status it replaced. Membership in the status set is the caller's
// responsibility; no transition graph is enforced.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status string) (types.Order, string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Order{}, "", err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const fetch = `SELECT status FROM orders WHERE id = $1 FOR UPDATE`
	var oldStatus string
	if err := tx.QueryRowContext(ctx, fetch, id).Scan(&oldStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Order{}, "", ErrNotFound
		}
		return types.Order{}, "", err
	}

	const update = `
		UPDATE orders
		SET status = $1,
			updated_at = $2
		WHERE id = $3
		RETURNING id, user_id, menu_id, order_date, total_meals, total_price, status, created_at, updated_at`
	var order types.Order
	if err := tx.QueryRowContext(ctx, update, status, time.Now(), id).Scan(
		&order.ID,
		&order.UserID,
		&order.MenuID,
		&order.OrderDate,
		&order.TotalMeals,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return types.Order{}, "", err
	}

	if err := tx.Commit(); err != nil {
		return types.Order{}, "", err
	}
	return order, oldStatus, nil
}

// Stats aggregates order counts and revenue. Averages over zero orders
// come back as 0, not NULL.
func (r *OrderRepository) Stats(ctx context.Context) (types.OrderStats, error) {
	const query = `
		SELECT
			COUNT(1),
			COUNT(1) FILTER (WHERE status = 'pending'),
			COUNT(1) FILTER (WHERE status = 'confirmed'),
			COUNT(1) FILTER (WHERE status = 'delivered'),
			COUNT(1) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(total_price) FILTER (WHERE status <> 'cancelled'), 0),
			COALESCE(AVG(total_price) FILTER (WHERE status <> 'cancelled'), 0)
		FROM orders`
	var stats types.OrderStats
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalOrders,
		&stats.PendingOrders,
		&stats.ConfirmedOrders,
		&stats.DeliveredOrders,
		&stats.CancelledOrders,
		&stats.TotalRevenue,
		&stats.AverageOrderValue,
	); err != nil {
		return types.OrderStats{}, err
	}
	return stats, nil
}
