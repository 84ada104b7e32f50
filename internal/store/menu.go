package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mealcycle/apiserver/types"
)

// MenuRepository handles persistence for menus and their items.
type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) List(ctx context.Context) ([]types.Menu, error) {
	const query = `
		SELECT id, week_start_date, week_end_date, is_published, created_by, created_at, updated_at
		FROM menus
		ORDER BY week_start_date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	menus := make([]types.Menu, 0)
	for rows.Next() {
		var menu types.Menu
		if err := rows.Scan(
			&menu.ID,
			&menu.WeekStartDate,
			&menu.WeekEndDate,
			&menu.IsPublished,
			&menu.CreatedBy,
			&menu.CreatedAt,
			&menu.UpdatedAt,
		); err != nil {
			return nil, err
		}
		menus = append(menus, menu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *MenuRepository) Get(ctx context.Context, id int) (types.Menu, error) {
	const query = `
		SELECT id, week_start_date, week_end_date, is_published, created_by, created_at, updated_at
		FROM menus
		WHERE id = $1`
	var menu types.Menu
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&menu.ID,
		&menu.WeekStartDate,
		&menu.WeekEndDate,
		&menu.IsPublished,
		&menu.CreatedBy,
		&menu.CreatedAt,
		&menu.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Menu{}, ErrNotFound
		}
		return types.Menu{}, err
	}

	items, err := r.Items(ctx, menu.ID)
	if err != nil {
		return types.Menu{}, err
	}
	menu.Items = items
	return menu, nil
}

// GetPublished returns the currently published menu with its items.
func (r *MenuRepository) GetPublished(ctx context.Context) (types.Menu, error) {
	const query = `
		SELECT id, week_start_date, week_end_date, is_published, created_by, created_at, updated_at
		FROM menus
		WHERE is_published = TRUE
		ORDER BY id
		LIMIT 1`
	var menu types.Menu
	err := r.db.QueryRowContext(ctx, query).Scan(
		&menu.ID,
		&menu.WeekStartDate,
		&menu.WeekEndDate,
		&menu.IsPublished,
		&menu.CreatedBy,
		&menu.CreatedAt,
		&menu.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Menu{}, ErrNotFound
		}
		return types.Menu{}, err
	}

	items, err := r.Items(ctx, menu.ID)
	if err != nil {
		return types.Menu{}, err
	}
	menu.Items = items
	return menu, nil
}

func (r *MenuRepository) Items(ctx context.Context, menuID int) ([]types.MenuItem, error) {
	const query = `
		SELECT id, menu_id, name, description, price, category, image_key, is_available
		FROM menu_items
		WHERE menu_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.MenuItem, 0)
	for rows.Next() {
		var item types.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.MenuID,
			&item.Name,
			&item.Description,
			&item.Price,
			&item.Category,
			&item.ImageKey,
			&item.IsAvailable,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts the menu and its items in one transaction.
func (r *MenuRepository) Create(ctx context.Context, menu types.Menu) (types.Menu, error) {
	now := time.Now()
	menu.CreatedAt = now
	menu.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Menu{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const menuQuery = `
		INSERT INTO menus (week_start_date, week_end_date, is_published, created_by, created_at, updated_at)
		VALUES ($1, $2, FALSE, $3, $4, $5)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		menuQuery,
		menu.WeekStartDate,
		menu.WeekEndDate,
		menu.CreatedBy,
		menu.CreatedAt,
		menu.UpdatedAt,
	).Scan(&menu.ID); err != nil {
		return types.Menu{}, err
	}

	const itemQuery = `
		INSERT INTO menu_items (menu_id, name, description, price, category, image_key, is_available)
		VALUES ($1, $2, $3, $4, $5, '', $6)
		RETURNING id`
	for i := range menu.Items {
		item := &menu.Items[i]
		item.MenuID = menu.ID
		if err := tx.QueryRowContext(
			ctx,
			itemQuery,
			item.MenuID,
			item.Name,
			item.Description,
			item.Price,
			item.Category,
			item.IsAvailable,
		).Scan(&item.ID); err != nil {
			return types.Menu{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Menu{}, err
	}
	menu.IsPublished = false
	return menu, nil
}

func (r *MenuRepository) Update(ctx context.Context, menu types.Menu) (types.Menu, error) {
	menu.UpdatedAt = time.Now()

	const query = `
		UPDATE menus
		SET week_start_date = $1,
			week_end_date = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		menu.WeekStartDate,
		menu.WeekEndDate,
		menu.UpdatedAt,
		menu.ID,
	)
	if err != nil {
		return types.Menu{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Menu{}, err
	}
	if affected == 0 {
		return types.Menu{}, ErrNotFound
	}
	return r.Get(ctx, menu.ID)
}

func (r *MenuRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM menus WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Publish makes the target menu the single published one. Both statements
// run in one transaction so a crash cannot leave zero menus published.
// Publishing an already-published menu is a no-op success.
func (r *MenuRepository) Publish(ctx context.Context, id int) (types.Menu, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Menu{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()

	const unpublishOthers = `
		UPDATE menus
		SET is_published = FALSE,
			updated_at = $1
		WHERE is_published = TRUE AND id <> $2`
	if _, err := tx.ExecContext(ctx, unpublishOthers, now, id); err != nil {
		return types.Menu{}, err
	}

	const publishTarget = `
		UPDATE menus
		SET is_published = TRUE,
			updated_at = $1
		WHERE id = $2`
	result, err := tx.ExecContext(ctx, publishTarget, now, id)
	if err != nil {
		return types.Menu{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Menu{}, err
	}
	if affected == 0 {
		return types.Menu{}, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return types.Menu{}, err
	}
	return r.Get(ctx, id)
}

// Unpublish clears the publication flag for exactly the target menu.
func (r *MenuRepository) Unpublish(ctx context.Context, id int) (types.Menu, error) {
	const query = `
		UPDATE menus
		SET is_published = FALSE,
			updated_at = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return types.Menu{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Menu{}, err
	}
	if affected == 0 {
		return types.Menu{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// StatusSummary aggregates menu counts for the admin dashboard. Active and
// expired are derived from today's date.
func (r *MenuRepository) StatusSummary(ctx context.Context) (types.MenuStatusSummary, error) {
	const query = `
		SELECT
			COUNT(1),
			COUNT(1) FILTER (WHERE is_published),
			COUNT(1) FILTER (WHERE NOT is_published AND week_end_date >= CURRENT_DATE),
			COUNT(1) FILTER (WHERE is_published AND week_start_date <= CURRENT_DATE AND week_end_date >= CURRENT_DATE),
			COUNT(1) FILTER (WHERE week_end_date < CURRENT_DATE)
		FROM menus`
	var summary types.MenuStatusSummary
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&summary.Total,
		&summary.Published,
		&summary.Draft,
		&summary.Active,
		&summary.Expired,
	); err != nil {
		return types.MenuStatusSummary{}, err
	}
	return summary, nil
}

// GetItem fetches a single menu item belonging to the given menu.
func (r *MenuRepository) GetItem(ctx context.Context, menuID, itemID int) (types.MenuItem, error) {
	const query = `
		SELECT id, menu_id, name, description, price, category, image_key, is_available
		FROM menu_items
		WHERE id = $1 AND menu_id = $2`
	var item types.MenuItem
	err := r.db.QueryRowContext(ctx, query, itemID, menuID).Scan(
		&item.ID,
		&item.MenuID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Category,
		&item.ImageKey,
		&item.IsAvailable,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MenuItem{}, ErrNotFound
		}
		return types.MenuItem{}, err
	}
	return item, nil
}

// SetItemImageKey stores the object storage key of an item's photo.
func (r *MenuRepository) SetItemImageKey(ctx context.Context, itemID int, key string) error {
	const query = `UPDATE menu_items SET image_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, itemID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
