package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mealcycle/apiserver/types"
)

// PackRepository handles persistence for meal packs and pack templates.
type PackRepository struct {
	db *sql.DB
}

func NewPackRepository(db *sql.DB) *PackRepository {
	return &PackRepository{db: db}
}

func (r *PackRepository) Create(ctx context.Context, pack types.MealPack) (types.MealPack, error) {
	if pack.PurchaseDate.IsZero() {
		pack.PurchaseDate = time.Now()
	}

	const query = `
		INSERT INTO meal_packs (user_id, pack_size, remaining_balance, purchase_date, expiry_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		pack.UserID,
		pack.PackSize,
		pack.RemainingBalance,
		pack.PurchaseDate,
		pack.ExpiryDate,
		pack.IsActive,
	).Scan(&pack.ID); err != nil {
		return types.MealPack{}, err
	}
	return pack, nil
}

func (r *PackRepository) ListByUser(ctx context.Context, userID int) ([]types.MealPack, error) {
	const query = `
		SELECT id, user_id, pack_size, remaining_balance, purchase_date, expiry_date, is_active
		FROM meal_packs
		WHERE user_id = $1
		ORDER BY purchase_date DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := make([]types.MealPack, 0)
	for rows.Next() {
		var pack types.MealPack
		if err := rows.Scan(
			&pack.ID,
			&pack.UserID,
			&pack.PackSize,
			&pack.RemainingBalance,
			&pack.PurchaseDate,
			&pack.ExpiryDate,
			&pack.IsActive,
		); err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return packs, nil
}

// Balance sums unspent credits over the user's active, non-empty packs.
func (r *PackRepository) Balance(ctx context.Context, userID int) (int, error) {
	const query = `
		SELECT COALESCE(SUM(remaining_balance), 0)
		FROM meal_packs
		WHERE user_id = $1 AND is_active = TRUE AND remaining_balance > 0`
	var balance int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// ListTemplates returns the pack template catalog.
func (r *PackRepository) ListTemplates(ctx context.Context) ([]types.PackTemplate, error) {
	const query = `
		SELECT id, name, size, price, description, is_active
		FROM pack_templates
		ORDER BY size`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]types.PackTemplate, 0)
	for rows.Next() {
		var template types.PackTemplate
		if err := rows.Scan(
			&template.ID,
			&template.Name,
			&template.Size,
			&template.Price,
			&template.Description,
			&template.IsActive,
		); err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *PackRepository) CreateTemplate(ctx context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	const query = `
		INSERT INTO pack_templates (name, size, price, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		template.Name,
		template.Size,
		template.Price,
		template.Description,
		template.IsActive,
	).Scan(&template.ID); err != nil {
		return types.PackTemplate{}, err
	}
	return template, nil
}

func (r *PackRepository) UpdateTemplate(ctx context.Context, template types.PackTemplate) (types.PackTemplate, error) {
	const query = `
		UPDATE pack_templates
		SET name = $1,
			size = $2,
			price = $3,
			description = $4,
			is_active = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		template.Name,
		template.Size,
		template.Price,
		template.Description,
		template.IsActive,
		template.ID,
	)
	if err != nil {
		return types.PackTemplate{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.PackTemplate{}, err
	}
	if affected == 0 {
		return types.PackTemplate{}, ErrNotFound
	}
	return template, nil
}
