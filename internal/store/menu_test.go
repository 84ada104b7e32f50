package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func menuColumns() []string {
	return []string{"id", "week_start_date", "week_end_date", "is_published", "created_by", "created_at", "updated_at"}
}

func itemColumns() []string {
	return []string{"id", "menu_id", "name", "description", "price", "category", "image_key", "is_available"}
}

func TestMenuPublishSwapsPublishedMenu(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE menus.*is_published = FALSE.*id <> \$2`).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)UPDATE menus.*is_published = TRUE.*WHERE id = \$2`).
		WithArgs(sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`(?s)SELECT id, week_start_date.*FROM menus.*WHERE id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(menuColumns()).
			AddRow(5, now, now.AddDate(0, 0, 6), true, 1, now, now))
	mock.ExpectQuery(`FROM menu_items`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(itemColumns()))

	repo := NewMenuRepository(db)
	menu, err := repo.Publish(context.Background(), 5)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !menu.IsPublished {
		t.Fatalf("expected menu to be published")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMenuPublishMissingMenuRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE menus.*is_published = FALSE`).
		WithArgs(sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)UPDATE menus.*is_published = TRUE`).
		WithArgs(sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewMenuRepository(db)
	if _, err := repo.Publish(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMenuUnpublishMissingMenu(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE menus.*is_published = FALSE`).
		WithArgs(sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewMenuRepository(db)
	if _, err := repo.Unpublish(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMenuStatusSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM menus`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "published", "draft", "active", "expired"}).
			AddRow(4, 1, 2, 1, 1))

	repo := NewMenuRepository(db)
	summary, err := repo.StatusSummary(context.Background())
	if err != nil {
		t.Fatalf("status summary: %v", err)
	}
	if summary.Total != 4 || summary.Published != 1 || summary.Draft != 2 || summary.Active != 1 || summary.Expired != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
