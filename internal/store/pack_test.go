package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mealcycle/apiserver/types"
)

func TestPackBalanceSumsActivePacks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(remaining_balance\), 0\)`).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(12))

	repo := NewPackRepository(db)
	balance, err := repo.Balance(context.Background(), 8)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 12 {
		t.Fatalf("expected 12, got %d", balance)
	}
}

func TestPackUpdateTemplateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE pack_templates`).
		WithArgs("Starter", 10, 49.0, "", true, 77).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPackRepository(db)
	_, err = repo.UpdateTemplate(context.Background(), types.PackTemplate{
		ID:       77,
		Name:     "Starter",
		Size:     10,
		Price:    49.0,
		IsActive: true,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
