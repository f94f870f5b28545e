package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a fresh database
	db.SetMaxOpenConns(1)

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}

func TestSettings_RoundTrip(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	err := service.Update(ctx, func(txn store.Txn) error {
		if err := txn.PutAdmin(ctx, "admin-1"); err != nil {
			return err
		}
		if err := txn.PutToken(ctx, "token-1"); err != nil {
			return err
		}
		return txn.PutCommission(ctx, decimal.NewFromInt(10))
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = service.View(ctx, func(txn store.Txn) error {
		admin, err := txn.GetAdmin(ctx)
		if err != nil {
			return err
		}
		if admin != "admin-1" {
			t.Errorf("Expected admin admin-1, got %s", admin)
		}
		tok, err := txn.GetToken(ctx)
		if err != nil {
			return err
		}
		if tok != "token-1" {
			t.Errorf("Expected token token-1, got %s", tok)
		}
		commission, err := txn.GetCommission(ctx)
		if err != nil {
			return err
		}
		if !commission.Equal(decimal.NewFromInt(10)) {
			t.Errorf("Expected commission 10, got %s", commission)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestSettings_Defaults(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	err := service.View(ctx, func(txn store.Txn) error {
		if _, err := txn.GetAdmin(ctx); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for admin, got %v", err)
		}
		commission, err := txn.GetCommission(ctx)
		if err != nil {
			return err
		}
		if !commission.IsZero() {
			t.Errorf("Expected default commission 0, got %s", commission)
		}
		balance, err := txn.GetBalance(ctx, models.TreasuryContract)
		if err != nil {
			return err
		}
		if !balance.IsZero() {
			t.Errorf("Expected default balance 0, got %s", balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestCars_PutGetListDelete(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	err := service.Update(ctx, func(txn store.Txn) error {
		if err := txn.PutCar(ctx, "owner-b", &models.Car{PricePerDay: decimal.NewFromInt(1500)}); err != nil {
			return err
		}
		return txn.PutCar(ctx, "owner-a", &models.Car{
			PricePerDay:         decimal.NewFromInt(10),
			Status:              models.CarStatusRented,
			AvailableToWithdraw: decimal.NewFromInt(45),
		})
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = service.View(ctx, func(txn store.Txn) error {
		car, err := txn.GetCar(ctx, "owner-a")
		if err != nil {
			return err
		}
		if car.Status != models.CarStatusRented {
			t.Errorf("Expected status Rented, got %s", car.Status)
		}
		if !car.AvailableToWithdraw.Equal(decimal.NewFromInt(45)) {
			t.Errorf("Expected available 45, got %s", car.AvailableToWithdraw)
		}

		cars, err := txn.ListCars(ctx)
		if err != nil {
			return err
		}
		if len(cars) != 2 {
			t.Fatalf("Expected 2 cars, got %d", len(cars))
		}
		if cars[0].Owner != "owner-a" || cars[1].Owner != "owner-b" {
			t.Errorf("Expected cars ordered by owner, got %s, %s", cars[0].Owner, cars[1].Owner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	err = service.Update(ctx, func(txn store.Txn) error {
		return txn.DeleteCar(ctx, "owner-a")
	})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	err = service.View(ctx, func(txn store.Txn) error {
		_, err := txn.GetCar(ctx, "owner-a")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestRentals_Overwrite(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	put := func(days uint32, amount int64) {
		err := service.Update(ctx, func(txn store.Txn) error {
			return txn.PutRental(ctx, "renter", "owner", &models.Rental{
				TotalDaysToRent: days,
				Amount:          decimal.NewFromInt(amount),
				Commission:      decimal.NewFromInt(amount / 10),
				IsActive:        true,
			})
		})
		if err != nil {
			t.Fatalf("PutRental failed: %v", err)
		}
	}
	put(3, 300)
	put(5, 500)

	err := service.View(ctx, func(txn store.Txn) error {
		rental, err := txn.GetRental(ctx, "renter", "owner")
		if err != nil {
			return err
		}
		if rental.TotalDaysToRent != 5 {
			t.Errorf("Expected 5 days, got %d", rental.TotalDaysToRent)
		}
		if !rental.Amount.Equal(decimal.NewFromInt(500)) {
			t.Errorf("Expected amount 500, got %s", rental.Amount)
		}
		if !rental.IsActive {
			t.Error("Expected rental to be active")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestRentals_ListByOwner(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	err := service.Update(ctx, func(txn store.Txn) error {
		for _, key := range [][2]models.Address{{"renter-b", "owner"}, {"renter-a", "owner"}, {"renter-a", "other"}} {
			err := txn.PutRental(ctx, key[0], key[1], &models.Rental{
				TotalDaysToRent: 1,
				Amount:          decimal.NewFromInt(10),
				Commission:      decimal.NewFromInt(1),
				IsActive:        key[0] == "renter-b",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("PutRental failed: %v", err)
	}

	err = service.View(ctx, func(txn store.Txn) error {
		rentals, err := txn.ListRentalsByOwner(ctx, "owner")
		if err != nil {
			return err
		}
		if len(rentals) != 2 {
			t.Fatalf("Expected 2 rentals, got %d", len(rentals))
		}
		if rentals[0].Renter != "renter-a" || rentals[1].Renter != "renter-b" {
			t.Errorf("Expected renter order, got %s, %s", rentals[0].Renter, rentals[1].Renter)
		}
		if rentals[0].Rental.IsActive || !rentals[1].Rental.IsActive {
			t.Error("Expected only renter-b to be active")
		}
		if !rentals[1].Rental.Commission.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Expected commission 1, got %s", rentals[1].Rental.Commission)
		}

		none, err := txn.ListRentalsByOwner(ctx, "nobody")
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Errorf("Expected no rentals, got %d", len(none))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := service.Update(ctx, func(txn store.Txn) error {
		if err := txn.PutCar(ctx, "owner", &models.Car{PricePerDay: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		if err := txn.AdjustBalance(ctx, models.TreasuryContract, decimal.NewFromInt(5), "ref"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	err = service.View(ctx, func(txn store.Txn) error {
		if _, err := txn.GetCar(ctx, "owner"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected car write to be rolled back, got %v", err)
		}
		balance, err := txn.GetBalance(ctx, models.TreasuryContract)
		if err != nil {
			return err
		}
		if !balance.IsZero() {
			t.Errorf("Expected treasury write to be rolled back, got %s", balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	history, err := service.GetTreasuryHistory(ctx, models.TreasuryContract, 10, 0)
	if err != nil {
		t.Fatalf("GetTreasuryHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty journal, got %d entries", len(history))
	}
}

func TestView_RejectsWrites(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	err := service.View(ctx, func(txn store.Txn) error {
		return txn.PutAdmin(ctx, "admin")
	})
	if !errors.Is(err, store.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly, got %v", err)
	}

	err = service.View(ctx, func(txn store.Txn) error {
		return txn.AdjustBalance(ctx, models.TreasuryAdmin, decimal.NewFromInt(1), "ref")
	})
	if !errors.Is(err, store.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly, got %v", err)
	}
}

func TestUpdate_RollbackWithSqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	service := &Service{db: db}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cars").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	transferErr := errors.New("token transfer failed")
	err = service.Update(ctx, func(txn store.Txn) error {
		if err := txn.PutCar(ctx, "owner", &models.Car{PricePerDay: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		return transferErr
	})
	if !errors.Is(err, transferErr) {
		t.Errorf("Expected transfer error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestUpdate_CommitFailureWithSqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	service := &Service{db: db}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO contract_settings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err = service.Update(ctx, func(txn store.Txn) error {
		return txn.PutCommission(ctx, decimal.NewFromInt(5))
	})
	if err == nil {
		t.Fatal("Expected commit error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestNewService_ValidatesConfig(t *testing.T) {
	_, err := NewService(context.Background(), models.StoreConfig{})
	if err == nil {
		t.Fatal("Expected error for empty path")
	}
	_, err = NewService(context.Background(), models.StoreConfig{Path: "x.db"})
	if err == nil {
		t.Fatal("Expected error for zero max open connections")
	}
}
