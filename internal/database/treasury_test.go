package database

import (
	"context"
	"errors"
	"testing"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
)

func adjust(t *testing.T, service *Service, account models.TreasuryAccount, delta int64, reference string) {
	t.Helper()
	err := service.Update(context.Background(), func(txn store.Txn) error {
		return txn.AdjustBalance(context.Background(), account, decimal.NewFromInt(delta), reference)
	})
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
}

func TestAdjustBalance_JournalsEveryMovement(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	adjust(t, service, models.TreasuryContract, 100, "rent-1")
	adjust(t, service, models.TreasuryContract, -45, "payout-1")
	adjust(t, service, models.TreasuryAdmin, 10, "rent-1")

	var balance decimal.Decimal
	err := service.View(ctx, func(txn store.Txn) error {
		var err error
		balance, err = txn.GetBalance(ctx, models.TreasuryContract)
		return err
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(55)) {
		t.Errorf("Expected contract balance 55, got %s", balance)
	}

	history, err := service.GetTreasuryHistory(ctx, models.TreasuryContract, 10, 0)
	if err != nil {
		t.Fatalf("GetTreasuryHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(history))
	}
	// newest first
	if history[0].Reference != "payout-1" {
		t.Errorf("Expected newest entry payout-1, got %s", history[0].Reference)
	}
	if !history[0].BalanceBefore.Equal(decimal.NewFromInt(100)) || !history[0].BalanceAfter.Equal(decimal.NewFromInt(55)) {
		t.Errorf("Unexpected balances on entry: before=%s after=%s", history[0].BalanceBefore, history[0].BalanceAfter)
	}

	page, err := service.GetTreasuryHistory(ctx, models.TreasuryContract, 1, 1)
	if err != nil {
		t.Fatalf("GetTreasuryHistory failed: %v", err)
	}
	if len(page) != 1 || page[0].Reference != "rent-1" {
		t.Errorf("Expected second page to hold rent-1, got %+v", page)
	}
}

func TestReconcileTreasury(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	adjust(t, service, models.TreasuryAdmin, 7, "a")
	adjust(t, service, models.TreasuryAdmin, 3, "b")
	adjust(t, service, models.TreasuryAdmin, -10, "c")

	if err := service.ReconcileTreasury(ctx, models.TreasuryAdmin); err != nil {
		t.Fatalf("Expected reconciliation to pass: %v", err)
	}

	// Tamper with the hot row
	if _, err := service.db.Exec(`UPDATE treasury_balances SET balance = '99' WHERE account = ?`, "admin"); err != nil {
		t.Fatalf("Failed to tamper balance: %v", err)
	}
	err := service.ReconcileTreasury(ctx, models.TreasuryAdmin)
	if !errors.Is(err, store.ErrBalanceMismatch) {
		t.Errorf("Expected ErrBalanceMismatch, got %v", err)
	}
}

func TestReconcileTreasury_Empty(t *testing.T) {
	service := setupTestService(t)
	if err := service.ReconcileTreasury(context.Background(), models.TreasuryContract); err != nil {
		t.Errorf("Expected empty treasury to reconcile, got %v", err)
	}
}
