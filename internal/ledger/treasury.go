package ledger

import (
	"context"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
)

// GetAdminBalance returns the commission not yet paid to the admin
func (l *RentalLedger) GetAdminBalance(ctx context.Context) (decimal.Decimal, error) {
	return l.balance(ctx, models.TreasuryAdmin)
}

// GetContractBalance returns the total funds held by the contract
func (l *RentalLedger) GetContractBalance(ctx context.Context) (decimal.Decimal, error) {
	return l.balance(ctx, models.TreasuryContract)
}

func (l *RentalLedger) balance(ctx context.Context, account models.TreasuryAccount) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.store.View(ctx, func(txn store.Txn) error {
		var err error
		balance, err = txn.GetBalance(ctx, account)
		return err
	})
	return balance, err
}

// TreasuryHistory lists treasury movements, newest first
func (l *RentalLedger) TreasuryHistory(ctx context.Context, account models.TreasuryAccount, limit, offset int) ([]models.TreasuryEntry, error) {
	return l.store.GetTreasuryHistory(ctx, account, limit, offset)
}

// ReconcileTreasury checks the counter against its journal
func (l *RentalLedger) ReconcileTreasury(ctx context.Context, account models.TreasuryAccount) error {
	return l.store.ReconcileTreasury(ctx, account)
}
