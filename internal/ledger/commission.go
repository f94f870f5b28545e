package ledger

import (
	"context"

	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SetAdminCommission sets the percentage of every rental routed to the admin.
// Values above 100 are accepted.
func (l *RentalLedger) SetAdminCommission(ctx context.Context, commission decimal.Decimal) error {
	err := l.update(ctx, "set_admin_commission", func(txn store.Txn) error {
		if _, err := l.requireAdmin(ctx, txn); err != nil {
			return err
		}
		if commission.IsNegative() {
			return ErrAmountMustBePositive
		}
		if err := requireWholeAmount(commission); err != nil {
			return err
		}
		return txn.PutCommission(ctx, commission)
	})
	if err != nil {
		return err
	}

	zap.L().Info("Admin commission updated", zap.String("commission", commission.String()))
	return nil
}

// GetAdminCommission returns the commission percentage, 0 if never set
func (l *RentalLedger) GetAdminCommission(ctx context.Context) (decimal.Decimal, error) {
	var commission decimal.Decimal
	err := l.store.View(ctx, func(txn store.Txn) error {
		var err error
		commission, err = txn.GetCommission(ctx)
		return err
	})
	return commission, err
}
