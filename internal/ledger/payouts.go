/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import (
	"context"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PayoutOwner pays amount of the owner's earnings out of the contract.
// The car must not be rented at the time.
func (l *RentalLedger) PayoutOwner(ctx context.Context, owner models.Address, amount decimal.Decimal) error {
	reference := newReference()

	err := l.update(ctx, "payout_owner", func(txn store.Txn) error {
		if err := l.verifier.RequireAuth(ctx, owner); err != nil {
			return err
		}
		if !amount.IsPositive() {
			return ErrAmountMustBePositive
		}
		if err := requireWholeAmount(amount); err != nil {
			return err
		}

		car, err := loadCar(ctx, txn, owner)
		if err != nil {
			return err
		}
		if car.Status == models.CarStatusRented {
			return ErrCarNotReturned
		}
		if amount.GreaterThan(car.AvailableToWithdraw) {
			return ErrInsufficientBalance
		}
		if err := checkLiquidity(ctx, txn, amount); err != nil {
			return err
		}

		car.AvailableToWithdraw = car.AvailableToWithdraw.Sub(amount)
		if err := txn.PutCar(ctx, owner, car); err != nil {
			return err
		}
		if err := txn.AdjustBalance(ctx, models.TreasuryContract, amount.Neg(), reference); err != nil {
			return err
		}

		return l.transfer(ctx, txn, "payout_owner", reference, l.address, owner, amount)
	})
	if err != nil {
		return err
	}

	l.recordBalances(ctx)
	zap.L().Info("Owner paid out",
		zap.String("owner", owner.Short()),
		zap.String("amount", amount.String()),
		zap.String("reference", reference))
	return nil
}

// PayoutAdmin pays amount of the accrued commission to the admin
func (l *RentalLedger) PayoutAdmin(ctx context.Context, amount decimal.Decimal) error {
	reference := newReference()

	err := l.update(ctx, "payout_admin", func(txn store.Txn) error {
		admin, err := l.requireAdmin(ctx, txn)
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return ErrAmountMustBePositive
		}
		if err := requireWholeAmount(amount); err != nil {
			return err
		}

		adminBalance, err := txn.GetBalance(ctx, models.TreasuryAdmin)
		if err != nil {
			return err
		}
		if amount.GreaterThan(adminBalance) {
			return ErrInsufficientBalance
		}
		if err := checkLiquidity(ctx, txn, amount); err != nil {
			return err
		}

		if err := txn.AdjustBalance(ctx, models.TreasuryAdmin, amount.Neg(), reference); err != nil {
			return err
		}
		if err := txn.AdjustBalance(ctx, models.TreasuryContract, amount.Neg(), reference); err != nil {
			return err
		}

		return l.transfer(ctx, txn, "payout_admin", reference, l.address, admin, amount)
	})
	if err != nil {
		return err
	}

	l.recordBalances(ctx)
	zap.L().Info("Admin paid out",
		zap.String("amount", amount.String()),
		zap.String("reference", reference))
	return nil
}

// checkLiquidity fails when the contract does not hold amount
func checkLiquidity(ctx context.Context, txn store.Txn, amount decimal.Decimal) error {
	contractBalance, err := txn.GetBalance(ctx, models.TreasuryContract)
	if err != nil {
		return err
	}
	if amount.GreaterThan(contractBalance) {
		return ErrBalanceNotAvailableForAmountRequested
	}
	return nil
}
