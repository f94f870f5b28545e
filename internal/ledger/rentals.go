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
	"errors"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// CommissionFor returns floor(total * pct / 100)
func CommissionFor(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(pct).Div(hundred).Floor()
}

// Rental rents owner's car to renter for days, charging price * days up front.
// Any prior rental record for the pair is overwritten.
func (l *RentalLedger) Rental(ctx context.Context, renter, owner models.Address, days uint32) error {
	var total, commission decimal.Decimal
	reference := newReference()

	err := l.update(ctx, "rental", func(txn store.Txn) error {
		if err := l.verifier.RequireAuth(ctx, renter); err != nil {
			return err
		}
		if days == 0 {
			return ErrRentalDurationCannotBeZero
		}
		if renter == owner {
			return ErrSelfRentalNotAllowed
		}

		car, err := loadCar(ctx, txn, owner)
		if err != nil {
			return err
		}
		if car.Status != models.CarStatusAvailable {
			return ErrCarAlreadyRented
		}

		pct, err := txn.GetCommission(ctx)
		if err != nil {
			return err
		}
		total = car.PricePerDay.Mul(decimal.NewFromInt(int64(days)))
		commission = CommissionFor(total, pct)
		ownerAmount := total.Sub(commission)

		car.Status = models.CarStatusRented
		car.AvailableToWithdraw = car.AvailableToWithdraw.Add(ownerAmount)

		if err := txn.AdjustBalance(ctx, models.TreasuryContract, total, reference); err != nil {
			return err
		}
		if !commission.IsZero() {
			if err := txn.AdjustBalance(ctx, models.TreasuryAdmin, commission, reference); err != nil {
				return err
			}
		}
		if err := txn.PutCar(ctx, owner, car); err != nil {
			return err
		}
		err = txn.PutRental(ctx, renter, owner, &models.Rental{
			TotalDaysToRent: days,
			Amount:          total,
			Commission:      commission,
			IsActive:        true,
		})
		if err != nil {
			return err
		}

		return l.transfer(ctx, txn, "rental", reference, renter, l.address, total)
	})
	if err != nil {
		return err
	}

	l.metrics.rented(days)
	l.recordBalances(ctx)
	zap.L().Info("Car rented",
		zap.String("renter", renter.Short()),
		zap.String("owner", owner.Short()),
		zap.Uint32("days", days),
		zap.String("amount", total.String()),
		zap.String("commission", commission.String()),
		zap.String("reference", reference))
	return nil
}

// ReturnCar closes the active rental for the pair and frees the car.
// Balances are settled separately by payouts.
func (l *RentalLedger) ReturnCar(ctx context.Context, renter, owner models.Address) error {
	err := l.update(ctx, "return_car", func(txn store.Txn) error {
		if err := l.verifier.RequireAuth(ctx, renter); err != nil {
			return err
		}

		rental, err := txn.GetRental(ctx, renter, owner)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRentalNotFound
		}
		if err != nil {
			return err
		}
		if !rental.IsActive {
			return ErrRentalNotFound
		}

		car, err := txn.GetCar(ctx, owner)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// RemoveCar closes active rentals, so only legacy records get here
			zap.L().Warn("Returning rental of a removed car",
				zap.String("renter", renter.Short()),
				zap.String("owner", owner.Short()))
		case err != nil:
			return err
		default:
			car.Status = models.CarStatusAvailable
			if err := txn.PutCar(ctx, owner, car); err != nil {
				return err
			}
		}

		rental.IsActive = false
		return txn.PutRental(ctx, renter, owner, rental)
	})
	if err != nil {
		return err
	}

	zap.L().Info("Car returned",
		zap.String("renter", renter.Short()),
		zap.String("owner", owner.Short()))
	return nil
}
