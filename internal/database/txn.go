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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ store.Txn = (*sqlTxn)(nil)

// sqlTxn exposes the contract key scheme over a single *sql.Tx
type sqlTxn struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *sqlTxn) exec(ctx context.Context, query string, args ...any) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t *sqlTxn) getSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := t.tx.QueryRowContext(ctx, queryGetSetting, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (t *sqlTxn) putSetting(ctx context.Context, key, value string) error {
	if err := t.exec(ctx, queryUpsertSetting, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}

func (t *sqlTxn) GetAdmin(ctx context.Context) (models.Address, error) {
	value, err := t.getSetting(ctx, settingAdmin)
	return models.Address(value), err
}

func (t *sqlTxn) PutAdmin(ctx context.Context, admin models.Address) error {
	return t.putSetting(ctx, settingAdmin, admin.String())
}

func (t *sqlTxn) GetToken(ctx context.Context) (models.Address, error) {
	value, err := t.getSetting(ctx, settingToken)
	return models.Address(value), err
}

func (t *sqlTxn) PutToken(ctx context.Context, token models.Address) error {
	return t.putSetting(ctx, settingToken, token.String())
}

// GetCommission returns zero when no commission was ever set
func (t *sqlTxn) GetCommission(ctx context.Context) (decimal.Decimal, error) {
	value, err := t.getSetting(ctx, settingCommission)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	commission, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse commission '%s': %w", value, err)
	}
	return commission, nil
}

func (t *sqlTxn) PutCommission(ctx context.Context, commission decimal.Decimal) error {
	return t.putSetting(ctx, settingCommission, commission.String())
}

func (t *sqlTxn) GetCar(ctx context.Context, owner models.Address) (*models.Car, error) {
	var priceStr, withdrawStr string
	var status uint32
	err := t.tx.QueryRowContext(ctx, queryGetCar, owner.String()).Scan(&priceStr, &status, &withdrawStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return parseCar(priceStr, status, withdrawStr)
}

func (t *sqlTxn) PutCar(ctx context.Context, owner models.Address, car *models.Car) error {
	err := t.exec(ctx, queryUpsertCar,
		owner.String(), car.PricePerDay.String(), uint32(car.Status), car.AvailableToWithdraw.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put car: %w", err)
	}
	return nil
}

func (t *sqlTxn) DeleteCar(ctx context.Context, owner models.Address) error {
	if err := t.exec(ctx, queryDeleteCar, owner.String()); err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	return nil
}

func (t *sqlTxn) ListCars(ctx context.Context) ([]models.CarRecord, error) {
	rows, err := t.tx.QueryContext(ctx, queryListCars)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var cars []models.CarRecord
	for rows.Next() {
		var owner, priceStr, withdrawStr string
		var status uint32
		if err := rows.Scan(&owner, &priceStr, &status, &withdrawStr); err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		car, err := parseCar(priceStr, status, withdrawStr)
		if err != nil {
			return nil, err
		}
		cars = append(cars, models.CarRecord{Owner: models.Address(owner), Car: *car})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating car rows: %w", err)
	}
	return cars, nil
}

func (t *sqlTxn) GetRental(ctx context.Context, renter, owner models.Address) (*models.Rental, error) {
	var rental models.Rental
	var amountStr, commissionStr string
	err := t.tx.QueryRowContext(ctx, queryGetRental, renter.String(), owner.String()).
		Scan(&rental.TotalDaysToRent, &amountStr, &commissionStr, &rental.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}
	if err := parseRentalAmounts(&rental, amountStr, commissionStr); err != nil {
		return nil, err
	}
	return &rental, nil
}

func (t *sqlTxn) ListRentalsByOwner(ctx context.Context, owner models.Address) ([]models.RentalRecord, error) {
	rows, err := t.tx.QueryContext(ctx, queryListRentalsByOwner, owner.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var rentals []models.RentalRecord
	for rows.Next() {
		var renter, amountStr, commissionStr string
		var rental models.Rental
		if err := rows.Scan(&renter, &rental.TotalDaysToRent, &amountStr, &commissionStr, &rental.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		if err := parseRentalAmounts(&rental, amountStr, commissionStr); err != nil {
			return nil, err
		}
		rentals = append(rentals, models.RentalRecord{Renter: models.Address(renter), Owner: owner, Rental: rental})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rental rows: %w", err)
	}
	return rentals, nil
}

func (t *sqlTxn) PutRental(ctx context.Context, renter, owner models.Address, rental *models.Rental) error {
	err := t.exec(ctx, queryUpsertRental,
		renter.String(), owner.String(), rental.TotalDaysToRent,
		rental.Amount.String(), rental.Commission.String(), rental.IsActive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put rental: %w", err)
	}
	return nil
}

func parseCar(priceStr string, status uint32, withdrawStr string) (*models.Car, error) {
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price per day '%s': %w", priceStr, err)
	}
	withdraw, err := decimal.NewFromString(withdrawStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse available to withdraw '%s': %w", withdrawStr, err)
	}
	return &models.Car{
		PricePerDay:         price,
		Status:              models.CarStatus(status),
		AvailableToWithdraw: withdraw,
	}, nil
}

func parseRentalAmounts(rental *models.Rental, amountStr, commissionStr string) error {
	var err error
	rental.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("failed to parse rental amount '%s': %w", amountStr, err)
	}
	rental.Commission, err = decimal.NewFromString(commissionStr)
	if err != nil {
		return fmt.Errorf("failed to parse rental commission '%s': %w", commissionStr, err)
	}
	return nil
}
