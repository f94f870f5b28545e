package ledger

import (
	"context"
	"errors"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddCar lists a car for owner. The admin onboards cars, not the owner.
func (l *RentalLedger) AddCar(ctx context.Context, owner models.Address, pricePerDay decimal.Decimal) error {
	err := l.update(ctx, "add_car", func(txn store.Txn) error {
		if _, err := l.requireAdmin(ctx, txn); err != nil {
			return err
		}
		if !pricePerDay.IsPositive() {
			return ErrAmountMustBePositive
		}
		if err := requireWholeAmount(pricePerDay); err != nil {
			return err
		}

		_, err := txn.GetCar(ctx, owner)
		if err == nil {
			return ErrCarAlreadyExist
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		return txn.PutCar(ctx, owner, &models.Car{
			PricePerDay:         pricePerDay,
			Status:              models.CarStatusAvailable,
			AvailableToWithdraw: decimal.Zero,
		})
	})
	if err != nil {
		return err
	}

	zap.L().Info("Car added",
		zap.String("owner", owner.Short()),
		zap.String("price_per_day", pricePerDay.String()))
	return nil
}

// GetCarStatus is a public read
func (l *RentalLedger) GetCarStatus(ctx context.Context, owner models.Address) (models.CarStatus, error) {
	car, err := l.GetCar(ctx, owner)
	if err != nil {
		return 0, err
	}
	return car.Status, nil
}

// GetCar returns the full car record
func (l *RentalLedger) GetCar(ctx context.Context, owner models.Address) (*models.Car, error) {
	var car *models.Car
	err := l.store.View(ctx, func(txn store.Txn) error {
		var err error
		car, err = loadCar(ctx, txn, owner)
		return err
	})
	return car, err
}

// ListCars returns every listed car ordered by owner
func (l *RentalLedger) ListCars(ctx context.Context) ([]models.CarRecord, error) {
	var cars []models.CarRecord
	err := l.store.View(ctx, func(txn store.Txn) error {
		var err error
		cars, err = txn.ListCars(ctx)
		return err
	})
	return cars, err
}

// RemoveCar deletes the car whatever its rental or balance state.
// Unwithdrawn owner funds stay counted in the contract balance. Active rentals
// of the car are closed with it, so a re-listed car starts with no renter.
func (l *RentalLedger) RemoveCar(ctx context.Context, owner models.Address) error {
	var removed *models.Car
	var closed int
	err := l.update(ctx, "remove_car", func(txn store.Txn) error {
		if _, err := l.requireAdmin(ctx, txn); err != nil {
			return err
		}
		car, err := loadCar(ctx, txn, owner)
		if err != nil {
			return err
		}
		removed = car
		closed = 0

		rentals, err := txn.ListRentalsByOwner(ctx, owner)
		if err != nil {
			return err
		}
		for _, record := range rentals {
			if !record.Rental.IsActive {
				continue
			}
			rental := record.Rental
			rental.IsActive = false
			if err := txn.PutRental(ctx, record.Renter, owner, &rental); err != nil {
				return err
			}
			closed++
		}
		return txn.DeleteCar(ctx, owner)
	})
	if err != nil {
		return err
	}

	if removed.Status == models.CarStatusRented || !removed.AvailableToWithdraw.IsZero() {
		zap.L().Warn("Car removed with outstanding state",
			zap.String("owner", owner.Short()),
			zap.String("status", removed.Status.String()),
			zap.String("available_to_withdraw", removed.AvailableToWithdraw.String()),
			zap.Int("rentals_closed", closed))
	} else {
		zap.L().Info("Car removed", zap.String("owner", owner.Short()))
	}
	return nil
}

func loadCar(ctx context.Context, txn store.Txn, owner models.Address) (*models.Car, error) {
	car, err := txn.GetCar(ctx, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCarNotFound
	}
	return car, err
}
