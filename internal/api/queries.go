package api

import (
	"context"
	"fmt"

	"rent-a-car-go/internal/models"

	"go.uber.org/zap"
)

// GetCarStatus returns "Available" or "Rented"
func (s *LedgerService) GetCarStatus(ctx context.Context, owner models.Address) (string, error) {
	status, err := s.ledger.GetCarStatus(ctx, owner.Canonical())
	if err != nil {
		return "", err
	}
	return status.String(), nil
}

func (s *LedgerService) GetCar(ctx context.Context, owner models.Address) (*models.CarView, error) {
	owner = owner.Canonical()
	car, err := s.ledger.GetCar(ctx, owner)
	if err != nil {
		return nil, err
	}
	view := carView(owner, car)
	return &view, nil
}

// ListCars returns every listed car ordered by owner
func (s *LedgerService) ListCars(ctx context.Context) ([]models.CarView, error) {
	cars, err := s.ledger.ListCars(ctx)
	if err != nil {
		zap.L().Error("Failed to list cars", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve cars: %w", err)
	}

	result := make([]models.CarView, len(cars))
	for i, record := range cars {
		car := record.Car
		result[i] = carView(record.Owner, &car)
	}
	return result, nil
}

// GetTreasury returns both treasury counters and the commission rate
func (s *LedgerService) GetTreasury(ctx context.Context) (*models.TreasuryView, error) {
	contract, err := s.ledger.GetContractBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve contract balance: %w", err)
	}
	admin, err := s.ledger.GetAdminBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve admin balance: %w", err)
	}
	commission, err := s.ledger.GetAdminCommission(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve commission: %w", err)
	}
	return &models.TreasuryView{
		ContractBalance: contract,
		AdminBalance:    admin,
		Commission:      commission,
	}, nil
}

// GetTreasuryHistory returns treasury movements for an account, newest first
func (s *LedgerService) GetTreasuryHistory(ctx context.Context, account models.TreasuryAccount, limit, offset int) ([]models.TreasuryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.ledger.TreasuryHistory(ctx, account, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get treasury history",
			zap.String("account", string(account)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve treasury history: %w", err)
	}

	result := make([]models.TreasuryRecord, len(entries))
	for i, e := range entries {
		result[i] = models.TreasuryRecord{
			Id:        e.Id,
			Account:   string(e.Account),
			Amount:    e.Amount,
			Balance:   e.BalanceAfter,
			Reference: e.Reference,
			CreatedAt: e.CreatedAt,
		}
	}
	return result, nil
}

// ReconcileTreasury verifies the account counter against its journal
func (s *LedgerService) ReconcileTreasury(ctx context.Context, account models.TreasuryAccount) error {
	return s.ledger.ReconcileTreasury(ctx, account)
}

func carView(owner models.Address, car *models.Car) models.CarView {
	return models.CarView{
		Owner:               owner,
		PricePerDay:         car.PricePerDay,
		Status:              car.Status.String(),
		AvailableToWithdraw: car.AvailableToWithdraw,
	}
}
