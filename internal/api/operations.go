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

package api

import (
	"context"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Initialize fixes the admin and payment token
func (s *LedgerService) Initialize(ctx context.Context, admin, token models.Address) *models.OperationResult {
	admin, token = admin.Canonical(), token.Canonical()
	if admin == "" || token == "" {
		return invalid("initialize", "admin and token are required")
	}
	return result("initialize", s.ledger.Initialize(ctx, admin, token))
}

func (s *LedgerService) SetAdminCommission(ctx context.Context, commission decimal.Decimal) *models.OperationResult {
	return result("set_admin_commission", s.ledger.SetAdminCommission(ctx, commission))
}

func (s *LedgerService) AddCar(ctx context.Context, owner models.Address, pricePerDay decimal.Decimal) *models.OperationResult {
	owner = owner.Canonical()
	if owner == "" {
		return invalid("add_car", "owner is required")
	}
	return result("add_car", s.ledger.AddCar(ctx, owner, pricePerDay))
}

func (s *LedgerService) RemoveCar(ctx context.Context, owner models.Address) *models.OperationResult {
	return result("remove_car", s.ledger.RemoveCar(ctx, owner.Canonical()))
}

// Rental books owner's car for renter and charges the renter up front
func (s *LedgerService) Rental(ctx context.Context, renter, owner models.Address, days uint32) *models.OperationResult {
	renter, owner = renter.Canonical(), owner.Canonical()
	if renter == "" || owner == "" {
		return invalid("rental", "renter and owner are required")
	}
	return result("rental", s.ledger.Rental(ctx, renter, owner, days))
}

func (s *LedgerService) ReturnCar(ctx context.Context, renter, owner models.Address) *models.OperationResult {
	return result("return_car", s.ledger.ReturnCar(ctx, renter.Canonical(), owner.Canonical()))
}

func (s *LedgerService) PayoutOwner(ctx context.Context, owner models.Address, amount decimal.Decimal) *models.OperationResult {
	return result("payout_owner", s.ledger.PayoutOwner(ctx, owner.Canonical(), amount))
}

func (s *LedgerService) PayoutAdmin(ctx context.Context, amount decimal.Decimal) *models.OperationResult {
	return result("payout_admin", s.ledger.PayoutAdmin(ctx, amount))
}

func invalid(operation, message string) *models.OperationResult {
	zap.L().Error("Invalid operation parameters",
		zap.String("operation", operation),
		zap.String("error", message))
	return &models.OperationResult{
		Operation: operation,
		Success:   false,
		Error:     message,
	}
}
