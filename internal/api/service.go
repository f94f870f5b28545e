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
	"errors"
	"fmt"

	"rent-a-car-go/internal/ledger"
	"rent-a-car-go/internal/models"
)

// LedgerService is the caller-facing surface of the rental ledger
type LedgerService struct {
	ledger *ledger.RentalLedger
}

func NewLedgerService(l *ledger.RentalLedger) *LedgerService {
	return &LedgerService{
		ledger: l,
	}
}

// HealthCheck reads the contract settings. An uninitialized ledger is healthy.
func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.ledger.GetConfig(ctx)
	if err != nil && !errors.Is(err, ledger.ErrContractNotInitialized) {
		return fmt.Errorf("ledger health check failed: %w", err)
	}
	return nil
}

// result converts an operation error into its caller-facing form
func result(operation string, err error) *models.OperationResult {
	if err == nil {
		return &models.OperationResult{Operation: operation, Success: true}
	}
	res := &models.OperationResult{
		Operation: operation,
		Success:   false,
		Error:     err.Error(),
	}
	if code, ok := ledger.CodeOf(err); ok {
		res.Code = &code
	}
	return res
}
