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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationResult represents the outcome of a public ledger operation
type OperationResult struct {
	Operation string `json:"operation"`
	Success   bool   `json:"success"`
	// Code is the ledger error code, set only for typed ledger failures
	Code  *uint32 `json:"code,omitempty"`
	Error string  `json:"error,omitempty"`
}

// CarView represents a car as shown to callers
type CarView struct {
	Owner               Address         `json:"owner"`
	PricePerDay         decimal.Decimal `json:"price_per_day"`
	Status              string          `json:"status"`
	AvailableToWithdraw decimal.Decimal `json:"available_to_withdraw"`
}

// TreasuryView is a snapshot of both treasury counters
type TreasuryView struct {
	ContractBalance decimal.Decimal `json:"contract_balance"`
	AdminBalance    decimal.Decimal `json:"admin_balance"`
	Commission      decimal.Decimal `json:"admin_commission"`
}

// TreasuryRecord represents a treasury movement in history listings
type TreasuryRecord struct {
	Id        string          `json:"id"`
	Account   string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}
