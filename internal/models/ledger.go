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
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Address is an opaque, externally verifiable principal.
type Address string

func (a Address) String() string { return string(a) }

// Short returns a shortened form of the address for reports.
func (a Address) Short() string {
	r := []rune(string(a))
	if len(r) <= 12 {
		return string(r)
	}
	return string(r[:6]) + "..." + string(r[len(r)-4:])
}

// Canonical lowercases hex-encoded addresses so every spelling of a key
// names the same identity. Other addresses are returned trimmed but unchanged.
func (a Address) Canonical() Address {
	s := strings.TrimSpace(string(a))
	if _, err := hex.DecodeString(s); err == nil {
		return Address(strings.ToLower(s))
	}
	return Address(s)
}

// CarStatus is the rental state of a car
type CarStatus uint32

const (
	CarStatusAvailable CarStatus = 0
	CarStatusRented    CarStatus = 1
)

func (s CarStatus) String() string {
	switch s {
	case CarStatusAvailable:
		return "Available"
	case CarStatusRented:
		return "Rented"
	default:
		return fmt.Sprintf("CarStatus(%d)", uint32(s))
	}
}

// ParseCarStatus is the inverse of CarStatus.String (case-insensitive)
func ParseCarStatus(s string) (CarStatus, error) {
	switch strings.ToLower(s) {
	case "available":
		return CarStatusAvailable, nil
	case "rented":
		return CarStatusRented, nil
	}
	return 0, fmt.Errorf("unknown car status %q", s)
}

// Car is the record listed by an owner. At most one per owner.
type Car struct {
	PricePerDay         decimal.Decimal `json:"price_per_day"`
	Status              CarStatus       `json:"car_status"`
	AvailableToWithdraw decimal.Decimal `json:"available_to_withdraw"`
}

// CarRecord pairs a car with its owner for listings
type CarRecord struct {
	Owner Address
	Car   Car
}

// Rental is the last rental made by a renter against an owner's car.
// A new rental for the same pair overwrites it.
type Rental struct {
	TotalDaysToRent uint32          `json:"total_days_to_rent"`
	Amount          decimal.Decimal `json:"amount"`
	Commission      decimal.Decimal `json:"commission"`
	IsActive        bool            `json:"is_active"`
}

// RentalRecord pairs a rental with the addresses it is keyed by
type RentalRecord struct {
	Renter Address
	Owner  Address
	Rental Rental
}

// OwnerAmount is the part of the rental credited to the car owner
func (r Rental) OwnerAmount() decimal.Decimal {
	return r.Amount.Sub(r.Commission)
}

// ContractConfig is the immutable record written at construction
type ContractConfig struct {
	Admin Address
	Token Address
}

// TreasuryAccount names one of the two treasury counters
type TreasuryAccount string

const (
	TreasuryContract TreasuryAccount = "contract"
	TreasuryAdmin    TreasuryAccount = "admin"
)

// ParseTreasuryAccount validates a treasury account name
func ParseTreasuryAccount(s string) (TreasuryAccount, error) {
	switch TreasuryAccount(strings.ToLower(s)) {
	case TreasuryContract:
		return TreasuryContract, nil
	case TreasuryAdmin:
		return TreasuryAdmin, nil
	}
	return "", fmt.Errorf("unknown treasury account %q", s)
}

// TreasuryEntry is one immutable movement of a treasury counter (cold data)
type TreasuryEntry struct {
	Id            string          `db:"id"`
	Account       TreasuryAccount `db:"account"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Reference     string          `db:"reference"`
	CreatedAt     time.Time       `db:"created_at"`
}

// TokenBalance is the balance of one account in one token (hot data)
type TokenBalance struct {
	Account   Address         `db:"account"`
	Token     Address         `db:"token"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	UpdatedAt time.Time       `db:"updated_at"`
}
