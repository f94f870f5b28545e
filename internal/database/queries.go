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

const (
	// Setting keys (instance tier)
	settingAdmin      = "admin"
	settingToken      = "token"
	settingCommission = "admin_commission"

	// Setting queries
	queryGetSetting = `
		SELECT value FROM contract_settings WHERE key = ?`

	queryUpsertSetting = `
		INSERT INTO contract_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	// Car queries
	queryGetCar = `
		SELECT price_per_day, car_status, available_to_withdraw
		FROM cars
		WHERE owner = ?`

	queryUpsertCar = `
		INSERT INTO cars (owner, price_per_day, car_status, available_to_withdraw, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			price_per_day = excluded.price_per_day,
			car_status = excluded.car_status,
			available_to_withdraw = excluded.available_to_withdraw,
			updated_at = excluded.updated_at`

	queryDeleteCar = `
		DELETE FROM cars WHERE owner = ?`

	queryListCars = `
		SELECT owner, price_per_day, car_status, available_to_withdraw
		FROM cars
		ORDER BY owner`

	// Rental queries
	queryGetRental = `
		SELECT total_days_to_rent, amount, commission, is_active
		FROM rentals
		WHERE renter = ? AND owner = ?`

	queryUpsertRental = `
		INSERT INTO rentals (renter, owner, total_days_to_rent, amount, commission, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(renter, owner) DO UPDATE SET
			total_days_to_rent = excluded.total_days_to_rent,
			amount = excluded.amount,
			commission = excluded.commission,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`

	queryListRentalsByOwner = `
		SELECT renter, total_days_to_rent, amount, commission, is_active
		FROM rentals
		WHERE owner = ?
		ORDER BY renter`

	// Treasury queries (persistent tier)
	queryGetTreasuryBalance = `
		SELECT balance, version
		FROM treasury_balances
		WHERE account = ?`

	queryInsertTreasuryBalance = `
		INSERT INTO treasury_balances (account, balance, version)
		VALUES (?, ?, ?)`

	queryUpdateTreasuryBalance = `
		UPDATE treasury_balances
		SET balance = ?, last_entry_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE account = ? AND version = ?`

	queryInsertTreasuryEntry = `
		INSERT INTO treasury_journal (id, account, amount, balance_before, balance_after, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTreasuryHistory = `
		SELECT id, account, amount, balance_before, balance_after, reference, created_at
		FROM treasury_journal
		WHERE account = ?
		ORDER BY rowid DESC
		LIMIT ? OFFSET ?`

	queryGetTreasuryAmounts = `
		SELECT amount FROM treasury_journal WHERE account = ?`

	// Token subledger queries
	queryCheckDuplicateTransfer = `
		SELECT id FROM token_transfers WHERE reference = ? LIMIT 1`

	queryGetTokenBalance = `
		SELECT balance, version
		FROM token_balances
		WHERE account = ? AND token = ?`

	queryInsertTokenBalance = `
		INSERT INTO token_balances (account, token, balance, version)
		VALUES (?, ?, ?, ?)`

	queryUpdateTokenBalance = `
		UPDATE token_balances
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE account = ? AND token = ? AND version = ?`

	queryInsertTransfer = `
		INSERT INTO token_transfers (id, token, source, destination, amount, reference, operation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transfer_id, account, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?)`

	queryGetAllTokenBalances = `
		SELECT account, token, balance, version, updated_at
		FROM token_balances
		WHERE token = ? AND balance != '0'
		ORDER BY account`
)
