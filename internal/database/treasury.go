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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func initTreasurySchema(db *sql.DB) error {
	schema := `
	-- Treasury Balances (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS treasury_balances (
		account TEXT PRIMARY KEY,
		balance TEXT NOT NULL DEFAULT '0',
		last_entry_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Treasury Journal (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS treasury_journal (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		reference TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_treasury_journal_account ON treasury_journal(account);
	CREATE INDEX IF NOT EXISTS idx_treasury_journal_created_at ON treasury_journal(created_at);
	CREATE INDEX IF NOT EXISTS idx_treasury_journal_reference ON treasury_journal(reference);
	`

	_, err := db.Exec(schema)
	return err
}

// GetBalance returns the treasury counter (O(1) lookup), zero when never written
func (t *sqlTxn) GetBalance(ctx context.Context, account models.TreasuryAccount) (decimal.Decimal, error) {
	balance, _, err := t.getBalance(ctx, account)
	return balance, err
}

func (t *sqlTxn) getBalance(ctx context.Context, account models.TreasuryAccount) (decimal.Decimal, int64, error) {
	var balanceStr string
	var version int64
	err := t.tx.QueryRowContext(ctx, queryGetTreasuryBalance, string(account)).Scan(&balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, 0, nil
	}
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to get treasury balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to parse treasury balance '%s': %w", balanceStr, err)
	}
	return balance, version, nil
}

// AdjustBalance atomically updates the counter and records the journal entry
func (t *sqlTxn) AdjustBalance(ctx context.Context, account models.TreasuryAccount, delta decimal.Decimal, reference string) error {
	if t.readOnly {
		return store.ErrReadOnly
	}

	currentBalance, version, err := t.getBalance(ctx, account)
	if err != nil {
		return err
	}
	if version == 0 {
		version = 1
		if _, err := t.tx.ExecContext(ctx, queryInsertTreasuryBalance, string(account), "0", version); err != nil {
			return fmt.Errorf("failed to create treasury balance: %w", err)
		}
	}

	newBalance := currentBalance.Add(delta)
	entryId := uuid.New().String()

	_, err = t.tx.ExecContext(ctx, queryInsertTreasuryEntry,
		entryId, string(account), delta.String(), currentBalance.String(), newBalance.String(), reference, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert treasury entry: %w", err)
	}

	// Optimistic locking on the hot row
	result, err := t.tx.ExecContext(ctx, queryUpdateTreasuryBalance, newBalance.String(), entryId, string(account), version)
	if err != nil {
		return fmt.Errorf("failed to update treasury balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("treasury update failed - %w", store.ErrConcurrentModification)
	}

	zap.L().Debug("Treasury balance adjusted",
		zap.String("account", string(account)),
		zap.String("delta", delta.String()),
		zap.String("old_balance", currentBalance.String()),
		zap.String("new_balance", newBalance.String()),
		zap.String("reference", reference))
	return nil
}

// GetTreasuryHistory returns paginated journal entries, newest first
func (s *Service) GetTreasuryHistory(ctx context.Context, account models.TreasuryAccount, limit, offset int) ([]models.TreasuryEntry, error) {
	zap.L().Debug("Getting treasury history",
		zap.String("account", string(account)),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTreasuryHistory, string(account), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.TreasuryEntry
	for rows.Next() {
		var entry models.TreasuryEntry
		var accountStr, amountStr, beforeStr, afterStr string
		var reference sql.NullString
		if err := rows.Scan(&entry.Id, &accountStr, &amountStr, &beforeStr, &afterStr, &reference, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan treasury entry: %w", err)
		}
		entry.Account = models.TreasuryAccount(accountStr)
		entry.Reference = reference.String

		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		if entry.BalanceBefore, err = decimal.NewFromString(beforeStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance before '%s': %w", beforeStr, err)
		}
		if entry.BalanceAfter, err = decimal.NewFromString(afterStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance after '%s': %w", afterStr, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during treasury row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating treasury rows: %w", err)
	}
	return entries, nil
}

// ReconcileTreasury verifies that the counter equals the sum of its journal
func (s *Service) ReconcileTreasury(ctx context.Context, account models.TreasuryAccount) error {
	zap.L().Info("Reconciling treasury", zap.String("account", string(account)))

	return s.View(ctx, func(txn store.Txn) error {
		current, err := txn.GetBalance(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to get current balance: %w", err)
		}

		calculated, err := sumTreasuryJournal(ctx, txn.(*sqlTxn).tx, account)
		if err != nil {
			return err
		}

		if !current.Equal(calculated) {
			zap.L().Error("Treasury reconciliation failed",
				zap.String("account", string(account)),
				zap.String("current_balance", current.String()),
				zap.String("calculated_balance", calculated.String()),
				zap.String("difference", current.Sub(calculated).String()))
			return fmt.Errorf("%w: current=%s, calculated=%s", store.ErrBalanceMismatch, current.String(), calculated.String())
		}

		zap.L().Info("Treasury reconciliation successful",
			zap.String("account", string(account)),
			zap.String("balance", current.String()))
		return nil
	})
}

// sumTreasuryJournal adds journal amounts with decimal precision; SQL SUM would go through REAL
func sumTreasuryJournal(ctx context.Context, tx *sql.Tx, account models.TreasuryAccount) (decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx, queryGetTreasuryAmounts, string(account))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read treasury journal: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan journal amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse journal amount '%s': %w", amountStr, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return total, nil
}
