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
	"rent-a-car-go/internal/token"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WorldAccount is the unbounded source that minted units are drawn from.
const WorldAccount models.Address = "@world"

var (
	_ token.Provider = (*TokenLedger)(nil)
	_ token.Balancer = (*sqlToken)(nil)
	_ token.Minter   = (*sqlToken)(nil)
)

// TokenLedger is a double-entry token subledger on its own SQLite file.
// It must not share a database with the contract state: a transfer runs
// while the contract transaction is still open.
type TokenLedger struct {
	db *sql.DB
}

func NewTokenLedger(ctx context.Context, cfg models.StoreConfig) (*TokenLedger, error) {
	db, err := openSqlite(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ledger := &TokenLedger{db: db}
	if err := ledger.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize token schema: %w", err)
	}

	zap.L().Info("Token subledger initialized successfully", zap.String("file", cfg.Path))
	return ledger, nil
}

func (l *TokenLedger) Close() {
	if err := l.db.Close(); err != nil {
		zap.L().Warn("Failed to close token database connection", zap.Error(err))
	}
}

func (l *TokenLedger) initSchema() error {
	schema := `
	-- Token Balances Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS token_balances (
		account TEXT NOT NULL,
		token TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (account, token)
	);

	-- Transfers Table (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS token_transfers (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		amount TEXT NOT NULL,
		reference TEXT,
		operation TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_token_transfers_token ON token_transfers(token);
	CREATE INDEX IF NOT EXISTS idx_token_transfers_reference ON token_transfers(reference);
	CREATE INDEX IF NOT EXISTS idx_token_transfers_created_at ON token_transfers(created_at);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		transfer_id TEXT NOT NULL,
		account TEXT NOT NULL,
		debit_amount TEXT DEFAULT '0',
		credit_amount TEXT DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_transfer_id ON journal_entries(transfer_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Token returns a Transferer bound to the given token address
func (l *TokenLedger) Token(_ context.Context, id models.Address) (token.Transferer, error) {
	if id == "" {
		return nil, token.ErrUnknownToken
	}
	return &sqlToken{ledger: l, id: id}, nil
}

// GetAllBalances returns every non-zero balance held in a token
func (l *TokenLedger) GetAllBalances(ctx context.Context, id models.Address) ([]models.TokenBalance, error) {
	rows, err := l.db.QueryContext(ctx, queryGetAllTokenBalances, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get all token balances: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var balances []models.TokenBalance
	for rows.Next() {
		var balance models.TokenBalance
		var account, tok, balanceStr string
		if err := rows.Scan(&account, &tok, &balanceStr, &balance.Version, &balance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token balance: %w", err)
		}
		balance.Account = models.Address(account)
		balance.Token = models.Address(tok)
		if balance.Balance, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
		}
		balances = append(balances, balance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token balance rows: %w", err)
	}
	return balances, nil
}

type sqlToken struct {
	ledger *TokenLedger
	id     models.Address
}

func (t *sqlToken) Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error {
	_, err := t.move(ctx, from, to, amount, false)
	return err
}

// Mint credits new units drawn from WorldAccount
func (t *sqlToken) Mint(ctx context.Context, to models.Address, amount decimal.Decimal) error {
	_, err := t.move(ctx, WorldAccount, to, amount, true)
	return err
}

func (t *sqlToken) Balance(ctx context.Context, account models.Address) (decimal.Decimal, error) {
	var balanceStr string
	var version int64
	err := t.ledger.db.QueryRowContext(ctx, queryGetTokenBalance, account.String(), t.id.String()).Scan(&balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		// No balance record means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get token balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse token balance '%s': %w", balanceStr, err)
	}
	return balance, nil
}

// move atomically debits from, credits to and records the transfer with its journal entries
func (t *sqlToken) move(ctx context.Context, from, to models.Address, amount decimal.Decimal, allowOverdraft bool) (string, error) {
	if !amount.IsPositive() {
		return "", token.ErrInvalidAmount
	}

	reference, operation := "", "transfer"
	if allowOverdraft {
		operation = "mint"
	}
	if memo := token.GetTransferMemo(ctx); memo != nil {
		reference = memo.Reference
		if memo.Operation != "" {
			operation = memo.Operation
		}
	}

	zap.L().Info("Processing token transfer",
		zap.String("token", t.id.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("amount", amount.String()),
		zap.String("operation", operation),
		zap.String("reference", reference))

	tx, err := t.ledger.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Check for duplicate reference
	if reference != "" {
		var existingId string
		err := tx.QueryRowContext(ctx, queryCheckDuplicateTransfer, reference).Scan(&existingId)
		if err == nil {
			zap.L().Warn("Duplicate transfer reference detected, skipping",
				zap.String("reference", reference),
				zap.String("existing_transfer_id", existingId))
			return "", fmt.Errorf("%w: reference %s already exists", token.ErrDuplicateTransfer, reference)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to check for duplicate transfer: %w", err)
		}
	}

	fromBalance, fromVersion, err := t.lockBalance(ctx, tx, from)
	if err != nil {
		return "", err
	}
	if !allowOverdraft && fromBalance.LessThan(amount) {
		return "", fmt.Errorf("%w: account %s has %s, needs %s",
			token.ErrInsufficientFunds, from, fromBalance.String(), amount.String())
	}
	if err := t.writeBalance(ctx, tx, from, fromBalance.Sub(amount), fromVersion); err != nil {
		return "", err
	}

	toBalance, toVersion, err := t.lockBalance(ctx, tx, to)
	if err != nil {
		return "", err
	}
	if err := t.writeBalance(ctx, tx, to, toBalance.Add(amount), toVersion); err != nil {
		return "", err
	}

	transferId := uuid.New().String()
	_, err = tx.ExecContext(ctx, queryInsertTransfer,
		transferId, t.id.String(), from.String(), to.String(), amount.String(), reference, operation, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert transfer: %w", err)
	}

	// Source is credited, destination is debited
	entries := []struct {
		account models.Address
		debit   decimal.Decimal
		credit  decimal.Decimal
	}{
		{from, decimal.Zero, amount},
		{to, amount, decimal.Zero},
	}
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), transferId, entry.account.String(), entry.debit.String(), entry.credit.String())
		if err != nil {
			return "", fmt.Errorf("failed to add journal entries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Token transfer processed successfully",
		zap.String("transfer_id", transferId),
		zap.String("token", t.id.String()))
	return transferId, nil
}

// lockBalance reads the balance row, creating it at zero when missing
func (t *sqlToken) lockBalance(ctx context.Context, tx *sql.Tx, account models.Address) (decimal.Decimal, int64, error) {
	var balanceStr string
	var version int64
	err := tx.QueryRowContext(ctx, queryGetTokenBalance, account.String(), t.id.String()).Scan(&balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := tx.ExecContext(ctx, queryInsertTokenBalance, account.String(), t.id.String(), "0", 1); err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to create token balance: %w", err)
		}
		return decimal.Zero, 1, nil
	}
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to get token balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to parse token balance '%s': %w", balanceStr, err)
	}
	return balance, version, nil
}

func (t *sqlToken) writeBalance(ctx context.Context, tx *sql.Tx, account models.Address, balance decimal.Decimal, version int64) error {
	result, err := tx.ExecContext(ctx, queryUpdateTokenBalance, balance.String(), account.String(), t.id.String(), version)
	if err != nil {
		return fmt.Errorf("failed to update token balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("token balance update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}
