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

package kvstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func balanceKey(account models.TreasuryAccount) []byte {
	return []byte(prefixBalance + string(account))
}

func journalPrefix(account models.TreasuryAccount) []byte {
	return []byte(prefixJournal + string(account) + "/")
}

// journalKey orders entries by a big-endian sequence number
func journalKey(account models.TreasuryAccount, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(journalPrefix(account), seq)
}

func (t *kvTxn) GetBalance(_ context.Context, account models.TreasuryAccount) (decimal.Decimal, error) {
	return t.getDecimal(balanceKey(account))
}

// AdjustBalance updates the counter and appends the journal entry in the same badger transaction
func (t *kvTxn) AdjustBalance(ctx context.Context, account models.TreasuryAccount, delta decimal.Decimal, reference string) error {
	if t.readOnly {
		return store.ErrReadOnly
	}

	current, err := t.GetBalance(ctx, account)
	if err != nil {
		return err
	}
	seq, err := t.nextSeq(account)
	if err != nil {
		return err
	}

	next := current.Add(delta)
	entry := models.TreasuryEntry{
		Id:            uuid.New().String(),
		Account:       account,
		Amount:        delta,
		BalanceBefore: current,
		BalanceAfter:  next,
		Reference:     reference,
		CreatedAt:     time.Now().UTC(),
	}
	if err := t.setJSON(journalKey(account, seq), &entry); err != nil {
		return err
	}
	if err := t.set(balanceKey(account), []byte(next.String())); err != nil {
		return err
	}

	zap.L().Debug("Treasury balance adjusted",
		zap.String("account", string(account)),
		zap.String("delta", delta.String()),
		zap.String("new_balance", next.String()),
		zap.String("reference", reference))
	return nil
}

func (t *kvTxn) nextSeq(account models.TreasuryAccount) (uint64, error) {
	key := []byte(prefixSeq + string(account))
	var seq uint64
	raw, err := t.get(key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return 0, err
	case len(raw) != 8:
		return 0, fmt.Errorf("corrupt journal sequence for %s", account)
	default:
		seq = binary.BigEndian.Uint64(raw)
	}
	seq++
	if err := t.set(key, binary.BigEndian.AppendUint64(nil, seq)); err != nil {
		return 0, err
	}
	return seq, nil
}

// GetTreasuryHistory returns paginated journal entries, newest first
func (s *Store) GetTreasuryHistory(ctx context.Context, account models.TreasuryAccount, limit, offset int) ([]models.TreasuryEntry, error) {
	var entries []models.TreasuryEntry
	err := s.View(ctx, func(txn store.Txn) error {
		prefix := journalPrefix(account)
		it := txn.(*kvTxn).tx.NewIterator(badger.IteratorOptions{Prefix: prefix, Reverse: true, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		// reverse iteration starts at the largest key under prefix
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if len(entries) >= limit {
				break
			}
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read journal entry: %w", err)
			}
			var entry models.TreasuryEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("failed to decode journal entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury history: %w", err)
	}
	return entries, nil
}

// ReconcileTreasury verifies that the counter equals the sum of its journal
func (s *Store) ReconcileTreasury(ctx context.Context, account models.TreasuryAccount) error {
	zap.L().Info("Reconciling treasury", zap.String("account", string(account)))

	return s.View(ctx, func(txn store.Txn) error {
		current, err := txn.GetBalance(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to get current balance: %w", err)
		}

		prefix := journalPrefix(account)
		it := txn.(*kvTxn).tx.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()

		calculated := decimal.Zero
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read journal entry: %w", err)
			}
			var entry models.TreasuryEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("failed to decode journal entry: %w", err)
			}
			calculated = calculated.Add(entry.Amount)
		}

		if !current.Equal(calculated) {
			zap.L().Error("Treasury reconciliation failed",
				zap.String("account", string(account)),
				zap.String("current_balance", current.String()),
				zap.String("calculated_balance", calculated.String()))
			return fmt.Errorf("%w: current=%s, calculated=%s", store.ErrBalanceMismatch, current.String(), calculated.String())
		}
		return nil
	})
}
