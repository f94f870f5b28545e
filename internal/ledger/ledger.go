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

package ledger

import (
	"context"
	"errors"
	"fmt"

	"rent-a-car-go/internal/auth"
	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"
	"rent-a-car-go/internal/token"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RentalLedger is the rental marketplace state machine. Every mutating
// operation authenticates, validates, writes and finally moves tokens inside
// one store transaction, so a failure at any step leaves no durable change.
type RentalLedger struct {
	store    store.LedgerStore
	verifier auth.Verifier
	tokens   token.Provider
	// address holds the escrowed funds in the token
	address models.Address
	metrics *ledgerMetrics
}

type Option func(*RentalLedger)

// WithPromRegistry enables metrics on the given registry
func WithPromRegistry(registry prometheus.Registerer) Option {
	return func(l *RentalLedger) {
		if registry != nil {
			l.metrics = newLedgerMetrics(registry)
		}
	}
}

func New(st store.LedgerStore, verifier auth.Verifier, tokens token.Provider, address models.Address, opts ...Option) *RentalLedger {
	l := &RentalLedger{
		store:    st,
		verifier: verifier,
		tokens:   tokens,
		address:  address,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Address is the identity the ledger holds funds under
func (l *RentalLedger) Address() models.Address {
	return l.address
}

// Initialize records the admin and the payment token. It can succeed once.
func (l *RentalLedger) Initialize(ctx context.Context, admin, tokenID models.Address) error {
	err := l.update(ctx, "initialize", func(txn store.Txn) error {
		if admin == tokenID {
			return ErrAdminTokenConflict
		}

		_, err := txn.GetAdmin(ctx)
		if err == nil {
			return ErrContractInitialized
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := txn.PutAdmin(ctx, admin); err != nil {
			return err
		}
		return txn.PutToken(ctx, tokenID)
	})
	if err != nil {
		return err
	}

	zap.L().Info("Ledger initialized",
		zap.String("admin", admin.Short()),
		zap.String("token", tokenID.Short()))
	return nil
}

// GetConfig returns the admin and token fixed at construction
func (l *RentalLedger) GetConfig(ctx context.Context) (*models.ContractConfig, error) {
	var cfg *models.ContractConfig
	err := l.store.View(ctx, func(txn store.Txn) error {
		admin, err := readAdmin(ctx, txn)
		if err != nil {
			return err
		}
		tokenID, err := readToken(ctx, txn)
		if err != nil {
			return err
		}
		cfg = &models.ContractConfig{Admin: admin, Token: tokenID}
		return nil
	})
	return cfg, err
}

// update runs fn in a store transaction and records the outcome
func (l *RentalLedger) update(ctx context.Context, operation string, fn func(store.Txn) error) error {
	err := l.store.Update(ctx, fn)
	l.metrics.observe(operation, err)
	if err != nil {
		if _, typed := CodeOf(err); typed {
			zap.L().Info("Ledger operation rejected", zap.String("operation", operation), zap.Error(err))
		} else {
			zap.L().Warn("Ledger operation failed", zap.String("operation", operation), zap.Error(err))
		}
	}
	return err
}

// requireAdmin loads the admin and demands its authorization
func (l *RentalLedger) requireAdmin(ctx context.Context, txn store.Txn) (models.Address, error) {
	admin, err := readAdmin(ctx, txn)
	if err != nil {
		return "", err
	}
	if err := l.verifier.RequireAuth(ctx, admin); err != nil {
		return "", err
	}
	return admin, nil
}

// transfer moves amount in the configured token. It must be the last step
// of a transaction so that a rejected transfer discards every prior write.
func (l *RentalLedger) transfer(ctx context.Context, txn store.Txn, operation, reference string, from, to models.Address, amount decimal.Decimal) error {
	tokenID, err := readToken(ctx, txn)
	if err != nil {
		return err
	}
	transferer, err := l.tokens.Token(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to resolve token %s: %w", tokenID.Short(), err)
	}

	ctx = token.WithTransferMemo(ctx, &token.TransferMemo{Reference: reference, Operation: operation})
	if err := transferer.Transfer(ctx, from, to, amount); err != nil {
		return fmt.Errorf("token transfer failed: %w", err)
	}
	return nil
}

// recordBalances publishes both treasury counters after a committed change
func (l *RentalLedger) recordBalances(ctx context.Context) {
	if l.metrics == nil {
		return
	}
	err := l.store.View(ctx, func(txn store.Txn) error {
		for _, account := range []models.TreasuryAccount{models.TreasuryContract, models.TreasuryAdmin} {
			balance, err := txn.GetBalance(ctx, account)
			if err != nil {
				return err
			}
			l.metrics.balance(account, balance)
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("Failed to record treasury metrics", zap.Error(err))
	}
}

func newReference() string {
	return uuid.New().String()
}

func readAdmin(ctx context.Context, txn store.Txn) (models.Address, error) {
	admin, err := txn.GetAdmin(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrContractNotInitialized
	}
	return admin, err
}

func readToken(ctx context.Context, txn store.Txn) (models.Address, error) {
	tokenID, err := txn.GetToken(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrContractNotInitialized
	}
	return tokenID, err
}
