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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"rent-a-car-go/internal/store"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var _ store.LedgerStore = (*Store)(nil)

// Store keeps contract state in badger. The instance and persistent tiers
// are key prefixes of the same database so one badger transaction covers both.
type Store struct {
	db           *badger.DB
	promRegistry prometheus.Registerer
	metrics      *storeMetrics
	gcTicker     *time.Ticker
	gcStopCh     chan struct{}
	gcWg         sync.WaitGroup
	gcInterval   time.Duration
	dataDir      string
	gcEnabled    bool
}

// New opens the store. Without WithDataDir the data lives in memory only.
func New(opts ...OptionFunc) (*Store, error) {
	s := &Store{
		gcEnabled:  true,
		gcInterval: DefaultGcInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true)
		// nothing to reclaim in memory
		s.gcEnabled = false
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(s.dataDir).
			WithCompression(options.Snappy)
	}
	badgerOpts = badgerOpts.
		WithLogger(newZapLogger(zap.L())).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger: %w", err)
	}
	s.db = db

	if s.promRegistry != nil {
		s.metrics = newStoreMetrics(s.promRegistry)
	}
	if s.gcEnabled {
		s.gcTicker = time.NewTicker(s.gcInterval)
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.valueLogGc(s.gcTicker, s.gcStopCh)
	}

	zap.L().Info("Badger store initialized successfully",
		zap.String("dir", s.dataDir),
		zap.Bool("in_memory", s.dataDir == ""))
	return s, nil
}

func (s *Store) valueLogGc(t *time.Ticker, stop <-chan struct{}) {
	defer s.gcWg.Done()
	for {
		select {
		case <-t.C:
		again:
			err := s.db.RunValueLogGC(0.5)
			if err != nil {
				if !errors.Is(err, badger.ErrNoRewrite) {
					zap.L().Warn("Badger value log GC failure", zap.Error(err))
				}
			} else {
				// Run it again if it just ran successfully
				goto again
			}
		case <-stop:
			return
		}
	}
}

// Close stops GC and closes the database
func (s *Store) Close() {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		s.gcWg.Wait()
		s.gcTicker = nil
	}
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close badger store", zap.Error(err))
	}
}

// View runs fn in a read-only badger transaction
func (s *Store) View(ctx context.Context, fn func(store.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *badger.Txn) error {
		return fn(&kvTxn{tx: tx, readOnly: true})
	})
}

// Update runs fn in a read-write badger transaction. Badger discards every
// pending write when fn fails and reports conflicting commits as ErrConflict.
func (s *Store) Update(ctx context.Context, fn func(store.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *badger.Txn) error {
		return fn(&kvTxn{tx: tx})
	})
	if errors.Is(err, badger.ErrConflict) {
		s.metrics.conflict()
		return fmt.Errorf("badger commit failed - %w", store.ErrConcurrentModification)
	}
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("transaction too big: %w", err)
	}
	if err == nil {
		s.metrics.commit()
	}
	return err
}
