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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
)

// Key layout. "i/" is the instance tier, "p/" the persistent tier.
const (
	keyAdmin      = "i/admin"
	keyToken      = "i/token"
	keyCommission = "i/admin_commission"
	prefixCar     = "i/car/"
	prefixRental  = "i/rental/"

	prefixBalance = "p/balance/"
	prefixJournal = "p/journal/"
	prefixSeq     = "p/journal_seq/"
)

func carKey(owner models.Address) []byte {
	return []byte(prefixCar + owner.String())
}

// rentalKey separates renter and owner with NUL, which no address contains
func rentalKey(renter, owner models.Address) []byte {
	return []byte(prefixRental + renter.String() + "\x00" + owner.String())
}

var _ store.Txn = (*kvTxn)(nil)

type kvTxn struct {
	tx       *badger.Txn
	readOnly bool
}

func (t *kvTxn) get(key []byte) ([]byte, error) {
	item, err := t.tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return item.ValueCopy(nil)
}

func (t *kvTxn) set(key, value []byte) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	if err := t.tx.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (t *kvTxn) delete(key []byte) error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	if err := t.tx.Delete(key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (t *kvTxn) getJSON(key []byte, v any) error {
	raw, err := t.get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

func (t *kvTxn) setJSON(key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return t.set(key, raw)
}

func (t *kvTxn) GetAdmin(_ context.Context) (models.Address, error) {
	raw, err := t.get([]byte(keyAdmin))
	return models.Address(raw), err
}

func (t *kvTxn) PutAdmin(_ context.Context, admin models.Address) error {
	return t.set([]byte(keyAdmin), []byte(admin))
}

func (t *kvTxn) GetToken(_ context.Context) (models.Address, error) {
	raw, err := t.get([]byte(keyToken))
	return models.Address(raw), err
}

func (t *kvTxn) PutToken(_ context.Context, token models.Address) error {
	return t.set([]byte(keyToken), []byte(token))
}

func (t *kvTxn) GetCommission(_ context.Context) (decimal.Decimal, error) {
	return t.getDecimal([]byte(keyCommission))
}

func (t *kvTxn) PutCommission(_ context.Context, commission decimal.Decimal) error {
	return t.set([]byte(keyCommission), []byte(commission.String()))
}

func (t *kvTxn) GetCar(_ context.Context, owner models.Address) (*models.Car, error) {
	var car models.Car
	if err := t.getJSON(carKey(owner), &car); err != nil {
		return nil, err
	}
	return &car, nil
}

func (t *kvTxn) PutCar(_ context.Context, owner models.Address, car *models.Car) error {
	return t.setJSON(carKey(owner), car)
}

func (t *kvTxn) DeleteCar(_ context.Context, owner models.Address) error {
	return t.delete(carKey(owner))
}

// ListCars returns cars in owner order
func (t *kvTxn) ListCars(_ context.Context) ([]models.CarRecord, error) {
	prefix := []byte(prefixCar)
	it := t.tx.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
	defer it.Close()

	var cars []models.CarRecord
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		owner := models.Address(item.KeyCopy(nil)[len(prefix):])
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read car %s: %w", owner, err)
		}
		var car models.Car
		if err := json.Unmarshal(raw, &car); err != nil {
			return nil, fmt.Errorf("failed to decode car %s: %w", owner, err)
		}
		cars = append(cars, models.CarRecord{Owner: owner, Car: car})
	}
	return cars, nil
}

func (t *kvTxn) GetRental(_ context.Context, renter, owner models.Address) (*models.Rental, error) {
	var rental models.Rental
	if err := t.getJSON(rentalKey(renter, owner), &rental); err != nil {
		return nil, err
	}
	return &rental, nil
}

func (t *kvTxn) PutRental(_ context.Context, renter, owner models.Address, rental *models.Rental) error {
	return t.setJSON(rentalKey(renter, owner), rental)
}

// ListRentalsByOwner scans the rental prefix; keys are ordered by renter first
func (t *kvTxn) ListRentalsByOwner(_ context.Context, owner models.Address) ([]models.RentalRecord, error) {
	prefix := []byte(prefixRental)
	suffix := "\x00" + owner.String()
	it := t.tx.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: false})
	defer it.Close()

	var rentals []models.RentalRecord
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := string(item.KeyCopy(nil)[len(prefix):])
		renter, ok := strings.CutSuffix(key, suffix)
		if !ok || strings.Contains(renter, "\x00") {
			continue
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read rental %s: %w", key, err)
		}
		var rental models.Rental
		if err := json.Unmarshal(raw, &rental); err != nil {
			return nil, fmt.Errorf("failed to decode rental %s: %w", key, err)
		}
		rentals = append(rentals, models.RentalRecord{Renter: models.Address(renter), Owner: owner, Rental: rental})
	}
	return rentals, nil
}

// getDecimal reads a decimal value, zero when absent
func (t *kvTxn) getDecimal(key []byte) (decimal.Decimal, error) {
	raw, err := t.get(key)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %q value '%s': %w", key, raw, err)
	}
	return value, nil
}
