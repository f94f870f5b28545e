package store

import (
	"context"
	"errors"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrReadOnly               = errors.New("write in read-only transaction")
	ErrBalanceMismatch        = errors.New("treasury balance does not match journal")
)

// Txn is the key scheme of the rental ledger as seen from inside one
// all-or-nothing transaction. Getters return ErrNotFound for absent records,
// except the singletons that carry a default (commission, treasury balances).
type Txn interface {
	// --- Instance tier: admin registry ---
	GetAdmin(ctx context.Context) (models.Address, error)
	PutAdmin(ctx context.Context, admin models.Address) error
	GetToken(ctx context.Context) (models.Address, error)
	PutToken(ctx context.Context, token models.Address) error

	// --- Instance tier: commission ---
	GetCommission(ctx context.Context) (decimal.Decimal, error)
	PutCommission(ctx context.Context, commission decimal.Decimal) error

	// --- Instance tier: cars ---
	GetCar(ctx context.Context, owner models.Address) (*models.Car, error)
	PutCar(ctx context.Context, owner models.Address, car *models.Car) error
	DeleteCar(ctx context.Context, owner models.Address) error
	ListCars(ctx context.Context) ([]models.CarRecord, error)

	// --- Instance tier: rentals ---
	GetRental(ctx context.Context, renter, owner models.Address) (*models.Rental, error)
	PutRental(ctx context.Context, renter, owner models.Address, rental *models.Rental) error
	// ListRentalsByOwner returns every rental record against owner's car, ordered by renter.
	ListRentalsByOwner(ctx context.Context, owner models.Address) ([]models.RentalRecord, error)

	// --- Persistent tier: treasury ---
	GetBalance(ctx context.Context, account models.TreasuryAccount) (decimal.Decimal, error)
	// AdjustBalance adds delta to the account and journals the movement under reference.
	AdjustBalance(ctx context.Context, account models.TreasuryAccount, delta decimal.Decimal, reference string) error
}

// LedgerStore defines the contract that every backend (SQLite, Badger, ...) must satisfy.
type LedgerStore interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Txn) error) error
	// Update runs fn in a read-write transaction. The transaction commits only
	// when fn returns nil; any error discards every write made through the Txn.
	Update(ctx context.Context, fn func(Txn) error) error

	// --- Treasury journal ---
	GetTreasuryHistory(ctx context.Context, account models.TreasuryAccount, limit, offset int) ([]models.TreasuryEntry, error)
	ReconcileTreasury(ctx context.Context, account models.TreasuryAccount) error

	// --- Lifecycle ---
	Close()
}
