package token

import (
	"context"
	"fmt"
	"sync"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time checks
var (
	_ Provider = (*MemoryLedger)(nil)
	_ Balancer = (*memoryToken)(nil)
	_ Minter   = (*memoryToken)(nil)
)

// MemoryLedger is an in-process token ledger. It holds balances for any
// number of tokens and is safe for concurrent use.
type MemoryLedger struct {
	mu         sync.Mutex
	balances   map[models.Address]map[models.Address]decimal.Decimal
	references map[string]struct{}
	transfers  []MemoryTransfer
	failNext   error
}

// MemoryTransfer records a completed transfer
type MemoryTransfer struct {
	Token     models.Address
	From      models.Address
	To        models.Address
	Amount    decimal.Decimal
	Reference string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[models.Address]map[models.Address]decimal.Decimal),
		references: make(map[string]struct{}),
	}
}

// Token returns a Transferer bound to the given token
func (m *MemoryLedger) Token(_ context.Context, id models.Address) (Transferer, error) {
	if id == "" {
		return nil, ErrUnknownToken
	}
	return &memoryToken{ledger: m, id: id}, nil
}

// FailNextTransfer makes the next transfer return err without moving funds.
func (m *MemoryLedger) FailNextTransfer(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Transfers returns a copy of every completed transfer in order
func (m *MemoryLedger) Transfers() []MemoryTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemoryTransfer, len(m.transfers))
	copy(out, m.transfers)
	return out
}

func (m *MemoryLedger) balance(token, account models.Address) decimal.Decimal {
	if accounts, ok := m.balances[token]; ok {
		return accounts[account]
	}
	return decimal.Zero
}

func (m *MemoryLedger) credit(token, account models.Address, amount decimal.Decimal) {
	accounts, ok := m.balances[token]
	if !ok {
		accounts = make(map[models.Address]decimal.Decimal)
		m.balances[token] = accounts
	}
	accounts[account] = accounts[account].Add(amount)
}

type memoryToken struct {
	ledger *MemoryLedger
	id     models.Address
}

func (t *memoryToken) Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	m := t.ledger
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}

	reference := ""
	if memo := GetTransferMemo(ctx); memo != nil && memo.Reference != "" {
		reference = memo.Reference
		if _, seen := m.references[reference]; seen {
			return fmt.Errorf("%w: %s", ErrDuplicateTransfer, reference)
		}
	}

	available := m.balance(t.id, from)
	if available.LessThan(amount) {
		return fmt.Errorf("%w: account %s has %s, needs %s", ErrInsufficientFunds, from, available.String(), amount.String())
	}

	m.credit(t.id, from, amount.Neg())
	m.credit(t.id, to, amount)
	if reference != "" {
		m.references[reference] = struct{}{}
	}
	m.transfers = append(m.transfers, MemoryTransfer{Token: t.id, From: from, To: to, Amount: amount, Reference: reference})

	zap.L().Debug("Memory token transfer",
		zap.String("token", t.id.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("amount", amount.String()))
	return nil
}

func (t *memoryToken) Balance(_ context.Context, account models.Address) (decimal.Decimal, error) {
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	return t.ledger.balance(t.id, account), nil
}

func (t *memoryToken) Mint(_ context.Context, to models.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	t.ledger.credit(t.id, to, amount)
	return nil
}
