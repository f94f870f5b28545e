package token

import (
	"context"
	"errors"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by every token backend.
var (
	ErrInsufficientFunds = errors.New("insufficient token funds")
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
	ErrDuplicateTransfer = errors.New("duplicate transfer reference")
	ErrUnknownToken      = errors.New("unknown token")
)

// Transferer moves units of one fungible token between identities.
type Transferer interface {
	Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error
}

// Provider resolves the Transferer for the token fixed at construction.
type Provider interface {
	Token(ctx context.Context, id models.Address) (Transferer, error)
}

// Balancer is implemented by transferers that can report balances.
type Balancer interface {
	Balance(ctx context.Context, account models.Address) (decimal.Decimal, error)
}

// Minter is implemented by local backends that can issue new units.
type Minter interface {
	Mint(ctx context.Context, to models.Address, amount decimal.Decimal) error
}

type memoContextKey struct{}

// TransferMemo carries the originating ledger operation through context so
// backends can tag transfers without changing the Transferer interface.
type TransferMemo struct {
	Reference string // unique per ledger operation, used for idempotency
	Operation string // e.g. "rental", "payout_owner"
}

// WithTransferMemo attaches a memo to a context.
func WithTransferMemo(ctx context.Context, memo *TransferMemo) context.Context {
	return context.WithValue(ctx, memoContextKey{}, memo)
}

// GetTransferMemo retrieves the memo from context, or nil if absent.
func GetTransferMemo(ctx context.Context) *TransferMemo {
	memo, _ := ctx.Value(memoContextKey{}).(*TransferMemo)
	return memo
}
