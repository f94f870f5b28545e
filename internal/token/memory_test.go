package token

import (
	"context"
	"errors"
	"testing"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	xlm    = models.Address("token-xlm")
	alice  = models.Address("alice")
	bob    = models.Address("bob")
	escrow = models.Address("escrow")
)

func setupMemoryToken(t *testing.T) (*MemoryLedger, Transferer) {
	ledger := NewMemoryLedger()
	tok, err := ledger.Token(context.Background(), xlm)
	require.NoError(t, err)
	require.NoError(t, tok.(Minter).Mint(context.Background(), alice, decimal.NewFromInt(100)))
	return ledger, tok
}

func TestMemoryTransfer_MovesFunds(t *testing.T) {
	ledger, tok := setupMemoryToken(t)
	ctx := context.Background()

	require.NoError(t, tok.Transfer(ctx, alice, bob, decimal.NewFromInt(40)))

	aliceBal, _ := tok.(Balancer).Balance(ctx, alice)
	bobBal, _ := tok.(Balancer).Balance(ctx, bob)
	assert.True(t, aliceBal.Equal(decimal.NewFromInt(60)), "alice balance %s", aliceBal)
	assert.True(t, bobBal.Equal(decimal.NewFromInt(40)), "bob balance %s", bobBal)
	assert.Len(t, ledger.Transfers(), 1)
}

func TestMemoryTransfer_InsufficientFunds(t *testing.T) {
	ledger, tok := setupMemoryToken(t)

	err := tok.Transfer(context.Background(), bob, alice, decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, ErrInsufficientFunds), "got %v", err)
	assert.Empty(t, ledger.Transfers())
}

func TestMemoryTransfer_RejectsNonPositive(t *testing.T) {
	_, tok := setupMemoryToken(t)

	assert.ErrorIs(t, tok.Transfer(context.Background(), alice, bob, decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, tok.Transfer(context.Background(), alice, bob, decimal.NewFromInt(-5)), ErrInvalidAmount)
}

func TestMemoryTransfer_DuplicateReference(t *testing.T) {
	_, tok := setupMemoryToken(t)
	ctx := WithTransferMemo(context.Background(), &TransferMemo{Reference: "op-1", Operation: "rental"})

	require.NoError(t, tok.Transfer(ctx, alice, escrow, decimal.NewFromInt(10)))
	err := tok.Transfer(ctx, alice, escrow, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrDuplicateTransfer)
}

func TestMemoryTransfer_FailNext(t *testing.T) {
	ledger, tok := setupMemoryToken(t)
	boom := errors.New("token contract trapped")
	ledger.FailNextTransfer(boom)

	assert.ErrorIs(t, tok.Transfer(context.Background(), alice, bob, decimal.NewFromInt(1)), boom)
	// only the next transfer fails
	assert.NoError(t, tok.Transfer(context.Background(), alice, bob, decimal.NewFromInt(1)))
}

func TestMemoryToken_UnknownToken(t *testing.T) {
	_, err := NewMemoryLedger().Token(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestTransferMemoContext(t *testing.T) {
	assert.Nil(t, GetTransferMemo(context.Background()))

	memo := &TransferMemo{Reference: "ref", Operation: "payout_admin"}
	got := GetTransferMemo(WithTransferMemo(context.Background(), memo))
	require.NotNil(t, got)
	assert.Equal(t, "payout_admin", got.Operation)
}
