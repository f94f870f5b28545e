package formance

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/token"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time checks
var (
	_ token.Provider = (*Service)(nil)
	_ token.Balancer = (*ledgerToken)(nil)
	_ token.Minter   = (*ledgerToken)(nil)
)

// Numscript templates. Metadata is set inside the script so every
// transaction is self-describing.
const numscriptTransfer = `vars {
  asset $asset
  number $amount
  account $source
  account $destination
  string $token
  string $operation
}

send [$asset $amount] (
  source = $source
  destination = $destination
)

set_tx_meta("event_type", "token_transfer")
set_tx_meta("token", $token)
set_tx_meta("operation", $operation)
`

const numscriptMint = `vars {
  asset $asset
  number $amount
  account $destination
  string $token
}

send [$asset $amount] (
  source = @world
  destination = $destination
)

set_tx_meta("event_type", "token_mint")
set_tx_meta("token", $token)
`

// Token returns a Transferer posting to this ledger under the given token.
// Each token gets its own account tree.
func (s *Service) Token(_ context.Context, id models.Address) (token.Transferer, error) {
	if id == "" {
		return nil, token.ErrUnknownToken
	}
	return &ledgerToken{svc: s, id: id}, nil
}

type ledgerToken struct {
	svc *Service
	id  models.Address
}

func (t *ledgerToken) Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error {
	smallAmt, err := t.svc.toSmallestUnit(amount)
	if err != nil {
		return err
	}

	reference, operation := uuid.New().String(), "transfer"
	if memo := token.GetTransferMemo(ctx); memo != nil {
		if memo.Reference != "" {
			reference = memo.Reference
		}
		if memo.Operation != "" {
			operation = memo.Operation
		}
	}

	err = t.svc.post(ctx, reference, numscriptTransfer, map[string]string{
		"asset":       t.svc.asset,
		"amount":      smallAmt,
		"source":      accountAddress(t.id, from),
		"destination": accountAddress(t.id, to),
		"token":       t.id.String(),
		"operation":   operation,
	})
	if err != nil {
		switch {
		case isConflictError(err):
			return fmt.Errorf("%w: %s", token.ErrDuplicateTransfer, reference)
		case isInsufficientFundError(err):
			return fmt.Errorf("%w: account %s", token.ErrInsufficientFunds, from.Short())
		}
		return fmt.Errorf("error posting token transfer: %w", err)
	}

	zap.L().Info("Token transfer recorded in Formance",
		zap.String("token", t.id.Short()),
		zap.String("from", from.Short()),
		zap.String("to", to.Short()),
		zap.String("amount", amount.String()),
		zap.String("reference", reference))
	return nil
}

func (t *ledgerToken) Mint(ctx context.Context, to models.Address, amount decimal.Decimal) error {
	smallAmt, err := t.svc.toSmallestUnit(amount)
	if err != nil {
		return err
	}
	err = t.svc.post(ctx, uuid.New().String(), numscriptMint, map[string]string{
		"asset":       t.svc.asset,
		"amount":      smallAmt,
		"destination": accountAddress(t.id, to),
		"token":       t.id.String(),
	})
	if err != nil {
		return fmt.Errorf("error minting tokens: %w", err)
	}
	return nil
}

// Balance reads the account volumes; a never-used account holds zero.
func (t *ledgerToken) Balance(ctx context.Context, account models.Address) (decimal.Decimal, error) {
	address := accountAddress(t.id, account)
	resp, err := t.svc.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  t.svc.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	bal := volumeBalance(resp.V2AccountResponse.Data.Volumes, t.svc.asset)
	return bigIntToDecimal(bal, t.svc.precision), nil
}

func (s *Service) post(ctx context.Context, reference, script string, vars map[string]string) error {
	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: v3.Pointer(reference),
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars:  vars,
			},
		},
	})
	return err
}

// toSmallestUnit converts a token amount into the integer the ledger posts.
// Amounts finer than the asset precision are rejected.
func (s *Service) toSmallestUnit(amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", token.ErrInvalidAmount
	}
	shifted := amount.Shift(s.precision)
	if !shifted.IsInteger() {
		return "", fmt.Errorf("%w: %s exceeds precision %d", token.ErrInvalidAmount, amount.String(), s.precision)
	}
	return shifted.BigInt().String(), nil
}

// accountAddress maps an identity to its ledger account,
// e.g. rentacar:tokens:<token>:accounts:<identity>
func accountAddress(tokenID, account models.Address) string {
	return "rentacar:tokens:" + segment(tokenID.String()) + ":accounts:" + segment(account.String())
}

// segment replaces characters the ledger does not accept in account names
func segment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, asset string) *big.Int {
	vol, ok := vols[asset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in smallest-unit to a token amount.
func bigIntToDecimal(raw *big.Int, precision int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -precision)
}
