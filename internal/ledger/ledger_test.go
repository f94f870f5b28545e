package ledger

import (
	"context"
	"testing"
	"time"

	"rent-a-car-go/internal/auth"
	"rent-a-car-go/internal/database"
	"rent-a-car-go/internal/kvstore"
	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"
	"rent-a-car-go/internal/token"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	contractAddress = models.Address("rentacar-contract")
	tokenAddress    = models.Address("token-xlm")
)

var authConfig = models.AuthConfig{MaxCredentialAge: 15 * time.Minute, ClockSkew: 30 * time.Second}

type backend struct {
	name string
	open func(t *testing.T) store.LedgerStore
}

var backends = []backend{
	{
		name: "sqlite",
		open: func(t *testing.T) store.LedgerStore {
			s, err := database.NewService(context.Background(), models.StoreConfig{
				Path:         ":memory:",
				MaxOpenConns: 1,
				MaxIdleConns: 1,
				PingTimeout:  time.Second,
			})
			require.NoError(t, err)
			return s
		},
	},
	{
		name: "badger",
		open: func(t *testing.T) store.LedgerStore {
			s, err := kvstore.New()
			require.NoError(t, err)
			return s
		},
	},
}

// forEachBackend runs fn once per storage engine
func forEachBackend(t *testing.T, fn func(t *testing.T, open func(t *testing.T) store.LedgerStore)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open)
		})
	}
}

type harness struct {
	ledger *RentalLedger
	store  store.LedgerStore
	tokens *token.MemoryLedger
	admin  *auth.KeyPair
	owner  *auth.KeyPair
	renter *auth.KeyPair
}

func newKey(t *testing.T) *auth.KeyPair {
	t.Helper()
	key, err := auth.GenerateKey()
	require.NoError(t, err)
	return key
}

// newHarness builds an initialized ledger whose renter holds 1,000,000 tokens
func newHarness(t *testing.T, st store.LedgerStore, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:  st,
		tokens: token.NewMemoryLedger(),
		admin:  newKey(t),
		owner:  newKey(t),
		renter: newKey(t),
	}
	t.Cleanup(st.Close)

	h.ledger = New(st, auth.NewJWTVerifier(contractAddress, authConfig), h.tokens, contractAddress, opts...)
	require.NoError(t, h.ledger.Initialize(context.Background(), h.admin.Address(), tokenAddress))
	h.mint(t, h.renter.Address(), 1_000_000)
	return h
}

func (h *harness) mint(t *testing.T, to models.Address, amount int64) {
	t.Helper()
	tok, err := h.tokens.Token(context.Background(), tokenAddress)
	require.NoError(t, err)
	require.NoError(t, tok.(token.Minter).Mint(context.Background(), to, decimal.NewFromInt(amount)))
}

func (h *harness) tokenBalance(t *testing.T, account models.Address) decimal.Decimal {
	t.Helper()
	tok, err := h.tokens.Token(context.Background(), tokenAddress)
	require.NoError(t, err)
	balance, err := tok.(token.Balancer).Balance(context.Background(), account)
	require.NoError(t, err)
	return balance
}

// as returns a context carrying credentials for every given key
func as(t *testing.T, keys ...*auth.KeyPair) context.Context {
	t.Helper()
	ctx := context.Background()
	for _, key := range keys {
		credential, err := auth.NewIssuer(key, contractAddress, time.Minute).Sign()
		require.NoError(t, err)
		ctx = auth.WithCredentials(ctx, credential)
	}
	return ctx
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// snapshot captures every piece of observable state for no-mutation checks
type snapshot struct {
	commission decimal.Decimal
	contract   decimal.Decimal
	admin      decimal.Decimal
	cars       []models.CarRecord
}

func takeSnapshot(t *testing.T, l *RentalLedger) snapshot {
	t.Helper()
	ctx := context.Background()
	var s snapshot
	var err error
	s.commission, err = l.GetAdminCommission(ctx)
	require.NoError(t, err)
	s.contract, err = l.GetContractBalance(ctx)
	require.NoError(t, err)
	s.admin, err = l.GetAdminBalance(ctx)
	require.NoError(t, err)
	s.cars, err = l.ListCars(ctx)
	require.NoError(t, err)
	return s
}

func requireSameSnapshot(t *testing.T, before, after snapshot) {
	t.Helper()
	require.True(t, before.commission.Equal(after.commission), "commission changed %s -> %s", before.commission, after.commission)
	require.True(t, before.contract.Equal(after.contract), "contract balance changed %s -> %s", before.contract, after.contract)
	require.True(t, before.admin.Equal(after.admin), "admin balance changed %s -> %s", before.admin, after.admin)
	require.Len(t, after.cars, len(before.cars))
	for i := range before.cars {
		require.Equal(t, before.cars[i].Owner, after.cars[i].Owner)
		require.Equal(t, before.cars[i].Car.Status, after.cars[i].Car.Status)
		require.True(t, before.cars[i].Car.AvailableToWithdraw.Equal(after.cars[i].Car.AvailableToWithdraw))
	}
}

// requireConservation checks admin_balance <= contract_balance and that the
// contract's token holdings match its treasury counter
func requireConservation(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	contract, err := h.ledger.GetContractBalance(ctx)
	require.NoError(t, err)
	admin, err := h.ledger.GetAdminBalance(ctx)
	require.NoError(t, err)
	require.True(t, admin.LessThanOrEqual(contract), "admin %s > contract %s", admin, contract)
	require.True(t, contract.Equal(h.tokenBalance(t, contractAddress)), "treasury %s != token holdings %s", contract, h.tokenBalance(t, contractAddress))
	require.NoError(t, h.ledger.ReconcileTreasury(ctx, models.TreasuryContract))
	require.NoError(t, h.ledger.ReconcileTreasury(ctx, models.TreasuryAdmin))
}

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
