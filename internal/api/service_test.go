package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"rent-a-car-go/internal/auth"
	"rent-a-car-go/internal/database"
	"rent-a-car-go/internal/ledger"
	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/token"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contract = models.Address("rentacar")

type fixture struct {
	svc                  *LedgerService
	admin, owner, renter *auth.KeyPair
}

func setup(t *testing.T) *fixture {
	t.Helper()
	st, err := database.NewService(context.Background(), models.StoreConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	tokens := token.NewMemoryLedger()
	verifier := auth.NewJWTVerifier(contract, models.AuthConfig{MaxCredentialAge: time.Minute, ClockSkew: time.Second})
	f := &fixture{
		svc: NewLedgerService(ledger.New(st, verifier, tokens, contract)),
	}
	for _, k := range []**auth.KeyPair{&f.admin, &f.owner, &f.renter} {
		*k, err = auth.GenerateKey()
		require.NoError(t, err)
	}

	tok, err := tokens.Token(context.Background(), "token")
	require.NoError(t, err)
	require.NoError(t, tok.(token.Minter).Mint(context.Background(), f.renter.Address(), decimal.NewFromInt(10_000)))
	return f
}

func signed(t *testing.T, key *auth.KeyPair) context.Context {
	t.Helper()
	credential, err := auth.NewIssuer(key, contract, time.Minute).Sign()
	require.NoError(t, err)
	return auth.WithCredentials(context.Background(), credential)
}

func TestHealthCheck_Uninitialized(t *testing.T) {
	f := setup(t)
	assert.NoError(t, f.svc.HealthCheck(context.Background()))
}

func TestOperationResults(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res := f.svc.Initialize(ctx, f.admin.Address(), "token")
	assert.True(t, res.Success)
	assert.Nil(t, res.Code)
	assert.Equal(t, "initialize", res.Operation)

	res = f.svc.Initialize(ctx, f.admin.Address(), "token")
	assert.False(t, res.Success)
	require.NotNil(t, res.Code)
	assert.Equal(t, uint32(0), *res.Code)

	res = f.svc.AddCar(signed(t, f.admin), f.owner.Address(), decimal.NewFromInt(100))
	require.True(t, res.Success, res.Error)

	res = f.svc.Rental(signed(t, f.renter), f.renter.Address(), f.owner.Address(), 0)
	assert.False(t, res.Success)
	require.NotNil(t, res.Code)
	assert.Equal(t, uint32(10), *res.Code)
	assert.Contains(t, res.Error, "RentalDurationCannotBeZero")

	// authorization failures carry no ledger code
	res = f.svc.Rental(signed(t, f.owner), f.renter.Address(), f.owner.Address(), 1)
	assert.False(t, res.Success)
	assert.Nil(t, res.Code)

	res = f.svc.Rental(ctx, "", f.owner.Address(), 1)
	assert.False(t, res.Success)
	assert.Nil(t, res.Code)
}

func TestRentalFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner, renter := f.owner.Address(), f.renter.Address()

	require.True(t, f.svc.Initialize(ctx, f.admin.Address(), "token").Success)
	require.True(t, f.svc.SetAdminCommission(signed(t, f.admin), decimal.NewFromInt(10)).Success)
	require.True(t, f.svc.AddCar(signed(t, f.admin), owner, decimal.NewFromInt(1000)).Success)
	require.True(t, f.svc.Rental(signed(t, f.renter), renter, owner, 5).Success)

	status, err := f.svc.GetCarStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Rented", status)

	res := f.svc.PayoutOwner(signed(t, f.owner), owner, decimal.NewFromInt(4500))
	require.NotNil(t, res.Code)
	assert.Equal(t, uint32(13), *res.Code)

	require.True(t, f.svc.ReturnCar(signed(t, f.renter), renter, owner).Success)
	require.True(t, f.svc.PayoutOwner(signed(t, f.owner), owner, decimal.NewFromInt(4500)).Success)
	require.True(t, f.svc.PayoutAdmin(signed(t, f.admin), decimal.NewFromInt(500)).Success)

	view, err := f.svc.GetCar(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Available", view.Status)
	assert.True(t, view.AvailableToWithdraw.IsZero())

	treasury, err := f.svc.GetTreasury(ctx)
	require.NoError(t, err)
	assert.True(t, treasury.ContractBalance.IsZero())
	assert.True(t, treasury.AdminBalance.IsZero())
	assert.True(t, treasury.Commission.Equal(decimal.NewFromInt(10)))

	history, err := f.svc.GetTreasuryHistory(ctx, models.TreasuryContract, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(-500)))
	assert.True(t, history[0].Balance.IsZero())
	assert.True(t, history[2].Amount.Equal(decimal.NewFromInt(5000)))

	require.NoError(t, f.svc.ReconcileTreasury(ctx, models.TreasuryContract))
	require.NoError(t, f.svc.ReconcileTreasury(ctx, models.TreasuryAdmin))

	require.True(t, f.svc.RemoveCar(signed(t, f.admin), owner).Success)
	cars, err := f.svc.ListCars(ctx)
	require.NoError(t, err)
	assert.Empty(t, cars)
}

func TestGetCar_NotFound(t *testing.T) {
	f := setup(t)
	require.True(t, f.svc.Initialize(context.Background(), f.admin.Address(), "token").Success)

	_, err := f.svc.GetCar(context.Background(), f.owner.Address())
	assert.ErrorIs(t, err, ledger.ErrCarNotFound)
}

func TestAddressSpellings_NameOneIdentity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	upper := func(a models.Address) models.Address { return models.Address(strings.ToUpper(a.String())) }
	owner, renter := f.owner.Address(), f.renter.Address()

	require.True(t, f.svc.Initialize(ctx, upper(f.admin.Address()), "token").Success)
	require.True(t, f.svc.AddCar(signed(t, f.admin), upper(owner), decimal.NewFromInt(10)).Success)

	// the car is reachable under either spelling
	status, err := f.svc.GetCarStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Available", status)
	view, err := f.svc.GetCar(ctx, upper(owner))
	require.NoError(t, err)
	assert.Equal(t, owner, view.Owner)

	res := f.svc.AddCar(signed(t, f.admin), owner, decimal.NewFromInt(10))
	require.NotNil(t, res.Code)
	assert.Equal(t, uint32(4), *res.Code)

	require.True(t, f.svc.Rental(signed(t, f.renter), upper(renter), owner, 2).Success)
	require.True(t, f.svc.ReturnCar(signed(t, f.renter), renter, upper(owner)).Success)
	require.True(t, f.svc.PayoutOwner(signed(t, f.owner), upper(owner), decimal.NewFromInt(20)).Success)
}
