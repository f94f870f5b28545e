package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"rent-a-car-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerAddress = models.Address("rentacar")

func newVerifier(now time.Time) *JWTVerifier {
	v := NewJWTVerifier(ledgerAddress, models.AuthConfig{MaxCredentialAge: 15 * time.Minute, ClockSkew: 30 * time.Second})
	v.now = func() time.Time { return now }
	return v
}

func sign(t *testing.T, key *KeyPair, audience models.Address, at time.Time) string {
	t.Helper()
	issuer := NewIssuer(key, audience, 0)
	issuer.now = func() time.Time { return at }
	credential, err := issuer.Sign()
	require.NoError(t, err)
	return credential
}

func TestRequireAuth_AcceptsOwnCredential(t *testing.T) {
	now := time.Now()
	key, err := GenerateKey()
	require.NoError(t, err)

	ctx := WithCredentials(context.Background(), sign(t, key, ledgerAddress, now))
	assert.NoError(t, newVerifier(now).RequireAuth(ctx, key.Address()))
}

func TestRequireAuth_PicksMatchingCredential(t *testing.T) {
	now := time.Now()
	alice, _ := GenerateKey()
	bob, _ := GenerateKey()

	ctx := WithCredentials(context.Background(), sign(t, alice, ledgerAddress, now))
	ctx = WithCredentials(ctx, sign(t, bob, ledgerAddress, now))

	v := newVerifier(now)
	assert.NoError(t, v.RequireAuth(ctx, alice.Address()))
	assert.NoError(t, v.RequireAuth(ctx, bob.Address()))
	assert.Len(t, Credentials(ctx), 2)
}

func TestRequireAuth_IdentityCase(t *testing.T) {
	now := time.Now()
	key, err := GenerateKey()
	require.NoError(t, err)

	ctx := WithCredentials(context.Background(), sign(t, key, ledgerAddress, now))
	upper := models.Address(strings.ToUpper(key.Address().String()))
	assert.NoError(t, newVerifier(now).RequireAuth(ctx, upper))
}

func TestRequireAuth_Rejections(t *testing.T) {
	now := time.Now()
	alice, _ := GenerateKey()
	mallory, _ := GenerateKey()

	tests := []struct {
		name     string
		ctx      context.Context
		identity models.Address
	}{
		{
			name:     "no credentials",
			ctx:      context.Background(),
			identity: alice.Address(),
		},
		{
			name:     "credential for another identity",
			ctx:      WithCredentials(context.Background(), sign(t, mallory, ledgerAddress, now)),
			identity: alice.Address(),
		},
		{
			name:     "wrong audience",
			ctx:      WithCredentials(context.Background(), sign(t, alice, "another-ledger", now)),
			identity: alice.Address(),
		},
		{
			name:     "stale credential",
			ctx:      WithCredentials(context.Background(), sign(t, alice, ledgerAddress, now.Add(-time.Hour))),
			identity: alice.Address(),
		},
		{
			name:     "issued in the future",
			ctx:      WithCredentials(context.Background(), sign(t, alice, ledgerAddress, now.Add(time.Hour))),
			identity: alice.Address(),
		},
		{
			name:     "garbage credential",
			ctx:      WithCredentials(context.Background(), "not-a-jwt"),
			identity: alice.Address(),
		},
		{
			name:     "identity is not a key",
			ctx:      WithCredentials(context.Background(), sign(t, alice, ledgerAddress, now)),
			identity: "GALICE",
		},
	}

	v := newVerifier(now)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.RequireAuth(tt.ctx, tt.identity)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestRequireAuth_ForgedSubject(t *testing.T) {
	now := time.Now()
	alice, _ := GenerateKey()
	mallory, _ := GenerateKey()

	// mallory signs a credential claiming to be alice
	forged := &KeyPair{Public: alice.Public, Private: mallory.Private}
	ctx := WithCredentials(context.Background(), sign(t, forged, ledgerAddress, now))

	assert.ErrorIs(t, newVerifier(now).RequireAuth(ctx, alice.Address()), ErrUnauthorized)
}

func TestParseSecretKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	parsed, err := ParseSecretKey(key.Secret())
	require.NoError(t, err)
	assert.Equal(t, key.Address(), parsed.Address())

	_, err = ParseSecretKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidSecretKey)
	_, err = ParseSecretKey("zz")
	assert.ErrorIs(t, err, ErrInvalidSecretKey)
}
