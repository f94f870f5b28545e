package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"rent-a-car-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// KeyPair is an identity and the key that signs its credentials
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKey creates a fresh identity
func GenerateKey() (*KeyPair, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &KeyPair{Public: public, Private: private}, nil
}

// ParseSecretKey accepts a hex-encoded 32-byte seed or 64-byte private key
func ParseSecretKey(secret string) (*KeyPair, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecretKey, err)
	}

	var private ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		private = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		private = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("%w: expected %d or %d bytes, got %d",
			ErrInvalidSecretKey, ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
	return &KeyPair{Public: private.Public().(ed25519.PublicKey), Private: private}, nil
}

// Address is the identity controlled by this key
func (k *KeyPair) Address() models.Address {
	return models.Address(hex.EncodeToString(k.Public))
}

// Secret is the hex-encoded seed, the inverse of ParseSecretKey
func (k *KeyPair) Secret() string {
	return hex.EncodeToString(k.Private.Seed())
}

// Issuer signs credentials for one identity addressed to one ledger
type Issuer struct {
	key      *KeyPair
	audience models.Address
	ttl      time.Duration
	now      func() time.Time
}

func NewIssuer(key *KeyPair, audience models.Address, ttl time.Duration) *Issuer {
	return &Issuer{key: key, audience: audience, ttl: ttl, now: time.Now}
}

// Sign returns a compact JWS proving control of the identity
func (i *Issuer) Sign() (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:  i.key.Address().String(),
		Audience: jwt.ClaimStrings{i.audience.String()},
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.New().String(),
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(i.key.Private)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}
