package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"rent-a-car-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var _ Verifier = (*JWTVerifier)(nil)

// JWTVerifier accepts EdDSA-signed JWTs whose subject is the identity and
// whose audience is the ledger address. The identity itself is the
// hex-encoded verification key, so no key registry is needed.
type JWTVerifier struct {
	audience  models.Address
	maxAge    time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWTVerifier(audience models.Address, cfg models.AuthConfig) *JWTVerifier {
	return &JWTVerifier{
		audience:  audience,
		maxAge:    cfg.MaxCredentialAge,
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}
}

// PublicKeyFromAddress decodes an identity into its verification key
func PublicKeyFromAddress(identity models.Address) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(identity.String())
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIdentity, identity.Short())
	}
	return ed25519.PublicKey(raw), nil
}

func (v *JWTVerifier) RequireAuth(ctx context.Context, identity models.Address) error {
	credentials := Credentials(ctx)
	if len(credentials) == 0 {
		return fmt.Errorf("%w: no credentials presented for %s", ErrUnauthorized, identity.Short())
	}

	publicKey, err := PublicKeyFromAddress(identity)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	var lastErr error
	for _, credential := range credentials {
		if !v.addressedTo(credential, identity) {
			continue
		}
		if lastErr = v.verify(credential, publicKey); lastErr == nil {
			return nil
		}
		zap.L().Debug("Credential rejected",
			zap.String("identity", identity.Short()),
			zap.Error(lastErr))
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnauthorized, identity.Short(), lastErr)
	}
	return fmt.Errorf("%w: no credential for %s", ErrUnauthorized, identity.Short())
}

// addressedTo reads the subject without verifying the signature
func (v *JWTVerifier) addressedTo(credential string, identity models.Address) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return false
	}
	return models.Address(claims.Subject).Canonical() == identity.Canonical()
}

func (v *JWTVerifier) verify(credential string, publicKey ed25519.PublicKey) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(v.audience.String()),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.now),
	)

	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		return err
	}

	if claims.IssuedAt == nil {
		return fmt.Errorf("credential has no issued-at claim")
	}
	if v.maxAge > 0 && v.now().Sub(claims.IssuedAt.Time) > v.maxAge+v.clockSkew {
		return fmt.Errorf("credential older than %s", v.maxAge)
	}
	return nil
}
