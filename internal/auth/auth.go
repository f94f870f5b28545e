package auth

import (
	"context"
	"errors"

	"rent-a-car-go/internal/models"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidIdentity  = errors.New("identity is not an ed25519 public key")
	ErrInvalidSecretKey = errors.New("invalid ed25519 secret key")
)

// Verifier checks that the caller presented proof of control over identity.
type Verifier interface {
	RequireAuth(ctx context.Context, identity models.Address) error
}

type credentialsContextKey struct{}

// WithCredentials attaches signed credentials to the context. Several
// identities can authorize the same call, so credentials accumulate.
func WithCredentials(ctx context.Context, credentials ...string) context.Context {
	existing := Credentials(ctx)
	merged := make([]string, 0, len(existing)+len(credentials))
	merged = append(merged, existing...)
	merged = append(merged, credentials...)
	return context.WithValue(ctx, credentialsContextKey{}, merged)
}

// Credentials returns the credentials attached to the context
func Credentials(ctx context.Context) []string {
	credentials, _ := ctx.Value(credentialsContextKey{}).([]string)
	return credentials
}
