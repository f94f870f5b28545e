package store

import (
	"errors"
	"fmt"
	"testing"
)

// Compile-time checks that the interfaces are importable and usable.
func TestLedgerStoreInterfaceExists(t *testing.T) {
	var _ LedgerStore
	var _ Txn
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	for _, sentinel := range []error{ErrNotFound, ErrConcurrentModification, ErrReadOnly, ErrBalanceMismatch} {
		wrapped := fmt.Errorf("failed to read car: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("expected %v to match after wrapping", sentinel)
		}
	}
}
