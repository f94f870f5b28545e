package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error is a typed ledger failure. Codes are stable and part of the public surface.
type Error struct {
	Code uint32
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Name, e.Code)
}

// Code 5 is unassigned.
var (
	ErrContractInitialized                   = &Error{Code: 0, Name: "ContractInitialized"}
	ErrContractNotInitialized                = &Error{Code: 1, Name: "ContractNotInitialized"}
	ErrCarNotFound                           = &Error{Code: 2, Name: "CarNotFound"}
	ErrAdminTokenConflict                    = &Error{Code: 3, Name: "AdminTokenConflict"}
	ErrCarAlreadyExist                       = &Error{Code: 4, Name: "CarAlreadyExist"}
	ErrAmountMustBePositive                  = &Error{Code: 6, Name: "AmountMustBePositive"}
	ErrRentalNotFound                        = &Error{Code: 7, Name: "RentalNotFound"}
	ErrInsufficientBalance                   = &Error{Code: 8, Name: "InsufficientBalance"}
	ErrBalanceNotAvailableForAmountRequested = &Error{Code: 9, Name: "BalanceNotAvailableForAmountRequested"}
	ErrRentalDurationCannotBeZero            = &Error{Code: 10, Name: "RentalDurationCannotBeZero"}
	ErrSelfRentalNotAllowed                  = &Error{Code: 11, Name: "SelfRentalNotAllowed"}
	ErrCarAlreadyRented                      = &Error{Code: 12, Name: "CarAlreadyRented"}
	ErrCarNotReturned                        = &Error{Code: 13, Name: "CarNotReturned"}
)

// CodeOf extracts the ledger code from err, if it carries one
func CodeOf(err error) (uint32, bool) {
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Code, true
	}
	return 0, false
}

// requireWholeAmount rejects fractional amounts. Counters hold whole token units.
func requireWholeAmount(amount decimal.Decimal) error {
	if !amount.IsInteger() {
		return fmt.Errorf("%w: %s is not a whole amount", ErrAmountMustBePositive, amount.String())
	}
	return nil
}
