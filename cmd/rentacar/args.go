package main

import (
	"fmt"
	"strconv"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
)

// parseAmount accepts whole token units only
func parseAmount(name, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if !amount.IsInteger() {
		return decimal.Zero, fmt.Errorf("invalid %s %q: must be a whole number", name, value)
	}
	return amount, nil
}

func parseDays(value string) (uint32, error) {
	days, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid days %q: %w", value, err)
	}
	return uint32(days), nil
}

func parseAccount(value string) (models.TreasuryAccount, error) {
	return models.ParseTreasuryAccount(value)
}
