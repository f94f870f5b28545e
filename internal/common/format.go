package common

import (
	"fmt"
	"strings"

	"rent-a-car-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// PrintCars prints a tree of listed cars
func PrintCars(cars []models.CarView) {
	PrintHeader(fmt.Sprintf("CARS (%d)", len(cars)), DefaultWidth)
	if len(cars) == 0 {
		fmt.Println("No cars listed")
		return
	}
	for i, car := range cars {
		isLast := i == len(cars)-1
		fmt.Printf("%s%s  %s\n", BoxPrefix(isLast), car.Owner, car.Status)
		fmt.Printf("%sprice/day: %s  available to withdraw: %s\n",
			BoxDetailPrefix(isLast), car.PricePerDay.String(), car.AvailableToWithdraw.String())
	}
}

// PrintTreasury prints both treasury counters and the commission rate
func PrintTreasury(view *models.TreasuryView) {
	PrintHeader("TREASURY", DefaultWidth)
	fmt.Printf("Contract balance: %s\n", view.ContractBalance.String())
	fmt.Printf("Admin balance:    %s\n", view.AdminBalance.String())
	fmt.Printf("Admin commission: %s%%\n", view.Commission.String())
}

// PrintTreasuryHistory prints journal entries, newest first
func PrintTreasuryHistory(account models.TreasuryAccount, records []models.TreasuryRecord) {
	PrintHeader(fmt.Sprintf("TREASURY HISTORY: %s", account), WideWidth)
	if len(records) == 0 {
		fmt.Println("No movements")
		return
	}
	fmt.Printf("%-20s %-14s %-14s %s\n", "TIME", "AMOUNT", "BALANCE", "REFERENCE")
	PrintSeparator("-", WideWidth)
	for _, r := range records {
		fmt.Printf("%-20s %-14s %-14s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Amount.StringFixed(2), r.Balance.StringFixed(2), r.Reference)
	}
}

// PrintResult prints the outcome of a mutating operation
func PrintResult(res *models.OperationResult) {
	if res.Success {
		fmt.Printf("✓ %s succeeded\n", res.Operation)
		return
	}
	fmt.Printf("✗ %s failed: %s\n", res.Operation, res.Error)
}
