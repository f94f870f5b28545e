package common

import (
	"fmt"
	"os"
	"path/filepath"

	"rent-a-car-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type FleetCar struct {
	Owner       string `yaml:"owner"`
	PricePerDay string `yaml:"price_per_day"`
}

type FleetConfig struct {
	Cars []FleetCar `yaml:"cars"`
}

// FleetEntry is a validated car ready for AddCar
type FleetEntry struct {
	Owner       models.Address
	PricePerDay decimal.Decimal
}

// LoadFleet reads a YAML list of cars to onboard. Prices must parse as
// decimals; positivity is left to the ledger so rejections are reported
// per car.
func LoadFleet(fleetFile string) ([]FleetEntry, error) {
	var fleetPath string
	if filepath.IsAbs(fleetFile) {
		fleetPath = fleetFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		fleetPath = filepath.Join(wd, fleetFile)
	}

	data, err := os.ReadFile(fleetPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", fleetFile, err)
	}

	var config FleetConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", fleetFile, err)
	}

	seen := make(map[string]int, len(config.Cars))
	entries := make([]FleetEntry, len(config.Cars))
	for i, car := range config.Cars {
		if car.Owner == "" {
			return nil, fmt.Errorf("car at index %d missing owner", i)
		}
		if prev, dup := seen[car.Owner]; dup {
			return nil, fmt.Errorf("car at index %d repeats owner of index %d", i, prev)
		}
		seen[car.Owner] = i
		if car.PricePerDay == "" {
			return nil, fmt.Errorf("car at index %d missing price_per_day", i)
		}
		price, err := decimal.NewFromString(car.PricePerDay)
		if err != nil {
			return nil, fmt.Errorf("car at index %d has invalid price_per_day %q: %w", i, car.PricePerDay, err)
		}
		entries[i] = FleetEntry{Owner: models.Address(car.Owner), PricePerDay: price}
	}

	return entries, nil
}
