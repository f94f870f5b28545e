/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"rent-a-car-go/internal/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const defaultEnvFile = ".env"

// Load reads envFile (or .env when empty) into the environment, then decodes
// the environment into a Config. Variables already set win over the file.
// A missing .env is fine; a missing explicit file is an error.
func Load(envFile string) (*models.Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	var cfg models.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	cfg.Contract.Address = cfg.Contract.Address.Canonical()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(envFile string) error {
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}

	err := godotenv.Load(envFile)
	switch {
	case err == nil:
		zap.L().Debug("Loaded environment variables", zap.String("file", envFile))
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		zap.L().Debug("No .env file found, using the process environment")
		return nil
	default:
		return fmt.Errorf("unable to load env file %s: %w", envFile, err)
	}
}

func validate(cfg *models.Config) error {
	if cfg.Contract.Address == "" {
		return fmt.Errorf("CONTRACT_ADDRESS must not be empty")
	}
	switch cfg.Store.Backend {
	case models.StoreBackendSqlite, models.StoreBackendBadger:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	switch cfg.Token.Backend {
	case models.TokenBackendSqlite, models.TokenBackendMemory, models.TokenBackendFormance:
	default:
		return fmt.Errorf("unknown TOKEN_BACKEND %q", cfg.Token.Backend)
	}
	if cfg.Store.Backend == models.StoreBackendSqlite && cfg.Token.Backend == models.TokenBackendSqlite &&
		sameDatabaseFile(cfg.Store.Path, cfg.Token.Path) {
		return fmt.Errorf("TOKEN_DATABASE_PATH must differ from DATABASE_PATH, both are %q", cfg.Store.Path)
	}
	if cfg.Auth.MaxCredentialAge <= 0 {
		return fmt.Errorf("AUTH_MAX_CREDENTIAL_AGE must be positive, got %v", cfg.Auth.MaxCredentialAge)
	}
	if cfg.Auth.ClockSkew < 0 {
		return fmt.Errorf("AUTH_CLOCK_SKEW must not be negative, got %v", cfg.Auth.ClockSkew)
	}
	return nil
}

// sameDatabaseFile reports whether two sqlite paths open the same file.
// Each :memory: connection is its own database.
func sameDatabaseFile(a, b string) bool {
	if a == ":memory:" || b == ":memory:" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
