package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rent-a-car-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	dir := t.TempDir()
	return &models.Config{
		Contract: models.ContractSettings{Address: "rentacar"},
		Store: models.StoreConfig{
			Backend:      models.StoreBackendSqlite,
			Path:         filepath.Join(dir, "state.db"),
			BadgerDir:    filepath.Join(dir, "kv"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			PingTimeout:  time.Second,
		},
		Token: models.TokenConfig{
			Backend: models.TokenBackendSqlite,
			Path:    filepath.Join(dir, "tokens.db"),
		},
		Auth: models.AuthConfig{MaxCredentialAge: time.Minute, ClockSkew: time.Second},
		Metrics: models.MetricsConfig{
			Enabled:      true,
			TextfilePath: filepath.Join(dir, "rentacar.prom"),
		},
	}
}

func TestInitializeServices(t *testing.T) {
	for _, backend := range []string{models.StoreBackendSqlite, models.StoreBackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Store.Backend = backend

			svc, err := InitializeServices(context.Background(), cfg)
			require.NoError(t, err)
			require.NoError(t, svc.API.HealthCheck(context.Background()))

			res := svc.API.Initialize(context.Background(), "admin", "token")
			require.True(t, res.Success, res.Error)
			svc.Close()

			metrics, err := os.ReadFile(cfg.Metrics.TextfilePath)
			require.NoError(t, err)
			assert.Contains(t, string(metrics), "rentacar_ledger_operations_total")

			// state survives a reopen
			svc, err = InitializeServices(context.Background(), cfg)
			require.NoError(t, err)
			defer svc.Close()
			ledgerCfg, err := svc.Ledger.GetConfig(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.Address("admin"), ledgerCfg.Admin)
		})
	}
}

func TestInitializeServices_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.Backend = "paper"
	_, err := InitializeServices(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Store.Backend = "paper"
	_, err = InitializeServices(context.Background(), cfg)
	assert.Error(t, err)
}
