package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rent-a-car-go/internal/api"
	"rent-a-car-go/internal/auth"
	"rent-a-car-go/internal/database"
	"rent-a-car-go/internal/formance"
	"rent-a-car-go/internal/kvstore"
	"rent-a-car-go/internal/ledger"
	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/store"
	"rent-a-car-go/internal/token"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Services struct {
	Store    store.LedgerStore
	Tokens   token.Provider
	Ledger   *ledger.RentalLedger
	API      *api.LedgerService
	Registry *prometheus.Registry

	metrics models.MetricsConfig
	closers []func()
}

func InitializeLogger(debug bool) (*zap.Logger, func()) {
	zapConfig := zap.NewProductionConfig()
	if debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the configured state store and token backend and
// wires the ledger over them
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	s := &Services{metrics: cfg.Metrics}
	if cfg.Metrics.Enabled {
		s.Registry = prometheus.NewRegistry()
	}

	st, err := openStore(ctx, cfg.Store, s.Registry)
	if err != nil {
		return nil, err
	}
	s.Store = st
	s.closers = append(s.closers, st.Close)

	tokens, err := s.openTokens(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Tokens = tokens

	verifier := auth.NewJWTVerifier(cfg.Contract.Address, cfg.Auth)
	var opts []ledger.Option
	if s.Registry != nil {
		opts = append(opts, ledger.WithPromRegistry(s.Registry))
	}
	s.Ledger = ledger.New(st, verifier, tokens, cfg.Contract.Address, opts...)
	s.API = api.NewLedgerService(s.Ledger)

	zap.L().Info("Services initialized",
		zap.String("contract", cfg.Contract.Address.String()),
		zap.String("store", cfg.Store.Backend),
		zap.String("token", cfg.Token.Backend))
	return s, nil
}

func openStore(ctx context.Context, cfg models.StoreConfig, registry *prometheus.Registry) (store.LedgerStore, error) {
	switch cfg.Backend {
	case models.StoreBackendSqlite:
		return database.NewService(ctx, cfg)
	case models.StoreBackendBadger:
		opts := []kvstore.OptionFunc{kvstore.WithDataDir(cfg.BadgerDir)}
		if registry != nil {
			opts = append(opts, kvstore.WithPromRegistry(registry))
		}
		return kvstore.New(opts...)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func (s *Services) openTokens(ctx context.Context, cfg *models.Config) (token.Provider, error) {
	switch cfg.Token.Backend {
	case models.TokenBackendSqlite:
		// same pool tuning as the state store, separate file
		tokenCfg := cfg.Store
		tokenCfg.Path = cfg.Token.Path
		tokens, err := database.NewTokenLedger(ctx, tokenCfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, tokens.Close)
		return tokens, nil
	case models.TokenBackendMemory:
		zap.L().Warn("Using the in-memory token backend, balances are lost on exit")
		return token.NewMemoryLedger(), nil
	case models.TokenBackendFormance:
		return formance.NewService(ctx, cfg.Formance)
	}
	return nil, fmt.Errorf("unknown token backend %q", cfg.Token.Backend)
}

// Close flushes metrics and releases backends in reverse order of opening
func (s *Services) Close() {
	if s.Registry != nil && s.metrics.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(s.metrics.TextfilePath, s.Registry); err != nil {
			zap.L().Warn("Failed to write metrics", zap.String("path", s.metrics.TextfilePath), zap.Error(err))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
