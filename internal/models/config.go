package models

import "time"

// Config represents the application configuration
type Config struct {
	Contract ContractSettings
	Store    StoreConfig
	Token    TokenConfig
	Formance FormanceConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
}

// ContractSettings identifies the ledger itself
type ContractSettings struct {
	// Address is the identity funds are held under and the audience of credentials
	Address Address `envconfig:"CONTRACT_ADDRESS" default:"rentacar"`
}

// StoreConfig selects and tunes the contract state backend
type StoreConfig struct {
	Backend         string        `envconfig:"STORE_BACKEND" default:"sqlite"`
	Path            string        `envconfig:"DATABASE_PATH" default:"rentacar.db"`
	BadgerDir       string        `envconfig:"BADGER_DIR" default:"rentacar-kv"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"30s"`
	PingTimeout     time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`
}

// Store backends
const (
	StoreBackendSqlite = "sqlite"
	StoreBackendBadger = "badger"
)

// Token backends
const (
	TokenBackendSqlite   = "sqlite"
	TokenBackendMemory   = "memory"
	TokenBackendFormance = "formance"
)

// TokenConfig selects the token transfer backend
type TokenConfig struct {
	Backend string `envconfig:"TOKEN_BACKEND" default:"sqlite"`
	// Path is the token subledger database, kept apart from contract state
	Path string `envconfig:"TOKEN_DATABASE_PATH" default:"tokens.db"`
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string        `envconfig:"FORMANCE_STACK_URL"`
	ClientID     string        `envconfig:"FORMANCE_CLIENT_ID"`
	ClientSecret string        `envconfig:"FORMANCE_CLIENT_SECRET"`
	LedgerName   string        `envconfig:"FORMANCE_LEDGER" default:"rent-a-car"`
	Asset        string        `envconfig:"FORMANCE_ASSET" default:"XLM/7"`
	Timeout      time.Duration `envconfig:"FORMANCE_TIMEOUT" default:"60s"`
}

// AuthConfig controls credential verification
type AuthConfig struct {
	MaxCredentialAge time.Duration `envconfig:"AUTH_MAX_CREDENTIAL_AGE" default:"15m"`
	ClockSkew        time.Duration `envconfig:"AUTH_CLOCK_SKEW" default:"30s"`
}

// MetricsConfig controls prometheus instrumentation
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"false"`
	// TextfilePath receives the registry after each command, in the
	// node_exporter textfile collector format
	TextfilePath string `envconfig:"METRICS_TEXTFILE" default:"rentacar.prom"`
}
