// Package config loads ledger settings from defaults, a YAML file and
// TETHER_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/bank"
	"github.com/Devansh-Aage/Tether/pkg/rpc"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "TETHER_"

// Ledger backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

var (
	ErrUnknownBackend   = errors.New("unknown ledger backend")
	ErrMissingProgramID = errors.New("program id is required")
	ErrInvalidRent      = errors.New("invalid rent parameters")
	ErrInvalidRPC       = errors.New("invalid rpc settings")
	ErrInvalidLedger    = errors.New("invalid ledger settings")
)

// Config is the full ledger configuration.
type Config struct {
	DataDir   string        `yaml:"data_dir" env:"DATA_DIR"`
	Keypair   string        `yaml:"keypair" env:"KEYPAIR"`
	ProgramID types.Pubkey  `yaml:"program_id" env:"PROGRAM_ID"`
	Ledger    LedgerConfig  `yaml:"ledger" envPrefix:"LEDGER_"`
	Rent      types.Rent    `yaml:"rent" envPrefix:"RENT_"`
	Metrics   MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	RPC       RPCConfig     `yaml:"rpc" envPrefix:"RPC_"`
}

// LedgerConfig holds execution settings.
type LedgerConfig struct {
	Backend      string `yaml:"backend" env:"BACKEND"`
	ComputeUnits uint64 `yaml:"compute_units" env:"COMPUTE_UNITS"`
	// Clock pins the unix timestamp programs see. Zero means wall time.
	Clock int64 `yaml:"clock" env:"CLOCK"`
	// CacheSize is the number of accounts kept in memory in front of the
	// badger backend. Zero disables the cache.
	CacheSize int `yaml:"cache_size" env:"CACHE_SIZE"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// RPCConfig holds JSON-RPC server settings. An empty Addr disables the
// server.
type RPCConfig struct {
	Addr           string   `yaml:"addr" env:"ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      float64  `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst      int      `yaml:"rate_burst" env:"RATE_BURST"`
}

// Default returns the default configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:   filepath.Join(home, ".tether"),
		Keypair:   filepath.Join(home, ".tether", "id.json"),
		ProgramID: types.TetherProgramID,
		Ledger: LedgerConfig{
			Backend:      BackendBadger,
			ComputeUnits: bank.DefaultComputeUnits,
			CacheSize:    accounts.DefaultCacheSize,
		},
		Rent: types.DefaultRent(),
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9090",
		},
		RPC: RPCConfig{
			AllowedOrigins: []string{"*"},
			RateBurst:      20,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the ledger cannot run with.
func (c Config) Validate() error {
	if c.Ledger.Backend != BackendMemory && c.Ledger.Backend != BackendBadger {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Ledger.Backend)
	}
	if c.ProgramID.IsZero() {
		return ErrMissingProgramID
	}
	if c.Ledger.CacheSize < 0 {
		return fmt.Errorf("%w: cache size %d", ErrInvalidLedger, c.Ledger.CacheSize)
	}
	if c.RPC.RateLimit < 0 || c.RPC.RateBurst < 0 {
		return fmt.Errorf("%w: rate limit %v, burst %d", ErrInvalidRPC, c.RPC.RateLimit, c.RPC.RateBurst)
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionThreshold <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidRent, c.Rent)
	}
	return nil
}

// Save writes c as YAML to path.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AccountsDir is where the badger backend keeps its files.
func (c Config) AccountsDir() string {
	return filepath.Join(c.DataDir, "accounts")
}

// OpenAccounts opens the configured account store.
func (c Config) OpenAccounts() (accounts.AccountsDB, error) {
	if c.Ledger.Backend == BackendMemory {
		return accounts.NewMemoryDB(), nil
	}
	if err := os.MkdirAll(c.AccountsDir(), 0o755); err != nil {
		return nil, err
	}
	db, err := accounts.NewBadgerDB(c.AccountsDir())
	if err != nil {
		return nil, err
	}
	if c.Ledger.CacheSize == 0 {
		return db, nil
	}
	cached, err := accounts.NewCachedDB(db, c.Ledger.CacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cached, nil
}

// RPCServerConfig translates the RPC settings into a server config.
func (c Config) RPCServerConfig() *rpc.ServerConfig {
	sc := rpc.DefaultServerConfig()
	sc.Address = c.RPC.Addr
	sc.AllowedOrigins = c.RPC.AllowedOrigins
	sc.RateLimit = c.RPC.RateLimit
	sc.RateBurst = c.RPC.RateBurst
	return sc
}

// BankOptions translates the execution settings into bank options.
func (c Config) BankOptions() []bank.Option {
	opts := []bank.Option{
		bank.WithRent(c.Rent),
		bank.WithComputeUnits(c.Ledger.ComputeUnits),
	}
	if c.Ledger.Clock != 0 {
		clock := c.Ledger.Clock
		opts = append(opts, bank.WithClock(func() int64 { return clock }))
	}
	return opts
}
