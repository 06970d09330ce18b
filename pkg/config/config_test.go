package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/bank"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Ledger.Backend)
	assert.Equal(t, types.TetherProgramID, cfg.ProgramID)
	assert.Equal(t, types.DefaultRent(), cfg.Rent)
	assert.Equal(t, bank.DefaultComputeUnits, cfg.Ledger.ComputeUnits)
}

func TestLoadFileThenEnv(t *testing.T) {
	program := types.Pubkey(types.SHA256([]byte("program")))
	path := filepath.Join(t.TempDir(), "tether.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/tether
program_id: `+program.String()+`
ledger:
  backend: memory
  clock: 1700000000
rent:
  lamports_per_byte_year: 10
  exemption_threshold: 1
`), 0o644))

	t.Setenv("TETHER_LEDGER_COMPUTE_UNITS", "50000")
	t.Setenv("TETHER_RENT_EXEMPTION_THRESHOLD", "3")
	t.Setenv("TETHER_METRICS_ADDR", ":9999")
	t.Setenv("TETHER_RPC_ADDR", "127.0.0.1:8899")
	t.Setenv("TETHER_RPC_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TETHER_RPC_RATE_LIMIT", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/tether", cfg.DataDir)
	assert.Equal(t, program, cfg.ProgramID)
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.Equal(t, int64(1_700_000_000), cfg.Ledger.Clock)
	assert.Equal(t, uint64(50_000), cfg.Ledger.ComputeUnits)
	assert.Equal(t, types.Rent{LamportsPerByteYear: 10, ExemptionThreshold: 3}, cfg.Rent)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.Equal(t, "/var/lib/tether/accounts", cfg.AccountsDir())

	sc := cfg.RPCServerConfig()
	assert.Equal(t, "127.0.0.1:8899", sc.Address)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, sc.AllowedOrigins)
	assert.Equal(t, 2.5, sc.RateLimit)
	assert.Equal(t, 20, sc.RateBurst)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  backend: sqlite\n"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	require.NoError(t, os.WriteFile(path, []byte("rent:\n  lamports_per_byte_year: 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidRent)

	require.NoError(t, os.WriteFile(path, []byte("rpc:\n  rate_limit: -1\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidRPC)

	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  cache_size: -5\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidLedger)

	require.NoError(t, os.WriteFile(path, []byte("ledger: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	t.Setenv("TETHER_PROGRAM_ID", "not-base58-0OIl")
	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.DataDir = t.TempDir()
	cfg.Ledger.Backend = BackendMemory
	path := filepath.Join(cfg.DataDir, "conf", "tether.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestOpenAccountsAndBank(t *testing.T) {
	cfg := Default()
	cfg.DataDir = t.TempDir()
	cfg.Ledger.Clock = 77

	db, err := cfg.OpenAccounts()
	require.NoError(t, err)
	cached, ok := db.(*accounts.CachedDB)
	require.True(t, ok)
	_, ok = cached.AccountsDB.(*accounts.BadgerDB)
	assert.True(t, ok)

	b, err := bank.New(db, cfg.ProgramID, cfg.BankOptions()...)
	require.NoError(t, err)
	assert.Equal(t, cfg.Rent, b.Rent())

	require.NoError(t, db.Close())

	cfg.Ledger.CacheSize = 0
	db, err = cfg.OpenAccounts()
	require.NoError(t, err)
	_, ok = db.(*accounts.BadgerDB)
	assert.True(t, ok)
	require.NoError(t, db.Close())

	cfg.Ledger.Backend = BackendMemory
	mem, err := cfg.OpenAccounts()
	require.NoError(t, err)
	_, ok = mem.(*accounts.MemoryDB)
	assert.True(t, ok)
}
