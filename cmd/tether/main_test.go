package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
)

type harness struct {
	dataDir string
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"tether", "--data-dir", h.dataDir}, args...))
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(args...)
	require.NoError(t, err, out)
	return out
}

func field(t *testing.T, out, label string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, label); ok {
			return strings.Fields(rest)[0]
		}
	}
	t.Fatalf("%q not found in output:\n%s", label, out)
	return ""
}

func TestStakeAndClaimRound(t *testing.T) {
	h := &harness{dataDir: t.TempDir()}

	h.mustRun(t, "keygen")
	_, err := h.run("keygen")
	assert.ErrorContains(t, err, "already exists")

	out := h.mustRun(t, "airdrop", "1000000000")
	assert.Contains(t, out, "1000000000 lamports")

	out = h.mustRun(t, "create-mint")
	mint := field(t, out, "Mint: ")

	h.mustRun(t, "mint-to", "--mint", mint, "4000000")

	out = h.mustRun(t, "--clock", "1000", "participate", "--mint", mint, "--seed", "3", "--active-time", "2000")
	assert.Contains(t, out, "Program log: Instruction: Participate")
	position := field(t, out, "Position: ")

	out = h.mustRun(t, "show", position)
	assert.Contains(t, out, "Stake:       4000000")
	assert.Contains(t, out, "Active time: 2000")

	out, err = h.run("--clock", "1999", "claim", "--mint", mint, "--seed", "3")
	assert.ErrorIs(t, err, tether.ErrNotActive, out)

	out = h.mustRun(t, "--clock", "2000", "claim", "--mint", mint, "--seed", "3", "--winner")
	assert.Contains(t, out, "Program log: Instruction: Claim")

	out = h.mustRun(t, "show", position)
	assert.Contains(t, out, "Position: closed")

	out = h.mustRun(t, "derive", "--mint", mint, "--seed", "3")
	assert.Contains(t, out, position)
	ata := field(t, out, "Token account:")
	out = h.mustRun(t, "show", ata)
	assert.Contains(t, out, "Amount: 5000000")
}

func TestSnapshotCommands(t *testing.T) {
	src := &harness{dataDir: t.TempDir()}
	src.mustRun(t, "keygen")
	src.mustRun(t, "airdrop", "5000")

	archive := filepath.Join(t.TempDir(), "ledger.tar.zst")
	out := src.mustRun(t, "snapshot", "export", archive)
	hash := field(t, out, "Archive hash:")
	accountsHash := field(t, out, "Accounts hash:")

	out = src.mustRun(t, "snapshot", "verify", "--hash", hash, archive)
	assert.Contains(t, out, "Snapshot OK")

	_, err := src.run("snapshot", "import", archive)
	assert.ErrorContains(t, err, "not empty")

	dst := &harness{dataDir: t.TempDir()}
	out = dst.mustRun(t, "snapshot", "import", "--hash", hash, archive)
	assert.Contains(t, out, accountsHash)

	owner := strings.TrimSpace(src.mustRun(t, "address"))
	out = dst.mustRun(t, "show", owner)
	assert.Contains(t, out, "Lamports:   5000")
}

func TestSimulate(t *testing.T) {
	h := &harness{dataDir: t.TempDir()}
	out := h.mustRun(t, "--backend", "memory", "simulate", "--participants", "5", "--lock", "10m")
	assert.Contains(t, out, "Participants:  5 (2 winners)")
	assert.Contains(t, out, "Staked:        15000000")
}

func TestProgramsCommand(t *testing.T) {
	h := &harness{dataDir: t.TempDir()}
	out := h.mustRun(t, "--backend", "memory", "programs")
	assert.Contains(t, out, "System Program")
	assert.Contains(t, out, "Tether Program")
}
