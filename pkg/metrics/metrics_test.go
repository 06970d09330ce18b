package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

func TestInstructionProcessed(t *testing.T) {
	m := NewMetrics()
	m.SetProgramName(types.TetherProgramID, "tether")

	m.InstructionProcessed(types.TetherProgramID, 1_200, nil)
	m.InstructionProcessed(types.TetherProgramID, 900, fmt.Errorf("%w: now 5", tether.ErrNotActive))
	m.InstructionProcessed(types.SystemProgramID, 150, errors.New("boom"))

	if got := testutil.ToFloat64(m.Instructions.WithLabelValues("tether", ResultSuccess)); got != 1 {
		t.Errorf("expected 1 successful tether instruction, got %v", got)
	}
	if got := testutil.ToFloat64(m.Instructions.WithLabelValues("tether", ResultFailure)); got != 1 {
		t.Errorf("expected 1 failed tether instruction, got %v", got)
	}
	if got := testutil.ToFloat64(m.Instructions.WithLabelValues(types.SystemProgramID.String(), ResultFailure)); got != 1 {
		t.Errorf("expected unnamed programs to be labelled by address, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProgramErrors.WithLabelValues("7")); got != 1 {
		t.Errorf("expected one NotActive error, got %v", got)
	}
	if n := testutil.CollectAndCount(m.ProgramErrors); n != 1 {
		t.Errorf("untyped errors should not be counted by code, got %d series", n)
	}
}

func TestTransactionProcessed(t *testing.T) {
	m := NewMetrics()
	m.TransactionProcessed(&types.TransactionResult{Success: true}, time.Millisecond)
	m.TransactionProcessed(&types.TransactionResult{Success: true}, time.Millisecond)
	m.TransactionProcessed(&types.TransactionResult{}, time.Millisecond)

	if got := testutil.ToFloat64(m.Transactions.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.Transactions.WithLabelValues(ResultFailure)); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestExposition(t *testing.T) {
	m := NewMetrics()
	m.SetAccounts(12)

	expected := `
# HELP tether_accounts Accounts in the ledger.
# TYPE tether_accounts gauge
tether_accounts 12
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tether_accounts"); err != nil {
		t.Error(err)
	}
}

type countDB uint64

func (c countDB) GetAccountsCount() uint64 { return uint64(c) }

func TestHealthChecker(t *testing.T) {
	m := NewMetrics()
	h := NewHealthChecker()
	h.RegisterAccountsCheck(countDB(3), m)

	status := h.Check(context.Background())
	if !status.Healthy {
		t.Fatalf("expected healthy, got %+v", status)
	}
	if len(status.Checks) != 1 || status.Checks[0].Name != "accounts" {
		t.Errorf("unexpected checks: %+v", status.Checks)
	}
	if got := testutil.ToFloat64(m.Accounts); got != 3 {
		t.Errorf("expected account gauge 3, got %v", got)
	}

	h.RegisterCheck("disk", func(context.Context) error { return errors.New("full") })
	status = h.Check(context.Background())
	if status.Healthy {
		t.Error("expected unhealthy")
	}
	if status.Checks[1].Name != "disk" || status.Checks[1].Message != "full" {
		t.Errorf("unexpected checks: %+v", status.Checks)
	}
}

func TestServer(t *testing.T) {
	m := NewMetrics()
	m.TransactionProcessed(&types.TransactionResult{Success: true}, time.Millisecond)
	h := NewHealthChecker()

	server := NewServer(m, WithAddr("127.0.0.1:0"), WithHealthChecker(h))
	if err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer server.Stop(context.Background())

	if !server.IsRunning() {
		t.Error("server should be running")
	}
	if err := server.Start(); !errors.Is(err, ErrServerRunning) {
		t.Errorf("second start: got %v", err)
	}

	addr := server.Addr()
	resp, err := http.Get("http://" + addr + DefaultMetricsPath)
	if err != nil {
		t.Fatalf("failed to get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `tether_transactions_total{result="success"} 1`) {
		t.Errorf("transaction counter missing from exposition:\n%s", body)
	}

	resp, err = http.Get("http://" + addr + DefaultHealthPath)
	if err != nil {
		t.Fatalf("failed to get health: %v", err)
	}
	var status HealthStatus
	err = json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !status.Healthy {
		t.Errorf("expected healthy 200, got %d %+v", resp.StatusCode, status)
	}

	h.RegisterCheck("db", func(context.Context) error { return errors.New("closed") })
	resp, err = http.Get("http://" + addr + DefaultHealthPath)
	if err != nil {
		t.Fatalf("failed to get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	resp, err = http.Get("http://" + addr + DefaultHealthPath + "/db")
	if err != nil {
		t.Fatalf("failed to get check: %v", err)
	}
	var check Check
	err = json.NewDecoder(resp.Body).Decode(&check)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable || check.Message != "closed" {
		t.Errorf("expected failing db check, got %d %+v", resp.StatusCode, check)
	}

	resp, err = http.Get("http://" + addr + DefaultHealthPath + "/nope")
	if err != nil {
		t.Fatalf("failed to get check: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown check, got %d", resp.StatusCode)
	}

	if err := server.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if server.IsRunning() {
		t.Error("server should be stopped")
	}
}
