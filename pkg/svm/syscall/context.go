package syscall

import (
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotWritable  = errors.New("account is not writable")
	ErrAccountNotSigner    = errors.New("account is not a signer")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrComputeExhausted    = errors.New("compute units exhausted")
	ErrMaxLogsExceeded     = errors.New("maximum log entries exceeded")
	ErrLogTooLong          = errors.New("log message too long")
	ErrInvalidAccountIndex = errors.New("invalid account index")
	ErrAccountDataTooLarge = errors.New("account data too large")
	ErrNoProgramExecutor   = errors.New("no program executor registered")
)

const (
	MaxLogMessages      = 128
	MaxLogMessageLength = 10_000
	MaxInstructionData  = 1232
	MaxAccountDataSize  = 10 << 20
)

// ProgramExecutor runs the program named by ctx.ProgramID against the
// accounts and instruction data currently installed in ctx.
type ProgramExecutor interface {
	ExecuteProgram(ctx *ExecutionContext) error
}

// ExecutionContext is the state one top-level instruction runs in. Cross
// program invocations swap the program, accounts and data in place and
// restore them on return, so a context is used by one goroutine at a time.
type ExecutionContext struct {
	ProgramID       types.Pubkey
	Accounts        []*AccountInfo
	InstructionData []byte

	// Depth counts the invocations currently on the stack above the
	// top-level program.
	Depth int

	Slot          uint64
	UnixTimestamp int64
	Rent          types.Rent

	accountIndex map[types.Pubkey]int
	callers      []types.Pubkey

	budget    uint64
	remaining uint64
	logs      []string

	executor ProgramExecutor

	// pre is the current frame's accounts as they were when it started.
	pre []AccountSnapshot
}

// NewExecutionContext returns a context for programID with a budget of
// computeUnits.
func NewExecutionContext(programID types.Pubkey, accounts []*AccountInfo, instructionData []byte, computeUnits uint64) *ExecutionContext {
	ctx := &ExecutionContext{
		ProgramID:       programID,
		Accounts:        accounts,
		InstructionData: instructionData,
		Rent:            types.DefaultRent(),
		budget:          computeUnits,
		remaining:       computeUnits,
	}
	ctx.rebuildIndex()
	return ctx
}

// rebuildIndex maps each key to its first position in Accounts.
func (ctx *ExecutionContext) rebuildIndex() {
	ctx.accountIndex = make(map[types.Pubkey]int, len(ctx.Accounts))
	for i := len(ctx.Accounts) - 1; i >= 0; i-- {
		ctx.accountIndex[ctx.Accounts[i].Pubkey] = i
	}
}

func (ctx *ExecutionContext) SetProgramExecutor(executor ProgramExecutor) {
	ctx.executor = executor
}

// ConsumeComputeUnits charges units against the budget. Overdrawing
// empties the budget and fails.
func (ctx *ExecutionContext) ConsumeComputeUnits(units uint64) error {
	if units > ctx.remaining {
		ctx.remaining = 0
		return ErrComputeExhausted
	}
	ctx.remaining -= units
	return nil
}

func (ctx *ExecutionContext) GetComputeUnitsConsumed() uint64 {
	return ctx.budget - ctx.remaining
}

// AddLog appends a raw log line.
func (ctx *ExecutionContext) AddLog(message string) error {
	switch {
	case len(ctx.logs) >= MaxLogMessages:
		return ErrMaxLogsExceeded
	case len(message) > MaxLogMessageLength:
		return ErrLogTooLong
	}
	ctx.logs = append(ctx.logs, message)
	return nil
}

// Log appends a "Program log: " line. Lines over the limits are dropped.
func (ctx *ExecutionContext) Log(format string, args ...interface{}) {
	_ = ctx.AddLog("Program log: " + fmt.Sprintf(format, args...))
}

func (ctx *ExecutionContext) GetLogs() []string {
	return append([]string(nil), ctx.logs...)
}

// GetAccount returns the account for pubkey in the current frame.
func (ctx *ExecutionContext) GetAccount(pubkey types.Pubkey) (*AccountInfo, error) {
	i, ok := ctx.accountIndex[pubkey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	return ctx.Accounts[i], nil
}

func (ctx *ExecutionContext) GetAccountByIndex(index int) (*AccountInfo, error) {
	if index < 0 || index >= len(ctx.Accounts) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAccountIndex, index)
	}
	return ctx.Accounts[index], nil
}

func (ctx *ExecutionContext) AccountCount() int {
	return len(ctx.Accounts)
}

// TransferLamports moves amount from one writable account to another.
func (ctx *ExecutionContext) TransferLamports(from, to *AccountInfo, amount uint64) error {
	for _, acc := range []*AccountInfo{from, to} {
		if !acc.IsWritable {
			return fmt.Errorf("%w: %s", ErrAccountNotWritable, acc.Pubkey)
		}
	}
	if *from.Lamports < amount {
		return ErrInsufficientFunds
	}
	if from != to {
		*from.Lamports -= amount
		*to.Lamports += amount
	}
	return nil
}

// ResizeAccountData truncates or zero-extends acc's data to newSize.
func (ctx *ExecutionContext) ResizeAccountData(acc *AccountInfo, newSize int) error {
	if !acc.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, acc.Pubkey)
	}
	if newSize < 0 || newSize > MaxAccountDataSize {
		return fmt.Errorf("%w: %d exceeds maximum %d", ErrAccountDataTooLarge, newSize, MaxAccountDataSize)
	}
	if newSize <= len(acc.Data) {
		acc.Data = acc.Data[:newSize:newSize]
		return nil
	}
	acc.Data = append(acc.Data, make([]byte, newSize-len(acc.Data))...)
	return nil
}

// MinimumBalance is the rent-exempt balance for space bytes.
func (ctx *ExecutionContext) MinimumBalance(space uint64) uint64 {
	return uint64(ctx.Rent.MinimumBalance(space))
}

func (ctx *ExecutionContext) PushCaller(programID types.Pubkey) {
	ctx.callers = append(ctx.callers, programID)
	ctx.Depth++
}

func (ctx *ExecutionContext) PopCaller() (types.Pubkey, bool) {
	n := len(ctx.callers)
	if n == 0 {
		return types.ZeroPubkey, false
	}
	caller := ctx.callers[n-1]
	ctx.callers = ctx.callers[:n-1]
	ctx.Depth--
	return caller, true
}

// IsCalledBy reports whether programID is anywhere on the caller stack.
func (ctx *ExecutionContext) IsCalledBy(programID types.Pubkey) bool {
	for _, caller := range ctx.callers {
		if caller == programID {
			return true
		}
	}
	return false
}
