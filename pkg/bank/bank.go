// Package bank executes signed transactions against an account store.
//
// Transactions run one at a time. Every instruction of a transaction sees
// the effects of the ones before it, and the store is written only when
// all of them succeed.
package bank

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/Devansh-Aage/Tether/pkg/accounts"
	"github.com/Devansh-Aage/Tether/pkg/crypto"
	"github.com/Devansh-Aage/Tether/pkg/poh"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/compute_budget"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// DefaultComputeUnits is the default compute unit limit per transaction.
const DefaultComputeUnits = uint64(types.DefaultComputeUnitsPerInstruction)

// Observer is notified of every processed instruction and transaction.
type Observer interface {
	InstructionProcessed(programID types.Pubkey, computeUnits uint64, err error)
	TransactionProcessed(result *types.TransactionResult, elapsed time.Duration)
}

// Bank applies transactions to an accounts database.
type Bank struct {
	mu sync.Mutex

	db       accounts.AccountsDB
	programs *ProgramRegistry
	tetherID types.Pubkey

	rent         types.Rent
	computeUnits uint64
	clock        func() int64
	slot         uint64
	history      *poh.Recorder

	observer Observer
}

// Option configures a Bank.
type Option func(*Bank)

// WithRent sets the rent parameters programs see.
func WithRent(rent types.Rent) Option {
	return func(b *Bank) {
		b.rent = rent
	}
}

// WithComputeUnits sets the compute unit limit per transaction.
func WithComputeUnits(limit uint64) Option {
	return func(b *Bank) {
		if limit > 0 {
			b.computeUnits = limit
		}
	}
}

// WithClock sets the source of the unix timestamp programs see.
func WithClock(clock func() int64) Option {
	return func(b *Bank) {
		b.clock = clock
	}
}

// WithObserver installs an execution observer.
func WithObserver(o Observer) Option {
	return func(b *Bank) {
		b.observer = o
	}
}

// New creates a bank over db with the native programs registered and the
// tether program deployed at tetherID. Program accounts missing from db
// are created.
func New(db accounts.AccountsDB, tetherID types.Pubkey, opts ...Option) (*Bank, error) {
	b := &Bank{
		db:           db,
		programs:     NewProgramRegistry(),
		tetherID:     tetherID,
		rent:         types.DefaultRent(),
		computeUnits: DefaultComputeUnits,
		clock:        func() int64 { return time.Now().Unix() },
		history:      poh.NewRecorder(poh.GenesisHash(tetherID)),
	}
	for _, opt := range opts {
		opt(b)
	}

	RegisterNativePrograms(b.programs, tetherID)
	if err := b.genesis(); err != nil {
		return nil, err
	}
	return b, nil
}

// genesis stores an executable, loader-owned account for every registered
// program.
func (b *Bank) genesis() error {
	for _, id := range b.programs.ListPrograms() {
		if b.db.HasAccount(id) {
			continue
		}
		name, _ := b.programs.GetProgramName(id)
		account := types.NewAccountWithData(1, []byte(name), types.NativeLoaderID)
		account.Executable = true
		if err := b.db.SetAccount(id, account); err != nil {
			return fmt.Errorf("genesis %s: %w", name, err)
		}
	}
	return nil
}

// TetherProgramID returns the address the tether program is deployed at.
func (b *Bank) TetherProgramID() types.Pubkey {
	return b.tetherID
}

// Programs returns the program registry.
func (b *Bank) Programs() *ProgramRegistry {
	return b.programs
}

// Rent returns the rent parameters programs see.
func (b *Bank) Rent() types.Rent {
	return b.rent
}

// SetClock replaces the source of the unix timestamp.
func (b *Bank) SetClock(clock func() int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = clock
}

// Slot returns the number of transactions committed so far. Failed
// transactions do not advance it.
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slot
}

// RecentBlockhash returns the hash of the last committed transaction's
// entry. Before any commit it is the genesis hash.
func (b *Bank) RecentBlockhash() types.Hash {
	return b.history.Hash()
}

// RecentEntries returns the most recent entries of the ledger's hash
// chain, oldest first.
func (b *Bank) RecentEntries() []poh.Entry {
	return b.history.Recent()
}

// SignatureSlot returns the slot a recently committed transaction landed
// in. Older or failed transactions are not found.
func (b *Bank) SignatureSlot(sig types.Signature) (uint64, bool) {
	entry, ok := b.history.Find(sig)
	return entry.Slot, ok
}

// GetAccount returns the stored account at pubkey, or nil.
func (b *Bank) GetAccount(pubkey types.Pubkey) (*types.Account, error) {
	return b.db.GetAccount(pubkey)
}

// ProcessTransaction verifies and executes tx.
func (b *Bank) ProcessTransaction(tx *types.Transaction) *types.TransactionResult {
	start := time.Now()
	result := newResult(tx)
	if err := validate(tx); err != nil {
		result.Error = err
	} else if err := crypto.VerifyTransaction(tx); err != nil {
		result.Error = err
	} else {
		b.execute(tx, result)
	}
	b.observeTransaction(result, start)
	return result
}

// ProcessTransactions verifies the signatures of txs in parallel and then
// executes the valid ones in order.
func (b *Bank) ProcessTransactions(txs []*types.Transaction) []*types.TransactionResult {
	results := make([]*types.TransactionResult, len(txs))
	verified := make([]error, len(txs))
	var batch []*types.Transaction
	var index []int
	for i, tx := range txs {
		if err := validate(tx); err != nil {
			verified[i] = err
			continue
		}
		batch = append(batch, tx)
		index = append(index, i)
	}
	for j, err := range crypto.VerifyTransactionBatch(batch) {
		verified[index[j]] = err
	}

	for i, tx := range txs {
		start := time.Now()
		results[i] = newResult(tx)
		if verified[i] != nil {
			results[i].Error = verified[i]
		} else {
			b.execute(tx, results[i])
		}
		b.observeTransaction(results[i], start)
	}
	return results
}

func newResult(tx *types.Transaction) *types.TransactionResult {
	result := &types.TransactionResult{Logs: make([]string, 0)}
	if tx != nil && len(tx.Signatures) > 0 {
		result.Signature = tx.Signatures[0]
	}
	return result
}

func validate(tx *types.Transaction) error {
	if tx == nil {
		return ErrNilTransaction
	}
	if len(tx.Message.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	return nil
}

// execute runs a verified transaction and commits its writable accounts
// if every instruction succeeds.
func (b *Bank) execute(tx *types.Transaction, result *types.TransactionResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := &tx.Message
	loaded, pre, err := b.loadAccounts(msg)
	if err != nil {
		result.Error = fmt.Errorf("failed to load accounts: %w", err)
		return
	}
	byKey := make(map[types.Pubkey]*syscall.AccountInfo, len(loaded))
	for _, info := range loaded {
		if _, dup := byKey[info.Pubkey]; !dup {
			byKey[info.Pubkey] = info
		}
	}

	remaining, err := compute_budget.ComputeUnitLimit(msg, b.computeUnits)
	if err != nil {
		result.Error = err
		return
	}
	slot := b.slot + 1
	now := b.clock()

	for i := range msg.Instructions {
		inst, err := msg.Instruction(i)
		if err != nil {
			result.Error = fmt.Errorf("failed to decompile instruction %d: %w", i, err)
			return
		}

		infos := make([]*syscall.AccountInfo, len(inst.Accounts))
		for j, meta := range inst.Accounts {
			infos[j] = byKey[meta.Pubkey]
		}

		ctx := syscall.NewExecutionContext(inst.ProgramID, infos, inst.Data, remaining)
		ctx.SetProgramExecutor(b.programs)
		ctx.Slot = slot
		ctx.UnixTimestamp = now
		ctx.Rent = b.rent

		_ = ctx.AddLog(fmt.Sprintf("Program %s invoke [1]", inst.ProgramID.String()))
		ctx.BeginFrame()
		err = b.programs.ExecuteProgram(ctx)
		if err == nil {
			err = ctx.VerifyFrame()
		}

		consumed := ctx.GetComputeUnitsConsumed()
		remaining -= consumed
		result.ComputeUnits += types.ComputeUnits(consumed)
		if b.observer != nil {
			b.observer.InstructionProcessed(inst.ProgramID, consumed, err)
		}

		if err != nil {
			_ = ctx.AddLog(fmt.Sprintf("Program %s failed: %v", inst.ProgramID.String(), err))
			result.Logs = append(result.Logs, ctx.GetLogs()...)
			result.Error = &InstructionError{Index: i, ProgramID: inst.ProgramID, Err: err}
			return
		}
		_ = ctx.AddLog(fmt.Sprintf("Program %s success", inst.ProgramID.String()))
		result.Logs = append(result.Logs, ctx.GetLogs()...)
	}

	deltas, err := b.commit(msg, loaded, pre)
	if err != nil {
		result.Error = fmt.Errorf("failed to commit accounts: %w", err)
		return
	}
	result.AccountDeltas = deltas
	result.Success = true
	b.slot = slot
	b.history.Record(slot, result.Signature)
}

// loadAccounts loads every key of msg. Absent accounts are represented by
// an empty system-owned account and a nil pre-state.
func (b *Bank) loadAccounts(msg *types.Message) ([]*syscall.AccountInfo, []*types.Account, error) {
	loaded := make([]*syscall.AccountInfo, len(msg.AccountKeys))
	pre := make([]*types.Account, len(msg.AccountKeys))
	for i, pubkey := range msg.AccountKeys {
		account, err := b.db.GetAccount(pubkey)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", pubkey.String(), err)
		}
		pre[i] = account
		loaded[i] = syscall.NewAccountInfo(pubkey, account, msg.IsSigner(i), msg.IsWritable(i))
	}
	return loaded, pre, nil
}

// commit stores the writable accounts that changed. Accounts drained to
// zero lamports are kept so their address cannot be reused.
func (b *Bank) commit(msg *types.Message, loaded []*syscall.AccountInfo, pre []*types.Account) ([]types.AccountDelta, error) {
	deltas := make([]types.AccountDelta, 0)
	seen := make(map[types.Pubkey]bool, len(loaded))
	for i, info := range loaded {
		if !msg.IsWritable(i) || seen[info.Pubkey] {
			continue
		}
		seen[info.Pubkey] = true

		before := pre[i]
		if before == nil {
			before = types.NewAccount(0, types.SystemProgramID)
		}
		after := info.ToAccount()
		if accountsEqual(before, after) {
			continue
		}
		if err := b.db.SetAccount(info.Pubkey, after); err != nil {
			return nil, err
		}
		deltas = append(deltas, types.AccountDelta{
			Pubkey:     info.Pubkey,
			OldAccount: pre[i],
			NewAccount: after,
		})
	}
	return deltas, nil
}

func (b *Bank) observeTransaction(result *types.TransactionResult, start time.Time) {
	if b.observer != nil {
		b.observer.TransactionProcessed(result, time.Since(start))
	}
}

// accountsEqual checks if two accounts are equal.
func accountsEqual(a, b *types.Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}
